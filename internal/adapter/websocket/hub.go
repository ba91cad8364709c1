// Package websocket streams live emulator telemetry to connected dashboard
// and debugging clients.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
)

// Hub fans telemetry payloads out to every connected websocket client.
// It doubles as a DataSink so it can be wired directly into an emulator's
// sink chain; slow clients are disconnected rather than allowed to apply
// backpressure to the simulation.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound telemetry frames.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu  sync.RWMutex
	log *zap.Logger
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Emit implements ports.DataSink. The frame is dropped when the broadcast
// buffer is full so the tick loops never block on slow consumers.
func (h *Hub) Emit(payload domain.Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal websocket frame",
			zap.String("type", payload.PayloadType()),
			zap.Error(err),
		)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Debug("websocket broadcast buffer full, frame dropped",
			zap.String("type", payload.PayloadType()),
		)
	}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	client.hub.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Clients only push control frames; the read loop exists to detect
		// disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Drain any frames queued behind this one into the same write.
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
