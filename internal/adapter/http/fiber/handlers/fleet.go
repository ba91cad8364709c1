package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/fleet"
)

// FleetHandler exposes the emulator fleet over REST: device listing and
// status, transaction control and tick-interval tuning.
type FleetHandler struct {
	manager *fleet.Manager
	log     *zap.Logger
}

func NewFleetHandler(manager *fleet.Manager, log *zap.Logger) *FleetHandler {
	return &FleetHandler{
		manager: manager,
		log:     log,
	}
}

func (h *FleetHandler) Register(router fiber.Router) {
	router.Get("/devices", h.List)
	router.Get("/devices/:id", h.Get)
	router.Post("/devices/:id/start", h.StartDevice)
	router.Post("/devices/:id/stop", h.StopDevice)
	router.Patch("/devices/:id/tick-interval", h.SetTickInterval)
	router.Post("/devices/:id/transactions", h.StartTransaction)
	router.Post("/devices/:id/transactions/:txId/stop", h.StopTransaction)
}

func (h *FleetHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.manager.List())
}

func (h *FleetHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	if snap, err := h.manager.ChargerStatus(id); err == nil {
		return c.JSON(snap)
	} else if !errors.Is(err, domain.ErrNotACharger) {
		return mapDomainError(c, err)
	}

	snap, err := h.manager.InverterStatus(id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(snap)
}

func (h *FleetHandler) StartDevice(c *fiber.Ctx) error {
	if err := h.manager.StartDevice(c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *FleetHandler) StopDevice(c *fiber.Ctx) error {
	if err := h.manager.StopDevice(c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *FleetHandler) SetTickInterval(c *fiber.Ctx) error {
	var req struct {
		Interval string `json:"interval"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	d, err := time.ParseDuration(req.Interval)
	if err != nil || d <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "interval must be a positive duration, e.g. \"500ms\""})
	}

	if err := h.manager.SetTickInterval(c.Params("id"), d); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *FleetHandler) StartTransaction(c *fiber.Ctx) error {
	var req struct {
		ConnectorID int     `json:"connectorId"`
		IDTag       string  `json:"idTag"`
		MeterStart  float64 `json:"meterStart"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	txID, err := h.manager.StartTransaction(c.Params("id"), req.ConnectorID, req.IDTag, req.MeterStart)
	if err != nil {
		return mapDomainError(c, err)
	}

	h.log.Info("transaction started via API",
		zap.String("device_id", c.Params("id")),
		zap.String("transaction_id", txID),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transactionId": txID})
}

func (h *FleetHandler) StopTransaction(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional; an empty reason defaults downstream.
	_ = c.BodyParser(&req)

	if err := h.manager.StopTransaction(c.Params("id"), c.Params("txId"), req.Reason); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// mapDomainError translates domain sentinels into HTTP status codes.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownDevice),
		errors.Is(err, domain.ErrUnknownConnector),
		errors.Is(err, domain.ErrUnknownTransaction):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrConnectorBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotACharger):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
