// Package queue provides message-broker adapters that carry emulator
// telemetry to the backend under test, behind a common interface so the
// broker can be swapped by configuration.
package queue

// MessageQueue is the transport contract shared by the NATS and RabbitMQ
// adapters. Subjects map to NATS subjects or RabbitMQ fanout exchanges.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
