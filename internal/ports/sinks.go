package ports

import (
	"time"

	"github.com/seu-repo/sigec-emu/internal/domain"
)

// DataSink receives every telemetry payload an emulator produces. Emit is
// called synchronously from the emulator's tick goroutine; implementations
// that talk to slow transports should hand off internally rather than
// block the simulation clock.
type DataSink interface {
	Emit(payload domain.Payload)
}

// DataSinkFunc adapts a function to the DataSink interface.
type DataSinkFunc func(payload domain.Payload)

func (f DataSinkFunc) Emit(payload domain.Payload) { f(payload) }

// MultiSink fans one payload out to several sinks in order.
type MultiSink []DataSink

func (m MultiSink) Emit(payload domain.Payload) {
	for _, s := range m {
		s.Emit(payload)
	}
}

// StatusListener is notified on every connector status transition.
type StatusListener func(connectorID int, status domain.ConnectorStatus)

// Emulator is the lifecycle contract shared by all emulated devices.
type Emulator interface {
	ID() string
	Kind() string
	// Start launches the tick goroutine. The boot/announce payload (if the
	// device has one) is emitted synchronously before Start returns.
	Start()
	// Stop signals the tick goroutine and joins it with a bounded timeout.
	Stop() error
	// SetTickInterval changes only the wall-clock pacing of future ticks.
	// Non-positive intervals are rejected with a logged warning.
	SetTickInterval(d time.Duration)
}
