package queue

import (
	"encoding/json"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
)

// TelemetryPublisher is a DataSink that serializes payloads to JSON and
// publishes them on "<prefix>.<deviceID>". A circuit breaker shields the
// emulators from a failing broker: while the breaker is open, payloads are
// dropped with a log entry instead of stalling the tick loops. Publish
// errors never propagate back into the simulation.
type TelemetryPublisher struct {
	mq      MessageQueue
	breaker *gobreaker.CircuitBreaker
	prefix  string
	log     *zap.Logger
}

func NewTelemetryPublisher(mq MessageQueue, prefix string, log *zap.Logger) *TelemetryPublisher {
	if prefix == "" {
		prefix = "telemetry"
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telemetry-publisher",
		MaxRequests: 3,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("publisher circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &TelemetryPublisher{
		mq:      mq,
		breaker: breaker,
		prefix:  prefix,
		log:     log,
	}
}

func (p *TelemetryPublisher) Emit(payload domain.Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("marshal telemetry payload",
			zap.String("type", payload.PayloadType()),
			zap.Error(err),
		)
		return
	}

	subject := p.prefix + "." + payload.DeviceID()
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.mq.Publish(subject, data)
	})
	if err != nil {
		p.log.Warn("dropping telemetry payload",
			zap.String("subject", subject),
			zap.String("type", payload.PayloadType()),
			zap.Error(err),
		)
	}
}
