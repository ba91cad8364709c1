package telemetry

import (
	"github.com/seu-repo/sigec-emu/internal/domain"
)

// MetricsSink is a DataSink that updates Prometheus metrics from the
// telemetry stream instead of forwarding it anywhere. It is normally
// composed with the transport sinks via ports.MultiSink.
type MetricsSink struct{}

func (MetricsSink) Emit(payload domain.Payload) {
	PayloadsTotal.WithLabelValues(payload.DeviceID(), payload.PayloadType()).Inc()

	switch p := payload.(type) {
	case domain.ChargerPeriodicData:
		TicksTotal.WithLabelValues(p.ChargerID).Inc()
		EnergyDelivered.WithLabelValues(p.ChargerID).Set(p.TotalEnergyDelivered)

		faulted := false
		for _, c := range p.Connectors {
			if c.Status == domain.ConnectorStatusFaulted {
				faulted = true
				break
			}
		}
		if faulted {
			FaultActive.WithLabelValues(p.ChargerID).Set(1)
		} else {
			FaultActive.WithLabelValues(p.ChargerID).Set(0)
		}
	case domain.TransactionStarted:
		ActiveChargingSessions.Inc()
	case domain.TransactionStopped:
		ActiveChargingSessions.Dec()
	case domain.InverterReading:
		TicksTotal.WithLabelValues(p.InverterID).Inc()
		EnergyDelivered.WithLabelValues(p.InverterID).Set(p.Inverter.DailyEnergy)
		if p.Inverter.FaultCode != 0 {
			FaultActive.WithLabelValues(p.InverterID).Set(1)
		} else {
			FaultActive.WithLabelValues(p.InverterID).Set(0)
		}
	}
}
