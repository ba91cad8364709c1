package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_emu_ticks_total",
		Help: "Total de ticks de simulação executados",
	}, []string{"device"})

	PayloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_emu_payloads_total",
		Help: "Total de payloads de telemetria emitidos",
	}, []string{"device", "type"})

	ActiveChargingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigec_emu_active_charging_sessions",
		Help: "Número de sessões de carregamento ativas",
	})

	EnergyDelivered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sigec_emu_energy_delivered_kwh",
		Help: "Energia total entregue por dispositivo em kWh",
	}, []string{"device"})

	FaultActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sigec_emu_fault_active",
		Help: "1 quando o dispositivo está em janela de falha",
	}, []string{"device"})
)
