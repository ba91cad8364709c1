package domain

import (
	"time"
)

type ConnectorStatus string

const (
	ConnectorStatusAvailable     ConnectorStatus = "Available"
	ConnectorStatusPreparing     ConnectorStatus = "Preparing"
	ConnectorStatusCharging      ConnectorStatus = "Charging"
	ConnectorStatusSuspendedEVSE ConnectorStatus = "SuspendedEVSE"
	ConnectorStatusSuspendedEV   ConnectorStatus = "SuspendedEV"
	ConnectorStatusFinishing     ConnectorStatus = "Finishing"
	ConnectorStatusReserved      ConnectorStatus = "Reserved"
	ConnectorStatusUnavailable   ConnectorStatus = "Unavailable"
	ConnectorStatusFaulted       ConnectorStatus = "Faulted"
)

// Connector is one addressable charging point of a charger. At most one
// active transaction may reference a connector at a time.
type Connector struct {
	ConnectorID int             `json:"connector_id"`
	Status      ConnectorStatus `json:"status"`
	ErrorCode   string          `json:"error_code"`
	Info        string          `json:"info"`
}

// ChargerSnapshot is an immutable copy of a charger's state, refreshed by
// the tick loop after every mutation. Readers get eventual consistency.
type ChargerSnapshot struct {
	ChargerID            string          `json:"charger_id"`
	Status               ConnectorStatus `json:"status"` // device-level; Faulted during a fault window
	Running              bool            `json:"running"`
	VirtualTime          time.Time       `json:"virtual_time"`
	FaultActive          bool            `json:"fault_active"`
	Connectors           []Connector     `json:"connectors"`
	ActiveTransactions   []Transaction   `json:"active_transactions"`
	TotalEnergyDelivered float64         `json:"total_energy_delivered"` // kWh
	TickInterval         time.Duration   `json:"tick_interval"`
}
