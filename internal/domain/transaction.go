package domain

import (
	"time"
)

type TransactionStatus string

const (
	TransactionStatusActive    TransactionStatus = "Active"
	TransactionStatusStopped   TransactionStatus = "Stopped"
	TransactionStatusCompleted TransactionStatus = "Completed"
)

// Transaction is one modeled charging session bound to a single connector.
// It is owned by the charger emulator that created it and never shared.
type Transaction struct {
	ID              string            `json:"id"`
	ConnectorID     int               `json:"connector_id"`
	IDTag           string            `json:"id_tag"` // RFID or other auth token
	StartTime       time.Time         `json:"start_time"`
	StopTime        *time.Time        `json:"stop_time,omitempty"`
	MeterStart      float64           `json:"meter_start"` // kWh
	MeterStop       *float64          `json:"meter_stop,omitempty"`
	Status          TransactionStatus `json:"status"`
	EnergyDelivered float64           `json:"energy_delivered"` // kWh, monotonic while Active
	CurrentPower    float64           `json:"current_power"`    // W, recomputed each tick
	StopReason      string            `json:"stop_reason,omitempty"`
}
