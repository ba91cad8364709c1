package domain

import (
	"time"
)

// InverterMode selects the telemetry shape an inverter emulator produces.
type InverterMode string

const (
	// ModeInverter emits one full electrical payload per tick.
	ModeInverter InverterMode = "inverter"
	// ModeGridPower emits the 288-slot day curve every 5 virtual minutes.
	ModeGridPower InverterMode = "gridPower"
)

// GridPowerSlots is the number of 5-minute buckets covering one virtual day.
const GridPowerSlots = 288

type EnergyCounters struct {
	Daily   float64 `json:"daily"`   // kWh, reset at virtual midnight
	Monthly float64 `json:"monthly"` // kWh, reset on the 1st
	Yearly  float64 `json:"yearly"`  // kWh, reset on Jan 1
}

type InverterSnapshot struct {
	InverterID   string         `json:"inverter_id"`
	Running      bool           `json:"running"`
	VirtualTime  time.Time      `json:"virtual_time"`
	FaultActive  bool           `json:"fault_active"`
	Mode         InverterMode   `json:"mode"`
	Energy       EnergyCounters `json:"energy_counters"`
	TickInterval time.Duration  `json:"tick_interval"`
}
