package domain

import (
	"time"
)

// Payload is a structured telemetry message produced by an emulator, either
// once per tick or on a discrete event. Field names follow the platform's
// message conventions; exact wire framing is an adapter concern.
type Payload interface {
	// PayloadType returns the messageType discriminator.
	PayloadType() string
	// DeviceID returns the emitting device's identifier.
	DeviceID() string
}

const (
	PayloadBootNotification    = "BootNotification"
	PayloadStatusNotification  = "StatusNotification"
	PayloadChargerPeriodicData = "ChargerPeriodicData"
	PayloadTransactionStarted  = "TransactionStarted"
	PayloadMeterValues         = "MeterValues"
	PayloadTransactionStopped  = "TransactionStopped"
	PayloadInverterReading     = "InverterReading"
	PayloadGridPowerPeriodic   = "GridPowerPeriodic"
)

type BootNotification struct {
	MessageType     string    `json:"messageType"`
	ChargerID       string    `json:"chargerId"`
	Model           string    `json:"chargePointModel"`
	Vendor          string    `json:"chargePointVendor"`
	SerialNumber    string    `json:"chargePointSerialNumber"`
	FirmwareVersion string    `json:"firmwareVersion"`
	Timestamp       time.Time `json:"timestamp"`
}

func (p BootNotification) PayloadType() string { return PayloadBootNotification }
func (p BootNotification) DeviceID() string    { return p.ChargerID }

type StatusNotification struct {
	MessageType string          `json:"messageType"`
	ChargerID   string          `json:"chargerId"`
	ConnectorID int             `json:"connectorId"`
	Status      ConnectorStatus `json:"status"`
	ErrorCode   string          `json:"errorCode"`
	Info        string          `json:"info"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (p StatusNotification) PayloadType() string { return PayloadStatusNotification }
func (p StatusNotification) DeviceID() string    { return p.ChargerID }

type ConnectorReport struct {
	ConnectorID int             `json:"connectorId"`
	Status      ConnectorStatus `json:"status"`
	ErrorCode   string          `json:"errorCode"`
	Info        string          `json:"info"`
}

type ChargerPeriodicData struct {
	MessageType          string            `json:"messageType"`
	ChargerID            string            `json:"chargerId"`
	Status               ConnectorStatus   `json:"status"` // device-level; Faulted during a fault window
	Timestamp            time.Time         `json:"timestamp"`
	Connectors           []ConnectorReport `json:"connectors"`
	ActiveTransactions   int               `json:"activeTransactions"`
	TotalEnergyDelivered float64           `json:"totalEnergyDelivered"` // kWh
}

func (p ChargerPeriodicData) PayloadType() string { return PayloadChargerPeriodicData }
func (p ChargerPeriodicData) DeviceID() string    { return p.ChargerID }

type TransactionStarted struct {
	MessageType   string    `json:"messageType"`
	ChargerID     string    `json:"chargerId"`
	TransactionID string    `json:"transactionId"`
	ConnectorID   int       `json:"connectorId"`
	IDTag         string    `json:"idTag"`
	MeterStart    float64   `json:"meterStart"`
	Timestamp     time.Time `json:"timestamp"`
}

func (p TransactionStarted) PayloadType() string { return PayloadTransactionStarted }
func (p TransactionStarted) DeviceID() string    { return p.ChargerID }

// MeterValues carries one metering sample for an active transaction.
// Energy is rounded to 3 decimals, power to 1, current to 2.
type MeterValues struct {
	MessageType   string    `json:"messageType"`
	ChargerID     string    `json:"chargerId"`
	TransactionID string    `json:"transactionId"`
	ConnectorID   int       `json:"connectorId"`
	EnergyKWh     float64   `json:"energy"`
	PowerW        float64   `json:"power"`
	CurrentA      float64   `json:"current"`
	VoltageV      float64   `json:"voltage"`
	Timestamp     time.Time `json:"timestamp"`
}

func (p MeterValues) PayloadType() string { return PayloadMeterValues }
func (p MeterValues) DeviceID() string    { return p.ChargerID }

type TransactionStopped struct {
	MessageType     string    `json:"messageType"`
	ChargerID       string    `json:"chargerId"`
	TransactionID   string    `json:"transactionId"`
	ConnectorID     int       `json:"connectorId"`
	MeterStop       float64   `json:"meterStop"`
	Reason          string    `json:"reason"`
	EnergyDelivered float64   `json:"energyDelivered"`
	Timestamp       time.Time `json:"timestamp"`
}

func (p TransactionStopped) PayloadType() string { return PayloadTransactionStopped }
func (p TransactionStopped) DeviceID() string    { return p.ChargerID }

// InverterElectrical holds the per-tick electrical quantities of an
// inverter. All output fields are forced to zero during a fault window.
type InverterElectrical struct {
	GridStatus              int        `json:"gridStatus"`
	PVStatus                int        `json:"pvStatus"` // 1 during daylight
	InverterOn              int        `json:"inverterOn"`
	GridVoltages            [3]float64 `json:"gridVoltages"`
	GridCurrents            [3]float64 `json:"gridCurrents"`
	GridFrequencies         [3]float64 `json:"gridFrequencies"`
	GridPower               float64    `json:"gridPower"`     // W
	ReactivePower           float64    `json:"reactivePower"` // VAr
	SolarPower              float64    `json:"solarPower"`    // W
	DCLinkVoltage           float64    `json:"dcLinkVoltage"`
	ResidualCurrent         float64    `json:"residualCurrent"`
	VDCPositive             float64    `json:"vdcp"`
	VDCNegative             float64    `json:"vdcn"`
	LoadCurrent             float64    `json:"loadCurrent"`
	HeatSinkTemperature     float64    `json:"heatSinkTemperature"`
	GridInductorTemperature float64    `json:"gridInductorTemperature"`
	PVInductorTemperature   float64    `json:"pvInductorTemperature"`
	InsulationResistanceN   float64    `json:"rIsoN"`
	InsulationResistanceP   float64    `json:"rIsoP"`
	FaultCode               int        `json:"faultCode"`
	PVVoltages              []float64  `json:"vpv"`
	PVCurrents              []float64  `json:"ipv"`
	DailyEnergy             float64    `json:"dailyEnergy"`   // kWh
	MonthlyEnergy           float64    `json:"monthlyEnergy"` // kWh
	YearlyEnergy            float64    `json:"yearlyEnergy"`  // kWh
}

type InverterReading struct {
	MessageType            string             `json:"messageType"`
	InverterID             string             `json:"inverterId"`
	Timestamp              time.Time          `json:"timestamp"`
	CANComm                int                `json:"canComm"`
	ElapsedEmulationTimeMs int64              `json:"elapsedEmulationTimeMs"`
	Inverter               InverterElectrical `json:"inverterData"`
}

func (p InverterReading) PayloadType() string { return PayloadInverterReading }
func (p InverterReading) DeviceID() string    { return p.InverterID }

// GridPowerPeriodic is the batch payload of the alternate reporting mode:
// the full day curve of grid power in kW, one slot per 5 virtual minutes.
type GridPowerPeriodic struct {
	MessageType string    `json:"messageType"`
	InverterID  string    `json:"inverterId"`
	GridPowerKW []float64 `json:"gridPower"` // always GridPowerSlots long
	Timestamp   time.Time `json:"timestamp"`
}

func (p GridPowerPeriodic) PayloadType() string { return PayloadGridPowerPeriodic }
func (p GridPowerPeriodic) DeviceID() string    { return p.InverterID }
