package emulator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/ports"
)

// chargingVoltage is the fixed phase voltage used to derive current from
// power in meter samples.
const chargingVoltage = 230.0

// ChargerConfig is fixed at construction except for the tick interval,
// which only controls wall-clock pacing.
type ChargerConfig struct {
	ChargerID       string
	Model           string
	Vendor          string
	SerialNumber    string
	FirmwareVersion string
	Connectors      int
	MaxPowerW       float64
	TickInterval    time.Duration
	StartTime       time.Time
	// PreparationDelay and FinishingDelay are virtual durations between
	// Preparing→Charging and Finishing→Available.
	PreparationDelay time.Duration
	FinishingDelay   time.Duration
	Fault            FaultConfig
	Seed             int64
}

func (c ChargerConfig) withDefaults() ChargerConfig {
	if c.ChargerID == "" {
		c.ChargerID = "CHG001"
	}
	if c.Model == "" {
		c.Model = "AC_22kW"
	}
	if c.Vendor == "" {
		c.Vendor = "TestVendor"
	}
	if c.FirmwareVersion == "" {
		c.FirmwareVersion = "1.0.0"
	}
	if c.SerialNumber == "" {
		c.SerialNumber = fmt.Sprintf("SN_%s_%s", c.ChargerID, uuid.NewString()[:8])
	}
	if c.Connectors <= 0 {
		c.Connectors = 2
	}
	if c.MaxPowerW <= 0 {
		c.MaxPowerW = 22000
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.StartTime.IsZero() {
		c.StartTime = time.Now().UTC()
	}
	if c.PreparationDelay <= 0 {
		c.PreparationDelay = TickQuantum
	}
	if c.FinishingDelay <= 0 {
		c.FinishingDelay = TickQuantum
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// connectorEvent drives the connector state machine.
type connectorEvent int

const (
	eventStartRequested connectorEvent = iota
	eventChargingStarted
	eventStopRequested
	eventSessionFinished
)

// connectorTransitions is the explicit state table: current status and
// event determine the next status; anything absent is an illegal move.
var connectorTransitions = map[domain.ConnectorStatus]map[connectorEvent]domain.ConnectorStatus{
	domain.ConnectorStatusAvailable: {
		eventStartRequested: domain.ConnectorStatusPreparing,
	},
	domain.ConnectorStatusPreparing: {
		eventChargingStarted: domain.ConnectorStatusCharging,
		eventStopRequested:   domain.ConnectorStatusFinishing,
	},
	domain.ConnectorStatusCharging: {
		eventStopRequested: domain.ConnectorStatusFinishing,
	},
	domain.ConnectorStatusFinishing: {
		eventSessionFinished: domain.ConnectorStatusAvailable,
	},
}

// Charger emulates one EV charger: a connector state machine, transaction
// lifecycle and a deterministic charging-power curve, all driven by a
// single tick goroutine.
type Charger struct {
	cfg  ChargerConfig
	log  *zap.Logger
	sink ports.DataSink

	loop   *loop
	clock  *VirtualClock
	timers *timerQueue
	faults *faultScheduler

	onStatusChange ports.StatusListener

	connectors      map[int]*domain.Connector
	transactions    map[string]*domain.Transaction
	connectorEnergy map[int]float64 // kWh delivered per connector

	snapMu sync.RWMutex
	snap   domain.ChargerSnapshot
}

func NewCharger(cfg ChargerConfig, sink ports.DataSink, log *zap.Logger) *Charger {
	cfg = cfg.withDefaults()
	log = log.With(zap.String("charger_id", cfg.ChargerID))
	rng := rand.New(rand.NewSource(cfg.Seed))

	c := &Charger{
		cfg:             cfg,
		log:             log,
		sink:            sink,
		loop:            newLoop(cfg.TickInterval, log),
		clock:           NewVirtualClock(cfg.StartTime),
		timers:          newTimerQueue(),
		faults:          newFaultScheduler(cfg.Fault, rng, cfg.StartTime, log),
		connectors:      make(map[int]*domain.Connector, cfg.Connectors),
		transactions:    make(map[string]*domain.Transaction),
		connectorEnergy: make(map[int]float64, cfg.Connectors),
	}

	for i := 1; i <= cfg.Connectors; i++ {
		c.connectors[i] = &domain.Connector{
			ConnectorID: i,
			Status:      domain.ConnectorStatusAvailable,
			ErrorCode:   "NoError",
		}
	}

	c.refreshSnapshot()
	return c
}

// OnStatusChange registers a listener for connector status transitions.
// Must be called before Start.
func (c *Charger) OnStatusChange(fn ports.StatusListener) { c.onStatusChange = fn }

func (c *Charger) ID() string   { return c.cfg.ChargerID }
func (c *Charger) Kind() string { return "charger" }

// Start launches the tick loop and emits the boot announcement
// synchronously before the first tick runs. The loop sleeps one interval
// before ticking, so the boot payload always precedes periodic telemetry.
// Only the call that actually starts the loop emits it.
func (c *Charger) Start() {
	if !c.loop.start(c.tick) {
		return
	}
	c.sink.Emit(domain.BootNotification{
		MessageType:     domain.PayloadBootNotification,
		ChargerID:       c.cfg.ChargerID,
		Model:           c.cfg.Model,
		Vendor:          c.cfg.Vendor,
		SerialNumber:    c.cfg.SerialNumber,
		FirmwareVersion: c.cfg.FirmwareVersion,
		Timestamp:       c.clock.Now(),
	})
	c.loop.do(c.refreshSnapshot)
	c.log.Info("charger emulator started",
		zap.Duration("tick_interval", c.cfg.TickInterval),
		zap.Int("connectors", c.cfg.Connectors),
	)
}

func (c *Charger) Stop() error {
	if err := c.loop.stop(); err != nil {
		c.log.Error("charger emulator stop", zap.Error(err))
		return err
	}
	c.refreshSnapshot()
	c.log.Info("charger emulator stopped")
	return nil
}

// SetTickInterval changes the wall-clock pacing of future ticks. The
// virtual-time quantum per tick is fixed, so speeding up the emulator
// never distorts the simulated physics.
func (c *Charger) SetTickInterval(d time.Duration) {
	if d <= 0 {
		c.log.Warn("ignoring non-positive tick interval", zap.Duration("interval", d))
		return
	}
	c.loop.do(func() {
		c.loop.setInterval(d)
		c.refreshSnapshot()
	})
	c.log.Info("tick interval updated", zap.Duration("interval", d))
}

// StartTransaction begins a charging session on an Available connector.
// The call is marshaled into the tick goroutine; on success the connector
// moves to Preparing and charging begins after the preparation delay.
func (c *Charger) StartTransaction(connectorID int, idTag string, meterStart float64) (string, error) {
	var (
		txID string
		err  error
	)
	c.loop.do(func() {
		txID, err = c.startTransaction(connectorID, idTag, meterStart)
	})
	return txID, err
}

// StopTransaction ends an active session: the meter-stop value is fixed
// at that instant and the connector moves to Finishing.
func (c *Charger) StopTransaction(transactionID, reason string) error {
	var err error
	c.loop.do(func() {
		err = c.stopTransaction(transactionID, reason)
	})
	return err
}

// Status returns the most recent state snapshot. Snapshots are refreshed
// by the tick loop, so readers observe eventual consistency rather than
// linearizability of fields that change every tick.
func (c *Charger) Status() domain.ChargerSnapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Transaction returns a copy of the transaction with the given id.
func (c *Charger) Transaction(id string) (domain.Transaction, bool) {
	var (
		tx domain.Transaction
		ok bool
	)
	c.loop.do(func() {
		if t, found := c.transactions[id]; found {
			tx, ok = *t, true
		}
	})
	return tx, ok
}

// Step runs n simulation ticks synchronously, for deterministic tests and
// offline scenario replays. Must not be called while the loop is running.
func (c *Charger) Step(n int) {
	for i := 0; i < n; i++ {
		c.tick()
	}
}

// tick performs one simulation step: advance virtual time, fire due
// scheduled events, update the fault window, integrate charging physics,
// then emit periodic telemetry.
func (c *Charger) tick() {
	now := c.clock.Advance()
	c.timers.Fire(now)
	c.faults.Update(now)
	c.updateTransactions(now)
	c.emitPeriodicData(now)
	c.emitMeterValues(now)
	c.refreshSnapshot()
}

func (c *Charger) startTransaction(connectorID int, idTag string, meterStart float64) (string, error) {
	conn, ok := c.connectors[connectorID]
	if !ok {
		return "", fmt.Errorf("connector %d: %w", connectorID, domain.ErrUnknownConnector)
	}
	if conn.Status != domain.ConnectorStatusAvailable {
		return "", fmt.Errorf("connector %d is %s: %w", connectorID, conn.Status, domain.ErrConnectorBusy)
	}

	now := c.clock.Now()
	txID := uuid.NewString()

	c.transition(conn, eventStartRequested, now)

	c.transactions[txID] = &domain.Transaction{
		ID:          txID,
		ConnectorID: connectorID,
		IDTag:       idTag,
		StartTime:   now,
		MeterStart:  meterStart,
		Status:      domain.TransactionStatusActive,
	}

	c.timers.Schedule(now.Add(c.cfg.PreparationDelay), func() {
		c.beginCharging(txID)
	})

	c.sink.Emit(domain.TransactionStarted{
		MessageType:   domain.PayloadTransactionStarted,
		ChargerID:     c.cfg.ChargerID,
		TransactionID: txID,
		ConnectorID:   connectorID,
		IDTag:         idTag,
		MeterStart:    meterStart,
		Timestamp:     now,
	})

	c.log.Info("transaction started",
		zap.String("transaction_id", txID),
		zap.Int("connector_id", connectorID),
		zap.String("id_tag", idTag),
	)
	c.refreshSnapshot()
	return txID, nil
}

// beginCharging fires after the preparation delay. The session may have
// been stopped meanwhile, in which case the event is a no-op.
func (c *Charger) beginCharging(txID string) {
	tx, ok := c.transactions[txID]
	if !ok || tx.Status != domain.TransactionStatusActive {
		return
	}
	conn := c.connectors[tx.ConnectorID]
	if conn.Status != domain.ConnectorStatusPreparing {
		return
	}
	c.transition(conn, eventChargingStarted, c.clock.Now())
	tx.CurrentPower = c.cfg.MaxPowerW * 0.1
	c.log.Info("charging started", zap.String("transaction_id", txID))
}

func (c *Charger) stopTransaction(txID, reason string) error {
	tx, ok := c.transactions[txID]
	if !ok || tx.Status != domain.TransactionStatusActive {
		return fmt.Errorf("transaction %s: %w", txID, domain.ErrUnknownTransaction)
	}
	if reason == "" {
		reason = "Local"
	}

	now := c.clock.Now()
	meterStop := tx.MeterStart + tx.EnergyDelivered
	stopTime := now

	tx.Status = domain.TransactionStatusStopped
	tx.MeterStop = &meterStop
	tx.StopTime = &stopTime
	tx.StopReason = reason
	tx.CurrentPower = 0

	conn := c.connectors[tx.ConnectorID]
	c.transition(conn, eventStopRequested, now)

	c.sink.Emit(domain.TransactionStopped{
		MessageType:     domain.PayloadTransactionStopped,
		ChargerID:       c.cfg.ChargerID,
		TransactionID:   txID,
		ConnectorID:     tx.ConnectorID,
		MeterStop:       meterStop,
		Reason:          reason,
		EnergyDelivered: tx.EnergyDelivered,
		Timestamp:       now,
	})

	c.timers.Schedule(now.Add(c.cfg.FinishingDelay), func() {
		c.finishTransaction(txID)
	})

	c.log.Info("transaction stopped",
		zap.String("transaction_id", txID),
		zap.String("reason", reason),
		zap.Float64("meter_stop_kwh", meterStop),
	)
	c.refreshSnapshot()
	return nil
}

func (c *Charger) finishTransaction(txID string) {
	tx, ok := c.transactions[txID]
	if !ok || tx.Status != domain.TransactionStatusStopped {
		return
	}
	conn := c.connectors[tx.ConnectorID]
	c.transition(conn, eventSessionFinished, c.clock.Now())
	tx.Status = domain.TransactionStatusCompleted
	c.log.Info("transaction completed", zap.String("transaction_id", txID))
}

// transition applies one state-table move and notifies listeners. Illegal
// moves indicate a programming error and are logged, never applied.
func (c *Charger) transition(conn *domain.Connector, ev connectorEvent, now time.Time) {
	next, ok := connectorTransitions[conn.Status][ev]
	if !ok {
		c.log.Error("illegal connector transition",
			zap.Int("connector_id", conn.ConnectorID),
			zap.String("status", string(conn.Status)),
			zap.Int("event", int(ev)),
		)
		return
	}
	conn.Status = next

	c.sink.Emit(domain.StatusNotification{
		MessageType: domain.PayloadStatusNotification,
		ChargerID:   c.cfg.ChargerID,
		ConnectorID: conn.ConnectorID,
		Status:      conn.Status,
		ErrorCode:   conn.ErrorCode,
		Info:        conn.Info,
		Timestamp:   now,
	})
	if c.onStatusChange != nil {
		c.onStatusChange(conn.ConnectorID, conn.Status)
	}
}

// updateTransactions integrates the charging curve over one quantum for
// every session that is actively drawing power. During a fault window the
// device delivers nothing and no energy accumulates.
func (c *Charger) updateTransactions(now time.Time) {
	faulted := c.faults.Active()
	for _, tx := range c.transactions {
		if tx.Status != domain.TransactionStatusActive {
			continue
		}
		if c.connectors[tx.ConnectorID].Status != domain.ConnectorStatusCharging {
			continue
		}
		if faulted {
			tx.CurrentPower = 0
			continue
		}

		elapsed := now.Sub(tx.StartTime).Minutes()
		tx.CurrentPower = c.cfg.MaxPowerW * chargingFactor(elapsed)

		increment := (tx.CurrentPower / 1000) * (c.clock.QuantumMinutes() / 60)
		tx.EnergyDelivered += increment
		c.connectorEnergy[tx.ConnectorID] += increment
	}
}

// deviceStatus is the charger-level status reported alongside the
// connector list: Available normally, Faulted while a fault is active.
func deviceStatus(faulted bool) domain.ConnectorStatus {
	if faulted {
		return domain.ConnectorStatusFaulted
	}
	return domain.ConnectorStatusAvailable
}

func (c *Charger) emitPeriodicData(now time.Time) {
	faulted := c.faults.Active()

	reports := make([]domain.ConnectorReport, 0, len(c.connectors))
	for i := 1; i <= c.cfg.Connectors; i++ {
		conn := c.connectors[i]
		report := domain.ConnectorReport{
			ConnectorID: conn.ConnectorID,
			Status:      conn.Status,
			ErrorCode:   conn.ErrorCode,
			Info:        conn.Info,
		}
		if faulted {
			report.Status = domain.ConnectorStatusFaulted
			report.ErrorCode = "InternalError"
		}
		reports = append(reports, report)
	}

	c.sink.Emit(domain.ChargerPeriodicData{
		MessageType:          domain.PayloadChargerPeriodicData,
		ChargerID:            c.cfg.ChargerID,
		Status:               deviceStatus(faulted),
		Timestamp:            now,
		Connectors:           reports,
		ActiveTransactions:   c.activeCount(),
		TotalEnergyDelivered: c.totalEnergy(),
	})
}

func (c *Charger) emitMeterValues(now time.Time) {
	for _, tx := range c.transactions {
		if tx.Status != domain.TransactionStatusActive {
			continue
		}
		c.sink.Emit(domain.MeterValues{
			MessageType:   domain.PayloadMeterValues,
			ChargerID:     c.cfg.ChargerID,
			TransactionID: tx.ID,
			ConnectorID:   tx.ConnectorID,
			EnergyKWh:     round3(tx.EnergyDelivered),
			PowerW:        round1(tx.CurrentPower),
			CurrentA:      round2(tx.CurrentPower / chargingVoltage),
			VoltageV:      chargingVoltage,
			Timestamp:     now,
		})
	}
}

func (c *Charger) activeCount() int {
	n := 0
	for _, tx := range c.transactions {
		if tx.Status == domain.TransactionStatusActive {
			n++
		}
	}
	return n
}

func (c *Charger) totalEnergy() float64 {
	total := 0.0
	for _, wh := range c.connectorEnergy {
		total += wh
	}
	return total
}

// refreshSnapshot republishes the read-only status copy. Called from the
// tick goroutine (or from do-marshaled commands), never concurrently.
func (c *Charger) refreshSnapshot() {
	snap := domain.ChargerSnapshot{
		ChargerID:            c.cfg.ChargerID,
		Status:               deviceStatus(c.faults.Active()),
		Running:              c.loop.isRunning(),
		VirtualTime:          c.clock.Now(),
		FaultActive:          c.faults.Active(),
		TotalEnergyDelivered: c.totalEnergy(),
		TickInterval:         c.loop.currentInterval(),
	}
	for i := 1; i <= c.cfg.Connectors; i++ {
		snap.Connectors = append(snap.Connectors, *c.connectors[i])
	}
	for _, tx := range c.transactions {
		if tx.Status == domain.TransactionStatusActive {
			snap.ActiveTransactions = append(snap.ActiveTransactions, *tx)
		}
	}
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()
}
