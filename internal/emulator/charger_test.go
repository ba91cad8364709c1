package emulator

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/mocks"
)

func testChargerConfig() ChargerConfig {
	return ChargerConfig{
		ChargerID:  "CHG-TEST",
		Connectors: 2,
		MaxPowerW:  22000,
		StartTime:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		Seed:       1,
	}
}

func TestChargerBootNotificationOnStart(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	// Act
	c.Start()
	defer c.Stop()

	// Assert
	boots := sink.ByType(domain.PayloadBootNotification)
	if len(boots) != 1 {
		t.Fatalf("expected 1 boot notification, got %d", len(boots))
	}
	boot := boots[0].(domain.BootNotification)
	if boot.ChargerID != "CHG-TEST" {
		t.Errorf("expected charger ID 'CHG-TEST', got '%s'", boot.ChargerID)
	}
	if boot.Model == "" || boot.Vendor == "" || boot.SerialNumber == "" {
		t.Error("expected defaulted identity fields to be populated")
	}
}

func TestConcurrentStartEmitsSingleBoot(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Start()
		}()
	}
	wg.Wait()
	defer c.Stop()

	if got := len(sink.ByType(domain.PayloadBootNotification)); got != 1 {
		t.Fatalf("expected exactly 1 boot notification, got %d", got)
	}
}

func TestStartTransactionLifecycle(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	// Act
	txID, err := c.StartTransaction(1, "TAG001", 100)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if txID == "" {
		t.Fatal("expected a transaction ID")
	}

	snap := c.Status()
	if got := snap.Connectors[0].Status; got != domain.ConnectorStatusPreparing {
		t.Errorf("expected connector 1 Preparing, got %s", got)
	}
	if len(snap.ActiveTransactions) != 1 {
		t.Fatalf("expected 1 active transaction, got %d", len(snap.ActiveTransactions))
	}

	started := sink.ByType(domain.PayloadTransactionStarted)
	if len(started) != 1 {
		t.Fatalf("expected 1 TransactionStarted payload, got %d", len(started))
	}
	if got := started[0].(domain.TransactionStarted).MeterStart; got != 100 {
		t.Errorf("expected meterStart 100, got %v", got)
	}

	// Charging begins after the preparation delay elapses in virtual time.
	c.Step(1)
	snap = c.Status()
	if got := snap.Connectors[0].Status; got != domain.ConnectorStatusCharging {
		t.Errorf("expected connector 1 Charging after one tick, got %s", got)
	}
}

func TestEnergyAccumulationFollowsCurve(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())
	if _, err := c.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}

	// Act: six ticks reach 30 virtual minutes into the session, all inside
	// the full-power plateau once the ramp completes at minute 5.
	c.Step(6)

	// Assert: 22 kW for 6 ticks of 5 minutes each.
	want := 22.0 * (5.0 / 60.0) * 6
	got := c.Status().TotalEnergyDelivered
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %.4f kWh, got %.4f kWh", want, got)
	}
}

func TestEnergyIsMonotonic(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())
	if _, err := c.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}

	prev := 0.0
	for i := 0; i < 50; i++ {
		c.Step(1)
		got := c.Status().TotalEnergyDelivered
		if got < prev {
			t.Fatalf("energy decreased at tick %d: %v -> %v", i, prev, got)
		}
		prev = got
	}
	if prev == 0 {
		t.Error("expected energy to accumulate over 50 ticks")
	}
}

func TestStopTransactionFixesMeterStop(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())
	txID, err := c.StartTransaction(1, "TAG001", 50)
	if err != nil {
		t.Fatal(err)
	}
	c.Step(4)
	energyAtStop := c.Status().TotalEnergyDelivered

	// Act
	if err := c.StopTransaction(txID, "Remote"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	tx, ok := c.Transaction(txID)
	if !ok {
		t.Fatal("expected transaction to exist")
	}
	if tx.Status != domain.TransactionStatusStopped {
		t.Errorf("expected status Stopped, got %s", tx.Status)
	}
	if tx.MeterStop == nil {
		t.Fatal("expected meterStop to be set")
	}
	if want := 50 + energyAtStop; math.Abs(*tx.MeterStop-want) > 1e-9 {
		t.Errorf("expected meterStop %.4f, got %.4f", want, *tx.MeterStop)
	}
	if got := c.Status().Connectors[0].Status; got != domain.ConnectorStatusFinishing {
		t.Errorf("expected connector Finishing, got %s", got)
	}

	// Ticking past the stop must not change the fixed meter value.
	c.Step(3)
	tx, _ = c.Transaction(txID)
	if want := 50 + energyAtStop; math.Abs(*tx.MeterStop-want) > 1e-9 {
		t.Errorf("meterStop changed after stop: got %.4f", *tx.MeterStop)
	}
	if tx.Status != domain.TransactionStatusCompleted {
		t.Errorf("expected status Completed after finishing delay, got %s", tx.Status)
	}
	if got := c.Status().Connectors[0].Status; got != domain.ConnectorStatusAvailable {
		t.Errorf("expected connector Available again, got %s", got)
	}
}

func TestStatusListenerObservesFullSequence(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	var seen []domain.ConnectorStatus
	c.OnStatusChange(func(connectorID int, status domain.ConnectorStatus) {
		if connectorID == 1 {
			seen = append(seen, status)
		}
	})

	txID, err := c.StartTransaction(1, "TAG001", 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Step(2)
	if err := c.StopTransaction(txID, "Local"); err != nil {
		t.Fatal(err)
	}
	c.Step(2)

	want := []domain.ConnectorStatus{
		domain.ConnectorStatusPreparing,
		domain.ConnectorStatusCharging,
		domain.ConnectorStatusFinishing,
		domain.ConnectorStatusAvailable,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, seen)
		}
	}
}

func TestStartTransactionErrors(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	if _, err := c.StartTransaction(99, "TAG001", 0); !errors.Is(err, domain.ErrUnknownConnector) {
		t.Errorf("expected ErrUnknownConnector, got %v", err)
	}

	if _, err := c.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StartTransaction(1, "TAG002", 0); !errors.Is(err, domain.ErrConnectorBusy) {
		t.Errorf("expected ErrConnectorBusy, got %v", err)
	}

	if err := c.StopTransaction("no-such-tx", ""); !errors.Is(err, domain.ErrUnknownTransaction) {
		t.Errorf("expected ErrUnknownTransaction, got %v", err)
	}
}

func TestMeterValuesSample(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())
	if _, err := c.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}

	c.Step(2)

	samples := sink.ByType(domain.PayloadMeterValues)
	if len(samples) == 0 {
		t.Fatal("expected meter value samples")
	}
	last := samples[len(samples)-1].(domain.MeterValues)
	if last.VoltageV != 230 {
		t.Errorf("expected 230 V, got %v", last.VoltageV)
	}
	if last.PowerW != 22000 {
		t.Errorf("expected 22000 W at full power, got %v", last.PowerW)
	}
	if want := round2(22000.0 / 230.0); last.CurrentA != want {
		t.Errorf("expected current %.2f A, got %v", want, last.CurrentA)
	}
}

func TestEnergyIndependentOfTickInterval(t *testing.T) {
	// Two chargers with different wall-clock pacing must simulate
	// identical physics.
	slowCfg := testChargerConfig()
	slowCfg.TickInterval = 5 * time.Second
	fastCfg := testChargerConfig()
	fastCfg.TickInterval = 100 * time.Millisecond

	slow := NewCharger(slowCfg, mocks.NewCaptureSink(), zap.NewNop())
	fast := NewCharger(fastCfg, mocks.NewCaptureSink(), zap.NewNop())

	if _, err := slow.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := fast.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}

	slow.Step(12)
	fast.Step(12)

	a := slow.Status().TotalEnergyDelivered
	b := fast.Status().TotalEnergyDelivered
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("energy diverged across tick intervals: %v vs %v", a, b)
	}
}

func TestFaultReportedWithoutCorruptingStateMachine(t *testing.T) {
	// Arrange: a fault window guaranteed to open on the first tick and
	// outlast the test.
	cfg := testChargerConfig()
	cfg.Fault = FaultConfig{
		Enabled:      true,
		MeanInterval: TickQuantum,
		MinDuration:  2 * time.Hour,
		MaxDuration:  3 * time.Hour,
	}
	sink := mocks.NewCaptureSink()
	c := NewCharger(cfg, sink, zap.NewNop())
	if _, err := c.StartTransaction(1, "TAG001", 0); err != nil {
		t.Fatal(err)
	}

	// Act
	c.Step(3)

	// Assert: no energy flows during the fault.
	if got := c.Status().TotalEnergyDelivered; got != 0 {
		t.Errorf("expected no energy during fault, got %v", got)
	}
	if !c.Status().FaultActive {
		t.Error("expected fault to be active")
	}

	// Emitted reports show Faulted at the device and connector level, while
	// the underlying state machine keeps the session progressing normally.
	periodic := sink.ByType(domain.PayloadChargerPeriodicData)
	last := periodic[len(periodic)-1].(domain.ChargerPeriodicData)
	if last.Status != domain.ConnectorStatusFaulted {
		t.Errorf("expected device status Faulted, got %s", last.Status)
	}
	if got := c.Status().Status; got != domain.ConnectorStatusFaulted {
		t.Errorf("expected snapshot status Faulted, got %s", got)
	}
	for _, conn := range last.Connectors {
		if conn.Status != domain.ConnectorStatusFaulted {
			t.Errorf("expected reported status Faulted, got %s", conn.Status)
		}
		if conn.ErrorCode != "InternalError" {
			t.Errorf("expected error code InternalError, got %s", conn.ErrorCode)
		}
	}
	if got := c.Status().Connectors[0].Status; got != domain.ConnectorStatusCharging {
		t.Errorf("expected underlying connector state Charging, got %s", got)
	}
}

func TestPeriodicDataCarriesDeviceStatus(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	c.Step(1)

	periodic := sink.ByType(domain.PayloadChargerPeriodicData)
	if len(periodic) != 1 {
		t.Fatalf("expected 1 periodic payload, got %d", len(periodic))
	}
	if got := periodic[0].(domain.ChargerPeriodicData).Status; got != domain.ConnectorStatusAvailable {
		t.Errorf("expected device status Available, got %s", got)
	}
	if got := c.Status().Status; got != domain.ConnectorStatusAvailable {
		t.Errorf("expected snapshot status Available, got %s", got)
	}
}

func TestSetTickIntervalRejectsNonPositive(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	c.SetTickInterval(0)
	c.SetTickInterval(-time.Second)

	if got := c.Status().TickInterval; got != 5*time.Second {
		t.Errorf("expected default interval preserved, got %s", got)
	}

	c.SetTickInterval(time.Second)
	if got := c.Status().TickInterval; got != time.Second {
		t.Errorf("expected interval 1s, got %s", got)
	}
}

func TestStopIsIdempotentOnStoppedLoop(t *testing.T) {
	sink := mocks.NewCaptureSink()
	c := NewCharger(testChargerConfig(), sink, zap.NewNop())

	c.Start()
	if err := c.Stop(); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("expected second stop to be a no-op, got %v", err)
	}
}
