package emulator

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/mocks"
)

// Noon in Delhi in mid June, well inside the daylight window.
func testInverterConfig() InverterConfig {
	return InverterConfig{
		InverterID:  "INV-TEST",
		Latitude:    28.6,
		Longitude:   77.2,
		Timezone:    "Asia/Kolkata",
		StartTime:   time.Date(2024, 6, 15, 6, 30, 0, 0, time.UTC),
		PeakOutputW: 5000,
		Seed:        1,
	}
}

func newTestInverter(t *testing.T, cfg InverterConfig, sink *mocks.CaptureSink) *Inverter {
	t.Helper()
	inv, err := NewInverter(cfg, sink, zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return inv
}

func TestInverterRejectsUnknownTimezone(t *testing.T) {
	cfg := testInverterConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := NewInverter(cfg, mocks.NewCaptureSink(), zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestInverterDaylightGeneration(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, testInverterConfig(), sink)

	// Act
	inv.Step(1)

	// Assert
	readings := sink.ByType(domain.PayloadInverterReading)
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	r := readings[0].(domain.InverterReading)
	el := r.Inverter

	if el.PVStatus != 1 {
		t.Error("expected pvStatus 1 at midday")
	}
	if el.InverterOn != 1 || el.GridStatus != 1 {
		t.Error("expected inverter and grid on")
	}
	if el.SolarPower <= 0 {
		t.Errorf("expected positive solar power at midday, got %v", el.SolarPower)
	}
	if el.SolarPower > 5000 {
		t.Errorf("solar power exceeds peak: %v", el.SolarPower)
	}
	if want := round1(el.SolarPower * 0.98); math.Abs(el.GridPower-want) > 0.2 {
		t.Errorf("expected grid power ~ 98%% of solar, got %v for solar %v", el.GridPower, el.SolarPower)
	}
	if el.ReactivePower <= 0 {
		t.Errorf("expected positive reactive power, got %v", el.ReactivePower)
	}
	if r.CANComm != 1 {
		t.Error("expected canComm 1")
	}
}

func TestInverterNightProducesNothing(t *testing.T) {
	cfg := testInverterConfig()
	// Local midnight in Delhi.
	cfg.StartTime = time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, cfg, sink)

	inv.Step(3)

	for _, p := range sink.ByType(domain.PayloadInverterReading) {
		el := p.(domain.InverterReading).Inverter
		if el.SolarPower != 0 {
			t.Errorf("expected zero solar power at night, got %v", el.SolarPower)
		}
		if el.PVStatus != 0 {
			t.Error("expected pvStatus 0 at night")
		}
	}
	if got := inv.Status().Energy.Daily; got != 0 {
		t.Errorf("expected no energy at night, got %v", got)
	}
}

func TestInverterEnergyCountersAndMidnightReset(t *testing.T) {
	// Arrange
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, testInverterConfig(), sink)

	// Act: 145 ticks run from local noon past local midnight.
	inv.Step(145)

	// Assert: the daily counter was reset at midnight and nothing has been
	// generated since; the monthly and yearly counters keep the day's
	// production.
	snap := inv.Status()
	if snap.Energy.Daily != 0 {
		t.Errorf("expected daily counter reset at midnight, got %v", snap.Energy.Daily)
	}
	if snap.Energy.Monthly <= 0 {
		t.Errorf("expected monthly counter to survive midnight, got %v", snap.Energy.Monthly)
	}
	if snap.Energy.Yearly != snap.Energy.Monthly {
		t.Errorf("expected yearly == monthly inside one month, got %v vs %v",
			snap.Energy.Yearly, snap.Energy.Monthly)
	}
}

func TestInverterGridPowerMode(t *testing.T) {
	cfg := testInverterConfig()
	cfg.Mode = domain.ModeGridPower
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, cfg, sink)

	inv.Step(3)

	if got := len(sink.ByType(domain.PayloadInverterReading)); got != 0 {
		t.Errorf("expected no per-tick readings in gridPower mode, got %d", got)
	}

	batches := sink.ByType(domain.PayloadGridPowerPeriodic)
	if len(batches) == 0 {
		t.Fatal("expected grid power batches")
	}
	batch := batches[len(batches)-1].(domain.GridPowerPeriodic)
	if len(batch.GridPowerKW) != domain.GridPowerSlots {
		t.Fatalf("expected %d slots, got %d", domain.GridPowerSlots, len(batch.GridPowerKW))
	}

	// Midday slots carry generation, night slots stay zero.
	if batch.GridPowerKW[0] != 0 {
		t.Errorf("expected empty midnight slot, got %v", batch.GridPowerKW[0])
	}
	nonZero := 0
	for _, kw := range batch.GridPowerKW {
		if kw > 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("expected at least one populated daylight slot")
	}
}

func TestInverterGridPowerBufferResetsAtMidnight(t *testing.T) {
	cfg := testInverterConfig()
	cfg.Mode = domain.ModeGridPower
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, cfg, sink)

	// 143 ticks run from local noon to 23:55; the day curve holds the
	// afternoon's generation.
	inv.Step(143)
	batches := sink.ByType(domain.PayloadGridPowerPeriodic)
	before := batches[len(batches)-1].(domain.GridPowerPeriodic)
	populated := 0
	for _, kw := range before.GridPowerKW {
		if kw > 0 {
			populated++
		}
	}
	if populated == 0 {
		t.Fatal("expected populated daylight slots before midnight")
	}

	// The next tick crosses local midnight: every slot resets to zero.
	inv.Step(1)
	batches = sink.ByType(domain.PayloadGridPowerPeriodic)
	after := batches[len(batches)-1].(domain.GridPowerPeriodic)
	for k, kw := range after.GridPowerKW {
		if kw != 0 {
			t.Errorf("slot %d not cleared after midnight: %v", k, kw)
		}
	}
}

func TestInverterElapsedTimeTracksVirtualClock(t *testing.T) {
	// Elapsed emulation time is virtual: one tick is always 5 simulated
	// minutes, whatever the wall-clock pacing.
	for _, interval := range []time.Duration{5 * time.Second, 50 * time.Millisecond} {
		cfg := testInverterConfig()
		cfg.TickInterval = interval
		sink := mocks.NewCaptureSink()
		inv := newTestInverter(t, cfg, sink)

		inv.Step(3)

		readings := sink.ByType(domain.PayloadInverterReading)
		if len(readings) != 3 {
			t.Fatalf("expected 3 readings, got %d", len(readings))
		}
		for k, p := range readings {
			want := int64(k+1) * TickQuantum.Milliseconds()
			if got := p.(domain.InverterReading).ElapsedEmulationTimeMs; got != want {
				t.Errorf("tick %d at interval %s: expected %d ms elapsed, got %d",
					k+1, interval, want, got)
			}
		}
	}
}

func TestInverterFaultZeroesOutputs(t *testing.T) {
	cfg := testInverterConfig()
	cfg.Fault = FaultConfig{
		Enabled:      true,
		MeanInterval: TickQuantum,
		MinDuration:  2 * time.Hour,
		MaxDuration:  3 * time.Hour,
	}
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, cfg, sink)

	inv.Step(2)

	if !inv.Status().FaultActive {
		t.Fatal("expected fault to be active")
	}
	readings := sink.ByType(domain.PayloadInverterReading)
	last := readings[len(readings)-1].(domain.InverterReading).Inverter
	if last.FaultCode == 0 {
		t.Error("expected non-zero fault code")
	}
	if last.SolarPower != 0 || last.GridPower != 0 || last.ReactivePower != 0 {
		t.Errorf("expected zeroed outputs during fault, got solar=%v grid=%v reactive=%v",
			last.SolarPower, last.GridPower, last.ReactivePower)
	}
	if last.GridStatus != 0 || last.InverterOn != 0 {
		t.Error("expected grid and inverter flags off during fault")
	}
	if last.HeatSinkTemperature != 0 || last.DCLinkVoltage != 0 {
		t.Error("expected auxiliary readings zeroed during fault")
	}
	if got := inv.Status().Energy.Daily; got != 0 {
		t.Errorf("expected no energy accumulation during fault, got %v", got)
	}
}

func TestInverterEnergyIndependentOfTickInterval(t *testing.T) {
	slowCfg := testInverterConfig()
	slowCfg.TickInterval = 5 * time.Second
	fastCfg := testInverterConfig()
	fastCfg.TickInterval = 50 * time.Millisecond

	slow := newTestInverter(t, slowCfg, mocks.NewCaptureSink())
	fast := newTestInverter(t, fastCfg, mocks.NewCaptureSink())

	slow.Step(24)
	fast.Step(24)

	a := slow.Status().Energy.Daily
	b := fast.Status().Energy.Daily
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("energy diverged across tick intervals: %v vs %v", a, b)
	}
	if a == 0 {
		t.Error("expected generation over two daylight hours")
	}
}

func TestInverterJitterWithinBands(t *testing.T) {
	sink := mocks.NewCaptureSink()
	inv := newTestInverter(t, testInverterConfig(), sink)

	inv.Step(20)

	for _, p := range sink.ByType(domain.PayloadInverterReading) {
		el := p.(domain.InverterReading).Inverter
		for i, v := range el.GridVoltages {
			if v < 220 || v > 240 {
				t.Errorf("grid voltage %d out of band: %v", i, v)
			}
		}
		for i, f := range el.GridFrequencies {
			if f < 49.8 || f > 50.2 {
				t.Errorf("grid frequency %d out of band: %v", i, f)
			}
		}
		if el.DCLinkVoltage < 750 || el.DCLinkVoltage > 850 {
			t.Errorf("dc link voltage out of band: %v", el.DCLinkVoltage)
		}
		if el.ResidualCurrent < 0 || el.ResidualCurrent > 0.5 {
			t.Errorf("residual current out of band: %v", el.ResidualCurrent)
		}
	}
}
