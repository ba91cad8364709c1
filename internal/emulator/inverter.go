package emulator

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/ports"
)

type InverterConfig struct {
	InverterID string
	Latitude   float64
	Longitude  float64
	// Timezone resolves the local calendar used for the solar arc and for
	// daily/monthly/yearly counter resets. Defaults to UTC.
	Timezone     string
	StartTime    time.Time
	PeakOutputW  float64
	Mode         domain.InverterMode
	TickInterval time.Duration
	Fault        FaultConfig
	Seed         int64
}

func (c InverterConfig) withDefaults() InverterConfig {
	if c.InverterID == "" {
		c.InverterID = "INV001"
	}
	if c.PeakOutputW <= 0 {
		c.PeakOutputW = 5000
	}
	if c.Mode == "" {
		c.Mode = domain.ModeInverter
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.StartTime.IsZero() {
		c.StartTime = time.Now().UTC()
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Inverter emulates one solar inverter: a sunrise-to-sunset generation
// arc with jittered electrical readings, calendar energy counters and a
// rolling day curve of grid power, driven by the same single tick
// goroutine model as the charger.
type Inverter struct {
	cfg  InverterConfig
	log  *zap.Logger
	sink ports.DataSink

	loop   *loop
	clock  *VirtualClock
	faults *faultScheduler
	solar  *solarModel
	rng    *rand.Rand
	loc    *time.Location

	energy         domain.EnergyCounters
	gridPowerDay   []float64 // kW per 5-minute slot of the local day
	lastGridReport time.Time
	lastLocal      time.Time

	snapMu sync.RWMutex
	snap   domain.InverterSnapshot
}

func NewInverter(cfg InverterConfig, sink ports.DataSink, log *zap.Logger) (*Inverter, error) {
	cfg = cfg.withDefaults()
	log = log.With(zap.String("inverter_id", cfg.InverterID))

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	inv := &Inverter{
		cfg:    cfg,
		log:    log,
		sink:   sink,
		loop:   newLoop(cfg.TickInterval, log),
		clock:  NewVirtualClock(cfg.StartTime),
		faults: newFaultScheduler(cfg.Fault, rng, cfg.StartTime, log),
		solar: &solarModel{
			lat:   cfg.Latitude,
			lon:   cfg.Longitude,
			peakW: cfg.PeakOutputW,
			rng:   rng,
		},
		rng:            rng,
		loc:            loc,
		gridPowerDay:   make([]float64, domain.GridPowerSlots),
		lastGridReport: cfg.StartTime,
		lastLocal:      cfg.StartTime.In(loc),
	}

	inv.refreshSnapshot()
	return inv, nil
}

func (i *Inverter) ID() string   { return i.cfg.InverterID }
func (i *Inverter) Kind() string { return "inverter" }

func (i *Inverter) Start() {
	if !i.loop.start(i.tick) {
		return
	}
	i.loop.do(i.refreshSnapshot)
	i.log.Info("inverter emulator started",
		zap.Duration("tick_interval", i.cfg.TickInterval),
		zap.String("mode", string(i.cfg.Mode)),
		zap.Float64("peak_output_w", i.cfg.PeakOutputW),
	)
}

func (i *Inverter) Stop() error {
	if err := i.loop.stop(); err != nil {
		i.log.Error("inverter emulator stop", zap.Error(err))
		return err
	}
	i.refreshSnapshot()
	i.log.Info("inverter emulator stopped")
	return nil
}

func (i *Inverter) SetTickInterval(d time.Duration) {
	if d <= 0 {
		i.log.Warn("ignoring non-positive tick interval", zap.Duration("interval", d))
		return
	}
	i.loop.do(func() {
		i.loop.setInterval(d)
		i.refreshSnapshot()
	})
	i.log.Info("tick interval updated", zap.Duration("interval", d))
}

func (i *Inverter) Status() domain.InverterSnapshot {
	i.snapMu.RLock()
	defer i.snapMu.RUnlock()
	return i.snap
}

// Step runs n simulation ticks synchronously, for deterministic tests and
// offline scenario replays. Must not be called while the loop is running.
func (i *Inverter) Step(n int) {
	for k := 0; k < n; k++ {
		i.tick()
	}
}

func (i *Inverter) tick() {
	now := i.clock.Advance()
	local := now.In(i.loc)

	i.rolloverCounters(local)
	i.faults.Update(now)

	solarW, daylight := i.solar.powerAt(local)
	faulted := i.faults.Active()
	if faulted {
		solarW = 0
	}

	gridW := solarW * 0.98
	reactiveVAr := gridW * 0.05

	if !faulted {
		i.accumulateEnergy(solarW)
	}
	i.recordGridPower(local, gridW)

	switch i.cfg.Mode {
	case domain.ModeGridPower:
		// Batch mode: the whole day curve, at most once per 5 virtual
		// minutes of accumulated progress.
		if now.Sub(i.lastGridReport) >= 5*time.Minute {
			curve := make([]float64, domain.GridPowerSlots)
			copy(curve, i.gridPowerDay)
			i.sink.Emit(domain.GridPowerPeriodic{
				MessageType: domain.PayloadGridPowerPeriodic,
				InverterID:  i.cfg.InverterID,
				GridPowerKW: curve,
				Timestamp:   now,
			})
			i.lastGridReport = now
		}
	default:
		i.sink.Emit(i.buildReading(now, solarW, gridW, reactiveVAr, daylight, faulted))
	}

	i.lastLocal = local
	i.refreshSnapshot()
}

// rolloverCounters resets the calendar energy counters when the local day,
// month or year changes, and clears the day curve buffer at midnight.
func (i *Inverter) rolloverCounters(local time.Time) {
	prev := i.lastLocal
	if sameDay(prev, local) {
		return
	}
	i.energy.Daily = 0
	for k := range i.gridPowerDay {
		i.gridPowerDay[k] = 0
	}
	if !sameMonth(prev, local) {
		i.energy.Monthly = 0
	}
	if prev.Year() != local.Year() {
		i.energy.Yearly = 0
	}
	i.log.Debug("calendar rollover", zap.Time("local", local))
}

func (i *Inverter) accumulateEnergy(solarW float64) {
	kwh := (solarW / 1000) * (i.clock.QuantumMinutes() / 60)
	i.energy.Daily += kwh
	i.energy.Monthly += kwh
	i.energy.Yearly += kwh
}

func (i *Inverter) recordGridPower(local time.Time, gridW float64) {
	slot := local.Hour()*12 + local.Minute()/5
	if slot >= 0 && slot < domain.GridPowerSlots {
		i.gridPowerDay[slot] = round2(gridW / 1000)
	}
}

// buildReading assembles the full electrical payload for one tick. During
// a fault every measured quantity reads zero; only the fault code and the
// accumulated energy counters survive.
func (i *Inverter) buildReading(now time.Time, solarW, gridW, reactiveVAr float64, daylight, faulted bool) domain.InverterReading {
	el := domain.InverterElectrical{
		DailyEnergy:   round3(i.energy.Daily),
		MonthlyEnergy: round3(i.energy.Monthly),
		YearlyEnergy:  round3(i.energy.Yearly),
		PVVoltages:    []float64{0, 0},
		PVCurrents:    []float64{0, 0},
	}

	if faulted {
		el.FaultCode = 1
	} else {
		el.GridStatus = 1
		el.InverterOn = 1
		if daylight {
			el.PVStatus = 1
		}
		el.HeatSinkTemperature = round2(jitter(i.rng, 45, 10))
		el.GridInductorTemperature = round2(jitter(i.rng, 50, 15))
		el.PVInductorTemperature = round2(jitter(i.rng, 55, 20))
		el.InsulationResistanceN = round2(i.rng.Float64() * 2000)
		el.InsulationResistanceP = round2(i.rng.Float64() * 2000)
		el.ResidualCurrent = round2(i.rng.Float64() * 0.5)
		el.GridVoltages = [3]float64{
			round2(jitter(i.rng, 230, 5)),
			round2(jitter(i.rng, 231, 4)),
			round2(jitter(i.rng, 229, 3)),
		}
		el.GridFrequencies = [3]float64{
			round2(jitter(i.rng, 50, 0.1)),
			round2(jitter(i.rng, 50, 0.075)),
			round2(jitter(i.rng, 50, 0.05)),
		}
		phaseCurrent := gridW / (3 * 230)
		el.GridCurrents = [3]float64{
			round2(phaseCurrent),
			round2(phaseCurrent),
			round2(phaseCurrent),
		}
		el.GridPower = round1(gridW)
		el.ReactivePower = round1(reactiveVAr)
		el.SolarPower = round1(solarW)
		el.DCLinkVoltage = round2(jitter(i.rng, 800, 50))
		el.VDCPositive = round2(jitter(i.rng, 400, 25))
		el.VDCNegative = round2(jitter(i.rng, 400, 25))
		el.LoadCurrent = round2(solarW / 400)

		vpv := round2(jitter(i.rng, 600, 100))
		ipv := round2(solarW / 600)
		el.PVVoltages = []float64{vpv, vpv}
		el.PVCurrents = []float64{ipv, ipv}
	}

	return domain.InverterReading{
		MessageType:            domain.PayloadInverterReading,
		InverterID:             i.cfg.InverterID,
		Timestamp:              now,
		CANComm:                1,
		ElapsedEmulationTimeMs: now.Sub(i.cfg.StartTime).Milliseconds(),
		Inverter:               el,
	}
}

func (i *Inverter) refreshSnapshot() {
	snap := domain.InverterSnapshot{
		InverterID:   i.cfg.InverterID,
		Running:      i.loop.isRunning(),
		VirtualTime:  i.clock.Now(),
		FaultActive:  i.faults.Active(),
		Mode:         i.cfg.Mode,
		Energy:       i.energy,
		TickInterval: i.loop.currentInterval(),
	}
	i.snapMu.Lock()
	i.snap = snap
	i.snapMu.Unlock()
}
