package emulator

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// FaultConfig parametrizes fault injection for a device.
type FaultConfig struct {
	Enabled bool
	// MeanInterval is the window within which the next fault start is
	// drawn uniformly.
	MeanInterval time.Duration
	// MinDuration and MaxDuration bound the uniformly drawn fault length.
	MinDuration time.Duration
	MaxDuration time.Duration
}

func (c FaultConfig) withDefaults() FaultConfig {
	if c.MeanInterval <= 0 {
		c.MeanInterval = 7 * 24 * time.Hour
	}
	if c.MinDuration <= 0 {
		c.MinDuration = 10 * time.Minute
	}
	if c.MaxDuration < c.MinDuration {
		c.MaxDuration = c.MinDuration + 50*time.Minute
	}
	return c
}

// faultScheduler decides when a device enters and leaves fault windows,
// driven purely by virtual time. It is always in exactly one of two
// states: armed (a next-fault time is pending) or active (a fault-end
// time is pending). Randomness comes from the injected source so fault
// timing is reproducible for a given seed and start time.
type faultScheduler struct {
	cfg FaultConfig
	rng *rand.Rand
	log *zap.Logger

	active bool
	next   time.Time
	end    time.Time
}

func newFaultScheduler(cfg FaultConfig, rng *rand.Rand, start time.Time, log *zap.Logger) *faultScheduler {
	f := &faultScheduler{cfg: cfg.withDefaults(), rng: rng, log: log}
	if f.cfg.Enabled {
		f.next = f.drawNext(start)
	}
	return f
}

// Update advances the fault state machine to virtual time now. Returns
// true when the fault flag flipped this tick.
func (f *faultScheduler) Update(now time.Time) bool {
	if !f.cfg.Enabled {
		return false
	}

	if !f.active && !now.Before(f.next) {
		f.active = true
		f.end = now.Add(f.drawDuration())
		f.log.Info("fault injected",
			zap.Time("virtual_time", now),
			zap.Time("fault_end", f.end),
		)
		return true
	}

	if f.active && !now.Before(f.end) {
		f.active = false
		f.next = f.drawNext(now)
		f.log.Info("fault cleared",
			zap.Time("virtual_time", now),
			zap.Time("next_fault", f.next),
		)
		return true
	}

	return false
}

func (f *faultScheduler) Active() bool { return f.active }

func (f *faultScheduler) drawNext(from time.Time) time.Time {
	offset := time.Duration(f.rng.Int63n(int64(f.cfg.MeanInterval)))
	return from.Add(offset)
}

func (f *faultScheduler) drawDuration() time.Duration {
	span := f.cfg.MaxDuration - f.cfg.MinDuration
	if span <= 0 {
		return f.cfg.MinDuration
	}
	return f.cfg.MinDuration + time.Duration(f.rng.Int63n(int64(span)))
}
