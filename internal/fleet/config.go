package fleet

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
	"github.com/seu-repo/sigec-emu/internal/emulator"
	"github.com/seu-repo/sigec-emu/internal/ports"
	"github.com/seu-repo/sigec-emu/pkg/config"
)

// FromConfig builds a Manager with one emulator per configured device.
// All emulators share the given sink chain.
func FromConfig(cfg config.DevicesConfig, sink ports.DataSink, log *zap.Logger) (*Manager, error) {
	m := NewManager(log)

	for _, dc := range cfg.Chargers {
		start, err := parseStartTime(dc.StartTime)
		if err != nil {
			return nil, fmt.Errorf("charger %s: %w", dc.ID, err)
		}
		c := emulator.NewCharger(emulator.ChargerConfig{
			ChargerID:    dc.ID,
			Model:        dc.Model,
			Vendor:       dc.Vendor,
			Connectors:   dc.Connectors,
			MaxPowerW:    dc.MaxPowerW,
			TickInterval: dc.TickInterval,
			StartTime:    start,
			Fault:        faultConfig(dc.Fault),
			Seed:         dc.Seed,
		}, sink, log)
		if err := m.AddCharger(c); err != nil {
			return nil, err
		}
	}

	for _, ic := range cfg.Inverters {
		start, err := parseStartTime(ic.StartTime)
		if err != nil {
			return nil, fmt.Errorf("inverter %s: %w", ic.ID, err)
		}
		inv, err := emulator.NewInverter(emulator.InverterConfig{
			InverterID:   ic.ID,
			Latitude:     ic.Latitude,
			Longitude:    ic.Longitude,
			Timezone:     ic.Timezone,
			PeakOutputW:  ic.PeakOutputW,
			Mode:         domain.InverterMode(ic.Mode),
			TickInterval: ic.TickInterval,
			StartTime:    start,
			Fault:        faultConfig(ic.Fault),
			Seed:         ic.Seed,
		}, sink, log)
		if err != nil {
			return nil, fmt.Errorf("inverter %s: %w", ic.ID, err)
		}
		if err := m.AddInverter(inv); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func parseStartTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_time %q: %w", s, err)
	}
	return t, nil
}

func faultConfig(fc config.FaultConfig) emulator.FaultConfig {
	return emulator.FaultConfig{
		Enabled:      fc.Enabled,
		MeanInterval: fc.MeanInterval,
		MinDuration:  fc.MinDuration,
		MaxDuration:  fc.MaxDuration,
	}
}
