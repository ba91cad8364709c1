package emulator

import "math"

// chargingFactor models a realistic AC charging session as a fraction of
// the charger's maximum power, given minutes elapsed since the
// transaction started:
//
//	0..5 min   ramp-up from 10% to full power
//	5..30 min  full power
//	30+ min    linear taper down to a 30% floor
//
// The profile is deterministic and bounded, which keeps energy
// accounting assertable in tests.
func chargingFactor(elapsedMinutes float64) float64 {
	switch {
	case elapsedMinutes < 0:
		return 0
	case elapsedMinutes < 5:
		return 0.1 + (elapsedMinutes/5)*0.9
	case elapsedMinutes < 30:
		return 1.0
	default:
		return math.Max(0.3, 1.0-((elapsedMinutes-30)/60)*0.7)
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
