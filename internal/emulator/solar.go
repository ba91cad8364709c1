package emulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// solarModel converts a local timestamp into instantaneous PV output: a
// half-sine arc between sunrise and sunset, modulated by a per-sample
// cloud factor drawn in [0.7, 1.3], clamped so output never exceeds the
// configured peak.
type solarModel struct {
	lat, lon float64
	peakW    float64
	rng      *rand.Rand
}

// daylightWindow returns sunrise and sunset for the given local day. At
// extreme latitudes the astronomical calculation degenerates (midnight
// sun or polar night); fall back to a 06:00–18:00 local window so the
// emulator still produces a plausible day curve.
func (s *solarModel) daylightWindow(local time.Time) (time.Time, time.Time) {
	rise, set := sunrise.SunriseSunset(s.lat, s.lon, local.Year(), local.Month(), local.Day())
	if rise.IsZero() || set.IsZero() || !rise.Before(set) {
		loc := local.Location()
		rise = time.Date(local.Year(), local.Month(), local.Day(), 6, 0, 0, 0, loc)
		set = time.Date(local.Year(), local.Month(), local.Day(), 18, 0, 0, 0, loc)
	}
	return rise, set
}

// powerAt returns (solar output in W, daylight flag) at the given local
// time.
func (s *solarModel) powerAt(local time.Time) (float64, bool) {
	rise, set := s.daylightWindow(local)
	if local.Before(rise) || !local.Before(set) {
		return 0, false
	}

	frac := local.Sub(rise).Seconds() / set.Sub(rise).Seconds()
	cloud := 0.7 + s.rng.Float64()*0.6
	power := s.peakW * math.Sin(math.Pi*frac) * cloud

	if power < 0 {
		power = 0
	}
	if power > s.peakW {
		power = s.peakW
	}
	return power, true
}

// jitter returns base perturbed by a uniform value in [-span, span].
func jitter(rng *rand.Rand, base, span float64) float64 {
	return base + (rng.Float64()*2-1)*span
}
