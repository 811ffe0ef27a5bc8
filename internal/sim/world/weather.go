package world

import (
	"math/rand/v2"

	"sleepwarp.ai/internal/sim/world/feature/admin/requests"
	"sleepwarp.ai/internal/sim/world/feature/warp"
)

// weatherState holds the flags and the countdowns of the weather cycle. A
// countdown of zero means "pick a new duration on the next step".
type weatherState struct {
	Raining    bool
	Thundering bool

	RainTime    int
	ThunderTime int
	// ClearTime holds forced clear weather; while positive nothing else changes.
	ClearTime int
}

// public is the weather as participants and the warp engine see it: thunder
// only counts while it rains.
func (s weatherState) public() warp.Weather {
	return warp.Weather{Raining: s.Raining, Thundering: s.Raining && s.Thundering}
}

func uniform(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// stepWeather advances the weather cycle by one real tick.
func (w *World) stepWeather() {
	if !w.cfg.WeatherCycle {
		return
	}
	s := &w.weather
	if s.ClearTime > 0 {
		s.ClearTime--
		s.ThunderTime = boolInt(!s.Thundering)
		s.RainTime = boolInt(!s.Raining)
		s.Thundering = false
		s.Raining = false
		return
	}

	if s.ThunderTime > 0 {
		s.ThunderTime--
		if s.ThunderTime == 0 {
			s.Thundering = !s.Thundering
		}
	} else if s.Thundering {
		s.ThunderTime = uniform(w.rng, 3600, 15600)
	} else {
		s.ThunderTime = uniform(w.rng, 12000, 180000)
	}

	if s.RainTime > 0 {
		s.RainTime--
		if s.RainTime == 0 {
			s.Raining = !s.Raining
		}
	} else if s.Raining {
		s.RainTime = uniform(w.rng, 12000, 24000)
	} else {
		s.RainTime = uniform(w.rng, 12000, 180000)
	}
}

// setWeather replaces the flags and restarts both countdowns.
func (w *World) setWeather(next warp.Weather) {
	w.weather.Raining = next.Raining
	w.weather.Thundering = next.Thundering
	w.weather.RainTime = 0
	w.weather.ThunderTime = 0
	w.weather.ClearTime = 0
}

func (w *World) forceWeather(req requests.WeatherReq) {
	dur := req.DurationTicks
	if !req.Raining && !req.Thundering {
		if dur <= 0 {
			dur = uniform(w.rng, 12000, 180000)
		}
		w.setWeather(warp.Weather{})
		w.weather.ClearTime = dur
		return
	}
	w.setWeather(warp.Weather{Raining: true, Thundering: req.Thundering})
	if dur > 0 {
		w.weather.RainTime = dur
		w.weather.ThunderTime = dur
	} else {
		w.weather.RainTime = uniform(w.rng, 12000, 24000)
		w.weather.ThunderTime = uniform(w.rng, 3600, 15600)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
