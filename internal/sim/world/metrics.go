package world

import "sleepwarp.ai/internal/sim/world/feature/warp"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick    uint64 `json:"tick"`
	WorldID string `json:"world_id"`

	Participants int `json:"participants"`
	Online       int `json:"online"`
	Clients      int `json:"clients"`
	Sleeping     int `json:"sleeping"`
	LoadedChunks int `json:"loaded_chunks"`
	Fixtures     int `json:"fixtures"`

	GameTime          int64 `json:"game_time"`
	CycleTime         int64 `json:"cycle_time"`
	ClockDriverActive bool  `json:"clock_driver_active"`

	Raining     bool `json:"raining"`
	Thundering  bool `json:"thundering"`
	RainTime    int  `json:"rain_time"`
	ThunderTime int  `json:"thunder_time"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	LastPass        PassSummary   `json:"last_pass"`
	PassesTotal     uint64        `json:"passes_total"`
	WarpTicksTotal  uint64        `json:"warp_ticks_total"`
	ForceWakesTotal uint64        `json:"force_wakes_total"`
	DischargesTotal uint64        `json:"discharges_total"`
	Environment     warp.SimStats `json:"environment"`
}

// PassSummary describes the most recent non-idle acceleration pass.
type PassSummary struct {
	Tick         uint64 `json:"tick"`
	Sleeping     int    `json:"sleeping"`
	Participants int    `json:"participants"`
	Ticks        int    `json:"ticks"`
	ForceWake    bool   `json:"force_wake"`
	Regions      int    `json:"regions"`
	Synced       int    `json:"synced"`
	Skipped      int    `json:"skipped"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Join   int `json:"join"`
	Leave  int `json:"leave"`
	Attach int `json:"attach"`
}

func (w *World) storeMetrics(nextTick uint64, stepMS float64) {
	online, sleeping := 0, 0
	for _, p := range w.participants {
		if p.Online {
			online++
		}
		if p.Sleeping {
			sleeping++
		}
	}
	w.metrics.Store(WorldMetrics{
		Tick:              nextTick,
		WorldID:           w.cfg.ID,
		Participants:      len(w.participants),
		Online:            online,
		Clients:           len(w.clients),
		Sleeping:          sleeping,
		LoadedChunks:      len(w.chunks.LoadedChunkKeys()),
		Fixtures:          len(w.furnaces) + len(w.composters),
		GameTime:          w.clock.GameTime,
		CycleTime:         w.clock.CycleTime,
		ClockDriverActive: w.cfg.ClockDriverActive,
		Raining:           w.weather.Raining,
		Thundering:        w.weather.public().Thundering,
		RainTime:          w.weather.RainTime,
		ThunderTime:       w.weather.ThunderTime,
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Join:   len(w.join),
			Leave:  len(w.leave),
			Attach: len(w.attach),
		},
		StepMS:          stepMS,
		LastPass:        w.lastPass,
		PassesTotal:     w.counters.Passes,
		WarpTicksTotal:  w.counters.WarpTicks,
		ForceWakesTotal: w.counters.ForceWakes,
		DischargesTotal: w.counters.Discharges,
		Environment:     w.envStats,
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
