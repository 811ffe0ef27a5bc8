package world

import "sleepwarp.ai/internal/sim/world/feature/warp"

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	Seed       int64
	BoundaryR  int

	// Worldgen tuning.
	SeaLevel        int
	BiomeRegionSize int
	TreePermille    int
	SaplingPermille int
	CropPermille    int
	FixturePermille int

	// LoadRadius is the chunk radius kept loaded around each online participant.
	LoadRadius int

	// ClockDriverActive and WeatherCycle are taken as-is; callers that want the
	// usual behaviour set both.
	ClockDriverActive bool
	WeatherCycle      bool

	// Sleeping is allowed while the cycle time is inside [NightStart, NightEnd]
	// or while it thunders.
	NightStart int64
	NightEnd   int64

	// Operational parameters. These are included in snapshots for deterministic replay/resume.
	SnapshotEveryTicks   int
	TimeSyncEveryTicks   int
	DischargeEventRadius int
	ActionWindowTicks    int
	ActionMax            int

	Warp warp.Config
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "OVERWORLD"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.BoundaryR < 0 {
		c.BoundaryR = 0
	}
	if c.LoadRadius <= 0 {
		c.LoadRadius = 4
	}
	c.Warp.ApplyDefaults()
	if c.NightStart <= 0 {
		c.NightStart = 12542 * c.Warp.CycleLength / 24000
	}
	if c.NightEnd <= 0 || c.NightEnd >= c.Warp.CycleLength {
		c.NightEnd = 23459 * c.Warp.CycleLength / 24000
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 3000
	}
	if c.TimeSyncEveryTicks <= 0 {
		c.TimeSyncEveryTicks = 20
	}
	if c.DischargeEventRadius <= 0 {
		c.DischargeEventRadius = 64
	}
	if c.ActionWindowTicks <= 0 {
		c.ActionWindowTicks = 20
	}
	if c.ActionMax <= 0 {
		c.ActionMax = 10
	}
}
