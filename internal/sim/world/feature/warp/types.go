package warp

import "sleepwarp.ai/internal/sim/world/logic/mathx"

// RegionSize is the horizontal edge length of a region (chunk column).
const RegionSize = 16

// MaxSnowLayerCap is the hard ceiling on stacked snow layers in one cell.
const MaxSnowLayerCap = 8

type BlockPos struct {
	X, Y, Z int
}

func (p BlockPos) Region() RegionPos {
	return RegionPos{X: mathx.FloorDiv(p.X, RegionSize), Z: mathx.FloorDiv(p.Z, RegionSize)}
}

func (p BlockPos) Down() BlockPos { return BlockPos{X: p.X, Y: p.Y - 1, Z: p.Z} }

// RegionPos addresses a RegionSize x RegionSize column of the world.
type RegionPos struct {
	X, Z int
}

// Origin returns the minimum block x/z covered by the region.
func (r RegionPos) Origin() (x, z int) {
	return r.X * RegionSize, r.Z * RegionSize
}

// CellTarget is one random-update candidate drawn during simulation.
type CellTarget struct {
	Region RegionPos
	Offset [3]int // local x, absolute y, local z
}

func (c CellTarget) Pos() BlockPos {
	ox, oz := c.Region.Origin()
	return BlockPos{X: ox + c.Offset[0], Y: c.Offset[1], Z: oz + c.Offset[2]}
}

type Clock struct {
	GameTime  int64
	CycleTime int64
}

type Weather struct {
	Raining    bool
	Thundering bool
}

// Participant is the per-invocation view of one roster entry.
type Participant struct {
	ID         string
	Pos        BlockPos
	Sleeping   bool
	SleepTicks int
}

// Decision is recomputed every pass and never persisted.
type Decision struct {
	Ticks     int
	ForceWake bool
}

// ClockSync is the payload of the one authoritative clock message a participant
// receives per pass.
type ClockSync struct {
	GameTime          int64
	CycleTime         int64
	ClockDriverActive bool
}
