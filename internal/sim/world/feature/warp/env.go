package warp

import "math/rand/v2"

// Biome answers the weather predicates for one column.
type Biome interface {
	ShouldFreeze(pos BlockPos) bool
	ShouldSnow(pos BlockPos) bool
}

// Terrain is the cell-level view of a partition used by the per-tick region routine.
// Every lookup outside a loaded region is a miss and must be harmless.
type Terrain interface {
	RegionLoaded(r RegionPos) bool
	// HeightRange returns the vertical bounds [minY, maxY).
	HeightRange() (minY, maxY int)

	RandomTickable(pos BlockPos) bool
	RandomTick(pos BlockPos, rng *rand.Rand)

	// PrecipitationSurface returns the first non-blocking cell above the topmost
	// precipitation-blocking cell of the column.
	PrecipitationSurface(x, z int) (BlockPos, bool)
	BiomeAt(pos BlockPos) Biome
	IsEmpty(pos BlockPos) bool
	SnowLayers(pos BlockPos) int
	SetSnowLayers(pos BlockPos, layers int)
	Freeze(pos BlockPos)
	PrecipitatingAt(pos BlockPos) bool
	SpawnDischarge(pos BlockPos)
}

// Fixtures ticks every registered stateful fixture of the partition.
type Fixtures interface {
	TickFixtures()
}

// Sender delivers one clock message to one participant. An error means the
// participant is unreachable for this pass.
type Sender interface {
	SendClock(participantID string, sync ClockSync) error
}

// Env is everything a pass needs from its hosting partition.
type Env interface {
	Terrain
	Fixtures
	Sender

	Clock() Clock
	AdvanceClock()
	Weather() Weather
	SetWeather(Weather)
	ClockDriverActive() bool
	// WakeAll forces every sleeping participant out of the sleeping state.
	WakeAll()
}

// RegionEnv is the subset used by one tick of region simulation.
type RegionEnv interface {
	Terrain
	Fixtures
	Weather() Weather
}
