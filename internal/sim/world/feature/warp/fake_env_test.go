package warp

import (
	"errors"
	"math/rand/v2"
)

type fakeBiome struct {
	freeze bool
	snow   bool
}

func (b fakeBiome) ShouldFreeze(BlockPos) bool { return b.freeze }
func (b fakeBiome) ShouldSnow(BlockPos) bool { return b.snow }

// fakeEnv records every call the engine makes against a partition.
type fakeEnv struct {
	clock   Clock
	weather Weather
	driver  bool

	roster   []Participant
	unloaded map[RegionPos]bool
	minY     int
	maxY     int

	tickable      bool
	surfaceY      int
	noSurface     bool
	biome         fakeBiome
	occupied      bool
	precipitating bool

	randomTicks  []BlockPos
	fixtureTicks int
	snow         map[BlockPos]int
	ice          []BlockPos
	discharges   []BlockPos
	wakeCalls    int

	unreachable map[string]bool
	sent        map[string][]ClockSync
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		driver:      true,
		minY:        0,
		maxY:        64,
		surfaceY:    40,
		unloaded:    map[RegionPos]bool{},
		snow:        map[BlockPos]int{},
		unreachable: map[string]bool{},
		sent:        map[string][]ClockSync{},
	}
}

func (f *fakeEnv) RegionLoaded(r RegionPos) bool { return !f.unloaded[r] }
func (f *fakeEnv) HeightRange() (int, int) { return f.minY, f.maxY }
func (f *fakeEnv) RandomTickable(BlockPos) bool { return f.tickable }
func (f *fakeEnv) RandomTick(p BlockPos, _ *rand.Rand) { f.randomTicks = append(f.randomTicks, p) }
func (f *fakeEnv) PrecipitationSurface(x, z int) (BlockPos, bool) {
	if f.noSurface {
		return BlockPos{}, false
	}
	// Collapse every column onto one cell so layer stacking is observable.
	return BlockPos{X: 0, Y: f.surfaceY, Z: 0}, true
}
func (f *fakeEnv) BiomeAt(BlockPos) Biome { return f.biome }
func (f *fakeEnv) IsEmpty(BlockPos) bool { return !f.occupied }
func (f *fakeEnv) SnowLayers(p BlockPos) int { return f.snow[p] }
func (f *fakeEnv) SetSnowLayers(p BlockPos, layers int) { f.snow[p] = layers }
func (f *fakeEnv) Freeze(p BlockPos) { f.ice = append(f.ice, p) }
func (f *fakeEnv) PrecipitatingAt(BlockPos) bool { return f.precipitating }
func (f *fakeEnv) SpawnDischarge(p BlockPos) { f.discharges = append(f.discharges, p) }
func (f *fakeEnv) TickFixtures() { f.fixtureTicks++ }
func (f *fakeEnv) Clock() Clock { return f.clock }
func (f *fakeEnv) Weather() Weather { return f.weather }
func (f *fakeEnv) SetWeather(w Weather) { f.weather = w }
func (f *fakeEnv) ClockDriverActive() bool { return f.driver }

func (f *fakeEnv) AdvanceClock() {
	f.clock.GameTime++
	f.clock.CycleTime++
}

func (f *fakeEnv) WakeAll() {
	f.wakeCalls++
	for i := range f.roster {
		f.roster[i].Sleeping = false
		f.roster[i].SleepTicks = 0
	}
}

func (f *fakeEnv) SendClock(id string, sync ClockSync) error {
	if f.unreachable[id] {
		return errors.New("unreachable")
	}
	f.sent[id] = append(f.sent[id], sync)
	return nil
}

func (f *fakeEnv) totalSent() int {
	n := 0
	for _, msgs := range f.sent {
		n += len(msgs)
	}
	return n
}

func testRNG() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func sleeper(id string, x, z, ticks int) Participant {
	return Participant{ID: id, Pos: BlockPos{X: x, Y: 40, Z: z}, Sleeping: true, SleepTicks: ticks}
}

func awake(id string, x, z int) Participant {
	return Participant{ID: id, Pos: BlockPos{X: x, Y: 40, Z: z}}
}
