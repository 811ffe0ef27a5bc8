package warp

import "math/rand/v2"

// SimStats counts the observable effects of simulated ticks.
type SimStats struct {
	Ticks          int `json:"ticks"`
	RandomSamples  int `json:"random_samples"`
	RandomUpdates  int `json:"random_updates"`
	FixtureTicks   int `json:"fixture_ticks"`
	IceFormed      int `json:"ice_formed"`
	SnowPlaced     int `json:"snow_placed"`
	Discharges     int `json:"discharges"`
	RegionsMissing int `json:"regions_missing"`
}

func (s *SimStats) Add(o SimStats) {
	s.Ticks += o.Ticks
	s.RandomSamples += o.RandomSamples
	s.RandomUpdates += o.RandomUpdates
	s.FixtureTicks += o.FixtureTicks
	s.IceFormed += o.IceFormed
	s.SnowPlaced += o.SnowPlaced
	s.Discharges += o.Discharges
	s.RegionsMissing += o.RegionsMissing
}

type Simulator struct {
	cfg Config
	rng *rand.Rand
}

func NewSimulator(cfg Config, rng *rand.Rand) *Simulator {
	return &Simulator{cfg: cfg, rng: rng}
}

// Run executes ticks compressed ticks. The clock advances on every iteration no
// matter which features are enabled; there is no early exit.
func (s *Simulator) Run(env Env, regions []RegionPos, ticks int) SimStats {
	var st SimStats
	for i := 0; i < ticks; i++ {
		env.AdvanceClock()
		st.Ticks++
		TickRegions(env, regions, s.cfg, s.rng, &st)
	}
	return st
}

// TickRegions runs one tick of environmental simulation over regions. It is shared
// by compressed passes and the partition's real-time environment step.
func TickRegions(env RegionEnv, regions []RegionPos, cfg Config, rng *rand.Rand, st *SimStats) {
	f := cfg.Features

	if f.RandomCellUpdates && cfg.RandomSamplesPerRegion > 0 {
		minY, maxY := env.HeightRange()
		for _, r := range regions {
			if !env.RegionLoaded(r) {
				st.RegionsMissing++
				continue
			}
			for n := 0; n < cfg.RandomSamplesPerRegion; n++ {
				target := randomCell(rng, r, minY, maxY)
				pos := target.Pos()
				st.RandomSamples++
				if env.RandomTickable(pos) {
					env.RandomTick(pos, rng)
					st.RandomUpdates++
				}
			}
		}
	}

	// Fixtures are never sampled: every one of them ticks every simulated tick.
	if f.BlockEntities {
		env.TickFixtures()
		st.FixtureTicks++
	}

	w := env.Weather()
	if !w.Raining {
		return
	}
	if f.Precipitation {
		limit := cfg.SnowLayerLimit()
		for _, r := range regions {
			if rng.Float64() >= cfg.PrecipitationProbability {
				continue
			}
			top, ok := surfaceInRegion(env, rng, r)
			if !ok {
				continue
			}
			biome := env.BiomeAt(top)
			if biome == nil {
				continue
			}
			below := top.Down()
			if biome.ShouldFreeze(below) {
				env.Freeze(below)
				st.IceFormed++
				continue
			}
			if !biome.ShouldSnow(top) {
				continue
			}
			if layers := env.SnowLayers(top); layers > 0 {
				if layers < limit {
					env.SetSnowLayers(top, layers+1)
					st.SnowPlaced++
				}
			} else if env.IsEmpty(top) {
				env.SetSnowLayers(top, 1)
				st.SnowPlaced++
			}
		}
	}
	if f.ElectricalDischarge && w.Thundering {
		for _, r := range regions {
			if rng.Float64() >= cfg.DischargeProbability {
				continue
			}
			top, ok := surfaceInRegion(env, rng, r)
			if !ok {
				continue
			}
			if env.PrecipitatingAt(top) {
				env.SpawnDischarge(top)
				st.Discharges++
			}
		}
	}
}

func randomCell(rng *rand.Rand, r RegionPos, minY, maxY int) CellTarget {
	y := minY
	if maxY > minY {
		y = minY + rng.IntN(maxY-minY)
	}
	return CellTarget{
		Region: r,
		Offset: [3]int{rng.IntN(RegionSize), y, rng.IntN(RegionSize)},
	}
}

func surfaceInRegion(env Terrain, rng *rand.Rand, r RegionPos) (BlockPos, bool) {
	if !env.RegionLoaded(r) {
		return BlockPos{}, false
	}
	ox, oz := r.Origin()
	return env.PrecipitationSurface(ox+rng.IntN(RegionSize), oz+rng.IntN(RegionSize))
}
