package gen

import "sleepwarp.ai/internal/sim/world/logic/mathx"

type Biome struct {
	ID          string
	Temperature float64
	// Precipitates is false for biomes where it never rains or snows.
	Precipitates bool
}

// coldBelow is the temperature under which precipitation falls as snow and
// exposed water freezes.
const coldBelow = 0.15

var (
	Plains      = Biome{ID: "PLAINS", Temperature: 0.8, Precipitates: true}
	Forest      = Biome{ID: "FOREST", Temperature: 0.7, Precipitates: true}
	Desert      = Biome{ID: "DESERT", Temperature: 2.0}
	Taiga       = Biome{ID: "TAIGA", Temperature: -0.5, Precipitates: true}
	FrozenOcean = Biome{ID: "FROZEN_OCEAN", Temperature: 0.0, Precipitates: true}
)

var biomes = [...]Biome{Plains, Forest, Desert, Taiga, FrozenOcean}

func (b Biome) Cold() bool { return b.Temperature < coldBelow }

func BiomeFrom(noise uint64) Biome {
	return biomes[noise%uint64(len(biomes))]
}

// BiomeAt picks the biome of the regionSize x regionSize cell containing (x, z).
func BiomeAt(seed int64, x, z, regionSize int) Biome {
	if regionSize <= 0 {
		regionSize = 1
	}
	return BiomeFrom(mathx.Hash2(seed, mathx.FloorDiv(x, regionSize), mathx.FloorDiv(z, regionSize)))
}

func BiomeByID(id string) (Biome, bool) {
	for _, b := range biomes {
		if b.ID == id {
			return b, true
		}
	}
	return Biome{}, false
}
