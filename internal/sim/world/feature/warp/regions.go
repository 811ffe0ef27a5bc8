package warp

import (
	"math/rand/v2"
	"sort"
)

// CollectRegions returns every region within radius of a participant, each at
// most once, in an order shuffled by rng. The set is sorted before shuffling so a
// seeded rng reproduces the same order.
func CollectRegions(roster []Participant, radius int, rng *rand.Rand) []RegionPos {
	if len(roster) == 0 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}
	seen := make(map[RegionPos]struct{}, len(roster)*(2*radius+1)*(2*radius+1))
	for _, p := range roster {
		c := p.Pos.Region()
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				seen[RegionPos{X: c.X + dx, Z: c.Z + dz}] = struct{}{}
			}
		}
	}

	out := make([]RegionPos, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
