package world

import (
	"math/rand/v2"

	"sleepwarp.ai/internal/sim/world/feature/warp"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

const (
	saplingGrowChance = 7 // 1 in n per random tick
	wheatGrowChance   = 3
	treeTrunkHeight   = 4
)

func randomTickable(b uint16) bool {
	switch b {
	case genpkg.Sapling, genpkg.Grass, genpkg.Ice:
		return true
	}
	if genpkg.SnowLayers(b) > 0 {
		return true
	}
	age, ok := genpkg.WheatAge(b)
	return ok && age < genpkg.WheatStages-1
}

func (w *World) randomTick(pos warp.BlockPos, rng *rand.Rand) {
	b, ok := w.chunks.GetBlock(pos.X, pos.Y, pos.Z)
	if !ok {
		return
	}
	switch {
	case b == genpkg.Sapling:
		if rng.IntN(saplingGrowChance) == 0 {
			w.growTree(pos)
		}
	case b == genpkg.Grass:
		w.tickGrass(pos, rng)
	case b == genpkg.Ice:
		if !w.chunks.Gen.Biome(pos.X, pos.Z).Cold() {
			w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.Water)
		}
	case genpkg.SnowLayers(b) > 0:
		if !w.chunks.Gen.Biome(pos.X, pos.Z).Cold() {
			w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.SnowBlock(genpkg.SnowLayers(b)-1))
		}
	default:
		if age, ok := genpkg.WheatAge(b); ok && age < genpkg.WheatStages-1 && rng.IntN(wheatGrowChance) == 0 {
			w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.WheatBlock(age+1))
		}
	}
}

// growTree replaces a sapling with a trunk and a leaf cap when every cell of the
// tree is free and loaded.
func (w *World) growTree(pos warp.BlockPos) {
	for dy := 1; dy <= treeTrunkHeight; dy++ {
		b, ok := w.chunks.GetBlock(pos.X, pos.Y+dy, pos.Z)
		if !ok || (b != genpkg.Air && genpkg.SnowLayers(b) == 0) {
			return
		}
	}
	for dy := 0; dy < treeTrunkHeight; dy++ {
		w.chunks.SetBlock(pos.X, pos.Y+dy, pos.Z, genpkg.Log)
	}
	w.chunks.SetBlock(pos.X, pos.Y+treeTrunkHeight, pos.Z, genpkg.Leaves)
}

// covered reports whether the cell above pos holds an opaque block.
func (w *World) covered(pos warp.BlockPos) bool {
	above, ok := w.chunks.GetBlock(pos.X, pos.Y+1, pos.Z)
	return ok && genpkg.BlocksPrecipitation(above) && above != genpkg.Water
}

// tickGrass decays covered grass to dirt; otherwise it tries to spread onto one
// uncovered dirt cell nearby.
func (w *World) tickGrass(pos warp.BlockPos, rng *rand.Rand) {
	if w.covered(pos) {
		w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.Dirt)
		return
	}
	target := warp.BlockPos{
		X: pos.X + rng.IntN(3) - 1,
		Y: pos.Y + rng.IntN(5) - 3,
		Z: pos.Z + rng.IntN(3) - 1,
	}
	b, ok := w.chunks.GetBlock(target.X, target.Y, target.Z)
	if ok && b == genpkg.Dirt && !w.covered(target) {
		w.chunks.SetBlock(target.X, target.Y, target.Z, genpkg.Grass)
	}
}
