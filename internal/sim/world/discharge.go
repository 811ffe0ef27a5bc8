package world

import (
	"sleepwarp.ai/internal/sim/world/feature/warp"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

// spawnDischarge records a discharge at pos. The strike scorches the block it
// hits: grass burns down to dirt and leaves burn away.
func (w *World) spawnDischarge(nowTick uint64, pos warp.BlockPos) {
	scorched := false
	below := pos.Down()
	if b, ok := w.chunks.GetBlock(below.X, below.Y, below.Z); ok {
		switch b {
		case genpkg.Grass:
			scorched = w.chunks.SetBlock(below.X, below.Y, below.Z, genpkg.Dirt)
		case genpkg.Leaves:
			scorched = w.chunks.SetBlock(below.X, below.Y, below.Z, genpkg.Air)
		}
	}
	w.counters.Discharges++
	w.dischargesThisTick = append(w.dischargesThisTick, DischargeEntry{
		Tick:     nowTick,
		WorldID:  w.cfg.ID,
		GameTime: w.clock.GameTime,
		Pos:      [3]int{pos.X, pos.Y, pos.Z},
		Scorched: scorched,
	})
}
