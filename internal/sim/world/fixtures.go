package world

import (
	"sleepwarp.ai/internal/sim/world/feature/admin/requests"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	"sleepwarp.ai/internal/sim/world/logic/ids"
	"sleepwarp.ai/internal/sim/world/logic/mathx"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
	"sleepwarp.ai/internal/sim/world/terrain/store"
)

const (
	furnaceBurnTicksPerFuel = 1600
	furnaceCookTicks        = 200
	composterReadyLevel     = 8
	composterSettleTicks    = 20
)

// Furnace smelts Input into Output while it has fuel burning.
type Furnace struct {
	Pos       warp.BlockPos
	Fuel      int
	Input     int
	Output    int
	BurnTicks int
	Progress  int
}

func (f *Furnace) tick() {
	if f.BurnTicks == 0 && f.Input > 0 && f.Fuel > 0 {
		f.Fuel--
		f.BurnTicks = furnaceBurnTicksPerFuel
	}
	if f.BurnTicks == 0 {
		// Cooling down loses progress twice as fast as cooking gains it.
		f.Progress = mathx.ClampInt(f.Progress-2, 0, furnaceCookTicks)
		return
	}
	f.BurnTicks--
	if f.Input == 0 {
		return
	}
	f.Progress++
	if f.Progress >= furnaceCookTicks {
		f.Progress = 0
		f.Input--
		f.Output++
	}
}

// Composter turns a full bin (level 7) into a ready one after a short delay.
type Composter struct {
	Pos   warp.BlockPos
	Level int
	Timer int
}

func (c *Composter) tick() {
	if c.Level != composterReadyLevel-1 {
		c.Timer = 0
		return
	}
	c.Timer++
	if c.Timer >= composterSettleTicks {
		c.Level = composterReadyLevel
		c.Timer = 0
	}
}

// tickFixtures advances every fixture in a loaded chunk by one tick and returns
// how many were ticked.
func (w *World) tickFixtures() int {
	n := 0
	for pos, f := range w.furnaces {
		if w.fixtureLoaded(pos) {
			f.tick()
			n++
		}
	}
	for pos, c := range w.composters {
		if w.fixtureLoaded(pos) {
			c.tick()
			n++
		}
	}
	return n
}

func (w *World) fixtureLoaded(pos warp.BlockPos) bool {
	r := pos.Region()
	return w.chunks.ChunkLoaded(r.X, r.Z)
}

// placeGeneratedFixtures runs once per freshly generated chunk and registers the
// chunk's fixture site, if it has one.
func (w *World) placeGeneratedFixtures(ch *store.Chunk) {
	x, z, kind, ok := w.chunks.Gen.FixtureSite(ch.CX, ch.CZ)
	if !ok {
		return
	}
	lx, lz := mathx.Mod(x, store.ChunkSize), mathx.Mod(z, store.ChunkSize)
	y := -1
	for yy := ch.Height - 2; yy >= 0; yy-- {
		b := ch.Get(lx, yy, lz)
		if b != genpkg.Air {
			if b == genpkg.Water || b == genpkg.Leaves || b == genpkg.Sapling {
				return
			}
			if _, crop := genpkg.WheatAge(b); crop {
				return
			}
			y = yy + 1
			break
		}
	}
	if y <= 0 {
		return
	}
	if genpkg.SnowLayers(ch.Get(lx, y-1, lz)) > 0 {
		y--
	}
	pos := warp.BlockPos{X: x, Y: y, Z: z}
	h := mathx.Hash3(w.cfg.Seed+91, x, y, z)
	switch kind {
	case genpkg.FixtureFurnace:
		ch.Set(lx, y, lz, genpkg.Furnace)
		w.furnaces[pos] = &Furnace{Pos: pos, Fuel: 1 + int(h%4), Input: 8 + int((h>>8)%24)}
	case genpkg.FixtureComposter:
		ch.Set(lx, y, lz, genpkg.Composter)
		w.composters[pos] = &Composter{Pos: pos, Level: int((h >> 8) % composterReadyLevel)}
	}
}

func (w *World) fixtureViews() []requests.Fixture {
	out := make([]requests.Fixture, 0, len(w.furnaces)+len(w.composters))
	for _, pos := range sortedPositions(w.furnaces) {
		f := w.furnaces[pos]
		out = append(out, requests.Fixture{
			ID:       ids.FixtureID(string(genpkg.FixtureFurnace), pos.X, pos.Y, pos.Z),
			Kind:     string(genpkg.FixtureFurnace),
			Pos:      [3]int{pos.X, pos.Y, pos.Z},
			Loaded:   w.fixtureLoaded(pos),
			Input:    f.Input,
			Output:   f.Output,
			Fuel:     f.Fuel,
			Progress: f.Progress,
		})
	}
	for _, pos := range sortedPositions(w.composters) {
		c := w.composters[pos]
		out = append(out, requests.Fixture{
			ID:     ids.FixtureID(string(genpkg.FixtureComposter), pos.X, pos.Y, pos.Z),
			Kind:   string(genpkg.FixtureComposter),
			Pos:    [3]int{pos.X, pos.Y, pos.Z},
			Loaded: w.fixtureLoaded(pos),
			Level:  c.Level,
		})
	}
	return out
}
