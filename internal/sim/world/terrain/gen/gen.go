package gen

import "sleepwarp.ai/internal/sim/world/logic/mathx"

// Params drives deterministic terrain generation.
type Params struct {
	Seed            int64
	Height          int
	SeaLevel        int
	BiomeRegionSize int

	TreePermille    int
	SaplingPermille int
	CropPermille    int
	// FixturePermille is the chance per chunk of a furnace or composter site.
	FixturePermille int
}

func (p *Params) ApplyDefaults() {
	if p.Height <= 0 {
		p.Height = 64
	}
	if p.SeaLevel <= 0 || p.SeaLevel >= p.Height-8 {
		p.SeaLevel = p.Height / 2
	}
	if p.BiomeRegionSize <= 0 {
		p.BiomeRegionSize = 64
	}
	if p.TreePermille <= 0 {
		p.TreePermille = 40
	}
	if p.SaplingPermille <= 0 {
		p.SaplingPermille = 8
	}
	if p.CropPermille <= 0 {
		p.CropPermille = 30
	}
	if p.FixturePermille <= 0 {
		p.FixturePermille = 120
	}
}

func ClampPermille(v int) int {
	return mathx.ClampInt(v, 0, 1000)
}

func (p Params) Biome(x, z int) Biome {
	return BiomeAt(p.Seed, x, z, p.BiomeRegionSize)
}

// SurfaceHeight returns the y of the topmost terrain block of the column,
// before decorations.
func (p Params) SurfaceHeight(x, z int) int {
	const cell = 16
	gx, gz := mathx.FloorDiv(x, cell), mathx.FloorDiv(z, cell)
	fx := float64(mathx.Mod(x, cell)) / cell
	fz := float64(mathx.Mod(z, cell)) / cell
	corner := func(dx, dz int) float64 {
		return mathx.Unit(mathx.Hash2(p.Seed+11, gx+dx, gz+dz))
	}
	top := corner(0, 0)*(1-fx) + corner(1, 0)*fx
	bot := corner(0, 1)*(1-fx) + corner(1, 1)*fx
	v := top*(1-fz) + bot*fz

	h := p.SeaLevel - 2 + int(v*8)
	if p.Biome(x, z).ID == FrozenOcean.ID {
		h = p.SeaLevel - 3 - int(v*3)
	}
	return mathx.ClampInt(h, 1, p.Height-7)
}

// Column fills out[0:Height] with the generated blocks of column (x, z).
func (p Params) Column(x, z int, out []uint16) {
	biome := p.Biome(x, z)
	h := p.SurfaceHeight(x, z)
	sandy := biome.ID == Desert.ID || h < p.SeaLevel

	for y := 0; y < p.Height; y++ {
		var b uint16
		switch {
		case y == 0 || y < h-3:
			b = Stone
		case y < h:
			b = Dirt
			if sandy {
				b = Sand
			}
		case y == h:
			b = Grass
			if sandy {
				b = Sand
			}
		case y <= p.SeaLevel:
			b = Water
		default:
			b = Air
		}
		out[y] = b
	}

	if h < p.SeaLevel {
		if biome.Cold() && mathx.Hash2(p.Seed+29, x, z)%1000 < 300 {
			out[p.SeaLevel] = Ice
		}
		return
	}

	roll := int(mathx.Hash2(p.Seed+31, x, z) % 1000)
	trees := ClampPermille(p.TreePermille)
	saplings := trees + ClampPermille(p.SaplingPermille)
	crops := saplings + ClampPermille(p.CropPermille)
	switch biome.ID {
	case Forest.ID, Taiga.ID:
		switch {
		case roll < trees:
			for y := h + 1; y <= h+4; y++ {
				out[y] = Log
			}
			out[h+5] = Leaves
			return
		case roll < saplings:
			out[h+1] = Sapling
			return
		}
	case Plains.ID:
		switch {
		case roll < saplings-trees:
			out[h+1] = Sapling
			return
		case roll < crops:
			out[h] = Dirt
			out[h+1] = WheatBlock(int(mathx.Hash2(p.Seed+37, x, z) % WheatStages))
			return
		}
	}
	if biome.Cold() && out[h] == Grass {
		out[h+1] = SnowBlock(1)
	}
}

type FixtureKind string

const (
	FixtureFurnace   FixtureKind = "FURNACE"
	FixtureComposter FixtureKind = "COMPOSTER"
)

// FixtureSite reports the generated fixture of chunk (cx, cz), if any. The
// returned column lies inside the chunk.
func (p Params) FixtureSite(cx, cz int) (x, z int, kind FixtureKind, ok bool) {
	h := mathx.Hash2(p.Seed+77, cx, cz)
	if int(h%1000) >= ClampPermille(p.FixturePermille) {
		return 0, 0, "", false
	}
	x = cx*16 + int((h>>12)%16)
	z = cz*16 + int((h>>20)%16)
	kind = FixtureFurnace
	if (h>>28)&1 == 1 {
		kind = FixtureComposter
	}
	return x, z, kind, true
}
