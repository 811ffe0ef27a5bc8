package gen

import "testing"

func testParams() Params {
	p := Params{Seed: 1337, Height: 48}
	p.ApplyDefaults()
	return p
}

func TestColumnDeterministicAndGrounded(t *testing.T) {
	p := testParams()
	a := make([]uint16, p.Height)
	b := make([]uint16, p.Height)
	for x := -40; x < 40; x += 3 {
		for z := -40; z < 40; z += 5 {
			p.Column(x, z, a)
			p.Column(x, z, b)
			for y := range a {
				if a[y] != b[y] {
					t.Fatalf("column (%d,%d) differs at y=%d", x, z, y)
				}
			}
			if a[0] != Stone {
				t.Fatalf("column (%d,%d) has no floor: %s", x, z, Name(a[0]))
			}
			if a[p.Height-1] != Air {
				t.Fatalf("column (%d,%d) reaches the ceiling", x, z)
			}
		}
	}
}

func TestSurfaceHeightInRange(t *testing.T) {
	p := testParams()
	for x := -200; x < 200; x += 7 {
		for z := -200; z < 200; z += 11 {
			h := p.SurfaceHeight(x, z)
			if h < 1 || h > p.Height-7 {
				t.Fatalf("surface %d out of range at (%d,%d)", h, x, z)
			}
		}
	}
}

func TestBlockHelpers(t *testing.T) {
	for n := 1; n <= MaxSnowLayers; n++ {
		if got := SnowLayers(SnowBlock(n)); got != n {
			t.Fatalf("snow layers round trip: got %d want %d", got, n)
		}
	}
	if SnowLayers(Grass) != 0 || SnowBlock(0) != Air || SnowLayers(SnowBlock(12)) != MaxSnowLayers {
		t.Fatalf("snow edge cases")
	}
	if age, ok := WheatAge(WheatBlock(5)); !ok || age != 5 {
		t.Fatalf("wheat age: %d %v", age, ok)
	}
	if _, ok := WheatAge(Sapling); ok {
		t.Fatalf("sapling is not wheat")
	}
	if BlocksPrecipitation(SnowBlock(3)) || BlocksPrecipitation(Sapling) || BlocksPrecipitation(WheatBlock(0)) {
		t.Fatalf("plants and snow must let precipitation through")
	}
	if !BlocksPrecipitation(Water) || !BlocksPrecipitation(Leaves) {
		t.Fatalf("water and leaves stop precipitation")
	}
	if Supports(Water) || Supports(Ice) || !Supports(Grass) {
		t.Fatalf("snow support")
	}
	if Name(SnowBlock(2)) != "SNOW_2" || Name(Stone) != "STONE" {
		t.Fatalf("names: %s %s", Name(SnowBlock(2)), Name(Stone))
	}
}

func TestFixtureSiteInsideChunk(t *testing.T) {
	p := testParams()
	p.FixturePermille = 1000
	for cx := -5; cx <= 5; cx++ {
		for cz := -5; cz <= 5; cz++ {
			x, z, kind, ok := p.FixtureSite(cx, cz)
			if !ok {
				t.Fatalf("expected a site at %d,%d", cx, cz)
			}
			if x < cx*16 || x >= cx*16+16 || z < cz*16 || z >= cz*16+16 {
				t.Fatalf("site (%d,%d) outside chunk (%d,%d)", x, z, cx, cz)
			}
			if kind != FixtureFurnace && kind != FixtureComposter {
				t.Fatalf("kind %q", kind)
			}
		}
	}
}

func TestBiomeByID(t *testing.T) {
	b, ok := BiomeByID("TAIGA")
	if !ok || !b.Cold() {
		t.Fatalf("taiga should be cold: %+v", b)
	}
	if Desert.Precipitates || Plains.Cold() {
		t.Fatalf("biome table")
	}
}
