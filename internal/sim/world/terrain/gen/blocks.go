package gen

import "fmt"

// Block ids. Snow layers and wheat growth stages each occupy a contiguous run.
const (
	Air uint16 = iota
	Stone
	Dirt
	Grass
	Sand
	Gravel
	Water
	Ice
	Log
	Leaves
	Sapling
	Furnace
	Composter
	SnowLayer
)

const (
	MaxSnowLayers = 8
	WheatStages   = 8

	Wheat       = SnowLayer + MaxSnowLayers
	PaletteSize = Wheat + WheatStages
)

var baseNames = [...]string{
	Air:       "AIR",
	Stone:     "STONE",
	Dirt:      "DIRT",
	Grass:     "GRASS",
	Sand:      "SAND",
	Gravel:    "GRAVEL",
	Water:     "WATER",
	Ice:       "ICE",
	Log:       "LOG",
	Leaves:    "LEAVES",
	Sapling:   "SAPLING",
	Furnace:   "FURNACE",
	Composter: "COMPOSTER",
}

// SnowBlock returns the id of a snow cell holding layers (1..MaxSnowLayers).
func SnowBlock(layers int) uint16 {
	if layers < 1 {
		return Air
	}
	if layers > MaxSnowLayers {
		layers = MaxSnowLayers
	}
	return SnowLayer + uint16(layers-1)
}

// SnowLayers returns the layer count of b, or 0 when b is not snow.
func SnowLayers(b uint16) int {
	if b >= SnowLayer && b < SnowLayer+MaxSnowLayers {
		return int(b-SnowLayer) + 1
	}
	return 0
}

func WheatBlock(age int) uint16 {
	if age < 0 {
		age = 0
	}
	if age >= WheatStages {
		age = WheatStages - 1
	}
	return Wheat + uint16(age)
}

func WheatAge(b uint16) (int, bool) {
	if b >= Wheat && b < Wheat+WheatStages {
		return int(b - Wheat), true
	}
	return 0, false
}

func Name(b uint16) string {
	if int(b) < len(baseNames) {
		return baseNames[b]
	}
	if n := SnowLayers(b); n > 0 {
		return fmt.Sprintf("SNOW_%d", n)
	}
	if age, ok := WheatAge(b); ok {
		return fmt.Sprintf("WHEAT_%d", age)
	}
	return fmt.Sprintf("UNKNOWN_%d", b)
}

// BlocksPrecipitation reports whether rain and snow stop at b. Plants and snow
// layers let precipitation through to the cell they occupy.
func BlocksPrecipitation(b uint16) bool {
	switch {
	case b == Air, b == Sapling:
		return false
	case SnowLayers(b) > 0:
		return false
	}
	_, crop := WheatAge(b)
	return !crop
}

// Supports reports whether b can carry a snow layer on top.
func Supports(b uint16) bool {
	if b == Water || b == Ice {
		return false
	}
	return BlocksPrecipitation(b)
}
