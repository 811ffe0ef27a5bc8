package warp

import (
	"slices"
	"testing"
)

func TestCollectRegions_DedupSameRegion(t *testing.T) {
	roster := []Participant{awake("a", 1, 1), awake("b", 14, 9)}
	got := CollectRegions(roster, 0, testRNG())
	if len(got) != 1 || got[0] != (RegionPos{0, 0}) {
		t.Fatalf("got %v want [{0 0}]", got)
	}
}

func TestCollectRegions_NeighbourhoodUnion(t *testing.T) {
	one := CollectRegions([]Participant{awake("a", 0, 0)}, 3, testRNG())
	if len(one) != 49 {
		t.Fatalf("radius 3: got %d regions want 49", len(one))
	}

	// Adjacent regions with radius 1 overlap in a 2x3 strip.
	two := CollectRegions([]Participant{awake("a", 0, 0), awake("b", 16, 0)}, 1, testRNG())
	if len(two) != 12 {
		t.Fatalf("adjacent radius 1: got %d regions want 12", len(two))
	}
	seen := map[RegionPos]bool{}
	for _, r := range two {
		if seen[r] {
			t.Fatalf("duplicate region %v", r)
		}
		seen[r] = true
	}
}

func TestCollectRegions_NegativeCoordinates(t *testing.T) {
	got := CollectRegions([]Participant{awake("a", -1, -17)}, 0, testRNG())
	if len(got) != 1 || got[0] != (RegionPos{X: -1, Z: -2}) {
		t.Fatalf("got %v want [{-1 -2}]", got)
	}
}

func TestCollectRegions_EmptyRoster(t *testing.T) {
	if got := CollectRegions(nil, 3, testRNG()); len(got) != 0 {
		t.Fatalf("got %v want empty", got)
	}
}

func TestCollectRegions_FreshOrderEachCall(t *testing.T) {
	rng := testRNG()
	roster := []Participant{awake("a", 0, 0)}
	first := CollectRegions(roster, 3, rng)
	second := CollectRegions(roster, 3, rng)
	if slices.Equal(first, second) {
		t.Fatalf("two passes produced the same region order")
	}
	sortRegions := func(rs []RegionPos) []RegionPos {
		out := slices.Clone(rs)
		slices.SortFunc(out, func(a, b RegionPos) int {
			if a.X != b.X {
				return a.X - b.X
			}
			return a.Z - b.Z
		})
		return out
	}
	if !slices.Equal(sortRegions(first), sortRegions(second)) {
		t.Fatalf("region sets differ between passes")
	}
}
