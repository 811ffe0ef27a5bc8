package store

import (
	"sort"

	"sleepwarp.ai/internal/sim/world/logic/mathx"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Gen.Height {
		return false
	}
	if s.BoundaryR > 0 {
		if x < -s.BoundaryR || x > s.BoundaryR || z < -s.BoundaryR || z > s.BoundaryR {
			return false
		}
	}
	return true
}

func chunkOf(x, z int) (ChunkKey, int, int) {
	return ChunkKey{CX: mathx.FloorDiv(x, ChunkSize), CZ: mathx.FloorDiv(z, ChunkSize)},
		mathx.Mod(x, ChunkSize), mathx.Mod(z, ChunkSize)
}

func (s *ChunkStore) chunkInBounds(k ChunkKey) bool {
	if s.BoundaryR <= 0 {
		return true
	}
	lo := mathx.FloorDiv(-s.BoundaryR, ChunkSize)
	hi := mathx.FloorDiv(s.BoundaryR, ChunkSize)
	return k.CX >= lo && k.CX <= hi && k.CZ >= lo && k.CZ <= hi
}

// UpdateLoaded replaces the loaded set with every chunk within radius chunks of
// one of the given block positions, generating chunks on first use. Unloaded
// chunks keep their data. It returns the number of newly loaded chunks.
func (s *ChunkStore) UpdateLoaded(centers [][3]int, radius int) int {
	if radius < 0 {
		radius = 0
	}
	next := map[ChunkKey]bool{}
	for _, c := range centers {
		k, _, _ := chunkOf(c[0], c[2])
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				nk := ChunkKey{CX: k.CX + dx, CZ: k.CZ + dz}
				if s.chunkInBounds(nk) {
					next[nk] = true
				}
			}
		}
	}
	added := 0
	for k := range next {
		if !s.loaded[k] {
			added++
		}
		s.GetOrGenChunk(k.CX, k.CZ)
	}
	s.loaded = next
	return added
}

// ChunkLoaded reports whether chunk (cx, cz) is in the loaded set.
func (s *ChunkStore) ChunkLoaded(cx, cz int) bool {
	return s.loaded[ChunkKey{CX: cx, CZ: cz}]
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.loaded))
	for k := range s.loaded {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// AllChunkKeys lists every chunk held by the store, loaded or not.
func (s *ChunkStore) AllChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

func SortKeys(keys []ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
}

func (s *ChunkStore) loadedChunk(x, y, z int) (*Chunk, int, int, bool) {
	if !s.InBounds(x, y, z) {
		return nil, 0, 0, false
	}
	k, lx, lz := chunkOf(x, z)
	if !s.loaded[k] {
		return nil, 0, 0, false
	}
	ch := s.Chunks[k]
	if ch == nil {
		return nil, 0, 0, false
	}
	return ch, lx, lz, true
}

// GetBlock returns the block at (x, y, z). ok is false outside the loaded set.
func (s *ChunkStore) GetBlock(x, y, z int) (uint16, bool) {
	ch, lx, lz, ok := s.loadedChunk(x, y, z)
	if !ok {
		return genpkg.Air, false
	}
	return ch.Get(lx, y, lz), true
}

// SetBlock writes a block inside the loaded set and reports whether it did.
func (s *ChunkStore) SetBlock(x, y, z int, b uint16) bool {
	ch, lx, lz, ok := s.loadedChunk(x, y, z)
	if !ok {
		return false
	}
	ch.Set(lx, y, lz, b)
	return true
}

// TopBlocking returns the y of the highest precipitation-blocking block of the
// column, or -1 when the column has none.
func (s *ChunkStore) TopBlocking(x, z int) (int, bool) {
	ch, lx, lz, ok := s.loadedChunk(x, 0, z)
	if !ok {
		return 0, false
	}
	for y := ch.Height - 1; y >= 0; y-- {
		if genpkg.BlocksPrecipitation(ch.Get(lx, y, lz)) {
			return y, true
		}
	}
	return -1, true
}

func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := newChunk(cx, cz, s.Gen.Height)
	s.generateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	if s.OnGenerate != nil {
		s.OnGenerate(ch)
	}
	return ch
}

func (s *ChunkStore) generateChunk(ch *Chunk) {
	col := make([]uint16, ch.Height)
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			s.Gen.Column(ch.CX*ChunkSize+x, ch.CZ*ChunkSize+z, col)
			for y, b := range col {
				ch.Blocks[ch.index(x, y, z)] = b
			}
		}
	}
}
