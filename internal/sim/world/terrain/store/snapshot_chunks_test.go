package store

import (
	"testing"

	snapv1 "sleepwarp.ai/internal/persistence/snapshot"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

func TestExportAndImportChunksRoundTrip(t *testing.T) {
	gen := genpkg.Params{Seed: 7, Height: 16}
	s := NewChunkStore(gen, 0)
	ch := newChunk(1, -2, 16)
	ch.Blocks[0] = 3
	ch.Blocks[17+256*5] = 9
	s.Chunks[ChunkKey{CX: ch.CX, CZ: ch.CZ}] = ch

	keys := []ChunkKey{{CX: 1, CZ: -2}}
	exported := ExportChunks(s.Chunks, keys)
	if len(exported) != 1 {
		t.Fatalf("expected 1 exported chunk, got %d", len(exported))
	}
	if exported[0].Height != 16 || exported[0].Blocks[17+256*5] != 9 {
		t.Fatalf("unexpected exported chunk: height=%d", exported[0].Height)
	}

	imported, err := ImportChunks(gen, 0, exported)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got := imported.Chunks[ChunkKey{CX: 1, CZ: -2}]
	if got == nil {
		t.Fatalf("missing imported chunk")
	}
	if got.Blocks[0] != 3 || got.Get(1, 5, 1) != 9 {
		t.Fatalf("unexpected imported blocks: got %d,%d", got.Blocks[0], got.Get(1, 5, 1))
	}
	if got.Digest() != ch.Digest() {
		t.Fatalf("digest changed across export/import")
	}
}

func TestImportChunksRejectsInvalidShape(t *testing.T) {
	gen := genpkg.Params{Seed: 1, Height: 16}
	_, err := ImportChunks(gen, 0, []snapv1.ChunkV1{{
		CX:     0,
		CZ:     0,
		Height: 2,
		Blocks: make([]uint16, 16*16*2),
	}})
	if err == nil {
		t.Fatalf("expected error for invalid chunk shape")
	}
}
