package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "OVERWORLD", "120.snap.zst")
	snap := SnapshotV1{
		Header:      Header{Version: Version, WorldID: "OVERWORLD", Tick: 120, Digest: "abc"},
		Seed:        42,
		CycleLength: 24000,
		Height:      32,
		GameTime:    5000,
		CycleTime:   24000,
		Raining:     true,
		RainTime:    77,
		RNG:         []byte{1, 2, 3},
		Chunks: []ChunkV1{{
			CX: -1, CZ: 2, Height: 32, Blocks: make([]uint16, 16*16*32),
		}},
		Furnaces:     []FurnaceV1{{Pos: [3]int{1, 20, 3}, Fuel: 2, Input: 5, BurnTicks: 100}},
		Participants: []ParticipantV1{{ID: "P1", Name: "alice", Sleeping: true, SleepTicks: 150}},
		Counters:     CountersV1{Passes: 3, WarpTicks: 120},
	}
	snap.Chunks[0].Blocks[300] = 9

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.WorldID != "OVERWORLD" || h.Tick != 120 || h.Digest != "abc" {
		t.Fatalf("header = %+v", h)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.CycleTime != 24000 || !got.Raining || got.RainTime != 77 {
		t.Fatalf("clock/weather lost: %+v", got)
	}
	if len(got.Chunks) != 1 || got.Chunks[0].Blocks[300] != 9 || got.Chunks[0].CX != -1 {
		t.Fatalf("chunk lost")
	}
	if len(got.Participants) != 1 || got.Participants[0].SleepTicks != 150 {
		t.Fatalf("participants lost: %+v", got.Participants)
	}
	if string(got.RNG) != "\x01\x02\x03" {
		t.Fatalf("rng = %v", got.RNG)
	}
}

func TestReadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 9, WorldID: "W"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
