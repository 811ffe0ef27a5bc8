package world

import (
	"path/filepath"
	"testing"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/world/feature/warp"
)

func TestSnapshotRoundTripPreservesDigest(t *testing.T) {
	a := newTestWorld(t, func(cfg *WorldConfig) { cfg.WeatherCycle = true })
	id, _ := joinOne(t, a, "alice")
	a.clock = warp.Clock{GameTime: 9000, CycleTime: 13000}
	makeEligible(a, id)
	for i := 0; i < 5; i++ {
		a.StepOnce(nil, nil, nil)
	}
	tick := a.CurrentTick() - 1
	snap := a.ExportSnapshot(tick)

	path := filepath.Join(t.TempDir(), "snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	b := newTestWorld(t, func(cfg *WorldConfig) { cfg.WeatherCycle = true })
	if err := b.ImportSnapshot(loaded); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := b.stateDigest(tick); got != snap.Header.Digest {
		t.Fatalf("digest mismatch after import: %s != %s", got, snap.Header.Digest)
	}
	if b.CurrentTick() != tick+1 {
		t.Fatalf("tick = %d, want %d", b.CurrentTick(), tick+1)
	}
	if b.clock != a.clock || b.weather != a.weather {
		t.Fatalf("clock/weather differ: %+v %+v vs %+v %+v", b.clock, b.weather, a.clock, a.weather)
	}
	if b.counters != a.counters {
		t.Fatalf("counters = %+v, want %+v", b.counters, a.counters)
	}

	p := b.participants[id]
	if p == nil || p.Online {
		t.Fatalf("restored participant should be offline: %+v", p)
	}
	resp := make(chan JoinResponse, 1)
	b.handleAttach(AttachRequest{ResumeToken: p.ResumeToken, Out: make(chan []byte, 4), Resp: resp})
	if r := <-resp; r.Welcome.ParticipantID != id || !p.Online {
		t.Fatalf("attach after restore: %+v", r)
	}
}

func TestImportRejectsMismatchedWorld(t *testing.T) {
	a := newTestWorld(t, nil)
	a.StepOnce(nil, nil, nil)
	snap := a.ExportSnapshot(0)

	cases := map[string]func(cfg *WorldConfig){
		"seed":   func(cfg *WorldConfig) { cfg.Seed = 7 },
		"height": func(cfg *WorldConfig) { cfg.Height = 48 },
		"id":     func(cfg *WorldConfig) { cfg.ID = "NETHER" },
		"cycle":  func(cfg *WorldConfig) { cfg.Warp.CycleLength = 1200 },
	}
	for name, mut := range cases {
		b := newTestWorld(t, mut)
		if err := b.ImportSnapshot(snap); err == nil {
			t.Fatalf("%s: expected import error", name)
		}
	}

	bad := snap
	bad.CycleTime = bad.CycleLength + 1
	if err := newTestWorld(t, nil).ImportSnapshot(bad); err == nil {
		t.Fatalf("cycle time past the boundary must be rejected")
	}
}
