package world

import (
	"encoding/json"
	"testing"

	"sleepwarp.ai/internal/sim/world/feature/warp"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

func newTestWorld(t *testing.T, mut func(cfg *WorldConfig)) *World {
	t.Helper()
	cfg := WorldConfig{
		ID:                "OVERWORLD",
		Seed:              42,
		Height:            32,
		ClockDriverActive: true,
		Warp:              warp.DefaultConfig(),
	}
	if mut != nil {
		mut(&cfg)
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func joinOne(t *testing.T, w *World, name string) (string, chan []byte) {
	t.Helper()
	out := make(chan []byte, 256)
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{Name: name, Out: out, Resp: resp}}, nil, nil)
	r := <-resp
	if r.ErrCode != "" || r.Welcome.ParticipantID == "" {
		t.Fatalf("join failed: %+v", r)
	}
	drain(out)
	return r.Welcome.ParticipantID, out
}

func drain(out chan []byte) []map[string]any {
	var msgs []map[string]any
	for {
		select {
		case b := <-out:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err == nil {
				msgs = append(msgs, m)
			}
		default:
			return msgs
		}
	}
}

func ofType(msgs []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, m := range msgs {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func eventsOf(msgs []map[string]any, evType string) int {
	n := 0
	for _, m := range ofType(msgs, "EVENT") {
		if ev, ok := m["event"].(map[string]any); ok && ev["type"] == evType {
			n++
		}
	}
	return n
}

func makeEligible(w *World, id string) {
	p := w.participants[id]
	p.Sleeping = true
	p.SleepTicks = w.cfg.Warp.SleepEligibleTicks
}

// findColumn returns a loaded column whose biome satisfies pred.
func findColumn(t *testing.T, w *World, pred func(genpkg.Biome) bool) (int, int) {
	t.Helper()
	for _, k := range w.chunks.LoadedChunkKeys() {
		x, z := k.CX*16+8, k.CZ*16+8
		if pred(w.chunks.Gen.Biome(x, z)) {
			return x, z
		}
	}
	t.Fatalf("no loaded column matches")
	return 0, 0
}

// flatColumn rebuilds column (x, z) as stone up to y=top-1 with surface at top
// and air above.
func flatColumn(w *World, x, z, top int, surface uint16) {
	for y := 0; y < w.cfg.Height; y++ {
		b := genpkg.Air
		switch {
		case y < top:
			b = genpkg.Stone
		case y == top:
			b = surface
		}
		w.chunks.SetBlock(x, y, z, b)
	}
}
