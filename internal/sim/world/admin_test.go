package world

import (
	"context"
	"testing"
	"time"

	"sleepwarp.ai/internal/persistence/snapshot"
)

func TestRunLoopAdminRequests(t *testing.T) {
	w := newTestWorld(t, func(cfg *WorldConfig) {
		cfg.TickRateHz = 100
		cfg.WeatherCycle = true
	})
	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := make(chan []byte, 64)
	resp := make(chan JoinResponse, 1)
	w.Join() <- JoinRequest{Name: "alice", Out: out, Resp: resp}
	select {
	case r := <-resp:
		if r.Welcome.ParticipantID == "" {
			t.Fatalf("join: %+v", r)
		}
	case <-ctx.Done():
		t.Fatalf("join timed out")
	}

	wr, err := w.RequestWeather(ctx, true, true, 500)
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if !wr.Raining || !wr.Thundering {
		t.Fatalf("weather resp = %+v", wr)
	}
	if _, err := w.RequestWeather(ctx, false, false, -1); err == nil {
		t.Fatalf("negative duration must be rejected")
	}

	fr, err := w.RequestFixtures(ctx)
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	for _, f := range fr.Fixtures {
		if f.ID == "" || (f.Kind != "FURNACE" && f.Kind != "COMPOSTER") {
			t.Fatalf("fixture = %+v", f)
		}
	}

	tick, err := w.RequestSnapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	select {
	case snap := <-sink:
		if snap.Header.Tick != tick || !snap.Raining {
			t.Fatalf("snapshot header=%+v raining=%v", snap.Header, snap.Raining)
		}
	case <-ctx.Done():
		t.Fatalf("snapshot not delivered")
	}

	m := w.Metrics()
	if !m.Raining || !m.Thundering || m.Online != 1 {
		t.Fatalf("metrics = %+v", m)
	}

	w.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSnapshotRequestWithoutSink(t *testing.T) {
	w := newTestWorld(t, func(cfg *WorldConfig) { cfg.TickRateHz = 100 })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)
	if _, err := w.RequestSnapshot(ctx); err == nil {
		t.Fatalf("expected error without a snapshot sink")
	}
}
