package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	persistlog "sleepwarp.ai/internal/persistence/log"
	"sleepwarp.ai/internal/sim/world"
)

func pass(tick uint64, before, after world.ClockRecord, ticks int) world.WarpLogEntry {
	return world.WarpLogEntry{
		Tick: tick, WorldID: "OVERWORLD", Sleeping: 1, Participants: 2, Ticks: ticks,
		CycleLength: 24000, ClockBefore: before, ClockAfter: after, Synced: 2,
	}
}

func TestVerifierAcceptsNightSequence(t *testing.T) {
	v := newVerifier(0, 0)
	entries := []world.WarpLogEntry{
		pass(100, world.ClockRecord{GameTime: 13000, CycleTime: 13000}, world.ClockRecord{GameTime: 13040, CycleTime: 13040}, 40),
		pass(101, world.ClockRecord{GameTime: 13041, CycleTime: 13041}, world.ClockRecord{GameTime: 13081, CycleTime: 13081}, 40),
		pass(500, world.ClockRecord{GameTime: 23990, CycleTime: 23990}, world.ClockRecord{GameTime: 24000, CycleTime: 24000}, 10),
	}
	wake := world.WarpLogEntry{
		Tick: 501, WorldID: "OVERWORLD", Sleeping: 2, Participants: 2, ForceWake: true, WeatherReset: true, CycleLength: 24000,
		ClockBefore: world.ClockRecord{GameTime: 24001, CycleTime: 24000},
		ClockAfter:  world.ClockRecord{GameTime: 24001, CycleTime: 24000},
	}
	entries = append(entries, wake)
	for _, e := range entries {
		if err := v.check(e); err != nil {
			t.Fatalf("check tick %d: %v", e.Tick, err)
		}
	}
	s := v.summary
	if s.Passes != 4 || s.WarpTicks != 90 || s.ForceWakes != 1 || s.WeatherResets != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestVerifierRejects(t *testing.T) {
	c := func(g, cy int64) world.ClockRecord { return world.ClockRecord{GameTime: g, CycleTime: cy} }
	cases := map[string]world.WarpLogEntry{
		"delta":    pass(10, c(100, 13000), c(139, 13039), 40),
		"boundary": pass(10, c(100, 23990), c(140, 24030), 40),
		"zero":     pass(10, c(100, 13000), c(100, 13000), 0),
		"nobody":   {Tick: 10, Ticks: 1, ClockBefore: c(1, 1), ClockAfter: c(2, 2)},
		"wake":     {Tick: 10, Sleeping: 1, Participants: 1, ForceWake: true, Ticks: 3, ClockBefore: c(1, 1), ClockAfter: c(4, 4)},
		"reset":    {Tick: 10, Sleeping: 1, Participants: 1, Ticks: 1, WeatherReset: true, ClockBefore: c(1, 1), ClockAfter: c(2, 2)},
	}
	for name, e := range cases {
		if err := newVerifier(0, 0).check(e); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	v := newVerifier(0, 0)
	v.anchor(50, 5000)
	if err := v.check(pass(50, c(5000, 13000), c(5040, 13040), 40)); err == nil || !strings.Contains(err.Error(), "not after") {
		t.Fatalf("repeat tick err = %v", err)
	}
	if err := v.check(pass(51, c(4000, 13000), c(4040, 13040), 40)); err == nil || !strings.Contains(err.Error(), "went back") {
		t.Fatalf("clock regression err = %v", err)
	}
}

func TestVerifierTickWindow(t *testing.T) {
	v := newVerifier(100, 200)
	bad := pass(50, world.ClockRecord{}, world.ClockRecord{GameTime: 1}, 40)
	if err := v.check(bad); err != nil {
		t.Fatalf("entries before from_tick are skipped: %v", err)
	}
	if err := v.check(pass(300, world.ClockRecord{}, world.ClockRecord{GameTime: 1}, 40)); err != nil {
		t.Fatalf("entries after to_tick are skipped: %v", err)
	}
	if v.summary.Passes != 0 {
		t.Fatalf("summary = %+v", v.summary)
	}
}

func TestReplayReadsWarpLogFiles(t *testing.T) {
	dir := t.TempDir()
	l := persistlog.NewWarpLogger(dir)
	e := pass(7, world.ClockRecord{GameTime: 13000, CycleTime: 13000}, world.ClockRecord{GameTime: 13040, CycleTime: 13040}, 40)
	if err := l.WriteWarp(e); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := listLogFiles(filepath.Join(dir, "warps"), "warps-")
	if err != nil || len(files) != 1 {
		t.Fatalf("files = %v err=%v", files, err)
	}
	v := newVerifier(0, 0)
	err = persistlog.ReadJSONLZstd(files[0], func(line []byte) error {
		var got world.WarpLogEntry
		if err := json.Unmarshal(line, &got); err != nil {
			return err
		}
		return v.check(got)
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if v.summary.Passes != 1 || v.summary.WarpTicks != 40 {
		t.Fatalf("summary = %+v", v.summary)
	}
}
