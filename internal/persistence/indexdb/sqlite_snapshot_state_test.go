package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/sim/world"
)

func TestSQLiteIndex_WritesAndQueries(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.sqlite")

	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("tuning: %v", err)
	}

	_ = idx.WriteWarp(world.WarpLogEntry{
		Tick: 10, WorldID: "w1", Sleeping: 1, Participants: 2, Ticks: 40,
		ClockBefore: world.ClockRecord{GameTime: 100, CycleTime: 13000},
		ClockAfter:  world.ClockRecord{GameTime: 140, CycleTime: 13040},
		Digest:      "d10",
	})
	_ = idx.WriteWarp(world.WarpLogEntry{Tick: 11, WorldID: "w1", Sleeping: 2, Participants: 2, ForceWake: true, Digest: "d11"})
	_ = idx.WriteWarp(world.WarpLogEntry{Tick: 12, WorldID: "other", Ticks: 5})
	_ = idx.WriteDischarge(world.DischargeEntry{Tick: 10, WorldID: "w1", Pos: [3]int{1, 2, 3}, Scorched: true})
	_ = idx.WriteDischarge(world.DischargeEntry{Tick: 10, WorldID: "w1", Pos: [3]int{4, 5, 6}})

	snap := snapshot.SnapshotV1{
		Header:            snapshot.Header{Version: snapshot.Version, WorldID: "w1", Tick: 123},
		Seed:              42,
		Height:            64,
		GameTime:          5000,
		CycleTime:         4000,
		ClockDriverActive: true,
		Raining:           true,
		Participants: []snapshot.ParticipantV1{
			{ID: "P1", Name: "alice", Pos: [3]int{1, 20, 3}, Sleeping: true, SleepTicks: 150},
			{ID: "P2", Name: "bob", Pos: [3]int{4, 20, 6}},
		},
	}
	idx.RecordSnapshot(filepath.Join(dir, "123.snap.zst"), snap)
	idx.RecordSnapshotState(snap)

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	warps, err := RecentWarps(ctx, db, "w1", 10, false)
	if err != nil {
		t.Fatalf("warps: %v", err)
	}
	if len(warps) != 2 || warps[0].Tick != 11 || !warps[0].ForceWake || warps[1].CycleAfter != 13040 {
		t.Fatalf("warps = %+v", warps)
	}
	fw, err := RecentWarps(ctx, db, "w1", 10, true)
	if err != nil || len(fw) != 1 || fw[0].Tick != 11 {
		t.Fatalf("force wakes = %+v err=%v", fw, err)
	}

	tot, err := Totals(ctx, db, "w1")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if tot.Passes != 2 || tot.Ticks != 40 || tot.ForceWakes != 1 {
		t.Fatalf("totals = %+v", tot)
	}

	ds, err := RecentDischarges(ctx, db, "w1", 10)
	if err != nil {
		t.Fatalf("discharges: %v", err)
	}
	if len(ds) != 2 || ds[0].Seq != 1 || ds[1].Seq != 0 || !ds[1].Scorched {
		t.Fatalf("discharges = %+v", ds)
	}

	snaps, err := RecentSnapshots(ctx, db, "w1", 10)
	if err != nil || len(snaps) != 1 || snaps[0].Participants != 2 || snaps[0].CycleTime != 4000 {
		t.Fatalf("snapshots = %+v err=%v", snaps, err)
	}

	var raining, driver int
	if err := db.QueryRow(`SELECT raining, clock_driver_active FROM clock_state WHERE world_id='w1' AND tick=123`).Scan(&raining, &driver); err != nil {
		t.Fatalf("clock_state: %v", err)
	}
	if raining != 1 || driver != 1 {
		t.Fatalf("clock_state raining=%d driver=%d", raining, driver)
	}
	var sleeping, sleepTicks int
	if err := db.QueryRow(`SELECT sleeping, sleep_ticks FROM participant_state WHERE participant_id='P1'`).Scan(&sleeping, &sleepTicks); err != nil {
		t.Fatalf("participant_state: %v", err)
	}
	if sleeping != 1 || sleepTicks != 150 {
		t.Fatalf("participant_state sleeping=%d ticks=%d", sleeping, sleepTicks)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM config WHERE name='tuning'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("tuning rows=%d err=%v", n, err)
	}
}
