package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropWarp          atomic.Uint64
	dropDischarge     atomic.Uint64
	dropSnapshot      atomic.Uint64
	dropSnapshotState atomic.Uint64
}

// QueueStats reports the writer queue and what was dropped because it was full.
type QueueStats struct {
	QueueDepth    int `json:"queue_depth"`
	QueueCapacity int `json:"queue_capacity"`

	DropWarpTotal          uint64 `json:"drop_warp_total"`
	DropDischargeTotal     uint64 `json:"drop_discharge_total"`
	DropSnapshotTotal      uint64 `json:"drop_snapshot_total"`
	DropSnapshotStateTotal uint64 `json:"drop_snapshot_state_total"`
}

type reqKind int

const (
	reqWarp reqKind = iota + 1
	reqDischarge
	reqSnapshot
	reqSnapshotState
)

type req struct {
	kind reqKind

	warp      world.WarpLogEntry
	discharge world.DischargeEntry
	snapshot  snapshotRow
	state     snapshot.SnapshotV1
}

type snapshotRow struct {
	Tick         uint64
	WorldID      string
	Path         string
	Seed         int64
	Height       int
	Chunks       int
	Participants int
	Fixtures     int
	GameTime     int64
	CycleTime    int64
}

// WarpRow is one indexed acceleration pass.
type WarpRow struct {
	Tick         uint64 `json:"tick"`
	WorldID      string `json:"world_id"`
	Sleeping     int    `json:"sleeping"`
	Participants int    `json:"participants"`
	Ticks        int    `json:"ticks"`
	ForceWake    bool   `json:"force_wake"`
	CycleBefore  int64  `json:"cycle_before"`
	CycleAfter   int64  `json:"cycle_after"`
	Synced       int    `json:"synced"`
	Digest       string `json:"digest"`
}

type DischargeRow struct {
	Tick     uint64 `json:"tick"`
	Seq      int    `json:"seq"`
	WorldID  string `json:"world_id"`
	Pos      [3]int `json:"pos"`
	Scorched bool   `json:"scorched"`
}

type SnapshotRow struct {
	Tick         uint64 `json:"tick"`
	WorldID      string `json:"world_id"`
	Path         string `json:"path"`
	Chunks       int    `json:"chunks"`
	Participants int    `json:"participants"`
	Fixtures     int    `json:"fixtures"`
	GameTime     int64  `json:"game_time"`
	CycleTime    int64  `json:"cycle_time"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Discharges arrive in bursts during long thunderstorms.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS config (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS warps (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			sleeping INTEGER NOT NULL,
			participants INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			force_wake INTEGER NOT NULL,
			weather_reset INTEGER NOT NULL,
			game_before INTEGER NOT NULL,
			cycle_before INTEGER NOT NULL,
			game_after INTEGER NOT NULL,
			cycle_after INTEGER NOT NULL,
			regions INTEGER NOT NULL,
			synced INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (world_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_warps_force_wake ON warps(force_wake, tick);`,
		`CREATE TABLE IF NOT EXISTS discharges (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			game_time INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			scorched INTEGER NOT NULL,
			PRIMARY KEY (world_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_discharges_pos ON discharges(x, z, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			height INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			participants INTEGER NOT NULL,
			fixtures INTEGER NOT NULL,
			game_time INTEGER NOT NULL,
			cycle_time INTEGER NOT NULL,
			PRIMARY KEY (world_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS clock_state (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			game_time INTEGER NOT NULL,
			cycle_time INTEGER NOT NULL,
			clock_driver_active INTEGER NOT NULL,
			raining INTEGER NOT NULL,
			thundering INTEGER NOT NULL,
			rain_time INTEGER NOT NULL,
			thunder_time INTEGER NOT NULL,
			PRIMARY KEY (world_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS participant_state (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			participant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			sleeping INTEGER NOT NULL,
			sleep_ticks INTEGER NOT NULL,
			PRIMARY KEY (world_id, tick, participant_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:             len(s.ch),
		QueueCapacity:          cap(s.ch),
		DropWarpTotal:          s.dropWarp.Load(),
		DropDischargeTotal:     s.dropDischarge.Load(),
		DropSnapshotTotal:      s.dropSnapshot.Load(),
		DropSnapshotStateTotal: s.dropSnapshotState.Load(),
	}
}

// enqueue drops the request if the indexer falls behind; JSONL logs remain
// the source of truth.
func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *SQLiteIndex) WriteWarp(entry world.WarpLogEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqWarp, warp: entry}, &s.dropWarp)
	return nil
}

func (s *SQLiteIndex) WriteDischarge(entry world.DischargeEntry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqDischarge, discharge: entry}, &s.dropDischarge)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRowOf(path, snap)}, &s.dropSnapshot)
}

// RecordSnapshotState stores the clock, weather, and participant sleep state
// captured by a snapshot.
func (s *SQLiteIndex) RecordSnapshotState(snap snapshot.SnapshotV1) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSnapshotState, state: snap}, &s.dropSnapshotState)
}

func snapshotRowOf(path string, snap snapshot.SnapshotV1) snapshotRow {
	return snapshotRow{
		Tick:         snap.Header.Tick,
		WorldID:      snap.Header.WorldID,
		Path:         path,
		Seed:         snap.Seed,
		Height:       snap.Height,
		Chunks:       len(snap.Chunks),
		Participants: len(snap.Participants),
		Fixtures:     len(snap.Furnaces) + len(snap.Composters),
		GameTime:     snap.GameTime,
		CycleTime:    snap.CycleTime,
	}
}

// UpsertTuning stores the tuning values actually applied, keyed by digest.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO config(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertWarp, _ := s.db.Prepare(`INSERT OR REPLACE INTO warps(world_id,tick,sleeping,participants,ticks,force_wake,weather_reset,game_before,cycle_before,game_after,cycle_after,regions,synced,skipped,digest,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertDischarge, _ := s.db.Prepare(`INSERT OR REPLACE INTO discharges(world_id,tick,seq,game_time,x,y,z,scorched) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(world_id,tick,path,seed,height,chunks,participants,fixtures,game_time,cycle_time) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertClock, _ := s.db.Prepare(`INSERT OR REPLACE INTO clock_state(world_id,tick,game_time,cycle_time,clock_driver_active,raining,thundering,rain_time,thunder_time) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertParticipant, _ := s.db.Prepare(`INSERT OR REPLACE INTO participant_state(world_id,tick,participant_id,name,x,y,z,sleeping,sleep_ticks) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertWarp, insertDischarge, insertSnapshot, insertClock, insertParticipant} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastDischargeTick uint64
		dischargeSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqWarp:
			e := r.warp
			raw, _ := json.Marshal(e)
			exec(insertWarp,
				e.WorldID, int64(e.Tick), e.Sleeping, e.Participants, e.Ticks,
				boolInt(e.ForceWake), boolInt(e.WeatherReset),
				e.ClockBefore.GameTime, e.ClockBefore.CycleTime,
				e.ClockAfter.GameTime, e.ClockAfter.CycleTime,
				e.Regions, e.Synced, e.Skipped, e.Digest, string(raw),
			)

		case reqDischarge:
			d := r.discharge
			if d.Tick != lastDischargeTick {
				lastDischargeTick = d.Tick
				dischargeSeq = 0
			}
			seq := dischargeSeq
			dischargeSeq++
			exec(insertDischarge, d.WorldID, int64(d.Tick), seq, d.GameTime, d.Pos[0], d.Pos[1], d.Pos[2], boolInt(d.Scorched))

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.WorldID, int64(sn.Tick), sn.Path, sn.Seed, sn.Height, sn.Chunks, sn.Participants, sn.Fixtures, sn.GameTime, sn.CycleTime)

		case reqSnapshotState:
			snap := r.state
			wid, tick := snap.Header.WorldID, int64(snap.Header.Tick)
			if !exec(insertClock, wid, tick, snap.GameTime, snap.CycleTime, boolInt(snap.ClockDriverActive),
				boolInt(snap.Raining), boolInt(snap.Thundering), snap.RainTime, snap.ThunderTime) {
				continue
			}
			for _, p := range snap.Participants {
				if !exec(insertParticipant, wid, tick, p.ID, p.Name, p.Pos[0], p.Pos[1], p.Pos[2], boolInt(p.Sleeping), p.SleepTicks) {
					break
				}
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
