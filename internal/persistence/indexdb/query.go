package indexdb

import (
	"context"
	"database/sql"
	"fmt"
)

// OpenReadOnly opens an existing index for queries without starting the writer.
func OpenReadOnly(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// RecentWarps returns the latest passes of worldID, newest first. With
// forceWakeOnly set only passes that ended in a forced wake are returned.
func RecentWarps(ctx context.Context, db *sql.DB, worldID string, limit int, forceWakeOnly bool) ([]WarpRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT tick,world_id,sleeping,participants,ticks,force_wake,cycle_before,cycle_after,synced,digest
		FROM warps WHERE world_id = ?`
	if forceWakeOnly {
		q += ` AND force_wake = 1`
	}
	q += ` ORDER BY tick DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, q, worldID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WarpRow
	for rows.Next() {
		var r WarpRow
		var fw int
		if err := rows.Scan(&r.Tick, &r.WorldID, &r.Sleeping, &r.Participants, &r.Ticks, &fw, &r.CycleBefore, &r.CycleAfter, &r.Synced, &r.Digest); err != nil {
			return nil, err
		}
		r.ForceWake = fw != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func RecentDischarges(ctx context.Context, db *sql.DB, worldID string, limit int) ([]DischargeRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `SELECT tick,seq,world_id,x,y,z,scorched FROM discharges
		WHERE world_id = ? ORDER BY tick DESC, seq DESC LIMIT ?`, worldID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DischargeRow
	for rows.Next() {
		var r DischargeRow
		var scorched int
		if err := rows.Scan(&r.Tick, &r.Seq, &r.WorldID, &r.Pos[0], &r.Pos[1], &r.Pos[2], &scorched); err != nil {
			return nil, err
		}
		r.Scorched = scorched != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func RecentSnapshots(ctx context.Context, db *sql.DB, worldID string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT tick,world_id,path,chunks,participants,fixtures,game_time,cycle_time
		FROM snapshots WHERE world_id = ? ORDER BY tick DESC LIMIT ?`, worldID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		if err := rows.Scan(&r.Tick, &r.WorldID, &r.Path, &r.Chunks, &r.Participants, &r.Fixtures, &r.GameTime, &r.CycleTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WarpTotals summarises every indexed pass of worldID.
type WarpTotals struct {
	Passes     int64 `json:"passes"`
	Ticks      int64 `json:"ticks"`
	ForceWakes int64 `json:"force_wakes"`
}

func Totals(ctx context.Context, db *sql.DB, worldID string) (WarpTotals, error) {
	var t WarpTotals
	err := db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(ticks),0), COALESCE(SUM(force_wake),0)
		FROM warps WHERE world_id = ?`, worldID).Scan(&t.Passes, &t.Ticks, &t.ForceWakes)
	return t, err
}
