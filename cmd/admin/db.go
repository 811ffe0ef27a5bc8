package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sleepwarp.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	forceOnly := fs.Bool("force_wake", false, "warps: only passes that ended in a forced wake")
	_ = fs.Parse(args)

	q := "warps"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := indexdb.OpenReadOnly(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	var rows any
	switch q {
	case "warps":
		rows, err = indexdb.RecentWarps(ctx, db, *worldID, *limit, *forceOnly)
	case "discharges":
		rows, err = indexdb.RecentDischarges(ctx, db, *worldID, *limit)
	case "snapshots":
		rows, err = indexdb.RecentSnapshots(ctx, db, *worldID, *limit)
	case "totals":
		rows, err = indexdb.Totals(ctx, db, *worldID)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want warps|discharges|snapshots|totals)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if err := printRows(enc, rows); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}

// printRows writes one JSON object per line; a single value is printed as is.
func printRows(enc *json.Encoder, rows any) error {
	switch rs := rows.(type) {
	case []indexdb.WarpRow:
		for _, r := range rs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	case []indexdb.DischargeRow:
		for _, r := range rs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	case []indexdb.SnapshotRow:
		for _, r := range rs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	default:
		return enc.Encode(rs)
	}
	return nil
}
