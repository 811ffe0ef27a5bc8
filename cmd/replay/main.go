package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "sleepwarp.ai/internal/persistence/log"
	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/world"
)

func main() {
	var (
		worldDir = flag.String("world_dir", "", "world data dir containing warps/ and discharges/")
		snapPath = flag.String("snapshot", "", "path to .snap.zst to check the log against (optional)")
		fromTick = flag.Uint64("from_tick", 0, "ignore passes before this tick (optional)")
		toTick   = flag.Uint64("to_tick", 0, "ignore passes after this tick (optional)")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	v := newVerifier(*fromTick, *toTick)
	if *snapPath != "" {
		h, err := snapshot.ReadHeader(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d world=%s tick=%d game_time=%d cycle_time=%d participants=%d\n",
			h.Version, h.WorldID, h.Tick, snap.GameTime, snap.CycleTime, len(snap.Participants))
		v.anchor(h.Tick, snap.GameTime)
	}

	files, err := listLogFiles(filepath.Join(*worldDir, "warps"), "warps-")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list warps:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no warps files found in", filepath.Join(*worldDir, "warps"))
		os.Exit(1)
	}
	for _, path := range files {
		err := persistlog.ReadJSONLZstd(path, func(line []byte) error {
			var e world.WarpLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			return v.check(e)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", filepath.Base(path), err)
			os.Exit(1)
		}
	}

	dfiles, _ := listLogFiles(filepath.Join(*worldDir, "discharges"), "discharges-")
	discharges := 0
	for _, path := range dfiles {
		_ = persistlog.ReadJSONLZstd(path, func(line []byte) error {
			discharges++
			return nil
		})
	}

	s := v.summary
	fmt.Printf("replay ok: passes=%d warp_ticks=%d force_wakes=%d weather_resets=%d discharges=%d\n",
		s.Passes, s.WarpTicks, s.ForceWakes, s.WeatherResets, discharges)
}

func listLogFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	// Hourly names sort chronologically.
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
