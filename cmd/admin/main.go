package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sleepwarp.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "weather":
			weatherCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "list":
			listCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		snaps := snapshotFiles(filepath.Join(base, e.Name()))
		latest := "-"
		if len(snaps) > 0 {
			latest = filepath.Base(snaps[len(snaps)-1])
		}
		fmt.Printf("%s\tsnapshots=%d\tlatest=%s\n", e.Name(), len(snaps), latest)
	}
}

// snapshotCmd summarises a local snapshot, or asks a running server for a new
// one with -url.
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	path := fs.String("path", "", "snapshot path (optional; defaults to the world's latest)")
	baseURL := fs.String("url", "", "server base url; request a snapshot instead of reading one")
	_ = fs.Parse(args)

	if strings.TrimSpace(*baseURL) != "" {
		postAdmin(*baseURL, "/admin/v1/worlds/snapshot", map[string]string{"world": *worldID})
		return
	}

	p := strings.TrimSpace(*path)
	if p == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -path")
			os.Exit(2)
		}
		snaps := snapshotFiles(filepath.Join(*dataDir, "worlds", *worldID))
		if len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "no snapshot found")
			os.Exit(2)
		}
		p = snaps[len(snaps)-1]
	}

	h, err := snapshot.ReadHeader(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read header:", err)
		os.Exit(1)
	}
	snap, err := snapshot.ReadSnapshot(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	sleeping := 0
	for _, pt := range snap.Participants {
		if pt.Sleeping {
			sleeping++
		}
	}
	fmt.Printf("snapshot v%d world=%s tick=%d digest=%s\n", h.Version, h.WorldID, h.Tick, h.Digest)
	fmt.Printf("clock game_time=%d cycle_time=%d/%d driver=%v\n", snap.GameTime, snap.CycleTime, snap.CycleLength, snap.ClockDriverActive)
	fmt.Printf("weather raining=%v thundering=%v rain_time=%d thunder_time=%d cycle=%v\n", snap.Raining, snap.Thundering, snap.RainTime, snap.ThunderTime, snap.WeatherCycle)
	fmt.Printf("chunks=%d furnaces=%d composters=%d participants=%d sleeping=%d\n", len(snap.Chunks), len(snap.Furnaces), len(snap.Composters), len(snap.Participants), sleeping)
	fmt.Printf("counters passes=%d warp_ticks=%d force_wakes=%d discharges=%d\n", snap.Counters.Passes, snap.Counters.WarpTicks, snap.Counters.ForceWakes, snap.Counters.Discharges)
}

// snapshotFiles lists a world's snapshots oldest first.
func snapshotFiles(worldDir string) []string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	type item struct {
		tick uint64
		path string
	}
	var items []item
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		items = append(items, item{tick, filepath.Join(dir, name)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].tick < items[j].tick })
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.path)
	}
	return out
}
