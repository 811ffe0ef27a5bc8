package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"time"

	"sleepwarp.ai/internal/persistence/indexdb"
	"sleepwarp.ai/internal/sim/multiworld"
	"sleepwarp.ai/internal/sim/world"
	"sleepwarp.ai/internal/transport/ws"
)

type muxOptions struct {
	EnableAdmin bool
	EnablePprof bool
	WS          ws.Options
	// IndexPath maps a world id to its sqlite index, "" when there is none.
	IndexPath func(worldID string) string
	// IndexStats reports index backend queue signals for /metrics.
	IndexStats func(worldID string) (indexStats, bool)
}

type indexStats struct {
	QueueDepth    int
	QueueCapacity int
	DroppedTotal  uint64
}

func newMux(mgr *multiworld.Manager, logger *log.Logger, opts muxOptions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, mgr.Metrics(), opts.IndexStats)
	})

	if opts.EnableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/worlds", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			worlds := map[string]world.WorldMetrics{}
			for _, m := range mgr.Metrics() {
				worlds[m.WorldID] = m
			}
			writeJSON(rw, http.StatusOK, map[string]any{
				"default_world_id": mgr.DefaultWorldID(),
				"manifest":         mgr.Manifest(),
				"worlds":           worlds,
			})
		}))
		mux.HandleFunc("/admin/v1/worlds/weather", loopbackOnly(postOnly(func(rw http.ResponseWriter, r *http.Request) {
			rt := runtimeFor(rw, r, mgr)
			if rt == nil {
				return
			}
			q := r.URL.Query()
			raining, _ := strconv.ParseBool(q.Get("raining"))
			thundering, _ := strconv.ParseBool(q.Get("thundering"))
			duration := 0
			if v := q.Get("duration_ticks"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					http.Error(rw, "bad duration_ticks", http.StatusBadRequest)
					return
				}
				duration = n
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			resp, err := rt.World.RequestWeather(ctx, raining, thundering, duration)
			if err != nil {
				writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "world": rt.Spec.ID, "error": err.Error()})
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "world": rt.Spec.ID, "tick": resp.Tick, "raining": resp.Raining, "thundering": resp.Thundering})
		})))
		mux.HandleFunc("/admin/v1/worlds/fixtures", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			rt := runtimeFor(rw, r, mgr)
			if rt == nil {
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			resp, err := rt.World.RequestFixtures(ctx)
			if err != nil {
				writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "world": rt.Spec.ID, "error": err.Error()})
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "world": rt.Spec.ID, "tick": resp.Tick, "fixtures": resp.Fixtures})
		}))
		mux.HandleFunc("/admin/v1/worlds/snapshot", loopbackOnly(postOnly(func(rw http.ResponseWriter, r *http.Request) {
			rt := runtimeFor(rw, r, mgr)
			if rt == nil {
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			tick, err := rt.World.RequestSnapshot(ctx)
			if err != nil {
				writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "world": rt.Spec.ID, "tick": tick, "error": err.Error()})
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "world": rt.Spec.ID, "tick": tick})
		})))
		mux.HandleFunc("/admin/v1/worlds/warps", loopbackOnly(func(rw http.ResponseWriter, r *http.Request) {
			rt := runtimeFor(rw, r, mgr)
			if rt == nil {
				return
			}
			path := ""
			if opts.IndexPath != nil {
				path = opts.IndexPath(rt.Spec.ID)
			}
			if path == "" {
				http.Error(rw, "no sqlite index for this world", http.StatusNotFound)
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			forceOnly, _ := strconv.ParseBool(r.URL.Query().Get("force_wake"))

			db, err := indexdb.OpenReadOnly(path)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			defer db.Close()
			rows, err := indexdb.RecentWarps(r.Context(), db, rt.Spec.ID, limit, forceOnly)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			totals, err := indexdb.Totals(r.Context(), db, rt.Spec.ID)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"world": rt.Spec.ID, "totals": totals, "warps": rows})
		}))
	} else if logger != nil {
		logger.Printf("admin endpoints disabled (SW_ENABLE_ADMIN_HTTP=false)")
	}

	if opts.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, logger, opts.WS).Handler())
	return mux
}

// runtimeFor resolves ?world=, defaulting to the default partition, and writes
// a 404 when it does not exist.
func runtimeFor(rw http.ResponseWriter, r *http.Request, mgr *multiworld.Manager) *multiworld.Runtime {
	id := strings.TrimSpace(r.URL.Query().Get("world"))
	if id == "" {
		id = mgr.DefaultWorldID()
	}
	rt := mgr.Runtime(id)
	if rt == nil || rt.World == nil {
		http.Error(rw, "world not found", http.StatusNotFound)
		return nil
	}
	return rt
}

func loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(rw, r)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// writeMetrics renders the minimal Prometheus text exposition format.
func writeMetrics(rw http.ResponseWriter, metrics []world.WorldMetrics, idxStats func(string) (indexStats, bool)) {
	type gauge struct {
		name, help, typ string
		value           func(m world.WorldMetrics) string
	}
	d := func(v int) string { return strconv.Itoa(v) }
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	gauges := []gauge{
		{"sleepwarp_world_tick", "Current world tick.", "gauge", func(m world.WorldMetrics) string { return u(m.Tick) }},
		{"sleepwarp_world_participants", "Known participants.", "gauge", func(m world.WorldMetrics) string { return d(m.Participants) }},
		{"sleepwarp_world_online", "Online participants.", "gauge", func(m world.WorldMetrics) string { return d(m.Online) }},
		{"sleepwarp_world_sleeping", "Online participants currently sleeping.", "gauge", func(m world.WorldMetrics) string { return d(m.Sleeping) }},
		{"sleepwarp_world_loaded_chunks", "Loaded chunk count.", "gauge", func(m world.WorldMetrics) string { return d(m.LoadedChunks) }},
		{"sleepwarp_world_fixtures", "Stateful fixtures in loaded chunks.", "gauge", func(m world.WorldMetrics) string { return d(m.Fixtures) }},
		{"sleepwarp_world_game_time", "Absolute game time.", "gauge", func(m world.WorldMetrics) string { return strconv.FormatInt(m.GameTime, 10) }},
		{"sleepwarp_world_cycle_time", "Position within the day cycle.", "gauge", func(m world.WorldMetrics) string { return strconv.FormatInt(m.CycleTime, 10) }},
		{"sleepwarp_world_raining", "1 while raining.", "gauge", func(m world.WorldMetrics) string { return d(boolGauge(m.Raining)) }},
		{"sleepwarp_world_thundering", "1 while thundering.", "gauge", func(m world.WorldMetrics) string { return d(boolGauge(m.Thundering)) }},
		{"sleepwarp_world_step_ms", "Last tick step duration in milliseconds.", "gauge", func(m world.WorldMetrics) string { return fmt.Sprintf("%.3f", m.StepMS) }},
		{"sleepwarp_warp_passes_total", "Non-idle acceleration passes.", "counter", func(m world.WorldMetrics) string { return u(m.PassesTotal) }},
		{"sleepwarp_warp_ticks_total", "Simulated ticks advanced by acceleration.", "counter", func(m world.WorldMetrics) string { return u(m.WarpTicksTotal) }},
		{"sleepwarp_warp_force_wakes_total", "Passes that ended the night and woke everyone.", "counter", func(m world.WorldMetrics) string { return u(m.ForceWakesTotal) }},
		{"sleepwarp_discharges_total", "Electrical discharges.", "counter", func(m world.WorldMetrics) string { return u(m.DischargesTotal) }},
	}
	for _, g := range gauges {
		fmt.Fprintf(rw, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(rw, "# TYPE %s %s\n", g.name, g.typ)
		for _, m := range metrics {
			fmt.Fprintf(rw, "%s{world=%q} %s\n", g.name, m.WorldID, g.value(m))
		}
	}

	fmt.Fprintf(rw, "# HELP sleepwarp_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE sleepwarp_world_queue_depth gauge\n")
	for _, m := range metrics {
		fmt.Fprintf(rw, "sleepwarp_world_queue_depth{world=%q,queue=%q} %d\n", m.WorldID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "sleepwarp_world_queue_depth{world=%q,queue=%q} %d\n", m.WorldID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "sleepwarp_world_queue_depth{world=%q,queue=%q} %d\n", m.WorldID, "leave", m.QueueDepths.Leave)
		fmt.Fprintf(rw, "sleepwarp_world_queue_depth{world=%q,queue=%q} %d\n", m.WorldID, "attach", m.QueueDepths.Attach)
	}

	fmt.Fprintf(rw, "# HELP sleepwarp_environment_total Environment work done by real-time and accelerated ticks.\n")
	fmt.Fprintf(rw, "# TYPE sleepwarp_environment_total counter\n")
	for _, m := range metrics {
		e := m.Environment
		fmt.Fprintf(rw, "sleepwarp_environment_total{world=%q,kind=%q} %d\n", m.WorldID, "random_updates", e.RandomUpdates)
		fmt.Fprintf(rw, "sleepwarp_environment_total{world=%q,kind=%q} %d\n", m.WorldID, "fixture_ticks", e.FixtureTicks)
		fmt.Fprintf(rw, "sleepwarp_environment_total{world=%q,kind=%q} %d\n", m.WorldID, "ice_formed", e.IceFormed)
		fmt.Fprintf(rw, "sleepwarp_environment_total{world=%q,kind=%q} %d\n", m.WorldID, "snow_placed", e.SnowPlaced)
		fmt.Fprintf(rw, "sleepwarp_environment_total{world=%q,kind=%q} %d\n", m.WorldID, "regions_missing", e.RegionsMissing)
	}

	if idxStats == nil {
		return
	}
	fmt.Fprintf(rw, "# HELP sleepwarp_index_queue_depth Index backend queue depth.\n")
	fmt.Fprintf(rw, "# TYPE sleepwarp_index_queue_depth gauge\n")
	for _, m := range metrics {
		if s, ok := idxStats(m.WorldID); ok {
			fmt.Fprintf(rw, "sleepwarp_index_queue_depth{world=%q} %d\n", m.WorldID, s.QueueDepth)
			fmt.Fprintf(rw, "sleepwarp_index_queue_capacity{world=%q} %d\n", m.WorldID, s.QueueCapacity)
			fmt.Fprintf(rw, "sleepwarp_index_dropped_total{world=%q} %d\n", m.WorldID, s.DroppedTotal)
		}
	}
}
