package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"sleepwarp.ai/internal/persistence/indexdb"
	"sleepwarp.ai/internal/sim/multiworld"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		worldsPath = flag.String("worlds", "", "partition config path (default: <configs>/worlds.yaml)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		seed       = flag.Int64("seed", 0, "override the tuning seed (fresh worlds only)")
		disableDB  = flag.Bool("disable_db", false, "disable the warp/snapshot index")
		loadLatest = flag.Bool("load_latest_snapshot", true, "resume each world from its latest snapshot if present")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	wp := strings.TrimSpace(*worldsPath)
	if wp == "" {
		wp = filepath.Join(*configDir, "worlds.yaml")
	}
	if _, err := os.Stat(wp); err != nil {
		logger.Printf("worlds config not found (%s); using built-in partitions", wp)
		wp = ""
	}
	mcfg, err := multiworld.Load(wp)
	if err != nil {
		logger.Fatalf("load worlds config: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	parts, err := startPartitions(ctx, partitionOptions{
		DataDir:    *dataDir,
		DisableDB:  *disableDB,
		LoadLatest: *loadLatest,
	}, mcfg, tune, logger)
	if err != nil {
		logger.Fatalf("start worlds: %v", err)
	}

	mgr, err := multiworld.NewManager(mcfg, parts.runtimes, filepath.Join(*dataDir, "global", "residency.json"))
	if err != nil {
		logger.Fatalf("multiworld manager: %v", err)
	}

	mux := newMux(mgr, logger, muxOptions{
		EnableAdmin: envBool("SW_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		EnablePprof: envBool("SW_ENABLE_PPROF_HTTP", false),
		WS:          ws.DefaultOptions(),
		IndexPath:   parts.indexPath,
		IndexStats: func(worldID string) (indexStats, bool) {
			p := parts.byID[worldID]
			if p == nil {
				return indexStats{}, false
			}
			switch idx := p.idx.(type) {
			case *indexdb.SQLiteIndex:
				s := idx.Stats()
				return indexStats{
					QueueDepth:    s.QueueDepth,
					QueueCapacity: s.QueueCapacity,
					DroppedTotal:  s.DropWarpTotal + s.DropDischargeTotal + s.DropSnapshotTotal + s.DropSnapshotStateTotal,
				}, true
			case *indexdb.D1Index:
				s := idx.Stats()
				return indexStats{
					QueueDepth:    s.QueueDepth,
					QueueCapacity: s.QueueCapacity,
					DroppedTotal:  s.QueueDroppedTotal + s.RetainDroppedTotal,
				}, true
			}
			return indexStats{}, false
		},
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s worlds=%v", *addr, mgr.WorldIDs())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
	}

	cancel()
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := mgr.FlushState(flushCtx); err != nil {
		logger.Printf("flush residency: %v", err)
	}
	flushCancel()
	mgr.Close()
	parts.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
