package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	persistlog "sleepwarp.ai/internal/persistence/log"
	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/multiworld"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/sim/world"
)

type partitionOptions struct {
	DataDir    string
	DisableDB  bool
	LoadLatest bool
}

type partition struct {
	id        string
	dir       string
	world     *world.World
	warpLog   *persistlog.WarpLogger
	idx       runtimeIndex
	indexPath string
}

type partitions struct {
	byID     map[string]*partition
	runtimes map[string]*multiworld.Runtime
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// startPartitions builds every configured world, resumes it from its latest
// snapshot when one exists, wires its loggers, and starts its loop.
func startPartitions(ctx context.Context, opts partitionOptions, cfg multiworld.Config, tune tuning.Tuning, logger *log.Logger) (*partitions, error) {
	ctx, cancel := context.WithCancel(ctx)
	ps := &partitions{
		byID:     map[string]*partition{},
		runtimes: map[string]*multiworld.Runtime{},
		cancel:   cancel,
	}
	base := tune.WorldConfig()

	for _, spec := range cfg.Worlds {
		dir := filepath.Join(opts.DataDir, "worlds", spec.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			ps.Close()
			return nil, err
		}
		w, err := world.New(spec.WorldConfig(base))
		if err != nil {
			ps.Close()
			return nil, fmt.Errorf("create world (%s): %w", spec.ID, err)
		}
		if opts.LoadLatest {
			if path := latestSnapshot(dir); path != "" {
				snap, err := snapshot.ReadSnapshot(path)
				if err != nil {
					ps.Close()
					return nil, fmt.Errorf("read snapshot (%s): %w", spec.ID, err)
				}
				if err := w.ImportSnapshot(snap); err != nil {
					ps.Close()
					return nil, fmt.Errorf("import snapshot %s: %w", filepath.Base(path), err)
				}
				logger.Printf("world %s resumed from snapshot=%s tick=%d", spec.ID, filepath.Base(path), w.CurrentTick())
			}
		}

		idx, indexPath, err := openRuntimeIndex(dir, spec.ID, opts.DisableDB, logger)
		if err != nil {
			ps.Close()
			return nil, fmt.Errorf("open index backend (%s): %w", spec.ID, err)
		}
		if idx != nil {
			if err := idx.UpsertTuning(tune); err != nil {
				logger.Printf("index backend: upsert tuning (%s): %v", spec.ID, err)
			}
		}

		p := &partition{
			id:        spec.ID,
			dir:       dir,
			world:     w,
			warpLog:   persistlog.NewWarpLogger(dir),
			idx:       idx,
			indexPath: indexPath,
		}
		loggers := persistlog.MultiLogger{p.warpLog}
		if idx != nil {
			loggers = append(loggers, idx)
		}
		w.SetWarpLogger(loggers)

		snapCh := make(chan snapshot.SnapshotV1, 2)
		w.SetSnapshotSink(snapCh)
		ps.wg.Add(2)
		go func() {
			defer ps.wg.Done()
			p.writeSnapshots(ctx, snapCh, logger)
		}()
		go func() {
			defer ps.wg.Done()
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				logger.Printf("world stopped (%s): %v", p.id, err)
			}
		}()

		ps.byID[spec.ID] = p
		ps.runtimes[spec.ID] = &multiworld.Runtime{Spec: spec, World: w}
	}
	return ps, nil
}

func (p *partition) writeSnapshots(ctx context.Context, ch <-chan snapshot.SnapshotV1, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			path := filepath.Join(p.dir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write (%s): %v", p.id, err)
				continue
			}
			if p.idx != nil {
				p.idx.RecordSnapshot(path, snap)
				p.idx.RecordSnapshotState(snap)
			}
		}
	}
}

func (ps *partitions) indexPath(worldID string) string {
	if p := ps.byID[worldID]; p != nil {
		return p.indexPath
	}
	return ""
}

// Close stops the world loops and snapshot writers, then closes their logs.
func (ps *partitions) Close() {
	ps.cancel()
	ps.wg.Wait()
	for _, p := range ps.byID {
		if p.warpLog != nil {
			_ = p.warpLog.Close()
		}
		if p.idx != nil {
			_ = p.idx.Close()
		}
	}
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
