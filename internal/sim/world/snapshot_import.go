package world

import (
	"fmt"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	"sleepwarp.ai/internal/sim/world/terrain/store"
)

// ImportSnapshot replaces the current in-memory world state with the snapshot.
// It sets the world's tick to snapshotTick+1 (the next tick to simulate).
// Every restored participant starts offline until it attaches again.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if s.Header.WorldID != "" && s.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world mismatch: cfg=%s snap=%s", w.cfg.ID, s.Header.WorldID)
	}

	// Basic parameter consistency checks.
	if w.cfg.Seed != s.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, s.Seed)
	}
	if w.cfg.Height != s.Height {
		return fmt.Errorf("snapshot height mismatch: cfg=%d snap=%d", w.cfg.Height, s.Height)
	}
	if w.cfg.BoundaryR != s.BoundaryR {
		return fmt.Errorf("snapshot boundary_r mismatch: cfg=%d snap=%d", w.cfg.BoundaryR, s.BoundaryR)
	}
	if w.cfg.Warp.CycleLength != s.CycleLength {
		return fmt.Errorf("snapshot cycle_length mismatch: cfg=%d snap=%d", w.cfg.Warp.CycleLength, s.CycleLength)
	}
	if s.CycleTime < 0 || s.CycleTime > s.CycleLength {
		return fmt.Errorf("snapshot cycle_time %d outside [0, %d]", s.CycleTime, s.CycleLength)
	}

	gen := w.chunks.Gen
	gen.SeaLevel = s.SeaLevel
	if s.BiomeRegionSize > 0 {
		gen.BiomeRegionSize = s.BiomeRegionSize
	}
	if s.TreePermille > 0 {
		gen.TreePermille = s.TreePermille
	}
	if s.SaplingPermille > 0 {
		gen.SaplingPermille = s.SaplingPermille
	}
	if s.CropPermille > 0 {
		gen.CropPermille = s.CropPermille
	}
	if s.FixturePermille > 0 {
		gen.FixturePermille = s.FixturePermille
	}
	chunks, err := store.ImportChunks(gen, s.BoundaryR, s.Chunks)
	if err != nil {
		return err
	}

	if len(s.RNG) > 0 {
		if err := w.pcg.UnmarshalBinary(s.RNG); err != nil {
			return fmt.Errorf("snapshot rng: %w", err)
		}
	}

	chunks.OnGenerate = w.placeGeneratedFixtures
	w.chunks = chunks
	w.cfg.SeaLevel = chunks.Gen.SeaLevel
	w.cfg.ClockDriverActive = s.ClockDriverActive
	w.cfg.WeatherCycle = s.WeatherCycle
	if s.LoadRadius > 0 {
		w.cfg.LoadRadius = s.LoadRadius
	}

	w.clock = warp.Clock{GameTime: s.GameTime, CycleTime: s.CycleTime}
	w.weather = weatherState{
		Raining:     s.Raining,
		Thundering:  s.Thundering,
		RainTime:    s.RainTime,
		ThunderTime: s.ThunderTime,
		ClearTime:   s.ClearTime,
	}

	w.furnaces = map[warp.BlockPos]*Furnace{}
	for _, f := range s.Furnaces {
		pos := warp.BlockPos{X: f.Pos[0], Y: f.Pos[1], Z: f.Pos[2]}
		w.furnaces[pos] = &Furnace{Pos: pos, Fuel: f.Fuel, Input: f.Input, Output: f.Output, BurnTicks: f.BurnTicks, Progress: f.Progress}
	}
	w.composters = map[warp.BlockPos]*Composter{}
	for _, c := range s.Composters {
		pos := warp.BlockPos{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]}
		w.composters[pos] = &Composter{Pos: pos, Level: c.Level, Timer: c.Timer}
	}

	w.participants = map[string]*Participant{}
	w.clients = map[string]*clientState{}
	for _, p := range s.Participants {
		w.participants[p.ID] = &Participant{
			ID:          p.ID,
			Name:        p.Name,
			ResumeToken: p.ResumeToken,
			Pos:         warp.BlockPos{X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2]},
			Sleeping:    p.Sleeping,
			SleepTicks:  p.SleepTicks,
		}
	}

	w.counters = passCounters{
		Passes:     s.Counters.Passes,
		WarpTicks:  s.Counters.WarpTicks,
		ForceWakes: s.Counters.ForceWakes,
		Discharges: s.Counters.Discharges,
	}
	w.tick.Store(s.Header.Tick + 1)
	return nil
}
