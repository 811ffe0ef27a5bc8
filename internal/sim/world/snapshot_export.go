package world

import (
	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/world/terrain/store"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	gen := w.chunks.Gen
	rngState, _ := w.pcg.MarshalBinary()

	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
			Digest:  w.stateDigest(nowTick),
		},
		Seed:        w.cfg.Seed,
		TickRate:    w.cfg.TickRateHz,
		CycleLength: w.cfg.Warp.CycleLength,
		Height:      w.cfg.Height,
		BoundaryR:   w.cfg.BoundaryR,
		LoadRadius:  w.cfg.LoadRadius,

		SeaLevel:        gen.SeaLevel,
		BiomeRegionSize: gen.BiomeRegionSize,
		TreePermille:    gen.TreePermille,
		SaplingPermille: gen.SaplingPermille,
		CropPermille:    gen.CropPermille,
		FixturePermille: gen.FixturePermille,

		ClockDriverActive: w.cfg.ClockDriverActive,
		WeatherCycle:      w.cfg.WeatherCycle,

		GameTime:  w.clock.GameTime,
		CycleTime: w.clock.CycleTime,

		Raining:     w.weather.Raining,
		Thundering:  w.weather.Thundering,
		RainTime:    w.weather.RainTime,
		ThunderTime: w.weather.ThunderTime,
		ClearTime:   w.weather.ClearTime,

		RNG:    rngState,
		Chunks: store.ExportChunks(w.chunks.Chunks, w.chunks.AllChunkKeys()),
		Counters: snapshot.CountersV1{
			Passes:     w.counters.Passes,
			WarpTicks:  w.counters.WarpTicks,
			ForceWakes: w.counters.ForceWakes,
			Discharges: w.counters.Discharges,
		},
	}

	for _, pos := range sortedPositions(w.furnaces) {
		f := w.furnaces[pos]
		s.Furnaces = append(s.Furnaces, snapshot.FurnaceV1{
			Pos:       [3]int{pos.X, pos.Y, pos.Z},
			Fuel:      f.Fuel,
			Input:     f.Input,
			Output:    f.Output,
			BurnTicks: f.BurnTicks,
			Progress:  f.Progress,
		})
	}
	for _, pos := range sortedPositions(w.composters) {
		c := w.composters[pos]
		s.Composters = append(s.Composters, snapshot.ComposterV1{
			Pos:   [3]int{pos.X, pos.Y, pos.Z},
			Level: c.Level,
			Timer: c.Timer,
		})
	}
	for _, id := range w.sortedParticipantIDs() {
		p := w.participants[id]
		s.Participants = append(s.Participants, snapshot.ParticipantV1{
			ID:          p.ID,
			Name:        p.Name,
			ResumeToken: p.ResumeToken,
			Pos:         [3]int{p.Pos.X, p.Pos.Y, p.Pos.Z},
			Sleeping:    p.Sleeping,
			SleepTicks:  p.SleepTicks,
		})
	}
	return s
}
