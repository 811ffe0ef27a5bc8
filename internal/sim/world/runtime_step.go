package world

import (
	"time"

	"sleepwarp.ai/internal/sim/world/feature/warp"
)

func (w *World) stepInternal(joins []JoinRequest, leaves []LeaveRequest, actions []ActionEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	w.dischargesThisTick = w.dischargesThisTick[:0]
	w.wokeThisTick = w.wokeThisTick[:0]
	weatherBefore := w.weather.public()

	// Apply leaves and joins deterministically at tick boundary.
	for _, req := range leaves {
		w.handleLeave(req)
	}
	for _, req := range joins {
		resp := w.joinParticipant(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Apply actions in server_receive_order (the inbox order).
	for _, env := range actions {
		p := w.participants[env.ParticipantID]
		if p == nil || !p.Online {
			continue
		}
		w.applyAction(p, env.Act, nowTick)
	}

	w.refreshLoadedChunks()

	for _, p := range w.participants {
		if p.Online && p.Sleeping {
			p.SleepTicks++
		}
	}

	env := &warpEnv{w: w, tick: nowTick}
	res := w.engine.Pass(env, w.roster())
	w.recordPass(nowTick, res)

	// A pass that advanced the clock owns this tick's clock step; the driver
	// must not wrap a cycle boundary the next pass still has to observe.
	if res.Sim.Ticks == 0 {
		w.driveClock()
	}
	w.stepWeather()

	// The pass already ran the environment for every tick it advanced.
	if res.Sim.Ticks == 0 {
		regions := warp.CollectRegions(w.roster(), w.cfg.Warp.RegionRadius, w.rng)
		warp.TickRegions(env, regions, w.cfg.Warp, w.rng, &w.envStats)
	}

	if res.Sim.Ticks == 0 && w.cfg.TimeSyncEveryTicks > 0 && nowTick%uint64(w.cfg.TimeSyncEveryTicks) == 0 {
		w.broadcastTimeSync()
	}
	if w.weather.public() != weatherBefore {
		w.broadcastWeather()
	}
	w.flushEvents(nowTick)

	if !res.Idle && w.warpLogger != nil {
		_ = w.warpLogger.WriteWarp(w.warpLogEntry(nowTick, res))
	}

	// Snapshot every N ticks (default 3000), starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		every := uint64(w.cfg.SnapshotEveryTicks)
		if nowTick%every == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.storeMetrics(nextTick, stepMS)
}

// roster lists online participants in id order.
func (w *World) roster() []warp.Participant {
	out := make([]warp.Participant, 0, len(w.participants))
	for _, id := range w.sortedParticipantIDs() {
		p := w.participants[id]
		if !p.Online {
			continue
		}
		out = append(out, warp.Participant{
			ID:         p.ID,
			Pos:        p.Pos,
			Sleeping:   p.Sleeping,
			SleepTicks: p.SleepTicks,
		})
	}
	return out
}

func (w *World) refreshLoadedChunks() {
	centers := make([][3]int, 0, len(w.participants))
	for _, p := range w.participants {
		if p.Online {
			centers = append(centers, [3]int{p.Pos.X, p.Pos.Y, p.Pos.Z})
		}
	}
	w.chunks.UpdateLoaded(centers, w.cfg.LoadRadius)
}

func (w *World) recordPass(nowTick uint64, res warp.PassResult) {
	if res.Idle {
		return
	}
	w.counters.Passes++
	w.counters.WarpTicks += uint64(res.Sim.Ticks)
	if res.Decision.ForceWake {
		w.counters.ForceWakes++
	}
	w.lastPass = PassSummary{
		Tick:         nowTick,
		Sleeping:     res.Sleeping,
		Participants: res.Participants,
		Ticks:        res.Sim.Ticks,
		ForceWake:    res.Decision.ForceWake,
		Regions:      res.Regions,
		Synced:       res.Synced,
		Skipped:      res.SyncSkipped,
	}
}

func (w *World) warpLogEntry(nowTick uint64, res warp.PassResult) WarpLogEntry {
	return WarpLogEntry{
		Tick:         nowTick,
		WorldID:      w.cfg.ID,
		Sleeping:     res.Sleeping,
		Participants: res.Participants,
		Ticks:        res.Sim.Ticks,
		ForceWake:    res.Decision.ForceWake,
		WeatherReset: res.WeatherReset,
		CycleLength:  w.cfg.Warp.CycleLength,
		ClockBefore:  clockRecord(res.ClockBefore),
		ClockAfter:   clockRecord(res.ClockAfter),
		Regions:      res.Regions,
		Stats:        res.Sim,
		Synced:       res.Synced,
		Skipped:      res.SyncSkipped,
		Digest:       w.stateDigest(nowTick),
	}
}
