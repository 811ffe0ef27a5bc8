package main

import (
	"fmt"

	"sleepwarp.ai/internal/sim/world"
)

type summary struct {
	Passes        int
	WarpTicks     int64
	ForceWakes    int
	WeatherResets int
}

// verifier checks the pass log of one partition entry by entry.
type verifier struct {
	from, to uint64

	haveLast     bool
	lastTick     uint64
	lastGameTime int64

	summary summary
}

func newVerifier(from, to uint64) *verifier {
	return &verifier{from: from, to: to}
}

// anchor seeds the monotonicity checks with a snapshot's clock.
func (v *verifier) anchor(tick uint64, gameTime int64) {
	v.haveLast = true
	v.lastTick = tick
	v.lastGameTime = gameTime
}

func (v *verifier) check(e world.WarpLogEntry) error {
	if e.Tick < v.from || (v.to != 0 && e.Tick > v.to) {
		return nil
	}
	if v.haveLast && e.Tick <= v.lastTick {
		return fmt.Errorf("tick %d: not after previous pass at tick %d", e.Tick, v.lastTick)
	}
	if v.haveLast && e.ClockBefore.GameTime < v.lastGameTime {
		return fmt.Errorf("tick %d: game time went back from %d to %d", e.Tick, v.lastGameTime, e.ClockBefore.GameTime)
	}
	if e.Sleeping < 1 || e.Sleeping > e.Participants {
		return fmt.Errorf("tick %d: sleeping=%d participants=%d", e.Tick, e.Sleeping, e.Participants)
	}

	if e.ForceWake {
		if e.Ticks != 0 || e.ClockAfter != e.ClockBefore {
			return fmt.Errorf("tick %d: forced wake moved the clock (%+v -> %+v, ticks=%d)", e.Tick, e.ClockBefore, e.ClockAfter, e.Ticks)
		}
	} else {
		if e.Ticks < 1 {
			return fmt.Errorf("tick %d: pass advanced %d ticks", e.Tick, e.Ticks)
		}
		if d := e.ClockAfter.GameTime - e.ClockBefore.GameTime; d != int64(e.Ticks) {
			return fmt.Errorf("tick %d: game time delta %d != ticks %d", e.Tick, d, e.Ticks)
		}
		if d := e.ClockAfter.CycleTime - e.ClockBefore.CycleTime; d != int64(e.Ticks) {
			return fmt.Errorf("tick %d: cycle time delta %d != ticks %d", e.Tick, d, e.Ticks)
		}
		if e.CycleLength > 0 && e.ClockAfter.CycleTime > e.CycleLength {
			return fmt.Errorf("tick %d: cycle time %d crossed the boundary %d", e.Tick, e.ClockAfter.CycleTime, e.CycleLength)
		}
		if e.Synced > e.Participants {
			return fmt.Errorf("tick %d: synced %d of %d participants", e.Tick, e.Synced, e.Participants)
		}
	}
	if e.WeatherReset && !e.ForceWake {
		return fmt.Errorf("tick %d: weather reset without a forced wake", e.Tick)
	}

	v.haveLast = true
	v.lastTick = e.Tick
	v.lastGameTime = e.ClockAfter.GameTime

	v.summary.Passes++
	v.summary.WarpTicks += int64(e.Ticks)
	if e.ForceWake {
		v.summary.ForceWakes++
	}
	if e.WeatherReset {
		v.summary.WeatherResets++
	}
	return nil
}
