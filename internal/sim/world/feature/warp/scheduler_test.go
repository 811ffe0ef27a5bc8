package warp

import (
	"math"
	"testing"
)

func TestSchedule_SingleParticipantUsesMax(t *testing.T) {
	cfg := DefaultConfig()
	for _, cycleTime := range []int64{0, 100, 12000, 23959, 23960, 23975, 23999} {
		d := Schedule(ScheduleInput{Sleeping: 1, Participants: 1, CycleTime: cycleTime, CycleLength: 24000}, cfg)
		want := int64(cfg.MaxTicksPerInvocation)
		if rem := 24000 - cycleTime; rem < want {
			want = rem
		}
		if int64(d.Ticks) != want || d.ForceWake {
			t.Fatalf("cycleTime=%d: got %+v want ticks=%d", cycleTime, d, want)
		}
	}
}

func TestSchedule_HalfAsleepWeighted(t *testing.T) {
	cfg := DefaultConfig()
	if got := RawMultiplier(1, 2, 0.6); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("raw multiplier: got %v want 0.6", got)
	}
	d := Schedule(ScheduleInput{Sleeping: 1, Participants: 2, CycleTime: 13000, CycleLength: 24000}, cfg)
	if d.Ticks != 24 || d.ForceWake {
		t.Fatalf("got %+v want 24 ticks", d)
	}
}

func TestSchedule_ClampsToCycleBoundary(t *testing.T) {
	cfg := DefaultConfig()
	d := Schedule(ScheduleInput{Sleeping: 1, Participants: 1, CycleTime: 23990, CycleLength: 24000}, cfg)
	if d.Ticks != 10 || d.ForceWake {
		t.Fatalf("got %+v want 10 ticks", d)
	}
}

func TestSchedule_ForceWakeAtBoundary(t *testing.T) {
	cfg := DefaultConfig()
	for _, in := range []ScheduleInput{
		{Sleeping: 1, Participants: 1, CycleTime: 24000, CycleLength: 24000},
		{Sleeping: 3, Participants: 5, CycleTime: 24000, CycleLength: 24000},
	} {
		d := Schedule(in, cfg)
		if d.Ticks != 0 || !d.ForceWake {
			t.Fatalf("%+v: got %+v want force wake", in, d)
		}
	}
}

func TestSchedule_NeverCrossesBoundary(t *testing.T) {
	const cycleLength = 24000
	for _, weight := range []float64{0, 0.1, 0.6, 0.99, 1, 1.5, 2} {
		cfg := DefaultConfig()
		cfg.ParticipantWeight = weight
		for _, max := range []int{1, 40, 100, 30000} {
			cfg.MaxTicksPerInvocation = max
			for total := 1; total <= 8; total++ {
				for sleeping := 1; sleeping <= total; sleeping++ {
					for _, cycleTime := range []int64{0, 1, 100, 12000, 23959, 23990, 23999, 24000} {
						d := Schedule(ScheduleInput{Sleeping: sleeping, Participants: total, CycleTime: cycleTime, CycleLength: cycleLength}, cfg)
						if d.Ticks < 0 || int64(d.Ticks)+cycleTime > cycleLength {
							t.Fatalf("w=%v max=%d %d/%d cycle=%d: ticks=%d crosses boundary", weight, max, sleeping, total, cycleTime, d.Ticks)
						}
						if d.ForceWake != (d.Ticks == 0) {
							t.Fatalf("w=%v %d/%d cycle=%d: force wake %v with ticks=%d", weight, sleeping, total, cycleTime, d.ForceWake, d.Ticks)
						}
					}
				}
			}
		}
	}
}

func TestMultiplier_MonotonicInSleepers(t *testing.T) {
	for _, weight := range []float64{0.05, 0.3, 0.6, 0.9, 1} {
		prev := -1.0
		for sleeping := 1; sleeping <= 4; sleeping++ {
			m := Multiplier(sleeping, 4, weight)
			if m < prev {
				t.Fatalf("weight=%v: multiplier dropped from %v to %v at %d/4", weight, prev, m, sleeping)
			}
			prev = m
		}
	}
}

func TestClampMultiplier(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0.1, 0.1},
		{1, 1},
		{0.01, 0.1},
		{-3, 0.1},
		{7, 1},
		{math.Inf(1), 1},
		{math.Inf(-1), 0.1},
		{math.NaN(), 0.1},
	}
	for _, c := range cases {
		if got := ClampMultiplier(c.in); got != c.want {
			t.Fatalf("clamp(%v): got %v want %v", c.in, got, c.want)
		}
	}
}

func TestRawMultiplier_DenominatorNearZero(t *testing.T) {
	// Weight 0 with everyone asleep is 0/0.
	if raw := RawMultiplier(4, 4, 0); !math.IsNaN(raw) {
		t.Fatalf("weight 0, all asleep: got %v want NaN", raw)
	}
	if m := Multiplier(4, 4, 0); m != 0.1 {
		t.Fatalf("weight 0, all asleep: multiplier %v want floor", m)
	}

	// Denominator exactly zero with a non-zero numerator.
	if raw := RawMultiplier(1, 4, 1.5); !math.IsInf(raw, 1) {
		t.Fatalf("weight 1.5, 1/4 asleep: got %v want +Inf", raw)
	}
	if m := Multiplier(1, 4, 1.5); m != 1 {
		t.Fatalf("weight 1.5, 1/4 asleep: multiplier %v want ceiling", m)
	}

	// Sign flip past the pole.
	if raw := RawMultiplier(1, 4, 2); raw >= 0 {
		t.Fatalf("weight 2, 1/4 asleep: got %v want negative", raw)
	}
	if m := Multiplier(1, 4, 2); m != 0.1 {
		t.Fatalf("weight 2, 1/4 asleep: multiplier %v want floor", m)
	}

	// Tiny weight approaching the 0/0 corner from inside the valid range.
	if m := Multiplier(4, 4, 1e-12); math.Abs(m-1) > 1e-6 {
		t.Fatalf("weight 1e-12, all asleep: multiplier %v want ~1", m)
	}

	cfg := DefaultConfig()
	cfg.ParticipantWeight = 0
	d := Schedule(ScheduleInput{Sleeping: 4, Participants: 4, CycleTime: 0, CycleLength: 24000}, cfg)
	if d.Ticks != 4 {
		t.Fatalf("weight 0 schedule: got %d ticks want 4", d.Ticks)
	}
}
