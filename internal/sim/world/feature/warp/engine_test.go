package warp

import "testing"

func TestPass_SingleSleeperRunsFullBudget(t *testing.T) {
	e := NewEngine(DefaultConfig(), testRNG())
	env := newFakeEnv()
	env.clock = Clock{GameTime: 5100, CycleTime: 100}
	env.roster = []Participant{sleeper("a", 0, 0, 150)}

	res := e.Pass(env, env.roster)
	if res.Idle || res.Decision.Ticks != 40 || res.Decision.ForceWake {
		t.Fatalf("result %+v", res)
	}
	if env.clock.CycleTime != 140 || env.clock.GameTime != 5140 {
		t.Fatalf("clock %+v want cycle 140 game 5140", env.clock)
	}
	if res.ClockAfter != env.clock || res.ClockBefore.CycleTime != 100 {
		t.Fatalf("result clocks before=%+v after=%+v", res.ClockBefore, res.ClockAfter)
	}
	if res.Regions != 49 {
		t.Fatalf("regions=%d want 49", res.Regions)
	}
}

func TestPass_StopsAtCycleBoundary(t *testing.T) {
	e := NewEngine(DefaultConfig(), testRNG())
	env := newFakeEnv()
	env.clock = Clock{GameTime: 47990, CycleTime: 23990}
	env.roster = []Participant{sleeper("a", 0, 0, 500)}

	res := e.Pass(env, env.roster)
	if res.Decision.Ticks != 10 {
		t.Fatalf("ticks=%d want 10", res.Decision.Ticks)
	}
	if env.clock.CycleTime != 24000 || env.fixtureTicks != 10 {
		t.Fatalf("clock %+v fixtures=%d", env.clock, env.fixtureTicks)
	}

	// The next pass lands on the boundary and ends the cycle.
	res = e.Pass(env, env.roster)
	if !res.Decision.ForceWake || env.roster[0].Sleeping {
		t.Fatalf("second pass %+v roster %+v", res, env.roster)
	}
}

func TestPass_NoEligibleSleeperIsNoop(t *testing.T) {
	for name, roster := range map[string][]Participant{
		"nobody asleep":     {awake("a", 0, 0), awake("b", 0, 0)},
		"not long enough":   {sleeper("a", 0, 0, 50), awake("b", 0, 0)},
		"empty roster":      nil,
		"just under cutoff": {sleeper("a", 0, 0, 99)},
	} {
		e := NewEngine(DefaultConfig(), testRNG())
		env := newFakeEnv()
		env.clock = Clock{GameTime: 9, CycleTime: 9}
		env.weather = Weather{Raining: true}
		env.roster = roster

		res := e.Pass(env, env.roster)
		if !res.Idle || res.Decision.Ticks != 0 {
			t.Fatalf("%s: result %+v", name, res)
		}
		if env.clock != (Clock{GameTime: 9, CycleTime: 9}) {
			t.Fatalf("%s: clock moved to %+v", name, env.clock)
		}
		if env.totalSent() != 0 || env.fixtureTicks != 0 || env.wakeCalls != 0 {
			t.Fatalf("%s: side effects sent=%d fixtures=%d wakes=%d", name, env.totalSent(), env.fixtureTicks, env.wakeCalls)
		}
		if !env.weather.Raining {
			t.Fatalf("%s: weather changed", name)
		}
	}
}

func TestPass_ForceWakeClearsSleepersAndWeather(t *testing.T) {
	e := NewEngine(DefaultConfig(), testRNG())
	env := newFakeEnv()
	env.clock = Clock{GameTime: 24000, CycleTime: 24000}
	env.weather = Weather{Raining: true, Thundering: true}
	env.roster = []Participant{
		sleeper("a", 0, 0, 300),
		sleeper("b", 0, 0, 10),
		awake("c", 0, 0),
	}

	res := e.Pass(env, env.roster)
	if !res.Decision.ForceWake || !res.WeatherReset {
		t.Fatalf("result %+v", res)
	}
	for _, p := range env.roster {
		if p.Sleeping {
			t.Fatalf("%s still sleeping", p.ID)
		}
	}
	if env.weather != (Weather{}) {
		t.Fatalf("weather %+v want clear", env.weather)
	}
	if env.clock.CycleTime != 24000 || env.totalSent() != 0 || env.fixtureTicks != 0 {
		t.Fatalf("force wake ran simulation: clock %+v sent=%d", env.clock, env.totalSent())
	}
}

func TestPass_ForceWakeLeavesDryWeatherAlone(t *testing.T) {
	e := NewEngine(DefaultConfig(), testRNG())
	env := newFakeEnv()
	env.clock = Clock{CycleTime: 24000}
	env.weather = Weather{Thundering: true}
	env.roster = []Participant{sleeper("a", 0, 0, 300)}

	res := e.Pass(env, env.roster)
	if !res.Decision.ForceWake || res.WeatherReset {
		t.Fatalf("result %+v", res)
	}
	if env.weather != (Weather{Thundering: true}) {
		t.Fatalf("weather %+v", env.weather)
	}
}

func TestPass_WeightedQuorum(t *testing.T) {
	e := NewEngine(DefaultConfig(), testRNG())
	env := newFakeEnv()
	env.clock = Clock{CycleTime: 13000}
	env.roster = []Participant{sleeper("a", 0, 0, 100), awake("b", 0, 0)}

	res := e.Pass(env, env.roster)
	if res.Sleeping != 1 || res.Participants != 2 || res.Decision.Ticks != 24 {
		t.Fatalf("result %+v", res)
	}
	if env.clock.CycleTime != 13024 {
		t.Fatalf("clock %+v", env.clock)
	}
}
