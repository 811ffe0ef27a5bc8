package warp

import "math/rand/v2"

// PassResult summarises one invocation of Engine.Pass.
type PassResult struct {
	Idle         bool
	Sleeping     int
	Participants int
	Decision     Decision
	Regions      int
	ClockBefore  Clock
	ClockAfter   Clock
	WeatherReset bool
	Sim          SimStats
	Synced       int
	SyncSkipped  int
}

// Engine runs acceleration passes for one partition. It keeps no state between
// passes besides its random source.
type Engine struct {
	cfg Config
	rng *rand.Rand
	sim *Simulator
}

func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	cfg.ApplyDefaults()
	return &Engine{cfg: cfg, rng: rng, sim: NewSimulator(cfg, rng)}
}

func (e *Engine) Config() Config { return e.cfg }

// Pass runs one acceleration pass for the partition behind env given its current
// roster. It must be called from the goroutine that owns the partition.
func (e *Engine) Pass(env Env, roster []Participant) PassResult {
	res := PassResult{Participants: len(roster), ClockBefore: env.Clock()}
	res.ClockAfter = res.ClockBefore

	res.Sleeping = SleepingCount(roster, e.cfg.SleepEligibleTicks)
	if res.Sleeping == 0 {
		res.Idle = true
		return res
	}

	res.Decision = Schedule(ScheduleInput{
		Sleeping:     res.Sleeping,
		Participants: len(roster),
		CycleTime:    res.ClockBefore.CycleTime,
		CycleLength:  e.cfg.CycleLength,
	}, e.cfg)

	if res.Decision.ForceWake {
		env.WakeAll()
		if env.Weather().Raining {
			env.SetWeather(Weather{})
			res.WeatherReset = true
		}
		return res
	}

	regions := CollectRegions(roster, e.cfg.RegionRadius, e.rng)
	res.Regions = len(regions)
	res.Sim = e.sim.Run(env, regions, res.Decision.Ticks)
	res.ClockAfter = env.Clock()

	res.Synced, res.SyncSkipped = Broadcast(env, roster, ClockSync{
		GameTime:          res.ClockAfter.GameTime,
		CycleTime:         res.ClockAfter.CycleTime,
		ClockDriverActive: env.ClockDriverActive(),
	})
	return res
}
