package warp

import "math"

const (
	minMultiplier = 0.1
	maxMultiplier = 1.0
)

type ScheduleInput struct {
	Sleeping     int
	Participants int
	CycleTime    int64
	CycleLength  int64
}

// RawMultiplier is the unclamped weighting curve. Its denominator reaches zero
// (0/0 with weight 0 and everyone asleep) or turns negative for weights outside
// (0,1); callers must always pass the result through ClampMultiplier.
func RawMultiplier(sleeping, participants int, weight float64) float64 {
	ratio := float64(sleeping) / float64(participants)
	weighted := ratio * weight
	return weighted / (2*weighted - weight - ratio + 1)
}

// ClampMultiplier bounds v to [0.1, 1.0]. NaN and -Inf land on the floor.
func ClampMultiplier(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return minMultiplier
	case v < minMultiplier:
		return minMultiplier
	case v > maxMultiplier:
		return maxMultiplier
	}
	return v
}

// Multiplier returns the clamped share of MaxTicksPerInvocation to run.
func Multiplier(sleeping, participants int, weight float64) float64 {
	if participants == 1 {
		return maxMultiplier
	}
	return ClampMultiplier(RawMultiplier(sleeping, participants, weight))
}

// Schedule decides how many ticks to compress into this pass. The result never
// crosses the cycle boundary; a zero result asks for the forced wake transition.
func Schedule(in ScheduleInput, cfg Config) Decision {
	var ticks int64
	if in.Participants == 1 {
		ticks = int64(cfg.MaxTicksPerInvocation)
	} else {
		m := Multiplier(in.Sleeping, in.Participants, cfg.ParticipantWeight)
		ticks = int64(math.Round(float64(cfg.MaxTicksPerInvocation) * m))
	}

	if remaining := in.CycleLength - in.CycleTime; ticks > remaining {
		ticks = remaining
	}
	if ticks <= 0 {
		return Decision{Ticks: 0, ForceWake: true}
	}
	return Decision{Ticks: int(ticks)}
}
