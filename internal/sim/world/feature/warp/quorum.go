package warp

// SleepingCount returns how many participants have slept long enough to count
// toward a warp.
func SleepingCount(roster []Participant, eligibleTicks int) int {
	n := 0
	for _, p := range roster {
		if p.Sleeping && p.SleepTicks >= eligibleTicks {
			n++
		}
	}
	return n
}
