package rates

// Window is a fixed tick window counter.
type Window struct {
	StartTick uint64
	Count     int
}

// Allow counts one event at nowTick and reports whether it fits in max events
// per window ticks. A zero window or max disables the limit.
func (w *Window) Allow(nowTick uint64, window uint64, max int) (ok bool, cooldownTicks uint64) {
	if window == 0 || max <= 0 {
		return true, 0
	}
	if nowTick-w.StartTick >= window {
		w.StartTick = nowTick
		w.Count = 0
	}
	w.Count++
	if w.Count <= max {
		return true, 0
	}
	return false, (w.StartTick + window) - nowTick
}
