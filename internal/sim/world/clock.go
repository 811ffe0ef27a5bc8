package world

// driveClock is the real-time clock step. Game time always advances; cycle
// time only while the driver is active. A cycle time parked on the boundary by
// an acceleration pass wraps here first, whether or not the driver is active,
// so a partition without a driver can still warp the next night.
func (w *World) driveClock() {
	w.clock.GameTime++
	if w.clock.CycleTime >= w.cfg.Warp.CycleLength {
		w.clock.CycleTime -= w.cfg.Warp.CycleLength
	}
	if !w.cfg.ClockDriverActive {
		return
	}
	w.clock.CycleTime++
}
