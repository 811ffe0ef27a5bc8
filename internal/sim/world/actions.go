package world

import (
	"encoding/json"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world/feature/warp"
)

func (w *World) applyAction(p *Participant, act protocol.ActionMsg, nowTick uint64) {
	if ok, _ := p.actions.Allow(nowTick, uint64(w.cfg.ActionWindowTicks), w.cfg.ActionMax); !ok {
		w.sendError(p.ID, protocol.ErrRateLimit, "too many actions")
		return
	}
	switch act.Type {
	case protocol.TypeSleep:
		if p.Sleeping {
			return
		}
		if !w.canSleep() {
			w.sendError(p.ID, protocol.ErrNotNow, "you can only sleep at night or during thunderstorms")
			return
		}
		p.Sleeping = true
		p.SleepTicks = 0
	case protocol.TypeWake:
		p.wake()
	case protocol.TypeMove:
		if act.Pos == nil {
			w.sendError(p.ID, protocol.ErrBadRequest, "MOVE requires pos")
			return
		}
		pos := warp.BlockPos{X: act.Pos[0], Y: act.Pos[1], Z: act.Pos[2]}
		if !w.chunks.InBounds(pos.X, pos.Y, pos.Z) {
			w.sendError(p.ID, protocol.ErrInvalidTarget, "position outside the world")
			return
		}
		p.Pos = pos
		p.wake()
	default:
		w.sendError(p.ID, protocol.ErrBadRequest, "unknown action type")
	}
}

// canSleep reports whether the current cycle time is inside the night window
// or it is thundering.
func (w *World) canSleep() bool {
	if w.weather.public().Thundering {
		return true
	}
	t := w.clock.CycleTime % w.cfg.Warp.CycleLength
	return t >= w.cfg.NightStart && t <= w.cfg.NightEnd
}

func (w *World) sendError(participantID, code, message string) {
	cl := w.clients[participantID]
	if cl == nil {
		return
	}
	b, err := json.Marshal(protocol.NewError(code, message))
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}
