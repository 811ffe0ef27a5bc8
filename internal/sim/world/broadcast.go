package world

import (
	"encoding/json"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world/feature/warp"
)

func (w *World) broadcastTimeSync() {
	warp.Broadcast(&warpEnv{w: w}, w.roster(), warp.ClockSync{
		GameTime:          w.clock.GameTime,
		CycleTime:         w.clock.CycleTime,
		ClockDriverActive: w.cfg.ClockDriverActive,
	})
}

func (w *World) broadcastWeather() {
	ws := w.weather.public()
	b, err := json.Marshal(protocol.WeatherMsg{
		Type:            protocol.TypeWeather,
		ProtocolVersion: protocol.Version,
		WorldID:         w.cfg.ID,
		Raining:         ws.Raining,
		Thundering:      ws.Thundering,
	})
	if err != nil {
		return
	}
	for _, cl := range w.clients {
		sendLatest(cl.Out, b)
	}
}

func (w *World) sendEvent(participantID string, nowTick uint64, ev protocol.Event) {
	cl := w.clients[participantID]
	if cl == nil {
		return
	}
	b, err := json.Marshal(protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		WorldID:         w.cfg.ID,
		Tick:            nowTick,
		Event:           ev,
	})
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}

// flushEvents delivers the WOKE and DISCHARGE events collected during the step
// and hands discharges to the warp logger.
func (w *World) flushEvents(nowTick uint64) {
	for _, id := range w.wokeThisTick {
		w.sendEvent(id, nowTick, protocol.Event{"type": "WOKE", "game_time": w.clock.GameTime})
	}
	if len(w.dischargesThisTick) == 0 {
		return
	}
	r := w.cfg.DischargeEventRadius
	ids := w.sortedParticipantIDs()
	for _, d := range w.dischargesThisTick {
		if w.warpLogger != nil {
			_ = w.warpLogger.WriteDischarge(d)
		}
		for _, id := range ids {
			p := w.participants[id]
			if !p.Online {
				continue
			}
			dx, dz := p.Pos.X-d.Pos[0], p.Pos.Z-d.Pos[2]
			if dx*dx+dz*dz > r*r {
				continue
			}
			w.sendEvent(id, nowTick, protocol.Event{
				"type":     "DISCHARGE",
				"pos":      d.Pos,
				"scorched": d.Scorched,
			})
		}
	}
}
