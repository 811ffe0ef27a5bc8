package world

import (
	"sort"
	"strings"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	"sleepwarp.ai/internal/sim/world/logic/ids"
	"sleepwarp.ai/internal/sim/world/logic/mathx"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
	"sleepwarp.ai/internal/sim/world/terrain/store"
)

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "player"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

func (w *World) joinParticipant(req JoinRequest) JoinResponse {
	id := ids.ParticipantID()
	for w.participants[id] != nil {
		id = ids.ParticipantID()
	}
	p := &Participant{
		ID:          id,
		Name:        normalizeName(req.Name),
		ResumeToken: ids.ResumeToken(w.cfg.ID),
		Pos:         w.spawnPos(len(w.participants)),
		Online:      true,
	}
	w.participants[id] = p
	if req.Out != nil {
		w.clients[id] = &clientState{Out: req.Out}
	}
	return JoinResponse{Welcome: w.buildWelcome(p)}
}

// handleAttach runs as soon as the request arrives rather than at a tick
// boundary. The participant comes back with its previous position.
func (w *World) handleAttach(req AttachRequest) {
	var found *Participant
	for _, p := range w.participants {
		if req.ResumeToken != "" && p.ResumeToken == req.ResumeToken {
			found = p
			break
		}
	}
	var resp JoinResponse
	if found == nil {
		resp.ErrCode = protocol.ErrStale
	} else {
		found.Online = true
		if req.Out != nil {
			w.clients[found.ID] = &clientState{Out: req.Out}
		}
		resp.Welcome = w.buildWelcome(found)
	}
	if req.Resp != nil {
		select {
		case req.Resp <- resp:
		default:
		}
	}
}

func (w *World) handleLeave(req LeaveRequest) {
	id := req.ParticipantID
	if c := w.clients[id]; c != nil && req.Out != nil && c.Out != req.Out {
		return
	}
	delete(w.clients, id)
	if p := w.participants[id]; p != nil {
		p.Online = false
		p.wake()
	}
}

func (w *World) buildWelcome(p *Participant) protocol.WelcomeMsg {
	ws := w.weather.public()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ParticipantID:   p.ID,
		ResumeToken:     p.ResumeToken,
		WorldID:         w.cfg.ID,
		WorldParams: protocol.WorldParams{
			TickRateHz:         w.cfg.TickRateHz,
			ChunkSize:          [3]int{store.ChunkSize, store.ChunkSize, w.cfg.Height},
			Height:             w.cfg.Height,
			CycleLength:        w.cfg.Warp.CycleLength,
			SleepEligibleTicks: w.cfg.Warp.SleepEligibleTicks,
			Seed:               w.cfg.Seed,
		},
		Clock: protocol.ClockState{
			GameTime:          w.clock.GameTime,
			CycleTime:         w.clock.CycleTime,
			ClockDriverActive: w.cfg.ClockDriverActive,
		},
		Weather: protocol.WeatherState{Raining: ws.Raining, Thundering: ws.Thundering},
	}
}

// spawnPos places the n-th participant on the surface in a small ring around
// the origin.
func (w *World) spawnPos(n int) warp.BlockPos {
	h := mathx.Hash2(w.cfg.Seed+5, n, 0)
	x := int(h%17) - 8
	z := int((h>>8)%17) - 8
	if w.cfg.BoundaryR > 0 {
		x = mathx.ClampInt(x, -w.cfg.BoundaryR, w.cfg.BoundaryR)
		z = mathx.ClampInt(z, -w.cfg.BoundaryR, w.cfg.BoundaryR)
	}
	return warp.BlockPos{X: x, Y: w.columnTop(x, z) + 1, Z: z}
}

// columnTop returns the highest non-air y of the column, generating the chunk
// if needed. It ignores the loaded set.
func (w *World) columnTop(x, z int) int {
	ch := w.chunks.GetOrGenChunk(mathx.FloorDiv(x, store.ChunkSize), mathx.FloorDiv(z, store.ChunkSize))
	lx, lz := mathx.Mod(x, store.ChunkSize), mathx.Mod(z, store.ChunkSize)
	for y := ch.Height - 1; y >= 0; y-- {
		if ch.Get(lx, y, lz) != genpkg.Air {
			return mathx.ClampInt(y, 0, ch.Height-2)
		}
	}
	return 0
}

func (w *World) sortedParticipantIDs() []string {
	out := make([]string, 0, len(w.participants))
	for id := range w.participants {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
