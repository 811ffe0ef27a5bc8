package world

import (
	"encoding/json"
	"errors"
	"math/rand/v2"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
)

var errUnreachable = errors.New("participant has no connected client")

// warpEnv adapts the world to the warp engine for one real tick. It must only
// be used from the world goroutine.
type warpEnv struct {
	w    *World
	tick uint64
}

var _ warp.Env = (*warpEnv)(nil)

func (e *warpEnv) Clock() warp.Clock { return e.w.clock }

func (e *warpEnv) AdvanceClock() {
	e.w.clock.GameTime++
	e.w.clock.CycleTime++
}

func (e *warpEnv) Weather() warp.Weather { return e.w.weather.public() }

func (e *warpEnv) SetWeather(next warp.Weather) { e.w.setWeather(next) }

func (e *warpEnv) ClockDriverActive() bool { return e.w.cfg.ClockDriverActive }

func (e *warpEnv) WakeAll() {
	for _, id := range e.w.sortedParticipantIDs() {
		p := e.w.participants[id]
		if p.Sleeping {
			p.wake()
			e.w.wokeThisTick = append(e.w.wokeThisTick, id)
		}
	}
}

func (e *warpEnv) RegionLoaded(r warp.RegionPos) bool {
	return e.w.chunks.ChunkLoaded(r.X, r.Z)
}

func (e *warpEnv) HeightRange() (int, int) { return 0, e.w.cfg.Height }

func (e *warpEnv) block(pos warp.BlockPos) (uint16, bool) {
	return e.w.chunks.GetBlock(pos.X, pos.Y, pos.Z)
}

func (e *warpEnv) RandomTickable(pos warp.BlockPos) bool {
	b, ok := e.block(pos)
	return ok && randomTickable(b)
}

func (e *warpEnv) RandomTick(pos warp.BlockPos, rng *rand.Rand) {
	e.w.randomTick(pos, rng)
}

func (e *warpEnv) TickFixtures() { e.w.tickFixtures() }

func (e *warpEnv) PrecipitationSurface(x, z int) (warp.BlockPos, bool) {
	top, ok := e.w.chunks.TopBlocking(x, z)
	if !ok || top+1 >= e.w.cfg.Height {
		return warp.BlockPos{}, false
	}
	return warp.BlockPos{X: x, Y: top + 1, Z: z}, true
}

func (e *warpEnv) BiomeAt(pos warp.BlockPos) warp.Biome {
	if _, ok := e.block(pos); !ok {
		return nil
	}
	return biomeView{env: e, biome: e.w.chunks.Gen.Biome(pos.X, pos.Z)}
}

func (e *warpEnv) IsEmpty(pos warp.BlockPos) bool {
	b, ok := e.block(pos)
	return ok && b == genpkg.Air
}

func (e *warpEnv) SnowLayers(pos warp.BlockPos) int {
	b, _ := e.block(pos)
	return genpkg.SnowLayers(b)
}

func (e *warpEnv) SetSnowLayers(pos warp.BlockPos, layers int) {
	e.w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.SnowBlock(layers))
}

func (e *warpEnv) Freeze(pos warp.BlockPos) {
	if b, ok := e.block(pos); ok && b == genpkg.Water {
		e.w.chunks.SetBlock(pos.X, pos.Y, pos.Z, genpkg.Ice)
	}
}

func (e *warpEnv) PrecipitatingAt(pos warp.BlockPos) bool {
	if !e.w.weather.Raining {
		return false
	}
	biome := e.w.chunks.Gen.Biome(pos.X, pos.Z)
	if !biome.Precipitates || biome.Cold() {
		return false
	}
	top, ok := e.w.chunks.TopBlocking(pos.X, pos.Z)
	return ok && pos.Y > top
}

func (e *warpEnv) SpawnDischarge(pos warp.BlockPos) {
	e.w.spawnDischarge(e.tick, pos)
}

func (e *warpEnv) SendClock(participantID string, sync warp.ClockSync) error {
	cl := e.w.clients[participantID]
	if cl == nil || cl.Out == nil {
		return errUnreachable
	}
	b, err := json.Marshal(protocol.TimeSyncMsg{
		Type:              protocol.TypeTimeSync,
		ProtocolVersion:   protocol.Version,
		WorldID:           e.w.cfg.ID,
		GameTime:          sync.GameTime,
		CycleTime:         sync.CycleTime,
		ClockDriverActive: sync.ClockDriverActive,
	})
	if err != nil {
		return err
	}
	sendLatest(cl.Out, b)
	return nil
}

// biomeView answers the freeze and snow predicates against live terrain.
type biomeView struct {
	env   *warpEnv
	biome genpkg.Biome
}

// skyExposed reports whether nothing above pos stops precipitation.
func (v biomeView) skyExposed(pos warp.BlockPos) bool {
	top, ok := v.env.w.chunks.TopBlocking(pos.X, pos.Z)
	return ok && top <= pos.Y
}

func (v biomeView) ShouldFreeze(pos warp.BlockPos) bool {
	if !v.biome.Cold() {
		return false
	}
	b, ok := v.env.block(pos)
	return ok && b == genpkg.Water && v.skyExposed(pos)
}

func (v biomeView) ShouldSnow(pos warp.BlockPos) bool {
	if !v.biome.Cold() {
		return false
	}
	b, ok := v.env.block(pos)
	if !ok || (b != genpkg.Air && genpkg.SnowLayers(b) == 0) {
		return false
	}
	below, ok := v.env.block(pos.Down())
	return ok && genpkg.Supports(below) && v.skyExposed(pos)
}
