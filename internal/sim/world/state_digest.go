package world

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"sleepwarp.ai/internal/sim/world/feature/warp"
	"sleepwarp.ai/internal/sim/world/io/digestcodec"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteU64(h, &tmp, nowTick)
	digestcodec.WriteString(h, &tmp, w.cfg.ID)
	digestcodec.WriteI64(h, &tmp, w.clock.GameTime)
	digestcodec.WriteI64(h, &tmp, w.clock.CycleTime)
	digestcodec.WriteBool(h, w.weather.Raining)
	digestcodec.WriteBool(h, w.weather.Thundering)
	digestcodec.WriteI64(h, &tmp, int64(w.weather.RainTime))
	digestcodec.WriteI64(h, &tmp, int64(w.weather.ThunderTime))
	digestcodec.WriteI64(h, &tmp, int64(w.weather.ClearTime))

	for _, k := range w.chunks.AllChunkKeys() {
		ch := w.chunks.Chunks[k]
		digestcodec.WriteI64(h, &tmp, int64(k.CX))
		digestcodec.WriteI64(h, &tmp, int64(k.CZ))
		d := ch.Digest()
		h.Write(d[:])
	}

	for _, pos := range sortedPositions(w.furnaces) {
		f := w.furnaces[pos]
		writePos(h, &tmp, pos)
		digestcodec.WriteSortedNonZeroIntMap(h, &tmp, map[string]int{
			"fuel": f.Fuel, "input": f.Input, "output": f.Output, "burn": f.BurnTicks, "progress": f.Progress,
		})
	}
	for _, pos := range sortedPositions(w.composters) {
		c := w.composters[pos]
		writePos(h, &tmp, pos)
		digestcodec.WriteI64(h, &tmp, int64(c.Level))
		digestcodec.WriteI64(h, &tmp, int64(c.Timer))
	}

	// Connection state is not part of the digest; a restored world has no clients.
	for _, id := range w.sortedParticipantIDs() {
		p := w.participants[id]
		digestcodec.WriteString(h, &tmp, p.ID)
		writePos(h, &tmp, p.Pos)
		digestcodec.WriteBool(h, p.Sleeping)
		digestcodec.WriteI64(h, &tmp, int64(p.SleepTicks))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writePos(h digestcodec.Writer, tmp *[8]byte, p warp.BlockPos) {
	digestcodec.WriteI64(h, tmp, int64(p.X))
	digestcodec.WriteI64(h, tmp, int64(p.Y))
	digestcodec.WriteI64(h, tmp, int64(p.Z))
}

func sortedPositions[V any](m map[warp.BlockPos]V) []warp.BlockPos {
	out := make([]warp.BlockPos, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
	return out
}
