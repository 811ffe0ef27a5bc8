package world

import (
	"context"
	"errors"

	"sleepwarp.ai/internal/sim/world/feature/admin/requests"
)

// RequestSnapshot asks the world loop goroutine to enqueue a snapshot.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, errors.New("admin snapshot not available")
	}
	resp := make(chan requests.SnapshotResp, 1)

	select {
	case w.admin <- requests.SnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Tick, errors.New(r.Err)
		}
		return r.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []requests.SnapshotReq) {
	if w == nil || len(reqs) == 0 {
		return
	}
	cur := w.tick.Load()
	snapTick := uint64(0)
	if cur > 0 {
		snapTick = cur - 1
	}

	errStr := ""
	if w.snapshotSink == nil {
		errStr = "snapshot sink not configured"
	} else {
		snap := w.ExportSnapshot(snapTick)
		select {
		case w.snapshotSink <- snap:
		default:
			errStr = "snapshot sink backpressure"
		}
	}

	resp := requests.SnapshotResp{Tick: snapTick, Err: errStr}
	for _, r := range reqs {
		requests.Reply(r.Resp, resp)
	}
}

// RequestWeather forces the weather of the partition at the next tick boundary.
func (w *World) RequestWeather(ctx context.Context, raining, thundering bool, durationTicks int) (requests.WeatherResp, error) {
	if w == nil || w.adminWeather == nil {
		return requests.WeatherResp{}, errors.New("admin weather not available")
	}
	if durationTicks < 0 {
		return requests.WeatherResp{}, errors.New("duration must be >= 0")
	}
	resp := make(chan requests.WeatherResp, 1)
	req := requests.WeatherReq{Raining: raining, Thundering: thundering, DurationTicks: durationTicks, Resp: resp}

	select {
	case w.adminWeather <- req:
	case <-ctx.Done():
		return requests.WeatherResp{}, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r, errors.New(r.Err)
		}
		return r, nil
	case <-ctx.Done():
		return requests.WeatherResp{}, ctx.Err()
	}
}

func (w *World) handleAdminWeatherRequests(reqs []requests.WeatherReq) {
	if w == nil || len(reqs) == 0 {
		return
	}
	before := w.weather.public()
	for _, r := range reqs {
		w.forceWeather(r)
		ws := w.weather.public()
		requests.Reply(r.Resp, requests.WeatherResp{
			Tick:       w.tick.Load(),
			Raining:    ws.Raining,
			Thundering: ws.Thundering,
		})
	}
	if w.weather.public() != before {
		w.broadcastWeather()
	}
}

// RequestFixtures lists every registered fixture as of the current tick.
func (w *World) RequestFixtures(ctx context.Context) (requests.FixturesResp, error) {
	if w == nil || w.adminFixtures == nil {
		return requests.FixturesResp{}, errors.New("admin fixtures not available")
	}
	resp := make(chan requests.FixturesResp, 1)

	select {
	case w.adminFixtures <- requests.FixturesReq{Resp: resp}:
	case <-ctx.Done():
		return requests.FixturesResp{}, ctx.Err()
	}

	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return requests.FixturesResp{}, ctx.Err()
	}
}

func (w *World) handleFixturesReq(req requests.FixturesReq) {
	requests.Reply(req.Resp, requests.FixturesResp{Tick: w.tick.Load(), Fixtures: w.fixtureViews()})
}
