package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/tuning"
	"sleepwarp.ai/internal/sim/world"
)

// D1Config points the index at an HTTP ingest endpoint in front of a remote
// SQL store (Cloudflare D1 or anything that accepts the same batches).
type D1Config struct {
	Endpoint      string
	Token         string
	WorldID       string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained bounds the events kept across failed flushes.
	MaxRetained int
	Logger      *log.Logger
}

type D1Index struct {
	cfg        D1Config
	httpClient *http.Client

	ch   chan d1Event
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dischargeMu       sync.Mutex
	lastDischargeTick uint64
	dischargeSeq      int

	queueDropped  atomic.Uint64
	retainDropped atomic.Uint64
	flushOK       atomic.Uint64
	flushFail     atomic.Uint64
	retained      atomic.Int64
}

type D1Stats struct {
	QueueDepth          int    `json:"queue_depth"`
	QueueCapacity       int    `json:"queue_capacity"`
	QueueDroppedTotal   uint64 `json:"queue_dropped_total"`
	RetainDroppedTotal  uint64 `json:"retain_dropped_total"`
	FlushOKTotal        uint64 `json:"flush_ok_total"`
	FlushFailTotal      uint64 `json:"flush_fail_total"`
	RetainedBatchEvents int64  `json:"retained_batch_events"`
}

type d1Event struct {
	Kind    string `json:"kind"`
	WorldID string `json:"world_id"`
	Payload any    `json:"payload"`
}

type d1WarpPayload struct {
	Tick         uint64            `json:"tick"`
	Sleeping     int               `json:"sleeping"`
	Participants int               `json:"participants"`
	Ticks        int               `json:"ticks"`
	ForceWake    bool              `json:"force_wake"`
	WeatherReset bool              `json:"weather_reset"`
	ClockBefore  world.ClockRecord `json:"clock_before"`
	ClockAfter   world.ClockRecord `json:"clock_after"`
	Synced       int               `json:"synced"`
	Digest       string            `json:"digest"`
}

type d1DischargePayload struct {
	Tick     uint64 `json:"tick"`
	Seq      int    `json:"seq"`
	GameTime int64  `json:"game_time"`
	Pos      [3]int `json:"pos"`
	Scorched bool   `json:"scorched"`
}

type d1SnapshotPayload struct {
	Tick         uint64 `json:"tick"`
	Path         string `json:"path"`
	Seed         int64  `json:"seed"`
	Height       int    `json:"height"`
	Chunks       int    `json:"chunks"`
	Participants int    `json:"participants"`
	Fixtures     int    `json:"fixtures"`
	GameTime     int64  `json:"game_time"`
	CycleTime    int64  `json:"cycle_time"`
}

type d1SnapshotStatePayload struct {
	Tick              uint64                   `json:"tick"`
	GameTime          int64                    `json:"game_time"`
	CycleTime         int64                    `json:"cycle_time"`
	ClockDriverActive bool                     `json:"clock_driver_active"`
	Raining           bool                     `json:"raining"`
	Thundering        bool                     `json:"thundering"`
	Participants      []snapshot.ParticipantV1 `json:"participants,omitempty"`
}

type d1TuningPayload struct {
	Tuning    tuning.Tuning `json:"tuning"`
	UpdatedAt string        `json:"updated_at"`
}

func OpenD1(cfg D1Config) (*D1Index, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.WorldID = strings.TrimSpace(cfg.WorldID)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty d1 ingest endpoint")
	}
	if cfg.WorldID == "" {
		return nil, fmt.Errorf("empty world id")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 16 * cfg.BatchSize
	}

	d := &D1Index{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan d1Event, 32768),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()

	return d, nil
}

func (d *D1Index) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *D1Index) Stats() D1Stats {
	if d == nil {
		return D1Stats{}
	}
	return D1Stats{
		QueueDepth:          len(d.ch),
		QueueCapacity:       cap(d.ch),
		QueueDroppedTotal:   d.queueDropped.Load(),
		RetainDroppedTotal:  d.retainDropped.Load(),
		FlushOKTotal:        d.flushOK.Load(),
		FlushFailTotal:      d.flushFail.Load(),
		RetainedBatchEvents: d.retained.Load(),
	}
}

func (d *D1Index) WriteWarp(e world.WarpLogEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	d.enqueue(d1Event{Kind: "warp", WorldID: d.cfg.WorldID, Payload: d1WarpPayload{
		Tick:         e.Tick,
		Sleeping:     e.Sleeping,
		Participants: e.Participants,
		Ticks:        e.Ticks,
		ForceWake:    e.ForceWake,
		WeatherReset: e.WeatherReset,
		ClockBefore:  e.ClockBefore,
		ClockAfter:   e.ClockAfter,
		Synced:       e.Synced,
		Digest:       e.Digest,
	}})
	return nil
}

func (d *D1Index) WriteDischarge(e world.DischargeEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	d.enqueue(d1Event{Kind: "discharge", WorldID: d.cfg.WorldID, Payload: d1DischargePayload{
		Tick:     e.Tick,
		Seq:      d.nextDischargeSeq(e.Tick),
		GameTime: e.GameTime,
		Pos:      e.Pos,
		Scorched: e.Scorched,
	}})
	return nil
}

func (d *D1Index) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if d == nil || d.closed.Load() {
		return
	}
	r := snapshotRowOf(path, snap)
	d.enqueue(d1Event{Kind: "snapshot", WorldID: d.cfg.WorldID, Payload: d1SnapshotPayload{
		Tick:         r.Tick,
		Path:         r.Path,
		Seed:         r.Seed,
		Height:       r.Height,
		Chunks:       r.Chunks,
		Participants: r.Participants,
		Fixtures:     r.Fixtures,
		GameTime:     r.GameTime,
		CycleTime:    r.CycleTime,
	}})
}

func (d *D1Index) RecordSnapshotState(snap snapshot.SnapshotV1) {
	if d == nil || d.closed.Load() {
		return
	}
	d.enqueue(d1Event{Kind: "snapshot_state", WorldID: d.cfg.WorldID, Payload: d1SnapshotStatePayload{
		Tick:              snap.Header.Tick,
		GameTime:          snap.GameTime,
		CycleTime:         snap.CycleTime,
		ClockDriverActive: snap.ClockDriverActive,
		Raining:           snap.Raining,
		Thundering:        snap.Thundering,
		Participants:      snap.Participants,
	}})
}

func (d *D1Index) UpsertTuning(tune tuning.Tuning) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	d.enqueue(d1Event{Kind: "tuning", WorldID: d.cfg.WorldID, Payload: d1TuningPayload{
		Tuning:    tune,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
	return nil
}

func (d *D1Index) nextDischargeSeq(tick uint64) int {
	d.dischargeMu.Lock()
	defer d.dischargeMu.Unlock()
	if tick != d.lastDischargeTick {
		d.lastDischargeTick = tick
		d.dischargeSeq = 0
	}
	d.dischargeSeq++
	return d.dischargeSeq
}

func (d *D1Index) enqueue(ev d1Event) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.queueDropped.Add(1)
		d.printf("d1 index queue full; drop kind=%s world=%s", ev.Kind, ev.WorldID)
	}
}

func (d *D1Index) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]d1Event, 0, d.cfg.BatchSize)
	// A failed batch stays in place and is retried on the next flush; only the
	// oldest events beyond MaxRetained are given up.
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.sendBatch(batch); err != nil {
			d.flushFail.Add(1)
			d.printf("d1 index flush failed batch=%d err=%v", len(batch), err)
			if over := len(batch) - d.cfg.MaxRetained; over > 0 {
				d.retainDropped.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			d.retained.Store(int64(len(batch)))
			return
		}
		d.flushOK.Add(1)
		batch = batch[:0]
		d.retained.Store(0)
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize && d.retained.Load() == 0 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *D1Index) sendBatch(events []d1Event) error {
	if len(events) == 0 {
		return nil
	}

	body := struct {
		Events []d1Event `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if d.cfg.Token != "" {
			req.Header.Set("x-sw-index-token", d.cfg.Token)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (d *D1Index) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
