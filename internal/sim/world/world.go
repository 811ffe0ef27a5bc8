package world

import (
	"hash/fnv"
	"math/rand/v2"
	"sync/atomic"

	"sleepwarp.ai/internal/persistence/snapshot"
	"sleepwarp.ai/internal/sim/world/feature/admin/requests"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	genpkg "sleepwarp.ai/internal/sim/world/terrain/gen"
	"sleepwarp.ai/internal/sim/world/terrain/store"
)

type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	chunks *store.ChunkStore

	// pcg backs rng; it is kept so the random state can be snapshotted.
	pcg    *rand.PCG
	rng    *rand.Rand
	engine *warp.Engine

	clock   warp.Clock
	weather weatherState

	participants map[string]*Participant
	clients      map[string]*clientState

	furnaces   map[warp.BlockPos]*Furnace
	composters map[warp.BlockPos]*Composter

	inbox         chan ActionEnvelope
	join          chan JoinRequest
	attach        chan AttachRequest
	leave         chan LeaveRequest
	admin         chan requests.SnapshotReq
	adminWeather  chan requests.WeatherReq
	adminFixtures chan requests.FixturesReq
	stop          chan struct{}

	warpLogger   WarpLogger
	snapshotSink chan<- snapshot.SnapshotV1

	// Per-step scratch, reset by stepInternal.
	dischargesThisTick []DischargeEntry
	wokeThisTick       []string

	counters passCounters
	lastPass PassSummary
	envStats warp.SimStats

	metrics atomic.Value
}

type passCounters struct {
	Passes     uint64
	WarpTicks  uint64
	ForceWakes uint64
	Discharges uint64
}

func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()

	h := fnv.New64a()
	h.Write([]byte(cfg.ID))
	pcg := rand.NewPCG(uint64(cfg.Seed), h.Sum64())
	rng := rand.New(pcg)

	w := &World{
		cfg:           cfg,
		pcg:           pcg,
		rng:           rng,
		engine:        warp.NewEngine(cfg.Warp, rng),
		participants:  map[string]*Participant{},
		clients:       map[string]*clientState{},
		furnaces:      map[warp.BlockPos]*Furnace{},
		composters:    map[warp.BlockPos]*Composter{},
		inbox:         make(chan ActionEnvelope, 1024),
		join:          make(chan JoinRequest, 64),
		attach:        make(chan AttachRequest, 64),
		leave:         make(chan LeaveRequest, 64),
		admin:         make(chan requests.SnapshotReq, 16),
		adminWeather:  make(chan requests.WeatherReq, 16),
		adminFixtures: make(chan requests.FixturesReq, 16),
		stop:          make(chan struct{}),
	}
	w.chunks = store.NewChunkStore(w.genParams(), cfg.BoundaryR)
	w.chunks.OnGenerate = w.placeGeneratedFixtures
	return w, nil
}

func (w *World) genParams() genpkg.Params {
	p := genpkg.Params{
		Seed:            w.cfg.Seed,
		Height:          w.cfg.Height,
		SeaLevel:        w.cfg.SeaLevel,
		BiomeRegionSize: w.cfg.BiomeRegionSize,
		TreePermille:    w.cfg.TreePermille,
		SaplingPermille: w.cfg.SaplingPermille,
		CropPermille:    w.cfg.CropPermille,
		FixturePermille: w.cfg.FixturePermille,
	}
	p.ApplyDefaults()
	return p
}

func (w *World) SetWarpLogger(l WarpLogger)                    { w.warpLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Attach() chan<- AttachRequest { return w.attach }
func (w *World) Leave() chan<- LeaveRequest   { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) Config() WorldConfig { return w.cfg }
