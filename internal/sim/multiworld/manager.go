package multiworld

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world"
	"sleepwarp.ai/internal/sim/world/logic/ids"
)

// Session is the transport's handle on one participant in one partition.
type Session struct {
	ParticipantID string
	CurrentWorld  string
	Out           chan []byte
}

type Runtime struct {
	Spec  WorldSpec
	World *world.World
}

const (
	stateVersion          = 1
	worldRequestTimeout   = 3 * time.Second
	worldLeaveSendTimeout = 300 * time.Millisecond
)

var (
	ErrResumeNotFound = errors.New("resume token not found")
	ErrWorldBusy      = errors.New("world inbox busy")
)

type persistedState struct {
	Version            int               `json:"version"`
	ParticipantToWorld map[string]string `json:"participant_to_world"`
	ResumeToWorld      map[string]string `json:"resume_to_world"`
}

// Manager routes sessions to independent world partitions. Each partition
// keeps its own clock, weather and sleepers; nothing crosses between them.
type Manager struct {
	mu sync.RWMutex

	runtimes  map[string]*Runtime
	manifest  []protocol.WorldRef
	defaultID string
	stateFile string

	participantToWorld map[string]string
	resumeToWorld      map[string]string

	persistDebounce time.Duration
	persistCh       chan struct{}
	persistFlush    chan chan struct{}
	persistStop     chan struct{}
	persistWG       sync.WaitGroup
	closeOnce       sync.Once
}

func NewManager(cfg Config, runtimes map[string]*Runtime, stateFile string) (*Manager, error) {
	if len(runtimes) == 0 {
		return nil, fmt.Errorf("empty runtimes")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, spec := range cfg.Worlds {
		rt := runtimes[spec.ID]
		if rt == nil || rt.World == nil {
			return nil, fmt.Errorf("missing runtime for world %s", spec.ID)
		}
	}
	m := &Manager{
		runtimes:           runtimes,
		manifest:           cfg.Manifest(),
		defaultID:          cfg.DefaultWorldID,
		stateFile:          stateFile,
		participantToWorld: map[string]string{},
		resumeToWorld:      map[string]string{},
		persistDebounce:    200 * time.Millisecond,
		persistCh:          make(chan struct{}, 1),
		persistFlush:       make(chan chan struct{}, 8),
		persistStop:        make(chan struct{}),
	}
	m.loadState()
	m.persistWG.Add(1)
	go m.persistLoop()
	return m, nil
}

func (m *Manager) WorldIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.runtimes))
	for id := range m.runtimes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Runtime(id string) *Runtime {
	return m.runtime(strings.ToUpper(strings.TrimSpace(id)))
}

func (m *Manager) DefaultWorldID() string { return m.defaultID }

func (m *Manager) Manifest() []protocol.WorldRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]protocol.WorldRef(nil), m.manifest...)
}

// Metrics returns each partition's latest metrics ordered by world id.
func (m *Manager) Metrics() []world.WorldMetrics {
	worldIDs := m.WorldIDs()
	out := make([]world.WorldMetrics, 0, len(worldIDs))
	for _, id := range worldIDs {
		rt := m.runtime(id)
		if rt == nil {
			continue
		}
		wm := rt.World.Metrics()
		if wm.WorldID == "" {
			wm.WorldID = id
		}
		out = append(out, wm)
	}
	return out
}

func (m *Manager) Join(name string, out chan []byte, worldPreference string) (Session, world.JoinResponse, error) {
	target := m.pickWorld(worldPreference)
	rt := m.runtime(target)
	if rt == nil {
		return Session{}, world.JoinResponse{}, fmt.Errorf("default world not found: %s", target)
	}

	req := world.JoinRequest{
		Name: name,
		Out:  out,
		Resp: make(chan world.JoinResponse, 1),
	}
	ctx, cancel := m.requestCtx(context.Background())
	defer cancel()
	resp, err := m.sendJoinRequest(ctx, rt, req)
	if err != nil {
		return Session{}, world.JoinResponse{}, fmt.Errorf("join request failed: %w", err)
	}
	if resp.Welcome.ParticipantID == "" {
		return Session{}, world.JoinResponse{}, fmt.Errorf("join failed")
	}
	resp.Welcome.WorldManifest = m.Manifest()

	s := Session{ParticipantID: resp.Welcome.ParticipantID, CurrentWorld: target, Out: out}
	m.updateResidency(s.ParticipantID, target, resp.Welcome.ResumeToken)
	return s, resp, nil
}

// Attach resumes a participant by token. The issuing world is tried first,
// then the remembered residency, then every other partition.
func (m *Manager) Attach(resumeToken string, out chan []byte) (Session, world.JoinResponse, error) {
	var try []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			try = append(try, id)
		}
	}
	if id, ok := ids.ResumeTokenWorld(resumeToken); ok {
		add(id)
	}
	add(m.worldByResumeToken(resumeToken))
	for _, id := range m.WorldIDs() {
		add(id)
	}

	for _, id := range try {
		rt := m.runtime(id)
		if rt == nil {
			continue
		}
		req := world.AttachRequest{
			ResumeToken: resumeToken,
			Out:         out,
			Resp:        make(chan world.JoinResponse, 1),
		}
		ctx, cancel := m.requestCtx(context.Background())
		resp, err := m.sendAttachRequest(ctx, rt, req)
		cancel()
		if err != nil || resp.ErrCode != "" || resp.Welcome.ParticipantID == "" {
			continue
		}
		resp.Welcome.WorldManifest = m.Manifest()
		s := Session{ParticipantID: resp.Welcome.ParticipantID, CurrentWorld: id, Out: out}
		m.updateResidency(s.ParticipantID, id, resp.Welcome.ResumeToken)
		return s, resp, nil
	}
	return Session{}, world.JoinResponse{}, ErrResumeNotFound
}

func (m *Manager) Leave(s Session) {
	rt := m.runtime(s.CurrentWorld)
	if rt == nil {
		return
	}
	timer := time.NewTimer(worldLeaveSendTimeout)
	defer timer.Stop()
	select {
	case rt.World.Leave() <- world.LeaveRequest{ParticipantID: s.ParticipantID, Out: s.Out}:
	case <-timer.C:
	}
}

// RouteAction queues an action on the session's partition. ErrWorldBusy means
// the inbox stayed full for the whole request timeout.
func (m *Manager) RouteAction(ctx context.Context, s *Session, act protocol.ActionMsg) error {
	if s == nil {
		return errors.New("nil session")
	}
	rt := m.runtime(s.CurrentWorld)
	if rt == nil {
		return fmt.Errorf("world not found: %s", s.CurrentWorld)
	}
	if err := m.sendActionEnvelope(ctx, rt, world.ActionEnvelope{ParticipantID: s.ParticipantID, Act: act}); err != nil {
		return fmt.Errorf("%w: %v", ErrWorldBusy, err)
	}
	return nil
}

func (m *Manager) ParticipantWorld(participantID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.participantToWorld[participantID]
}

func (m *Manager) requestCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, worldRequestTimeout)
}

func (m *Manager) sendJoinRequest(ctx context.Context, rt *Runtime, req world.JoinRequest) (world.JoinResponse, error) {
	select {
	case rt.World.Join() <- req:
	case <-ctx.Done():
		return world.JoinResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return world.JoinResponse{}, ctx.Err()
	}
}

func (m *Manager) sendAttachRequest(ctx context.Context, rt *Runtime, req world.AttachRequest) (world.JoinResponse, error) {
	select {
	case rt.World.Attach() <- req:
	case <-ctx.Done():
		return world.JoinResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return world.JoinResponse{}, ctx.Err()
	}
}

func (m *Manager) sendActionEnvelope(ctx context.Context, rt *Runtime, env world.ActionEnvelope) error {
	reqCtx, cancel := m.requestCtx(ctx)
	defer cancel()
	select {
	case rt.World.Inbox() <- env:
		return nil
	case <-reqCtx.Done():
		return reqCtx.Err()
	}
}

func (m *Manager) runtime(id string) *Runtime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runtimes[id]
}

func (m *Manager) pickWorld(pref string) string {
	p := strings.ToUpper(strings.TrimSpace(pref))
	if p == "" {
		return m.defaultID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.runtimes[p]; ok {
		return p
	}
	return m.defaultID
}

func (m *Manager) worldByResumeToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resumeToWorld[token]
}

func (m *Manager) updateResidency(participantID, worldID, resumeToken string) {
	if participantID == "" || worldID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participantToWorld[participantID] = worldID
	if strings.TrimSpace(resumeToken) != "" {
		m.resumeToWorld[resumeToken] = worldID
	}
	m.schedulePersistLocked()
}

func (m *Manager) loadState() {
	if m.stateFile == "" {
		return
	}
	b, err := os.ReadFile(m.stateFile)
	if err != nil {
		return
	}
	var st persistedState
	if err := json.Unmarshal(b, &st); err != nil {
		return
	}
	for k, v := range st.ParticipantToWorld {
		if k != "" && v != "" {
			m.participantToWorld[k] = v
		}
	}
	for k, v := range st.ResumeToWorld {
		if k != "" && v != "" {
			m.resumeToWorld[k] = v
		}
	}
}

func (m *Manager) schedulePersistLocked() {
	if m.stateFile == "" || m.persistCh == nil {
		return
	}
	select {
	case m.persistCh <- struct{}{}:
	default:
	}
}

func (m *Manager) persistLoop() {
	defer m.persistWG.Done()
	var timer *time.Timer
	stopTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
	}
	for {
		var timerCh <-chan time.Time
		if timer != nil {
			timerCh = timer.C
		}
		select {
		case <-m.persistStop:
			stopTimer()
			m.persistNow()
			return
		case <-m.persistCh:
			stopTimer()
			timer = time.NewTimer(m.persistDebounce)
		case ack := <-m.persistFlush:
			stopTimer()
			m.persistNow()
			if ack != nil {
				close(ack)
			}
		case <-timerCh:
			timer = nil
			m.persistNow()
		}
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.persistStop)
		m.persistWG.Wait()
	})
}

// FlushState writes the residency file now and waits for the write.
func (m *Manager) FlushState(ctx context.Context) error {
	if m.stateFile == "" {
		return nil
	}
	ack := make(chan struct{})
	select {
	case m.persistFlush <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) persistNow() {
	if m.stateFile == "" {
		return
	}
	m.mu.RLock()
	st := persistedState{
		Version:            stateVersion,
		ParticipantToWorld: make(map[string]string, len(m.participantToWorld)),
		ResumeToWorld:      make(map[string]string, len(m.resumeToWorld)),
	}
	for k, v := range m.participantToWorld {
		st.ParticipantToWorld[k] = v
	}
	for k, v := range m.resumeToWorld {
		st.ResumeToWorld[k] = v
	}
	m.mu.RUnlock()

	b, _ := json.MarshalIndent(st, "", "  ")
	_ = os.MkdirAll(filepath.Dir(m.stateFile), 0o755)
	tmp := m.stateFile + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, m.stateFile)
}
