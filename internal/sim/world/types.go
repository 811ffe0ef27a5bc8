package world

import (
	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world/feature/warp"
	"sleepwarp.ai/internal/sim/world/logic/rates"
)

// Participant is the world's record of one connected (or resumable) player.
// Sleep state lives here and is handed to the warp engine every pass.
type Participant struct {
	ID          string
	Name        string
	ResumeToken string
	Pos         warp.BlockPos
	Online      bool

	Sleeping   bool
	SleepTicks int

	actions rates.Window
}

func (p *Participant) wake() {
	p.Sleeping = false
	p.SleepTicks = 0
}

type clientState struct {
	Out chan []byte
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

// LeaveRequest takes a participant offline. Out identifies the connection that
// is leaving; a leave from a connection that was since replaced by an attach
// is ignored. A nil Out always applies.
type LeaveRequest struct {
	ParticipantID string
	Out           chan []byte
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

// JoinResponse carries the WELCOME on success or an error code on failure.
type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	ErrCode string
}

type ActionEnvelope struct {
	ParticipantID string
	Act           protocol.ActionMsg
}

type WarpLogger interface {
	WriteWarp(entry WarpLogEntry) error
	WriteDischarge(entry DischargeEntry) error
}

type ClockRecord struct {
	GameTime  int64 `json:"game_time"`
	CycleTime int64 `json:"cycle_time"`
}

func clockRecord(c warp.Clock) ClockRecord {
	return ClockRecord{GameTime: c.GameTime, CycleTime: c.CycleTime}
}

// WarpLogEntry records one non-idle acceleration pass.
type WarpLogEntry struct {
	Tick         uint64        `json:"tick"`
	WorldID      string        `json:"world_id"`
	Sleeping     int           `json:"sleeping"`
	Participants int           `json:"participants"`
	Ticks        int           `json:"ticks"`
	ForceWake    bool          `json:"force_wake,omitempty"`
	WeatherReset bool          `json:"weather_reset,omitempty"`
	CycleLength  int64         `json:"cycle_length"`
	ClockBefore  ClockRecord   `json:"clock_before"`
	ClockAfter   ClockRecord   `json:"clock_after"`
	Regions      int           `json:"regions"`
	Stats        warp.SimStats `json:"stats"`
	Synced       int           `json:"synced"`
	Skipped      int           `json:"skipped"`
	Digest       string        `json:"digest"`
}

type DischargeEntry struct {
	Tick     uint64 `json:"tick"`
	WorldID  string `json:"world_id"`
	GameTime int64  `json:"game_time"`
	Pos      [3]int `json:"pos"`
	Scorched bool   `json:"scorched,omitempty"`
}
