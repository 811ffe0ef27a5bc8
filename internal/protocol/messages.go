package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Name            string     `json:"name"`
	WorldPreference string     `json:"world_preference,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	ResumeToken string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ParticipantID   string       `json:"participant_id"`
	ResumeToken     string       `json:"resume_token"`
	WorldID         string       `json:"world_id"`
	WorldParams     WorldParams  `json:"world_params"`
	Clock           ClockState   `json:"clock"`
	Weather         WeatherState `json:"weather"`
	WorldManifest   []WorldRef   `json:"world_manifest,omitempty"`
}

type WorldRef struct {
	WorldID           string `json:"world_id"`
	ClockDriverActive bool   `json:"clock_driver_active"`
	WeatherCycle      bool   `json:"weather_cycle"`
}

type WorldParams struct {
	TickRateHz         int    `json:"tick_rate_hz"`
	ChunkSize          [3]int `json:"chunk_size"`
	Height             int    `json:"height"`
	CycleLength        int64  `json:"cycle_length"`
	SleepEligibleTicks int    `json:"sleep_eligible_ticks"`
	Seed               int64  `json:"seed"`
}

type ClockState struct {
	GameTime          int64 `json:"game_time"`
	CycleTime         int64 `json:"cycle_time"`
	ClockDriverActive bool  `json:"clock_driver_active"`
}

type WeatherState struct {
	Raining    bool `json:"raining"`
	Thundering bool `json:"thundering"`
}

// SLEEP, WAKE and MOVE (client -> server). Pos is only read for MOVE.
type ActionMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Pos             *[3]int `json:"pos,omitempty"`
}

// TIME_SYNC (server -> client)
type TimeSyncMsg struct {
	Type              string `json:"type"`
	ProtocolVersion   string `json:"protocol_version"`
	WorldID           string `json:"world_id"`
	GameTime          int64  `json:"game_time"`
	CycleTime         int64  `json:"cycle_time"`
	ClockDriverActive bool   `json:"clock_driver_active"`
}

// WEATHER (server -> client)
type WeatherMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	Raining         bool   `json:"raining"`
	Thundering      bool   `json:"thundering"`
}

// Event is an open-ended record keyed by "type" (DISCHARGE, WOKE, SLEEP_DENIED).
type Event map[string]interface{}

// EVENT (server -> client)
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	Tick            uint64 `json:"tick"`
	Event           Event  `json:"event"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
