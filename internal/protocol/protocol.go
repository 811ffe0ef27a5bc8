package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"

	TypeSleep = "SLEEP"
	TypeWake  = "WAKE"
	TypeMove  = "MOVE"

	TypeTimeSync = "TIME_SYNC"
	TypeWeather  = "WEATHER"
	TypeEvent    = "EVENT"
	TypeError    = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// IsAction reports whether t is a participant action accepted after the handshake.
func IsAction(t string) bool {
	switch t {
	case TypeSleep, TypeWake, TypeMove:
		return true
	}
	return false
}
