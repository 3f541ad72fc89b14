package protocol

import "encoding/json"

const Version = "1.0"

// Message types (observer feed).
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypeSnapshot = "SNAPSHOT"
	TypeFrame    = "FRAME"
)

// Event is a loosely-typed simulation event destined for the observer feed
// and the tick journal. Producers fill "t" (tick) and "type" plus
// type-specific keys.
type Event map[string]any

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
