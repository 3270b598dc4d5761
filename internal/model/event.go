package model

// EventType identifies a session stream event.
type EventType string

const (
	EventConnected     EventType = "connected"
	EventHeartbeat     EventType = "heartbeat"
	EventSharkThinking EventType = "shark_thinking"
	EventSharkSpeaking EventType = "shark_speaking"
	EventSharkMessage  EventType = "shark_message"
	EventSharkOffer    EventType = "shark_offer"
	EventSharkOut      EventType = "shark_out"
	EventDealClosed    EventType = "deal_closed"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is one frame on a session's event stream. Events live only in the
// in-memory queue; they are not persisted.
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"` // unix millis
}

// SharkMessageData is the payload carried by shark_message events.
type SharkMessageData struct {
	SharkID    string `json:"sharkId"`
	SharkName  string `json:"sharkName"`
	Text       string `json:"text"`
	AudioURL   string `json:"audioUrl,omitempty"`
	DurationMs int    `json:"durationMs,omitempty"`
}
