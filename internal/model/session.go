package model

import "time"

// Phase is the session-wide stage of a pitch run.
type Phase string

const (
	PhasePitch  Phase = "pitch"
	PhaseQA     Phase = "qa"
	PhaseOffers Phase = "offers"
	PhaseClosed Phase = "closed"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks whether the phase is a known value.
func (p Phase) IsValid() bool {
	switch p {
	case PhasePitch, PhaseQA, PhaseOffers, PhaseClosed:
		return true
	}
	return false
}

// rank orders phases for monotonicity checks. Higher rank = later stage.
func (p Phase) rank() int {
	switch p {
	case PhasePitch:
		return 0
	case PhaseQA:
		return 1
	case PhaseOffers:
		return 2
	case PhaseClosed:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether a transition from p to next is allowed.
// Phases only move forward; closed is terminal.
func (p Phase) CanAdvanceTo(next Phase) bool {
	return next.IsValid() && next.rank() >= p.rank()
}

// SharkStatus represents whether a shark is still in the negotiation.
type SharkStatus string

const (
	SharkLive SharkStatus = "live"
	SharkOut  SharkStatus = "out"
)

// String returns the string representation of the status.
func (s SharkStatus) String() string {
	return string(s)
}

// SharkState is the per-shark mutable state within a session.
type SharkState struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Status       SharkStatus `json:"status"`
	Confidence   int         `json:"confidence"`
	IsSpeaking   bool        `json:"isSpeaking"`
	HasOffered   bool        `json:"hasOffered"`
	CurrentOffer *Offer      `json:"currentOffer,omitempty"`

	// QuestionCount tracks how many times this shark has spoken during Q&A.
	// The decision policy requires a floor of questions before a shark may exit.
	QuestionCount int `json:"questionCount"`
}

// TranscriptLine is one spoken line of the pitch.
type TranscriptLine struct {
	Text string `json:"text"`
}

// QAMessage is one entry in the Q&A conversation.
type QAMessage struct {
	Speaker   string `json:"speaker"`
	SpeakerID string `json:"speakerId"`
	Text      string `json:"text"`
	IsShark   bool   `json:"isShark"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// Session is the authoritative record of one pitch run.
type Session struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId,omitempty"`
	TwitterHandle string                 `json:"twitterHandle,omitempty"`
	PitchData     PitchData              `json:"pitchData"`
	Phase         Phase                  `json:"phase"`
	Transcript    []TranscriptLine       `json:"transcript"`
	QATranscript  []QAMessage            `json:"qaTranscript"`
	Sharks        map[string]*SharkState `json:"sharks"`
	Offers        []*Offer               `json:"offers"`
	CounterOffers []*CounterOffer        `json:"counterOffers"`
	FinalDeal     *Offer                 `json:"finalDeal,omitempty"`
	Verification  *Verification          `json:"verification,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	PitchDuration int                    `json:"pitchDuration"` // seconds
}
