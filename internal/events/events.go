// Package events mirrors session lifecycle onto an external bus so other
// systems (overlays, analytics) can follow along. Mirroring is best effort:
// the viewer-facing stream never depends on it.
package events

import (
	"context"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// Event topic constants
const (
	TopicSessionStarted = "tank.session.started"
	TopicPhaseChanged   = "tank.session.phase_changed"
	TopicSharkMessage   = "tank.session.shark_message"
	TopicSharkOut       = "tank.session.shark_out"
	TopicOfferMade      = "tank.session.offer_made"
	TopicOfferDeclined  = "tank.session.offer_declined"
	TopicOfferCountered = "tank.session.offer_countered"
	TopicDealClosed     = "tank.session.deal_closed"
	TopicSessionEnded   = "tank.session.ended"
)

// Event types

type SessionStarted struct {
	SessionID string          `json:"session_id"`
	Pitch     model.PitchData `json:"pitch"`
}

type PhaseChanged struct {
	SessionID string      `json:"session_id"`
	Phase     model.Phase `json:"phase"`
}

type SharkMessage struct {
	SessionID string `json:"session_id"`
	SharkID   string `json:"shark_id"`
	Text      string `json:"text"`
}

type SharkOut struct {
	SessionID string `json:"session_id"`
	SharkID   string `json:"shark_id"`
	Reason    string `json:"reason"`
}

type OfferMade struct {
	SessionID string       `json:"session_id"`
	Offer     *model.Offer `json:"offer"`
}

type OfferDeclined struct {
	SessionID string `json:"session_id"`
	OfferID   string `json:"offer_id"`
	SharkID   string `json:"shark_id"`
}

type OfferCountered struct {
	SessionID string              `json:"session_id"`
	OfferID   string              `json:"offer_id"`
	Counter   *model.CounterOffer `json:"counter"`
}

type DealClosed struct {
	SessionID string       `json:"session_id"`
	Deal      *model.Offer `json:"deal"`
}

type SessionEnded struct {
	SessionID string `json:"session_id"`
	Outcome   string `json:"outcome"` // deal, no_deal, expired
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
