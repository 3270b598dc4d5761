// Package client is the HTTP client the CLI uses to talk to a tankd server.
package client

import (
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ratelimit"
)

// StartSessionRequest begins a new pitch run.
type StartSessionRequest struct {
	PitchData     model.PitchData     `json:"pitchData"`
	UserID        string              `json:"userId,omitempty"`
	TwitterHandle string              `json:"twitterHandle,omitempty"`
	Verification  *model.Verification `json:"verification,omitempty"`
}

// StartSessionResponse carries the new session and the seeded panel.
type StartSessionResponse struct {
	SessionID string             `json:"sessionId"`
	Sharks    []model.SharkState `json:"sharks"`
}

// PitchCompleteRequest submits the finished pitch transcript.
type PitchCompleteRequest struct {
	Transcript    []model.TranscriptLine `json:"transcript"`
	PitchDuration int                    `json:"pitchDuration,omitempty"`
}

// PitchCompleteResponse returns the re-scored panel.
type PitchCompleteResponse struct {
	ConfidenceScores map[string]int `json:"confidenceScores"`
	Phase            model.Phase    `json:"phase"`
}

// OfferResponseRequest answers a pending offer.
type OfferResponseRequest struct {
	OfferID      string             `json:"offerId"`
	Action       string             `json:"action"` // accept, decline, counter
	CounterTerms model.CounterTerms `json:"counterTerms,omitempty"`
}

// OfferResponseResult reports the outcome of an offer response.
type OfferResponseResult struct {
	Result string       `json:"result"`
	Offer  *model.Offer `json:"offer,omitempty"`
}

// LeaderboardResponse wraps a ranked leaderboard page.
type LeaderboardResponse struct {
	Entries []*model.LeaderboardEntry `json:"entries"`
}

// UserBestResponse wraps a user's best pitch, nil when they have none.
type UserBestResponse struct {
	Entry *model.PitchRecord `json:"entry"`
}

// RateLimitStatus is the user's standing against the pitch limits.
type RateLimitStatus = ratelimit.Stats
