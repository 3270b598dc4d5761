package model

import "time"

// OutcomeResult is the terminal result of a pitch run.
type OutcomeResult string

const (
	ResultDeal   OutcomeResult = "deal"
	ResultNoDeal OutcomeResult = "no_deal"
)

// PitchOutcome summarizes how a pitch run ended.
type PitchOutcome struct {
	Result     OutcomeResult `json:"result"`
	DealAmount int64         `json:"dealAmount,omitempty"`
	DealEquity float64       `json:"dealEquity,omitempty"`
	Shark      string        `json:"shark,omitempty"`
}

// VerificationLevel grades how strongly a business claim was verified.
type VerificationLevel string

const (
	VerificationNone     VerificationLevel = "unverified"
	VerificationPartial  VerificationLevel = "partial"
	VerificationVerified VerificationLevel = "verified"
)

// VerificationMetrics carries the headline figure backing a verification.
type VerificationMetrics struct {
	PrimaryLabel string  `json:"primaryLabel,omitempty"`
	PrimaryValue float64 `json:"primaryValue,omitempty"`
}

// Verification records a third-party ownership check (DeFi TVL, SaaS MRR).
// It gates leaderboard eligibility only; negotiation logic never reads it.
type Verification struct {
	Verified bool                `json:"verified"`
	Level    VerificationLevel   `json:"level"`
	Source   string              `json:"source,omitempty"` // "defillama", "trustmrr"
	Message  string              `json:"message,omitempty"`
	Metrics  VerificationMetrics `json:"metrics,omitempty"`
}

// PitchRecord is a saved pitch run, the unit of leaderboard persistence.
type PitchRecord struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	TwitterHandle string        `json:"twitterHandle,omitempty"`
	PitchData     PitchData     `json:"pitchData"`
	Outcome       PitchOutcome  `json:"outcome"`
	Verification  *Verification `json:"verification,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// LeaderboardEntry is a ranked pitch record.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	PitchRecord
}
