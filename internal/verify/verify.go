// Package verify checks founder claims against public data sources: DeFi
// protocol metrics on DeFiLlama and SaaS revenue on TrustMRR profiles.
// Results gate leaderboard eligibility only; the negotiation itself never
// consults them.
package verify

import (
	"fmt"
	"strings"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// Verification levels, strongest first.
const (
	LevelVerified     = "verified"      // user's handle matches the source's official account
	LevelTwitterMatch = "twitter_match" // handle matches but source itself is unattested
	LevelClaimed      = "claimed"       // claim recorded, no match found
	LevelNoMetrics    = "no_metrics"    // source exists but has nothing to verify against
	LevelNotFound     = "not_found"
)

// Result is the outcome of one ownership check.
type Result struct {
	Verified bool          `json:"verified"`
	Level    string        `json:"level"`
	Source   string        `json:"source"`
	Message  string        `json:"message"`
	Metrics  Metrics       `json:"metrics,omitempty"`
	Protocol *ProtocolInfo `json:"protocol,omitempty"`
	Profile  *ProfileInfo  `json:"profile,omitempty"`
}

// Metrics carries the headline figures backing a result.
type Metrics struct {
	TVL          float64 `json:"tvl,omitempty"`
	Fees30d      float64 `json:"fees30d,omitempty"`
	Fees7d       float64 `json:"fees7d,omitempty"`
	Fees24h      float64 `json:"fees24h,omitempty"`
	MRR          float64 `json:"mrr,omitempty"`
	PrimaryLabel string  `json:"primaryLabel,omitempty"`
	PrimaryValue float64 `json:"primaryValue,omitempty"`
}

// ProtocolInfo identifies a DeFiLlama protocol.
type ProtocolInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Twitter  string `json:"twitter,omitempty"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url,omitempty"`
	Logo     string `json:"logo,omitempty"`
}

// ProfileInfo identifies a TrustMRR profile.
type ProfileInfo struct {
	URL         string `json:"url"`
	CompanyName string `json:"companyName,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
}

// ToModel folds a result into the persistence-level verification record.
func (r *Result) ToModel() *model.Verification {
	level := model.VerificationNone
	switch r.Level {
	case LevelVerified, LevelTwitterMatch:
		level = model.VerificationVerified
	case LevelClaimed:
		level = model.VerificationPartial
	}
	return &model.Verification{
		Verified: r.Verified,
		Level:    level,
		Source:   r.Source,
		Message:  r.Message,
		Metrics: model.VerificationMetrics{
			PrimaryLabel: r.Metrics.PrimaryLabel,
			PrimaryValue: r.Metrics.PrimaryValue,
		},
	}
}

// normalizeHandle lowercases a Twitter handle and strips the leading @.
func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "@")
}

// FormatUSD renders a dollar figure with a magnitude suffix.
func FormatUSD(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.2fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
