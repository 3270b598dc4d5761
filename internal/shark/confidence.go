package shark

import (
	"strconv"
	"strings"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// highValuationThreshold is the implied valuation above which an idea-stage
// pitch takes the high_valuation penalty.
const highValuationThreshold = 5_000_000

// InitialConfidence computes a shark's starting interest in a pitch from its
// structured facts. Deterministic given identical input; result is clamped to
// [0, 100].
func (c *Config) InitialConfidence(sharkID string, pitch model.PitchData) int {
	base := 50

	if pitch.ImpliedValuation() > highValuationThreshold && pitch.ProofType == model.ProofIdea {
		base += c.negativeMod("high_valuation", sharkID, -15)
	}

	switch pitch.ProofType {
	case model.ProofRevenue:
		base += c.positiveMod("revenue", sharkID, 10)
		if revenue, err := strconv.ParseInt(pitch.ProofValue, 10, 64); err == nil {
			if revenue > 100_000 {
				base += 10
			}
			if revenue > 500_000 {
				base += 10
			}
		}
	case model.ProofUsers:
		base += c.positiveMod("users", sharkID, 10)
	case model.ProofCustomers:
		base += c.positiveMod("revenue", sharkID, 5)
	case model.ProofIdea:
		base += c.negativeMod("no_revenue", sharkID, -15)
	}

	desc := strings.ToLower(pitch.CompanyDescription + " " + pitch.WhyNow)
	for _, category := range []string{"tech", "retail", "brand", "recurring"} {
		if containsAny(desc, c.keywords[category]) {
			base += c.positiveMod(category, sharkID, 10)
		}
	}
	if strings.Contains(desc, "patent") {
		base += c.positiveMod("patents", sharkID, 10)
	}

	return clampConfidence(base)
}

// UpdateFromTranscript adjusts confidence from signals in the spoken pitch.
// Modifiers are halved relative to the structured-data pass. Side-effect free.
func (c *Config) UpdateFromTranscript(sharkID string, transcript []model.TranscriptLine, current int) int {
	if len(transcript) == 0 {
		return current
	}

	parts := make([]string, 0, len(transcript))
	for _, line := range transcript {
		parts = append(parts, line.Text)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	delta := 0

	// Positive signals.
	if containsAny(text, []string{"patent", "patented", "intellectual property"}) {
		delta += c.positiveMod("patents", sharkID, 10) / 2
	}
	if strings.Contains(text, "million") && (strings.Contains(text, "revenue") || strings.Contains(text, "sales")) {
		delta += c.positiveMod("revenue", sharkID, 15)
	}
	if containsAny(text, []string{"growing", "growth", "doubled"}) {
		delta += c.positiveMod("growth", sharkID, 10) / 2
	}
	if containsAny(text, []string{"recurring", "subscription", "monthly"}) {
		delta += c.positiveMod("recurring", sharkID, 10) / 2
	}

	// Negative signals.
	if containsAny(text, []string{"no revenue", "haven't sold", "pre-revenue"}) {
		delta += c.negativeMod("no_revenue", sharkID, -15) / 2
	}
	if containsAny(text, []string{"no patent", "not patented"}) {
		delta += c.negativeMod("no_protection", sharkID, -10) / 2
	}
	if containsAny(text, []string{"competitive", "crowded", "many competitors"}) {
		delta += c.negativeMod("crowded_market", sharkID, -10) / 2
	}

	return clampConfidence(current + delta)
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
