package ai

import (
	"fmt"
	"strings"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
)

// contextWindow limits how much of the Q&A conversation is replayed into the
// prompt.
const contextWindow = 10

func buildReactionPrompt(sess *model.Session, confidence int, userMessage string) string {
	pitch := sess.PitchData

	proof := string(pitch.ProofType)
	if pitch.ProofValue != "" {
		proof += " - " + pitch.ProofValue
	} else {
		proof += " - None stated"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are on a TV investment show evaluating a pitch.

PITCH SUMMARY:
- Company: %s
- Asking: $%d for %g%% equity
- Description: %s
- Traction: %s
- Why now: %s

PITCH TRANSCRIPT:
%s

CONVERSATION SO FAR:
%s

YOUR CURRENT INTEREST LEVEL: %d/100
`,
		orDefault(pitch.CompanyName, "the company"),
		pitch.AmountRaising,
		pitch.EquityPercent,
		pitch.CompanyDescription,
		proof,
		pitch.WhyNow,
		formatTranscript(sess.Transcript),
		formatContext(sess.QATranscript),
		confidence,
	)

	if userMessage != "" {
		fmt.Fprintf(&b, "\nTHE ENTREPRENEUR JUST SAID: %q\n", userMessage)
	}

	b.WriteString(`
Respond in character. You may:
1. Ask a pointed question about the business
2. Express skepticism or genuine interest
3. Make an offer if you're very interested (include specific terms: amount and equity percentage)
4. Declare "I'm out" if you're not interested (include a reason)

Keep your response to 2-3 sentences maximum. Be authentic to your character. Do not be overly verbose.`)
	return b.String()
}

func buildDeclinePrompt(offer model.Offer) string {
	return fmt.Sprintf(`The entrepreneur just declined your offer of $%d for %g%% equity.

Express your disappointment or make a final statement in character. Keep it to 1-2 sentences. You can either:
1. Wish them luck and bow out gracefully
2. Express frustration that they're making a mistake
3. Make one final push with slightly improved terms

Stay in character.`, offer.Amount, offer.Equity)
}

func buildCounterPrompt(offer model.Offer, counter model.CounterTerms) string {
	counterAmount := counter.Amount
	if counterAmount == 0 {
		counterAmount = offer.Amount
	}
	counterEquity := counter.Equity
	if counterEquity == 0 {
		counterEquity = offer.Equity
	}
	return fmt.Sprintf(`You offered $%d for %g%% equity.

The entrepreneur countered with: $%d for %g%% equity.

Evaluate this counter-offer and respond in character. You can:
1. ACCEPT the counter (say "You've got a deal!" or similar)
2. REJECT and go out (you've had enough negotiating)
3. Make a FINAL counter-offer (meet in the middle)

Consider:
- Is the valuation reasonable?
- How much do you want this deal?
- Would you walk away from this?

Keep response to 2-3 sentences. End with clear indication of your decision.`,
		offer.Amount, offer.Equity, counterAmount, counterEquity)
}

func formatTranscript(transcript []model.TranscriptLine) string {
	if len(transcript) == 0 {
		return "(No transcript available)"
	}
	var lines []string
	for _, entry := range transcript {
		if entry.Text != "" {
			lines = append(lines, "- "+entry.Text)
		}
	}
	if len(lines) == 0 {
		return "(No speech captured)"
	}
	return strings.Join(lines, "\n")
}

func formatContext(qa []model.QAMessage) string {
	if len(qa) == 0 {
		return "(Start of Q&A session)"
	}
	if len(qa) > contextWindow {
		qa = qa[len(qa)-contextWindow:]
	}
	var lines []string
	for _, entry := range qa {
		if entry.Text != "" {
			lines = append(lines, entry.Speaker+": "+entry.Text)
		}
	}
	if len(lines) == 0 {
		return "(No prior conversation)"
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
