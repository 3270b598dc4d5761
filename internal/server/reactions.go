package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/events"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/session"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/tts"
)

// safeGo runs a background reaction task with a catch-all recover. A panic in
// a reaction goroutine must never take down the server.
func (s *TankServer) safeGo(sessionID, task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered in background task",
					"task", task,
					"session_id", sessionID,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}

// decisionContext derives the policy counters from the session record.
func decisionContext(sess *model.Session) shark.DecisionContext {
	var ctx shark.DecisionContext
	for _, msg := range sess.QATranscript {
		if msg.IsShark {
			ctx.QuestionCount++
		}
	}
	for _, o := range sess.Offers {
		if o.Royalty != nil {
			ctx.MentionedRoyalty = true
			if o.Status == model.OfferDeclined {
				ctx.RejectedRoyalty = true
			}
		}
	}
	return ctx
}

// generateInitialReaction makes the highest-confidence live shark speak first
// after the pitch. Only one shark reacts; the rest wait for the user.
func (s *TankServer) generateInitialReaction(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}

	live := s.sessions.LiveSharks(sessionID)
	if len(live) == 0 {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Confidence > live[j].Confidence })
	speaker := live[0]

	s.emit(sessionID, model.EventSharkThinking, map[string]any{
		"sharkId":   speaker.ID,
		"sharkName": speaker.Name,
	})

	if s.engine.ShouldGoOut(speaker.ID, speaker.Confidence, sess.Phase, decisionContext(sess)) {
		s.markOut(ctx, sessionID, speaker.ID, s.engine.OutReason(speaker.ID))
		return
	}

	text := s.generator.GenerateResponse(ctx, speaker.ID, sess, speaker.Confidence, "")
	s.deliverResponse(ctx, sessionID, speaker.ID, text)
}

// respondToUser picks one live shark (avoiding the last speaker) and answers
// the user's message.
func (s *TankServer) respondToUser(sessionID, userMessage string) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}

	live := s.sessions.LiveSharks(sessionID)
	if len(live) == 0 {
		return
	}
	candidates := make([]string, len(live))
	for i, st := range live {
		candidates[i] = st.ID
	}

	lastSpeaker := ""
	for i := len(sess.QATranscript) - 1; i >= 0; i-- {
		if sess.QATranscript[i].IsShark {
			lastSpeaker = sess.QATranscript[i].SpeakerID
			break
		}
	}

	sharkID := s.engine.PickResponder(candidates, lastSpeaker)
	state, ok := s.sessions.Shark(sessionID, sharkID)
	if !ok {
		return
	}

	s.emit(sessionID, model.EventSharkThinking, map[string]any{
		"sharkId":   sharkID,
		"sharkName": state.Name,
	})

	if s.engine.ShouldGoOut(sharkID, state.Confidence, sess.Phase, decisionContext(sess)) {
		s.markOut(ctx, sessionID, sharkID, s.engine.OutReason(sharkID))
		return
	}

	text := s.generator.GenerateResponse(ctx, sharkID, sess, state.Confidence, userMessage)
	s.deliverResponse(ctx, sessionID, sharkID, text)
}

// deliverResponse runs the speak flow for one generated line: speaking
// indicator, synthesis, the message frame, out/offer side effects, and the
// Q&A transcript append.
func (s *TankServer) deliverResponse(ctx context.Context, sessionID, sharkID, text string) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}
	sharkName := s.engine.Config().Name(sharkID)

	isGoingOut := shark.IsGoingOut(text)
	var offer *model.Offer
	if !isGoingOut {
		offer = s.engine.Config().ParseOffer(sharkID, text, sess.PitchData)
		if offer == nil {
			// The reply itself carried no terms; the policy may still decide
			// this shark puts money on the table.
			if state, ok := s.sessions.Shark(sessionID, sharkID); ok &&
				s.engine.ShouldMakeOffer(sharkID, state.Confidence, sess.Phase, decisionContext(sess)) {
				offer = s.engine.OfferTerms(sharkID, sess.PitchData, state.Confidence)
			}
		}
	}

	s.emit(sessionID, model.EventSharkSpeaking, map[string]any{
		"sharkId":   sharkID,
		"sharkName": sharkName,
		"speaking":  true,
	})

	res := s.speech.SynthesizeForShark(ctx, sharkID, text)
	s.emit(sessionID, model.EventSharkMessage, model.SharkMessageData{
		SharkID:    sharkID,
		SharkName:  sharkName,
		Text:       text,
		AudioURL:   audioURL(res),
		DurationMs: res.DurationMs,
	})
	s.mirror(ctx, events.TopicSharkMessage, events.SharkMessage{
		SessionID: sessionID,
		SharkID:   sharkID,
		Text:      text,
	})

	if isGoingOut {
		s.markOut(ctx, sessionID, sharkID, text)
	}

	if offer != nil {
		offerID, err := s.sessions.AddOffer(sessionID, offer)
		if err == nil {
			if stamped, ok := s.sessions.Offer(sessionID, offerID); ok {
				s.emit(sessionID, model.EventSharkOffer, map[string]any{
					"sharkId":   sharkID,
					"sharkName": sharkName,
					"offer":     stamped,
				})
				s.mirror(ctx, events.TopicOfferMade, events.OfferMade{
					SessionID: sessionID,
					Offer:     &stamped,
				})
			}
		}
	}

	s.sessions.AddQAMessage(sessionID, model.QAMessage{
		Speaker:   sharkName,
		SpeakerID: sharkID,
		Text:      text,
		IsShark:   true,
	})
	s.sessions.UpdateShark(sessionID, sharkID, func(st *model.SharkState) {
		st.QuestionCount++
	})

	s.emit(sessionID, model.EventSharkSpeaking, map[string]any{
		"sharkId":  sharkID,
		"speaking": false,
	})
}

// markOut flips a shark to out and announces it.
func (s *TankServer) markOut(ctx context.Context, sessionID, sharkID, message string) {
	s.sessions.UpdateShark(sessionID, sharkID, func(st *model.SharkState) {
		st.Status = model.SharkOut
	})
	s.emit(sessionID, model.EventSharkOut, map[string]any{
		"sharkId":   sharkID,
		"sharkName": s.engine.Config().Name(sharkID),
		"message":   message,
	})
	s.mirror(ctx, events.TopicSharkOut, events.SharkOut{
		SessionID: sessionID,
		SharkID:   sharkID,
		Reason:    message,
	})
}

// handleOfferDecline reacts to the user declining an offer. The shark loses
// confidence and either walks or voices disappointment.
func (s *TankServer) handleOfferDecline(sessionID string, offer model.Offer) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	s.sessions.UpdateShark(sessionID, offer.SharkID, func(st *model.SharkState) {
		st.Confidence -= 15
	})
	state, ok := s.sessions.Shark(sessionID, offer.SharkID)
	if !ok {
		return
	}

	if state.Confidence < 30 {
		s.markOut(ctx, sessionID, offer.SharkID, s.engine.OutReason(offer.SharkID))
		return
	}

	text := s.generator.GenerateDecline(ctx, offer.SharkID, offer)
	res := s.speech.SynthesizeForShark(ctx, offer.SharkID, text)
	s.emit(sessionID, model.EventSharkMessage, model.SharkMessageData{
		SharkID:    offer.SharkID,
		SharkName:  state.Name,
		Text:       text,
		AudioURL:   audioURL(res),
		DurationMs: res.DurationMs,
	})
	s.mirror(ctx, events.TopicSharkMessage, events.SharkMessage{
		SessionID: sessionID,
		SharkID:   offer.SharkID,
		Text:      text,
	})
}

// handleCounterOffer reacts to a user counter-offer. The shark either accepts
// on the countered terms (closing the deal) or rejects, possibly with a fresh
// offer embedded in the reply.
func (s *TankServer) handleCounterOffer(sessionID string, offer model.Offer, terms model.CounterTerms) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	sharkName := s.engine.Config().Name(offer.SharkID)
	s.emit(sessionID, model.EventSharkThinking, map[string]any{
		"sharkId":   offer.SharkID,
		"sharkName": sharkName,
	})

	text, accepts := s.generator.GenerateCounterReply(ctx, offer.SharkID, offer, terms)

	s.emit(sessionID, model.EventSharkSpeaking, map[string]any{
		"sharkId":   offer.SharkID,
		"sharkName": sharkName,
		"speaking":  true,
	})
	res := s.speech.SynthesizeForShark(ctx, offer.SharkID, text)

	message := model.SharkMessageData{
		SharkID:    offer.SharkID,
		SharkName:  sharkName,
		Text:       text,
		AudioURL:   audioURL(res),
		DurationMs: res.DurationMs,
	}

	if accepts {
		final := offer
		if terms.Amount > 0 {
			final.Amount = terms.Amount
		}
		if terms.Equity > 0 {
			final.Equity = terms.Equity
		}
		err := s.sessions.CloseDeal(sessionID, &final)
		s.emit(sessionID, model.EventSharkMessage, message)
		if err == nil {
			final.Status = model.OfferAccepted
			s.emit(sessionID, model.EventDealClosed, map[string]any{
				"sharkId":   offer.SharkID,
				"sharkName": sharkName,
				"offer":     final,
			})
			s.mirror(ctx, events.TopicDealClosed, events.DealClosed{
				SessionID: sessionID,
				Deal:      &final,
			})
			s.savePitch(sessionID)
		} else if !errors.Is(err, session.ErrClosed) {
			slog.Warn("counter accept could not close deal", "session_id", sessionID, "error", err)
		}
	} else {
		s.emit(sessionID, model.EventSharkMessage, message)
		if newOffer := s.engine.Config().ParseOffer(offer.SharkID, text, pitchDataFor(s, sessionID)); newOffer != nil {
			if offerID, err := s.sessions.AddOffer(sessionID, newOffer); err == nil {
				if stamped, ok := s.sessions.Offer(sessionID, offerID); ok {
					s.emit(sessionID, model.EventSharkOffer, map[string]any{
						"sharkId":   offer.SharkID,
						"sharkName": sharkName,
						"offer":     stamped,
					})
					s.mirror(ctx, events.TopicOfferMade, events.OfferMade{
						SessionID: sessionID,
						Offer:     &stamped,
					})
				}
			}
		}
	}

	s.emit(sessionID, model.EventSharkSpeaking, map[string]any{
		"sharkId":  offer.SharkID,
		"speaking": false,
	})
}

// savePitch persists the closed deal to the leaderboard store, best effort.
func (s *TankServer) savePitch(sessionID string) {
	if s.leaderboard == nil {
		return
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil || sess.FinalDeal == nil {
		return
	}

	rec := &model.PitchRecord{
		ID:            sess.ID,
		UserID:        sess.UserID,
		TwitterHandle: sess.TwitterHandle,
		PitchData:     sess.PitchData,
		Outcome: model.PitchOutcome{
			Result:     model.ResultDeal,
			DealAmount: sess.FinalDeal.Amount,
			DealEquity: sess.FinalDeal.Equity,
			Shark:      sess.FinalDeal.SharkID,
		},
		Verification: sess.Verification,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.leaderboard.SavePitch(ctx, rec); err != nil {
		slog.Error("failed to save pitch record", "session_id", sessionID, "error", err)
		return
	}
	s.mirror(ctx, events.TopicSessionEnded, events.SessionEnded{
		SessionID: sessionID,
		Outcome:   "deal",
	})
}

func pitchDataFor(s *TankServer, sessionID string) model.PitchData {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return model.PitchData{}
	}
	return sess.PitchData
}

// audioURL inlines synthesized audio as a data URL; empty when synthesis was
// disabled or failed.
func audioURL(res tts.Result) string {
	if res.AudioData == "" {
		return ""
	}
	return "data:audio/mpeg;base64," + res.AudioData
}
