package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/events"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/presence"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/session"
)

type startSessionRequest struct {
	PitchData     model.PitchData     `json:"pitchData"`
	UserID        string              `json:"userId"`
	TwitterHandle string              `json:"twitterHandle"`
	Verification  *model.Verification `json:"verification"`
}

// handleStartSession handles POST /api/session/start. It creates the session,
// seeds every shark's confidence from the pitch facts, and returns the panel.
func (s *TankServer) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := model.ValidatePitchData(&req.PitchData); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if decision := s.limiter.Check(req.UserID); !decision.Allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": decision.Message,
			"stats": decision.Stats,
		})
		return
	}

	id, err := s.sessions.Create(req.PitchData, req.UserID, req.TwitterHandle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.limiter.Record(req.UserID)
	if req.Verification != nil {
		s.sessions.SetVerification(id, req.Verification)
	}

	cfg := s.engine.Config()
	sharks := make([]model.SharkState, 0, len(cfg.IDs()))
	for _, sharkID := range cfg.IDs() {
		state := model.SharkState{
			ID:         sharkID,
			Name:       cfg.Name(sharkID),
			Status:     model.SharkLive,
			Confidence: cfg.InitialConfidence(sharkID, req.PitchData),
		}
		s.sessions.PutShark(id, &state)
		sharks = append(sharks, state)
	}

	s.activity.Record(presence.Touch{
		SessionID: id,
		Company:   req.PitchData.CompanyName,
		UserID:    req.UserID,
		Action:    "start",
	})
	s.mirror(r.Context(), events.TopicSessionStarted, events.SessionStarted{
		SessionID: id,
		Pitch:     req.PitchData,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"sharks":    sharks,
	})
}

// handleGetSession handles GET /api/session/{id}.
func (s *TankServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type pitchCompleteRequest struct {
	Transcript    []model.TranscriptLine `json:"transcript"`
	PitchDuration int                    `json:"pitchDuration"`
}

// handlePitchComplete handles POST /api/session/{id}/pitch-complete. The
// transcript is stored, the phase advances to qa, every shark's confidence is
// re-scored from the transcript, and the first reaction fires in the
// background.
func (s *TankServer) handlePitchComplete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req pitchCompleteRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.sessions.SetTranscript(id, req.Transcript)
	s.sessions.SetPitchDuration(id, req.PitchDuration)
	s.sessions.SetPhase(id, model.PhaseQA)
	s.activity.Record(presence.Touch{SessionID: id, Action: "pitch_complete"})
	s.mirror(r.Context(), events.TopicPhaseChanged, events.PhaseChanged{
		SessionID: id,
		Phase:     model.PhaseQA,
	})

	cfg := s.engine.Config()
	scores := make(map[string]int, len(cfg.IDs()))
	for _, sharkID := range cfg.IDs() {
		s.sessions.UpdateShark(id, sharkID, func(st *model.SharkState) {
			st.Confidence = cfg.UpdateFromTranscript(sharkID, req.Transcript, st.Confidence)
		})
		if st, ok := s.sessions.Shark(id, sharkID); ok {
			scores[sharkID] = st.Confidence
		}
	}

	s.safeGo(id, "initial-reaction", func() { s.generateInitialReaction(id) })

	writeJSON(w, http.StatusOK, map[string]any{
		"confidenceScores": scores,
		"phase":            model.PhaseQA,
	})
}

type userMessageRequest struct {
	Text string `json:"text"`
}

// handleUserMessage handles POST /api/session/{id}/user-message. The message
// is appended to the Q&A transcript and one shark answers in the background.
func (s *TankServer) handleUserMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req userMessageRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "message text required")
		return
	}

	s.sessions.AddQAMessage(id, model.QAMessage{
		Speaker:   "You",
		SpeakerID: "user",
		Text:      req.Text,
		IsShark:   false,
	})
	s.activity.Record(presence.Touch{SessionID: id, Action: "message"})

	s.safeGo(id, "user-response", func() { s.respondToUser(id, req.Text) })

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type offerResponseRequest struct {
	OfferID      string             `json:"offerId"`
	Action       string             `json:"action"` // accept, decline, counter
	CounterTerms model.CounterTerms `json:"counterTerms"`
}

// handleOfferResponse handles POST /api/session/{id}/offer-response.
func (s *TankServer) handleOfferResponse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req offerResponseRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, ok := s.sessions.Offer(id, req.OfferID)
	if !ok {
		writeError(w, http.StatusBadRequest, "offer not found")
		return
	}

	s.activity.Record(presence.Touch{SessionID: id, Action: "offer_response"})

	switch req.Action {
	case "accept":
		s.acceptOffer(w, r, id, offer)

	case "decline":
		s.sessions.SetOfferStatus(id, offer.ID, model.OfferDeclined)
		s.mirror(r.Context(), events.TopicOfferDeclined, events.OfferDeclined{
			SessionID: id,
			OfferID:   offer.ID,
			SharkID:   offer.SharkID,
		})
		s.safeGo(id, "offer-decline", func() { s.handleOfferDecline(id, offer) })
		writeJSON(w, http.StatusOK, map[string]string{"result": "declined"})

	case "counter":
		if req.CounterTerms.IsZero() {
			writeError(w, http.StatusBadRequest, "counter terms required")
			return
		}
		s.sessions.SetOfferStatus(id, offer.ID, model.OfferCountered)
		counterID, err := s.sessions.AddCounterOffer(id, &model.CounterOffer{
			OfferID: offer.ID,
			Terms:   req.CounterTerms,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record counter")
			return
		}
		s.mirror(r.Context(), events.TopicOfferCountered, events.OfferCountered{
			SessionID: id,
			OfferID:   offer.ID,
			Counter:   &model.CounterOffer{ID: counterID, OfferID: offer.ID, Terms: req.CounterTerms},
		})
		terms := req.CounterTerms
		s.safeGo(id, "counter-offer", func() { s.handleCounterOffer(id, offer, terms) })
		writeJSON(w, http.StatusOK, map[string]string{"result": "counter_submitted"})

	default:
		writeError(w, http.StatusBadRequest, "invalid action")
	}
}

// acceptOffer closes the deal on a pending offer. Accepting twice fails with
// 409 and leaves the original deal untouched.
func (s *TankServer) acceptOffer(w http.ResponseWriter, r *http.Request, id string, offer model.Offer) {
	if err := s.sessions.CloseDeal(id, &offer); err != nil {
		if errors.Is(err, session.ErrClosed) {
			writeError(w, http.StatusConflict, "session already closed")
			return
		}
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.sessions.SetOfferStatus(id, offer.ID, model.OfferAccepted)
	offer.Status = model.OfferAccepted

	s.emit(id, model.EventDealClosed, map[string]any{
		"sharkId":   offer.SharkID,
		"sharkName": offer.SharkName,
		"offer":     offer,
	})
	s.mirror(r.Context(), events.TopicDealClosed, events.DealClosed{
		SessionID: id,
		Deal:      &offer,
	})
	s.safeGo(id, "save-pitch", func() { s.savePitch(id) })

	writeJSON(w, http.StatusOK, map[string]any{
		"result": "deal_closed",
		"offer":  offer,
	})
}
