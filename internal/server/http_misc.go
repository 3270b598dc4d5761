package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/store"
)

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// handleSynthesize handles POST /api/tts/synthesize.
func (s *TankServer) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.speech.Synthesize(r.Context(), req.Text, req.VoiceID))
}

// handleLeaderboard handles GET /api/leaderboard. Query params: verified
// (default true) filters to verified pitches, limit caps the page size.
func (s *TankServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}

	q := store.LeaderboardQuery{VerifiedOnly: true}
	if v := r.URL.Query().Get("verified"); v != "" {
		q.VerifiedOnly = v == "true"
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}

	entries, err := s.leaderboard.Leaderboard(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleUserBestPitch handles GET /api/leaderboard/user/{id}.
func (s *TankServer) handleUserBestPitch(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}

	rec, err := s.leaderboard.UserBestPitch(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"entry": nil})
			return
		}
		writeError(w, http.StatusInternalServerError, "leaderboard query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": rec})
}

// handleDefiSearch handles GET /api/verify/defi/search?q=...
func (s *TankServer) handleDefiSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "query too short",
			"results": []any{},
		})
		return
	}

	results, err := s.llama.SearchProtocols(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadGateway, "protocol search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type verifyDefiRequest struct {
	ProtocolSlug  string `json:"protocolSlug"`
	TwitterHandle string `json:"twitterHandle"`
}

// handleVerifyDefi handles POST /api/verify/defi. Ownership is claimed by
// matching the caller's Twitter handle against the protocol's listed handle.
func (s *TankServer) handleVerifyDefi(w http.ResponseWriter, r *http.Request) {
	var req verifyDefiRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProtocolSlug == "" {
		writeError(w, http.StatusBadRequest, "protocol slug required")
		return
	}
	if req.TwitterHandle == "" {
		writeError(w, http.StatusBadRequest, "twitter handle required")
		return
	}

	writeJSON(w, http.StatusOK, s.llama.VerifyProtocol(r.Context(), req.TwitterHandle, req.ProtocolSlug))
}

type verifyMRRRequest struct {
	ProfileURL    string `json:"profileUrl"`
	TwitterHandle string `json:"twitterHandle"`
}

// handleVerifyMRR handles POST /api/verify/trustmrr.
func (s *TankServer) handleVerifyMRR(w http.ResponseWriter, r *http.Request) {
	var req verifyMRRRequest
	if err := decodeJSON(json.NewDecoder(r.Body), &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProfileURL == "" {
		writeError(w, http.StatusBadRequest, "profile URL required")
		return
	}
	if req.TwitterHandle == "" {
		writeError(w, http.StatusBadRequest, "twitter handle required")
		return
	}

	writeJSON(w, http.StatusOK, s.mrr.VerifyMRR(r.Context(), req.TwitterHandle, req.ProfileURL))
}

// handleRateLimitStatus handles GET /api/rate-limit/status?userId=...
func (s *TankServer) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.limiter.UserStats(r.URL.Query().Get("userId")))
}

// handleActivity handles GET /api/activity?stale=<duration>. It returns the
// live session board: who is in the tank, how long, and how many viewers.
func (s *TankServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	var stale time.Duration
	if v := r.URL.Query().Get("stale"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stale duration")
			return
		}
		stale = d
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.activity.Board(stale)})
}
