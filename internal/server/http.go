package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /api/health) must include
// a valid Authorization: Bearer <token> header.
func (s *TankServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session/start", s.handleStartSession)
	mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/session/{id}/pitch-complete", s.handlePitchComplete)
	mux.HandleFunc("GET /api/session/{id}/stream", s.handleStream)
	mux.HandleFunc("POST /api/session/{id}/user-message", s.handleUserMessage)
	mux.HandleFunc("POST /api/session/{id}/offer-response", s.handleOfferResponse)
	mux.HandleFunc("POST /api/tts/synthesize", s.handleSynthesize)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/leaderboard/user/{id}", s.handleUserBestPitch)
	mux.HandleFunc("GET /api/verify/defi/search", s.handleDefiSearch)
	mux.HandleFunc("POST /api/verify/defi", s.handleVerifyDefi)
	mux.HandleFunc("POST /api/verify/trustmrr", s.handleVerifyMRR)
	mux.HandleFunc("GET /api/rate-limit/status", s.handleRateLimitStatus)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return RecoveryMiddleware(AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /api/health.
func (s *TankServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
