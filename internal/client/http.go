package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/presence"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

// HTTPClient talks to the tankd HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// Health checks server liveness.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil)
}

// StartSession begins a pitch run.
func (c *HTTPClient) StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error) {
	var resp StartSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/session/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession fetches the current session snapshot.
func (c *HTTPClient) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodGet, "/api/session/"+url.PathEscape(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// PitchComplete submits the finished pitch transcript.
func (c *HTTPClient) PitchComplete(ctx context.Context, id string, req *PitchCompleteRequest) (*PitchCompleteResponse, error) {
	var resp PitchCompleteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/session/"+url.PathEscape(id)+"/pitch-complete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendUserMessage submits a Q&A message from the entrepreneur.
func (c *HTTPClient) SendUserMessage(ctx context.Context, id, text string) error {
	body := map[string]string{"text": text}
	return c.doJSON(ctx, http.MethodPost, "/api/session/"+url.PathEscape(id)+"/user-message", body, nil)
}

// RespondToOffer accepts, declines, or counters a pending offer.
func (c *HTTPClient) RespondToOffer(ctx context.Context, id string, req *OfferResponseRequest) (*OfferResponseResult, error) {
	var resp OfferResponseResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/session/"+url.PathEscape(id)+"/offer-response", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamEvents subscribes to the session's NDJSON event stream. Frames are
// delivered on the returned channel until the context is cancelled or the
// server closes the stream.
func (c *HTTPClient) StreamEvents(ctx context.Context, id string) (<-chan model.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/session/"+url.PathEscape(id)+"/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	ch := make(chan model.Event)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var evt model.Event
			if err := json.Unmarshal(line, &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Leaderboard fetches ranked deal outcomes.
func (c *HTTPClient) Leaderboard(ctx context.Context, verifiedOnly bool, limit int) (*LeaderboardResponse, error) {
	q := url.Values{}
	if !verifiedOnly {
		q.Set("verified", "false")
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/leaderboard"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp LeaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserBestPitch fetches a user's highest deal.
func (c *HTTPClient) UserBestPitch(ctx context.Context, userID string) (*UserBestResponse, error) {
	var resp UserBestResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/leaderboard/user/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity fetches the live session board. Sessions quiet for longer than
// stale are excluded; pass 0 for everything still tracked.
func (c *HTTPClient) Activity(ctx context.Context, stale time.Duration) ([]presence.Entry, error) {
	path := "/api/activity"
	if stale > 0 {
		path += "?stale=" + url.QueryEscape(stale.String())
	}
	var resp struct {
		Sessions []presence.Entry `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// RateLimit fetches the user's standing against the pitch limits.
func (c *HTTPClient) RateLimit(ctx context.Context, userID string) (*RateLimitStatus, error) {
	path := "/api/rate-limit/status"
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	var stats RateLimitStatus
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SearchProtocols searches DeFi protocols by name.
func (c *HTTPClient) SearchProtocols(ctx context.Context, query string) ([]verify.ProtocolMatch, error) {
	var resp struct {
		Results []verify.ProtocolMatch `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/verify/defi/search?q="+url.QueryEscape(query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// VerifyDefi checks protocol ownership via Twitter-handle match.
func (c *HTTPClient) VerifyDefi(ctx context.Context, twitterHandle, protocolSlug string) (*verify.Result, error) {
	body := map[string]string{"twitterHandle": twitterHandle, "protocolSlug": protocolSlug}
	var res verify.Result
	if err := c.doJSON(ctx, http.MethodPost, "/api/verify/defi", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyMRR checks SaaS profile ownership via Twitter-handle match.
func (c *HTTPClient) VerifyMRR(ctx context.Context, twitterHandle, profileURL string) (*verify.Result, error) {
	body := map[string]string{"twitterHandle": twitterHandle, "profileUrl": profileURL}
	var res verify.Result
	if err := c.doJSON(ctx, http.MethodPost, "/api/verify/trustmrr", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
