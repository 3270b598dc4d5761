// Package ai generates shark dialogue through the Anthropic Messages API.
// Every entry point degrades to canned persona lines when the API is
// unconfigured or unavailable, so a pitch session never stalls on the
// upstream service.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultModel      = "claude-sonnet-4-20250514"
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second

	apiVersion = "2023-06-01"
)

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
	RetryDelay time.Duration
}

// Client talks to the Messages API. A client built without an API key serves
// fallback lines only.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	personas   *shark.Config
	classifier shark.CounterClassifier

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient builds a dialogue client backed by the given persona config.
func NewClient(personas *shark.Config, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.APIKey == "" {
		slog.Info("no AI API key configured, shark dialogue will use fallback lines")
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		httpClient: opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		personas:   personas,
		classifier: shark.PhraseClassifier{},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Enabled reports whether live generation is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateResponse produces an in-character reply to the current state of the
// session. userMessage carries what the entrepreneur just said, empty for
// unprompted reactions.
func (c *Client) GenerateResponse(ctx context.Context, sharkID string, sess *model.Session, confidence int, userMessage string) string {
	if !c.Enabled() {
		return c.fallbackQuestion(sharkID)
	}
	prompt := buildReactionPrompt(sess, confidence, userMessage)
	text, err := c.complete(ctx, c.systemPrompt(sharkID), prompt, 200)
	if err != nil {
		slog.Warn("shark dialogue generation failed", "shark_id", sharkID, "error", err)
		return c.fallbackQuestion(sharkID)
	}
	return text
}

// GenerateDecline produces the shark's reaction to a declined offer.
func (c *Client) GenerateDecline(ctx context.Context, sharkID string, offer model.Offer) string {
	if !c.Enabled() {
		return c.fallbackDecline(sharkID)
	}
	text, err := c.complete(ctx, c.systemPrompt(sharkID), buildDeclinePrompt(offer), 150)
	if err != nil {
		slog.Warn("decline reaction generation failed", "shark_id", sharkID, "error", err)
		return c.fallbackDecline(sharkID)
	}
	return text
}

// GenerateCounterReply produces the shark's reaction to a counter-offer and
// classifies whether the reply accepts it. Generation failures report
// accepts=false so a dead upstream can never close a deal on its own.
func (c *Client) GenerateCounterReply(ctx context.Context, sharkID string, offer model.Offer, counter model.CounterTerms) (string, bool) {
	if !c.Enabled() {
		return c.fallbackCounter(sharkID), false
	}
	text, err := c.complete(ctx, c.systemPrompt(sharkID), buildCounterPrompt(offer, counter), 200)
	if err != nil {
		slog.Warn("counter reaction generation failed", "shark_id", sharkID, "error", err)
		return c.fallbackCounter(sharkID), false
	}
	return text, c.classifier.AcceptsCounter(text)
}

// complete performs one Messages API call with retry on transport failures.
// Auth and rate-limit responses fail immediately: retrying cannot help and
// burns quota.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		text, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		slog.Warn("ai request failed", "attempt", attempt+1, "max", c.maxRetries, "error", err)
	}
	return "", fmt.Errorf("all %d attempts failed: %w", c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", false, fmt.Errorf("authentication failed (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, fmt.Errorf("rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf("api error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var mr messagesResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}
	for _, block := range mr.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), false, nil
		}
	}
	return "", false, fmt.Errorf("response contained no text block")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Client) systemPrompt(sharkID string) string {
	if p, ok := c.personas.Persona(sharkID); ok {
		return p.Prompt
	}
	return ""
}

func (c *Client) fallbackQuestion(sharkID string) string {
	p, ok := c.personas.Persona(sharkID)
	if !ok || len(p.FallbackQuestions) == 0 {
		return "Tell me more about your business."
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.FallbackQuestions[c.rng.Intn(len(p.FallbackQuestions))]
}

func (c *Client) fallbackDecline(sharkID string) string {
	if p, ok := c.personas.Persona(sharkID); ok && p.DeclineFallback != "" {
		return p.DeclineFallback
	}
	return "Good luck."
}

func (c *Client) fallbackCounter(sharkID string) string {
	if p, ok := c.personas.Persona(sharkID); ok && p.CounterFallback != "" {
		return p.CounterFallback
	}
	return "Let me think about that."
}
