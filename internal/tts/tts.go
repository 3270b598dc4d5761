// Package tts synthesizes shark speech through the ElevenLabs API. Voice IDs
// come from the persona config; without an API key the client still returns
// duration estimates so the front end can pace message playback.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/shark"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModelID = "eleven_turbo_v2_5"

	// defaultVoiceID is used for sharks without a configured voice.
	defaultVoiceID = "pNInz6obpgDQGcFmaJgB"

	// wordsPerMinute drives playback duration estimates.
	wordsPerMinute = 150
)

// Result is the outcome of one synthesis call. AudioData is base64-encoded
// MP3, empty when synthesis was skipped or failed. DurationMs is always set
// so callers can pace playback with or without audio.
type Result struct {
	Enabled    bool   `json:"enabled"`
	AudioData  string `json:"audioData,omitempty"`
	DurationMs int    `json:"duration"`
	Format     string `json:"format,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	ModelID    string
	HTTPClient *http.Client
}

// Client calls the ElevenLabs text-to-speech endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
	personas   *shark.Config
}

// NewClient builds a synthesis client. An empty API key disables synthesis
// but keeps duration estimation working.
func NewClient(personas *shark.Config, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.APIKey == "" {
		slog.Info("no TTS API key configured, shark audio disabled")
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		modelID:    opts.ModelID,
		httpClient: opts.HTTPClient,
		personas:   personas,
	}
}

// Enabled reports whether synthesis is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// VoiceID returns the configured voice for a shark.
func (c *Client) VoiceID(sharkID string) string {
	if p, ok := c.personas.Persona(sharkID); ok && p.VoiceID != "" {
		return p.VoiceID
	}
	return defaultVoiceID
}

// EstimateDuration returns the approximate playback length of text in
// milliseconds.
func EstimateDuration(text string) int {
	words := len(strings.Fields(text))
	return words * 60 * 1000 / wordsPerMinute
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// SynthesizeForShark synthesizes a line of dialogue with the shark's voice.
// Failures are reported in the Result rather than as errors: a dead TTS
// upstream should degrade to silent playback, not break the session.
func (c *Client) SynthesizeForShark(ctx context.Context, sharkID, text string) Result {
	return c.Synthesize(ctx, text, c.VoiceID(sharkID))
}

// Synthesize converts text to speech with the given voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) Result {
	if !c.Enabled() {
		return Result{
			Enabled:    false,
			DurationMs: EstimateDuration(text),
			Message:    "TTS disabled - no API key configured",
		}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Enabled: true, DurationMs: 0, Message: "No text to synthesize"}
	}

	audio, err := c.doSynthesize(ctx, text, voiceID)
	if err != nil {
		slog.Warn("speech synthesis failed", "voice_id", voiceID, "error", err)
		return Result{
			Enabled:    true,
			DurationMs: EstimateDuration(text),
			Message:    err.Error(),
		}
	}
	return Result{
		Enabled:    true,
		AudioData:  base64.StdEncoding.EncodeToString(audio),
		DurationMs: EstimateDuration(text),
		Format:     "audio/mpeg",
	}
}

func (c *Client) doSynthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, msg)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio, nil
}
