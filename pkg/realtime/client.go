package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultWebSocketURL is the default WebSocket endpoint.
	DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"

	// DefaultSessionURL is the default endpoint for creating transcription
	// sessions (ephemeral token handshake).
	DefaultSessionURL = "https://api.openai.com/v1/realtime/transcription_sessions"
)

// Transcription models.
const (
	ModelGPT4oTranscribe     = "gpt-4o-transcribe"
	ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"
)

// Client is the OpenAI Realtime transcription client.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	apiKey     string
	wsURL      string
	sessionURL string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new Realtime transcription client.
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("realtime: API key is required")
	}
	cfg := &clientConfig{
		apiKey:     apiKey,
		wsURL:      DefaultWebSocketURL,
		sessionURL: DefaultSessionURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{config: cfg}
}

// WithWebSocketURL sets the WebSocket URL.
func WithWebSocketURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithSessionURL sets the HTTP URL for transcription session creation.
func WithSessionURL(url string) Option {
	return func(c *clientConfig) {
		c.sessionURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	// Model is the transcription model, e.g. ModelGPT4oTranscribe.
	Model string `json:"model,omitzero"`

	// Language is an ISO-639-1 language hint.
	Language string `json:"language,omitzero"`

	// Prompt biases the transcription vocabulary.
	Prompt string `json:"prompt,omitzero"`
}

// CreateTranscriptionSession creates a transcription session and returns
// the ephemeral client secret used to dial the WebSocket. Turn detection is
// disabled: segmentation is driven by explicit commits.
func (c *Client) CreateTranscriptionSession(ctx context.Context, cfg *TranscriptionConfig) (string, error) {
	payload := map[string]interface{}{
		"input_audio_format":        "pcm16",
		"input_audio_transcription": cfg,
		"turn_detection":            nil,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("realtime: marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.sessionURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("realtime: build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime: create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{
			Code:       "session_create_failed",
			Message:    string(detail),
			HTTPStatus: resp.StatusCode,
		}
	}

	var out struct {
		ClientSecret struct {
			Value string `json:"value"`
		} `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("realtime: decode session response: %w", err)
	}
	if out.ClientSecret.Value == "" {
		return "", fmt.Errorf("realtime: session response missing client secret")
	}
	return out.ClientSecret.Value, nil
}
