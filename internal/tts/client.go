// Package tts talks to the remote Gemini speech model.
//
// One call issues exactly one request. The voice instruction and the user's
// text are sent as a single prompt part because the service refuses system
// instructions when audio output is requested.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/prompt"
	"github.com/book-expert/voice-studio/internal/voice"
)

// Service defaults.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-preview-tts"
)

// API paths and headers.
const (
	apiGenerateContentFmt = "%s/v1beta/models/%s:generateContent"
	headerContentType     = "Content-Type"
	headerAPIKey          = "x-goog-api-key"
	contentTypeJSON       = "application/json"
	modalityAudio         = "AUDIO"
	audioMimePrefix       = "audio"
)

// Error taxonomy. Every failure returned by Generate wraps exactly one of
// these.
var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrService       = errors.New("speech service error")
	ErrNoAudio       = errors.New("no audio content in response")
	ErrRequest       = errors.New("speech request failed")
)

// Error messages.
const (
	errFmtServiceStatus  = "%w: %s: %s. Try shortening the text or retry in a few moments"
	errFmtRequestStatus  = "%w: %s: %s"
	errFmtMarshal        = "%w: failed to marshal request: %w"
	errFmtBuildRequest   = "%w: failed to create request: %w"
	errFmtSend           = "%w: failed to send request to %s: %w"
	errFmtReadBody       = "%w: failed to read response: %w"
	errFmtDecodeResponse = "%w: failed to decode response: %w"
)

// Log messages.
const (
	logGenerating     = "Requesting speech: model=%s voice=%s (%s) style=%s speed=%.1f pitch=%d"
	logGenerated      = "Received audio: mime=%s payload=%d bytes in %s"
	logUnknownVoiceID = "Unknown voice id %q, using %s"
)

// Options configure a Client.
type Options struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout of zero leaves the transport default in place.
	Timeout  time.Duration
	Composer prompt.Composer
}

// Client generates speech through the generateContent endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	composer   prompt.Composer
	logger     *logger.Logger
}

// NewClient creates a client. Empty options fall back to the public endpoint,
// the default model and the Spanish/Chilean composer.
func NewClient(opts Options, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	composer := opts.Composer
	if composer.Language == "" || composer.Accent == "" {
		composer = prompt.NewComposer(composer.Language, composer.Accent)
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    baseURL,
		model:      model,
		apiKey:     opts.APIKey,
		composer:   composer,
		logger:     log,
	}
}

// Generate sends one generation request and returns the base64 audio
// payload. A missing API key fails before any network activity.
func (c *Client) Generate(ctx context.Context, params voice.GenerationParams) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	option, known := voice.Lookup(params.VoiceID)
	if !known {
		option = voice.Default()
		c.logger.Warn(logUnknownVoiceID, params.VoiceID, option.ExternalName)
	}

	body := newGenerateRequest(
		c.composer.BuildPrompt(params.Text, params.Style, params.Speed, params.Pitch),
		option.ExternalName,
	)

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshal, ErrRequest, err)
	}

	url := fmt.Sprintf(apiGenerateContentFmt, c.baseURL, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf(errFmtBuildRequest, ErrRequest, err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAPIKey, c.apiKey)

	c.logger.Info(logGenerating,
		c.model, option.ID, option.ExternalName, params.Style, params.Speed, params.Pitch)

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf(errFmtSend, ErrRequest, c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf(errFmtReadBody, ErrRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseErrorResponse(resp.StatusCode, resp.Status, data)
	}

	var decoded generateResponse

	err = parseJSON(data, &decoded)
	if err != nil {
		return "", fmt.Errorf(errFmtDecodeResponse, ErrRequest, err)
	}

	inline, found := decoded.firstAudio()
	if !found {
		return "", ErrNoAudio
	}

	c.logger.Info(logGenerated, inline.MimeType, len(inline.Data), time.Since(start).Round(time.Millisecond))

	return inline.Data, nil
}

// parseErrorResponse classifies a non-OK response. 5xx is a service error;
// everything else is a request error carrying the service's message, or the
// raw body when it is not the structured error envelope.
func parseErrorResponse(statusCode int, status string, body []byte) error {
	detail := strings.TrimSpace(string(body))

	var envelope errorResponse

	err := parseJSON(body, &envelope)
	if err == nil && envelope.Error.Message != "" {
		detail = envelope.Error.Message
		if envelope.Error.Status != "" {
			detail = envelope.Error.Status + ": " + detail
		}
	}

	if statusCode >= http.StatusInternalServerError {
		return fmt.Errorf(errFmtServiceStatus, ErrService, status, detail)
	}

	return fmt.Errorf(errFmtRequestStatus, ErrRequest, status, detail)
}
