// Package studio runs the generation pipeline: generate, decode, store the
// playable audio, record history. It is the single place where failures are
// turned into the message shown to the operator.
package studio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/audio"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/telemetry"
	"github.com/book-expert/voice-studio/internal/template"
	"github.com/book-expert/voice-studio/internal/text"
	"github.com/book-expert/voice-studio/internal/tts"
	"github.com/book-expert/voice-studio/internal/voice"
	"github.com/google/uuid"
)

// Errors.
var (
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrUnknownTemplate      = errors.New("unknown template")
)

// Operator-facing messages.
const (
	MsgMissingAPIKey = "Falta la API Key. Configura GEMINI_API_KEY."
	MsgServiceError  = "Error del Servidor (500). Intenta simplificar el texto o probar de nuevo en unos momentos."
	MsgNoAudio       = "No se generó contenido de audio en la respuesta."
	MsgInProgress    = "Ya hay una generación en curso. Espera a que termine."
	MsgEmptyText     = "Escribe un texto para generar el audio."
	MsgGeneric       = "Error al generar el audio."
)

// Log messages.
const (
	logGenerationStarted  = "Generation started: voice=%s style=%s speed=%.1f pitch=%d chars=%d"
	logGenerationFinished = "Generation finished: id=%s key=%s bytes=%d in %s"
	logGenerationFailed   = "Generation failed after %s: %v"
	logRollbackFailed     = "Failed to release audio %s after error: %v"
)

// Options configure a Studio.
type Options struct {
	Format  audio.Format
	Metrics *telemetry.Metrics
}

// Studio owns one pipeline. Only one generation may run at a time.
type Studio struct {
	generator core.Generator
	objects   core.ObjectStore
	history   *history.Store
	format    audio.Format
	metrics   *telemetry.Metrics
	logger    *logger.Logger
	now       func() time.Time
	inFlight  atomic.Bool
}

// New creates a studio. A zero format means WAV.
func New(
	generator core.Generator,
	objects core.ObjectStore,
	hist *history.Store,
	opts Options,
	log *logger.Logger,
) *Studio {
	format := opts.Format
	if format == "" {
		format = audio.FormatWAV
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NoopMetrics()
	}

	return &Studio{
		generator: generator,
		objects:   objects,
		history:   hist,
		format:    format,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,
	}
}

// Loading reports whether a generation is in flight.
func (s *Studio) Loading() bool {
	return s.inFlight.Load()
}

// History returns the store the studio records into.
func (s *Studio) History() *history.Store {
	return s.history
}

// Format is the container every recorded item is stored in.
func (s *Studio) Format() audio.Format {
	return s.format
}

// FileName is the download name of a recorded item.
func (s *Studio) FileName(item history.Item) string {
	return history.FileName(item, s.format.Extension())
}

// Generate runs the full pipeline. On success the new item is already at the
// head of the history. On any failure the history is unchanged.
func (s *Studio) Generate(ctx context.Context, params voice.GenerationParams) (history.Item, error) {
	err := params.Validate()
	if err != nil {
		return history.Item{}, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return history.Item{}, ErrGenerationInProgress
	}
	defer s.inFlight.Store(false)

	start := time.Now()

	s.logger.Info(logGenerationStarted, params.VoiceID, params.Style, params.Speed, params.Pitch, len(params.Text))

	item, size, err := s.run(ctx, params)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		s.logger.Error(logGenerationFailed, elapsed, err)
		s.metrics.RecordGeneration(ctx, outcome(err), string(params.Style), elapsed, 0)

		return history.Item{}, err
	}

	s.logger.Info(logGenerationFinished, item.ID, item.AudioKey, size, elapsed)
	s.metrics.RecordGeneration(ctx, telemetry.OutcomeSuccess, string(params.Style), elapsed, size)

	return item, nil
}

func (s *Studio) run(ctx context.Context, params voice.GenerationParams) (history.Item, int, error) {
	request := params
	request.Text = text.Normalize(params.Text)

	payload, err := s.generator.Generate(ctx, request)
	if err != nil {
		return history.Item{}, 0, err
	}

	data, err := audio.Decode(payload, s.format)
	if err != nil {
		return history.Item{}, 0, fmt.Errorf("failed to decode audio: %w", err)
	}

	id := uuid.New().String()
	key := id + s.format.Extension()

	err = s.objects.Upload(ctx, key, data)
	if err != nil {
		return history.Item{}, 0, fmt.Errorf("failed to store audio: %w", err)
	}

	if ctx.Err() != nil {
		deleteErr := s.objects.Delete(context.WithoutCancel(ctx), key)
		if deleteErr != nil {
			s.logger.Warn(logRollbackFailed, key, deleteErr)
		}

		return history.Item{}, 0, fmt.Errorf("generation cancelled: %w", ctx.Err())
	}

	item := history.Item{
		ID:        id,
		Text:      params.Text,
		AudioKey:  key,
		Timestamp: s.now(),
		VoiceName: voice.DisplayName(params.VoiceID),
		Style:     params.Style,
	}

	s.history.Record(item)

	return item, len(data), nil
}

// TemplateRequest renders a catalog template and generates it with the
// given voice settings.
type TemplateRequest struct {
	TemplateID string
	Variables  map[string]string
	RadioName  string
	City       string
	Voice      voice.GenerationParams
}

// RenderTemplate fills a catalog template. Common variables (radio name,
// city, greeting) only apply where the template declares them and the caller
// did not supply a value. Unresolved placeholders stay in the text.
func (s *Studio) RenderTemplate(templateID string, vars map[string]string, radioName, city string) (string, error) {
	tmpl, found := template.ByID(templateID)
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}

	common := template.CommonVariables(s.now(), radioName, city)

	return tmpl.Render(tmpl.Fill(vars, common)), nil
}

// GenerateTemplate renders the template and runs the pipeline on the result.
func (s *Studio) GenerateTemplate(ctx context.Context, req TemplateRequest) (history.Item, error) {
	rendered, err := s.RenderTemplate(req.TemplateID, req.Variables, req.RadioName, req.City)
	if err != nil {
		return history.Item{}, err
	}

	params := req.Voice
	params.Text = rendered

	return s.Generate(ctx, params)
}

// Audio returns a recorded item together with its playable bytes.
func (s *Studio) Audio(ctx context.Context, id string) (history.Item, []byte, error) {
	item, err := s.history.Get(id)
	if err != nil {
		return history.Item{}, nil, err
	}

	data, err := s.objects.Download(ctx, item.AudioKey)
	if err != nil {
		return history.Item{}, nil, fmt.Errorf("failed to load audio for %s: %w", id, err)
	}

	return item, data, nil
}

// UserMessage converts any pipeline error into the single message shown to
// the operator.
func UserMessage(err error) string {
	var msg string

	switch {
	case err == nil:
		msg = ""
	case errors.Is(err, tts.ErrMissingAPIKey):
		msg = MsgMissingAPIKey
	case errors.Is(err, tts.ErrService):
		msg = MsgServiceError
	case errors.Is(err, tts.ErrNoAudio):
		msg = MsgNoAudio
	case errors.Is(err, tts.ErrRequest):
		msg = err.Error()
	case errors.Is(err, ErrGenerationInProgress):
		msg = MsgInProgress
	case errors.Is(err, voice.ErrEmptyText):
		msg = MsgEmptyText
	default:
		msg = MsgGeneric
	}

	return msg
}

func outcome(err error) string {
	var result string

	switch {
	case errors.Is(err, tts.ErrMissingAPIKey):
		result = telemetry.OutcomeMissingKey
	case errors.Is(err, tts.ErrService):
		result = telemetry.OutcomeService
	case errors.Is(err, tts.ErrNoAudio):
		result = telemetry.OutcomeNoAudio
	case errors.Is(err, tts.ErrRequest):
		result = telemetry.OutcomeRequest
	default:
		result = telemetry.OutcomeInternal
	}

	return result
}
