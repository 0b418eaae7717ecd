// Package worker serves generation requests arriving over NATS.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/voice"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// GenerationRequestedEvent asks the studio for one generation. Zero speed
// and an empty style or voice take the studio defaults.
type GenerationRequestedEvent struct {
	Header  events.EventHeader `json:"header"`
	Text    string             `json:"text"`
	VoiceID voice.ID           `json:"voice_id"`
	Style   voice.Style        `json:"style"`
	Speed   float64            `json:"speed"`
	Pitch   int                `json:"pitch"`
}

// AudioGeneratedEvent is the reply. Error carries the operator-facing
// message and is empty on success.
type AudioGeneratedEvent struct {
	Header    events.EventHeader `json:"header"`
	HistoryID string             `json:"history_id,omitempty"`
	AudioKey  string             `json:"audio_key,omitempty"`
	FileName  string             `json:"file_name,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Pipeline is the part of the studio the worker drives.
type Pipeline interface {
	Generate(ctx context.Context, params voice.GenerationParams) (history.Item, error)
	FileName(item history.Item) string
}

// NatsWorker listens for generation requests on a NATS subject and replies
// to each one.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	pipeline       Pipeline
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	pipeline Pipeline,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		pipeline:       pipeline,
		log:            log,
	}
}

// Run starts the worker and blocks until ctx is done. It returns only after
// the subscription is drained and every in-flight request has been answered.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	// The closed handler fires after the delivery goroutine has returned from
	// its last callback.
	handlersDone := make(chan struct{})
	sub.SetClosedHandler(func(string) { close(handlersDone) })

	w.log.Info("Worker listening on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	<-handlersDone

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	reply := w.process(context.Background(), msg.Data)

	err := w.publishReplyEvent(msg, reply)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", reply.Header.WorkflowID, err)
	}
}

func (w *NatsWorker) process(ctx context.Context, data []byte) *AudioGeneratedEvent {
	var event GenerationRequestedEvent

	err := json.Unmarshal(data, &event)
	if err != nil {
		w.log.Error("Failed to parse event: %v", err)

		return &AudioGeneratedEvent{Header: replyHeader(events.EventHeader{}), Error: studio.MsgGeneric}
	}

	reply := &AudioGeneratedEvent{Header: replyHeader(event.Header)}

	item, err := w.pipeline.Generate(ctx, paramsFromEvent(event))
	if err != nil {
		w.log.Error("Generation failed for workflow %s: %v", event.Header.WorkflowID, err)
		reply.Error = studio.UserMessage(err)

		return reply
	}

	reply.HistoryID = item.ID
	reply.AudioKey = item.AudioKey
	reply.FileName = w.pipeline.FileName(item)

	return reply
}

func paramsFromEvent(event GenerationRequestedEvent) voice.GenerationParams {
	return voice.GenerationParams{
		Text:    event.Text,
		VoiceID: event.VoiceID,
		Style:   event.Style,
		Speed:   event.Speed,
		Pitch:   event.Pitch,
	}.WithDefaults()
}

// replyHeader keeps the correlation fields and stamps a new event id.
func replyHeader(request events.EventHeader) events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: request.WorkflowID,
		EventID:    uuid.NewString(),
		UserID:     request.UserID,
		TenantID:   request.TenantID,
	}
}

// publishReplyEvent marshals and responds with the AudioGeneratedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *AudioGeneratedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}
