// Package core defines the interfaces shared by the studio pipeline and its
// adapters.
package core

import (
	"context"

	"github.com/book-expert/voice-studio/internal/voice"
)

// ObjectStore holds playable audio resources. A key is the resource
// reference handed to history items; Delete releases it.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Generator requests speech from the remote synthesis service and returns the
// base64 audio payload.
type Generator interface {
	Generate(ctx context.Context, params voice.GenerationParams) (string, error)
}
