// Package history keeps the in-memory, most-recent-first log of completed
// generations and owns the release of their audio resources.
package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/ttsutils"
	"github.com/book-expert/voice-studio/internal/voice"
)

const (
	fileNamePrefix = "voz_chilena_"
	fileNameIDLen  = 6
)

// ErrNotFound is returned for unknown history ids.
var ErrNotFound = errors.New("history item not found")

// Item is one completed generation. Items are never mutated once recorded.
type Item struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	AudioKey  string      `json:"audio_key"`
	Timestamp time.Time   `json:"timestamp"`
	VoiceName string      `json:"voice_name"`
	Style     voice.Style `json:"style"`
}

// FileName is the download name for the item's audio.
func FileName(item Item, extension string) string {
	short := item.ID
	if len(short) > fileNameIDLen {
		short = short[:fileNameIDLen]
	}

	return ttsutils.SanitizeFilename(fileNamePrefix + short + extension)
}

// Store is an append-only history. It has no cap, no eviction and no
// deduplication.
type Store struct {
	mu      sync.RWMutex
	items   []Item
	objects core.ObjectStore
	log     *logger.Logger
}

// New creates an empty store that releases audio through objects.
func New(objects core.ObjectStore, log *logger.Logger) *Store {
	return &Store{
		objects: objects,
		log:     log,
	}
}

// Record prepends item.
func (s *Store) Record(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.Insert(s.items, 0, item)
}

// List returns a copy of the history, most recent first.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items)
}

// Len returns the number of recorded items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Get looks up an item by id.
func (s *Store) Get(id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}

	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Remove releases an item's audio resource and then drops the item. When the
// release fails the item stays in the history so it can be retried or released
// by Close.
func (s *Store) Remove(ctx context.Context, id string) error {
	item, err := s.Get(id)
	if err != nil {
		return err
	}

	err = s.objects.Delete(ctx, item.AudioKey)
	if err != nil {
		return fmt.Errorf("failed to release audio for %s: %w", id, err)
	}

	s.mu.Lock()
	s.items = slices.DeleteFunc(s.items, func(candidate Item) bool { return candidate.ID == id })
	s.mu.Unlock()

	return nil
}

// Close ends the session: the history is cleared and every audio resource is
// released. Release failures are logged and joined.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	var errs []error

	for _, item := range items {
		err := s.objects.Delete(ctx, item.AudioKey)
		if err != nil {
			s.log.Warn("Failed to release audio '%s': %v", item.AudioKey, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
