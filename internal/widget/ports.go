package widget

import (
	"context"
	"sync"
)

// KV is the minimal storage capability the widget needs. Implementations
// swallow their own failures: a blocked or broken store behaves like an
// empty one, and the feature backed by the key degrades to always-allow.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Backend is the record-creation surface of the remote chat backend.
type Backend interface {
	// CreateSession creates a new session record and returns its identifier.
	CreateSession(ctx context.Context) (string, error)
	// CreateMessage persists one message under the given session.
	CreateMessage(ctx context.Context, sessionID, content, role string) error
}

// Sink receives presentation updates. All callbacks run on the goroutine
// that mutated the widget, after the mutation is applied.
type Sink interface {
	PanelOpened()
	PanelClosed()
	Transcript(msgs []Message)
}

type nopSink struct{}

func (nopSink) PanelOpened()         {}
func (nopSink) PanelClosed()         {}
func (nopSink) Transcript([]Message) {}

// MemKV is an in-memory KV, used for tests and headless runs.
type MemKV struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string]string{}}
}

func (s *MemKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemKV) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}
