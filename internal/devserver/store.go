package devserver

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"
)

// MessageRecord is one stored chat message.
type MessageRecord struct {
	ID      string    `json:"id"`
	Session string    `json:"session"`
	Content string    `json:"content"`
	Role    string    `json:"role"`
	TS      time.Time `json:"ts"`
}

// store persists sessions and messages in a PebbleDB keyspace.
// Message keys are "m" plus an 8-byte big-endian sequence number increasing
// monotonically; session keys are "s/" plus the session id.
type store struct {
	db   *pebble.DB
	mu   sync.Mutex
	next uint64
}

var (
	msgLower = []byte("m")
	msgUpper = []byte("n")
)

func openStore(dir string) (*store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	s := &store{db: db}
	// Discover next sequence by reading the last message key.
	it, err := db.NewIter(&pebble.IterOptions{LowerBound: msgLower, UpperBound: msgUpper})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	defer func() { _ = it.Close() }()
	if it.Last() {
		if key := it.Key(); len(key) >= 9 {
			s.next = binary.BigEndian.Uint64(key[1:9]) + 1
		}
	}
	return s, nil
}

func msgKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = 'm'
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

func sessionKey(id string) []byte {
	return []byte("s/" + id)
}

func (s *store) PutSession(id string, createdAt time.Time) error {
	return s.db.Set(sessionKey(id), []byte(createdAt.UTC().Format(time.RFC3339)), pebble.Sync)
}

func (s *store) HasSession(id string) bool {
	_, closer, err := s.db.Get(sessionKey(id))
	if err != nil {
		// pebble.ErrNotFound and storage errors alike count as absent
		return false
	}
	_ = closer.Close()
	return true
}

func (s *store) AppendMessage(m MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := msgKey(s.next)
	s.next++
	val, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Set(key, val, pebble.Sync)
}

// RecentMessages loads up to limit of the most recent messages in stored
// order. limit <= 0 loads everything.
func (s *store) RecentMessages(limit int) ([]MessageRecord, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: msgLower, UpperBound: msgUpper})
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	out := make([]MessageRecord, 0, 64)
	for it.First(); it.Valid(); it.Next() {
		var m MessageRecord
		if err := json.Unmarshal(it.Value(), &m); err == nil {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
