package widget

import (
	"context"
	"fmt"
)

// ensureSession returns the cached session identifier, creating one through
// the backend if none exists. Concurrent callers share a single in-flight
// creation request; the backend is never asked for two sessions at once.
func (w *Widget) ensureSession(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.sessionID != "" {
		id := w.sessionID
		w.mu.Unlock()
		return id, nil
	}
	w.mu.Unlock()

	if v, ok := w.sessions.Get(KeySession); ok && v != "" {
		w.mu.Lock()
		w.sessionID = v
		w.mu.Unlock()
		return v, nil
	}

	v, err, _ := w.sf.Do("create-session", func() (interface{}, error) {
		// a caller that queued behind the winner finds the id already set
		w.mu.Lock()
		if w.sessionID != "" {
			id := w.sessionID
			w.mu.Unlock()
			return id, nil
		}
		w.mu.Unlock()

		id, err := w.backend.CreateSession(ctx)
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		w.mu.Lock()
		w.sessionID = id
		w.mu.Unlock()
		w.sessions.Set(KeySession, id)
		return id, nil
	})
	if err != nil {
		w.log.Warn().Err(err).Msg("[widget] session creation failed")
		return "", err
	}
	return v.(string), nil
}
