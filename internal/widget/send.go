package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoBackend is returned when the widget was built without a backend.
var ErrNoBackend = errors.New("no backend configured")

// SendMessage trims and sends one user message. The user-role entry is
// appended to the transcript before any network I/O; a failed send leaves it
// in place and appends a system-role notice instead of retrying or rolling
// back. Empty input is a no-op.
func (w *Widget) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	w.mu.Lock()
	w.appendLocked(Message{Content: text, Role: RoleUser})
	w.mu.Unlock()

	if w.backend == nil {
		w.appendSystem(NoticeSessionFailed)
		return ErrNoBackend
	}

	id, err := w.ensureSession(ctx)
	if err != nil || id == "" {
		w.appendSystem(NoticeSessionFailed)
		if err == nil {
			err = errors.New("backend returned empty session id")
		}
		return err
	}

	if err := w.backend.CreateMessage(ctx, id, text, string(RoleUser)); err != nil {
		w.log.Warn().Err(err).Msg("[widget] message delivery failed")
		w.appendSystem(NoticeSendFailed)
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (w *Widget) appendSystem(text string) {
	w.mu.Lock()
	w.appendLocked(Message{Content: text, Role: RoleSystem})
	w.mu.Unlock()
}
