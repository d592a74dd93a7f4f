// Package widget implements the chat widget engine: configuration loading,
// the trigger/suppression state machine, lazy session creation and message
// transport. Storage, clock and backend are injected so the engine runs the
// same way in tests, headless simulations and the served script.
package widget

import (
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Phase is the widget lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseTriggered
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseTriggered:
		return "triggered"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// mechanism identifies one automatic-open trigger. Each fires at most once
// per widget instance (one page load).
type mechanism int

const (
	mechDelay mechanism = iota
	mechScroll
	mechExit
	mechCount
)

func (m mechanism) String() string {
	switch m {
	case mechDelay:
		return "delay"
	case mechScroll:
		return "scroll"
	case mechExit:
		return "exit-intent"
	}
	return "unknown"
}

// Persisted state keys. KeySession and KeyAutoOpened live in the
// session-scoped store, KeyDismissedAt in the durable one. The served script
// uses the same keys against sessionStorage/localStorage.
const (
	KeySession     = "chatdock:session"
	KeyAutoOpened  = "chatdock:auto_opened"
	KeyDismissedAt = "chatdock:dismissed_at"
)

// User-facing notices appended as system-role transcript entries on
// transport failures.
const (
	NoticeSessionFailed = "Chat is unavailable right now. Please try again later."
	NoticeSendFailed    = "Your message could not be delivered. Please try again."
)

// Widget is one widget instance. All exported methods are safe for
// concurrent use.
type Widget struct {
	cfg    Config
	mobile bool

	mu         sync.Mutex
	phase      Phase
	fired      [mechCount]bool
	messages   []Message
	sessionID  string
	delayTimer *clock.Timer

	sf singleflight.Group

	backend  Backend
	sessions KV
	durable  KV
	clock    clock.Clock
	sink     Sink
	log      zerolog.Logger
}

// Options carries the injected capabilities. Zero fields get working
// defaults (in-memory stores, real clock, no-op sink, no logging); a nil
// Backend makes every send fail with a system notice.
type Options struct {
	Backend   Backend
	Sessions  KV
	Durable   KV
	Clock     clock.Clock
	Sink      Sink
	Logger    zerolog.Logger
	UserAgent string
}

func New(cfg Config, opts Options) *Widget {
	w := &Widget{
		cfg:      cfg,
		mobile:   IsMobileUA(opts.UserAgent),
		backend:  opts.Backend,
		sessions: opts.Sessions,
		durable:  opts.Durable,
		clock:    opts.Clock,
		sink:     opts.Sink,
		log:      opts.Logger,
	}
	if w.sessions == nil {
		w.sessions = NewMemKV()
	}
	if w.durable == nil {
		w.durable = NewMemKV()
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	if w.sink == nil {
		w.sink = nopSink{}
	}
	return w
}

// Arm attaches the automatic triggers: it transitions idle -> armed and
// schedules the delay timer when auto-open is enabled and the suppression
// guards pass at schedule time. The guards are re-checked when the timer
// fires.
func (w *Widget) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseIdle {
		return
	}
	w.setPhase(PhaseArmed)
	if !w.cfg.AutoOpen || w.cfg.AutoOpenDelay < 0 {
		return
	}
	if w.suppressedBySession() || w.suppressedByCooldown() {
		return
	}
	d := time.Duration(w.cfg.AutoOpenDelay * float64(time.Second))
	w.delayTimer = w.clock.AfterFunc(d, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.tryAutoOpen(mechDelay)
	})
}

// Scroll feeds one scroll event. Percentage is scrollY over the scrollable
// span; the trigger fires when it meets or exceeds the configured threshold.
func (w *Widget) Scroll(scrollY, docHeight, viewportHeight float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cfg.OpenOnScroll <= 0 {
		return
	}
	span := docHeight - viewportHeight
	if span <= 0 {
		return
	}
	if scrollY/span*100 >= w.cfg.OpenOnScroll {
		w.tryAutoOpen(mechScroll)
	}
}

// PointerLeave feeds a pointer-left-viewport event. Only a leave at or above
// the top edge counts as exit intent, and never on mobile user agents.
func (w *Widget) PointerLeave(y float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.cfg.ExitIntent || w.mobile {
		return
	}
	if y <= 0 {
		w.tryAutoOpen(mechExit)
	}
}

// tryAutoOpen runs the guard chain and opens the panel when it passes.
// Caller holds w.mu.
func (w *Widget) tryAutoOpen(m mechanism) bool {
	if w.phase == PhaseOpen {
		return false
	}
	if w.fired[m] {
		return false
	}
	if w.suppressedBySession() || w.suppressedByCooldown() {
		return false
	}
	w.fired[m] = true
	w.sessions.Set(KeyAutoOpened, "true")
	w.log.Debug().Str("mechanism", m.String()).Msg("[widget] auto-open")
	w.setPhase(PhaseTriggered)
	w.openLocked()
	if msg := w.autoOpenText(); msg != "" {
		w.appendLocked(Message{Content: msg, Role: RoleAssistant})
	}
	return true
}

// autoOpenText resolves the panel text: auto-open message, then greeting,
// then nothing.
func (w *Widget) autoOpenText() string {
	if w.cfg.AutoOpenMessage != "" {
		return w.cfg.AutoOpenMessage
	}
	return w.cfg.Greeting
}

func (w *Widget) suppressedBySession() bool {
	if !w.cfg.AutoOpenOnce {
		return false
	}
	v, _ := w.sessions.Get(KeyAutoOpened)
	return v == "true"
}

func (w *Widget) suppressedByCooldown() bool {
	if w.cfg.CooldownHours <= 0 {
		return false
	}
	v, ok := w.durable.Get(KeyDismissedAt)
	if !ok || v == "" {
		return false
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// unreadable marker degrades to allow
		return false
	}
	window := int64(w.cfg.CooldownHours * float64(time.Hour/time.Millisecond))
	return w.clock.Now().UnixMilli()-ts < window
}

// Open opens the panel on direct user action, bypassing all guards.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseOpen {
		return
	}
	w.setPhase(PhaseOpen)
	w.sink.PanelOpened()
}

// Close closes the panel. Only a user dismissal records the durable
// dismissal timestamp used for cooldown; programmatic closes do not.
// Mechanisms that have not fired this load stay armed.
func (w *Widget) Close(dismissed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseOpen {
		return
	}
	w.setPhase(PhaseClosed)
	if dismissed {
		w.durable.Set(KeyDismissedAt, strconv.FormatInt(w.clock.Now().UnixMilli(), 10))
	}
	w.sink.PanelClosed()
}

func (w *Widget) openLocked() {
	w.setPhase(PhaseOpen)
	w.sink.PanelOpened()
}

func (w *Widget) setPhase(p Phase) {
	if w.phase == p {
		return
	}
	w.log.Debug().Str("from", w.phase.String()).Str("to", p.String()).Msg("[widget] transition")
	w.phase = p
}

func (w *Widget) appendLocked(m Message) {
	w.messages = append(w.messages, m)
	w.sink.Transcript(w.snapshotLocked())
}

func (w *Widget) snapshotLocked() []Message {
	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Phase returns the current lifecycle state.
func (w *Widget) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// IsOpen reports whether the panel is open.
func (w *Widget) IsOpen() bool {
	return w.Phase() == PhaseOpen
}

// Messages returns a copy of the transcript.
func (w *Widget) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}
