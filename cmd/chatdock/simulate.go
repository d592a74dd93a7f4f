package main

import (
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chatdock/chatdock/internal/widget"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the trigger engine headlessly against a scripted timeline",
	Long: `Simulate steps a mock clock through a page visit and feeds the trigger
engine scripted scroll and exit-intent events, logging every state
transition. Useful for tuning trigger attributes without a browser.`,
	RunE: runSimulate,
}

var (
	simAutoOpen     bool
	simDelay        float64
	simOnce         bool
	simScrollThresh float64
	simExitIntent   bool
	simCooldown     float64
	simMessage      string

	simDuration     float64
	simScrollAt     float64
	simScrollPct    float64
	simExitAt       float64
	simDismissedAgo float64
)

func init() {
	flags := simulateCmd.Flags()
	flags.BoolVar(&simAutoOpen, "auto-open", false, "enable the delay trigger")
	flags.Float64Var(&simDelay, "auto-open-delay", 5, "delay trigger seconds")
	flags.BoolVar(&simOnce, "auto-open-once", true, "suppress after one auto-open per session")
	flags.Float64Var(&simScrollThresh, "open-on-scroll", 0, "scroll trigger threshold percent (0 disables)")
	flags.BoolVar(&simExitIntent, "exit-intent", false, "enable the exit-intent trigger")
	flags.Float64Var(&simCooldown, "cooldown", 0, "dismissal cooldown hours (0 disables)")
	flags.StringVar(&simMessage, "auto-open-message", "", "auto-open panel message")

	flags.Float64Var(&simDuration, "duration", 30, "simulated visit length in seconds")
	flags.Float64Var(&simScrollAt, "scroll-at", 0, "second at which the visitor scrolls (0 = never)")
	flags.Float64Var(&simScrollPct, "scroll-pct", 100, "scroll depth percent reached at scroll-at")
	flags.Float64Var(&simExitAt, "exit-at", 0, "second at which the pointer leaves the top edge (0 = never)")
	flags.Float64Var(&simDismissedAgo, "dismissed-ago", 0, "pre-seed a dismissal this many hours in the past")
}

// logSink logs presentation updates instead of rendering them.
type logSink struct{}

func (logSink) PanelOpened() { log.Info().Msg("[simulate] panel opened") }
func (logSink) PanelClosed() { log.Info().Msg("[simulate] panel closed") }
func (logSink) Transcript(msgs []widget.Message) {
	last := msgs[len(msgs)-1]
	log.Info().Str("role", string(last.Role)).Str("content", last.Content).Msg("[simulate] transcript entry")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := widget.ParseAttrs(map[string]string{
		"auto-open":         strconv.FormatBool(simAutoOpen),
		"auto-open-delay":   strconv.FormatFloat(simDelay, 'f', -1, 64),
		"open-on-scroll":    strconv.FormatFloat(simScrollThresh, 'f', -1, 64),
		"exit-intent":       strconv.FormatBool(simExitIntent),
		"cooldown":          strconv.FormatFloat(simCooldown, 'f', -1, 64),
		"auto-open-message": simMessage,
	})
	// attribute parsing cannot turn a default-true flag off; the flag can
	cfg.AutoOpenOnce = simOnce

	mock := clock.NewMock()
	durable := widget.NewMemKV()
	if simDismissedAgo > 0 {
		ts := mock.Now().UnixMilli() - int64(simDismissedAgo*float64(time.Hour.Milliseconds()))
		durable.Set(widget.KeyDismissedAt, strconv.FormatInt(ts, 10))
		log.Info().Float64("hours_ago", simDismissedAgo).Msg("[simulate] seeded dismissal marker")
	}

	logger := log.With().Str("component", "widget").Logger()
	w := widget.New(cfg, widget.Options{
		Clock:   mock,
		Durable: durable,
		Sink:    logSink{},
		Logger:  logger,
	})
	w.Arm()

	for s := 1; s <= int(simDuration); s++ {
		mock.Add(time.Second)
		if simScrollAt > 0 && s == int(simScrollAt) {
			log.Info().Float64("pct", simScrollPct).Msg("[simulate] visitor scrolls")
			w.Scroll(simScrollPct, 200, 100)
		}
		if simExitAt > 0 && s == int(simExitAt) {
			log.Info().Msg("[simulate] pointer leaves top edge")
			w.PointerLeave(0)
		}
	}

	log.Info().
		Str("phase", w.Phase().String()).
		Int("transcript", len(w.Messages())).
		Msg("[simulate] finished")
	return nil
}
