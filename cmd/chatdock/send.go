package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chatdock/chatdock/internal/records"
	"github.com/chatdock/chatdock/internal/widget"
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send a test message through a backend",
	Long: `Send drives the widget engine against a real backend: it creates a
session, posts one message and reports the outcome. Useful as a smoke test
for a freshly configured backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var sendBackendURL string

func init() {
	sendCmd.Flags().StringVar(&sendBackendURL, "backend-url", "", "backend base URL (required)")
	_ = sendCmd.MarkFlagRequired("backend-url")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	w := widget.New(widget.Config{}, widget.Options{
		Backend: records.New(sendBackendURL),
		Logger:  log.Logger,
	})
	text := strings.Join(args, " ")
	if err := w.SendMessage(ctx, text); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	log.Info().Str("backend", sendBackendURL).Msg("[send] message delivered")
	return nil
}
