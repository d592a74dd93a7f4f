package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatdock/chatdock/internal/widget"
)

func TestWriteScriptBakesConfig(t *testing.T) {
	cfg := widget.ParseAttrs(map[string]string{
		"backend-url":    "https://chat.example.com",
		"header-text":    "Talk to sales",
		"position":       "bottom-left",
		"open-on-scroll": "60",
		"cooldown":       "24",
	})

	var b strings.Builder
	require.NoError(t, WriteScript(&b, cfg))
	out := b.String()

	require.Contains(t, out, "backendUrl: 'https://chat.example.com'")
	require.Contains(t, out, "headerText: 'Talk to sales'")
	require.Contains(t, out, "openOnScroll: 60")
	require.Contains(t, out, "cooldownHours: 24")
	require.Contains(t, out, "left:20px")
	require.Contains(t, out, widget.KeySession)
	require.Contains(t, out, widget.KeyDismissedAt)
}

func TestWriteScriptEscapesConfigStrings(t *testing.T) {
	cfg := widget.ParseAttrs(map[string]string{
		"header-text": `Hi' there</script>`,
	})

	var b strings.Builder
	require.NoError(t, WriteScript(&b, cfg))
	out := b.String()

	require.NotContains(t, out, "Hi' there</script>")
	require.Contains(t, out, `Hi\'`)
}

func TestWriteDemoEmbedsScript(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteDemo(&b, "/widget.js?auto-open=true"))
	out := b.String()
	require.Contains(t, out, `<script src="/widget.js?auto-open=true"></script>`)
}
