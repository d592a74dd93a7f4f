package widget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAttrsDefaults(t *testing.T) {
	cfg := ParseAttrs(map[string]string{})

	require.Equal(t, "", cfg.BackendURL)
	require.Equal(t, "Chat with us", cfg.HeaderText)
	require.Equal(t, "Type a message...", cfg.Placeholder)
	require.Equal(t, "bottom-right", cfg.Position)
	require.Equal(t, "Hi! How can we help?", cfg.Greeting)
	require.Equal(t, float64(56), cfg.ButtonSize)
	require.Equal(t, float64(320), cfg.PanelWidth)
	require.Equal(t, float64(420), cfg.PanelHeight)
	require.Equal(t, shadows["medium"], cfg.Shadow)
	require.False(t, cfg.AutoOpen)
	require.Equal(t, float64(5), cfg.AutoOpenDelay)
	require.True(t, cfg.AutoOpenOnce)
	require.Zero(t, cfg.OpenOnScroll)
	require.False(t, cfg.ExitIntent)
	require.Zero(t, cfg.CooldownHours)
}

func TestParseAttrsBooleans(t *testing.T) {
	// only "true" and "1" parse as true; everything else keeps the default
	cases := map[string]bool{
		"true": true,
		"1":    true,
		"TRUE": false,
		"yes":  false,
		"on":   false,
		"0":    false,
		"":     false,
	}
	for in, want := range cases {
		cfg := ParseAttrs(map[string]string{"auto-open": in})
		require.Equal(t, want, cfg.AutoOpen, "auto-open=%q", in)
	}

	// a field defaulting to true keeps true for any non-true token too
	cfg := ParseAttrs(map[string]string{"auto-open-once": "false"})
	require.True(t, cfg.AutoOpenOnce)
	cfg = ParseAttrs(map[string]string{"auto-open-once": "0"})
	require.True(t, cfg.AutoOpenOnce)
}

func TestParseAttrsNumerics(t *testing.T) {
	cfg := ParseAttrs(map[string]string{
		"auto-open-delay": "2.5",
		"open-on-scroll":  "75",
		"button-size":     "not-a-number",
		"panel-width":     "",
	})
	require.Equal(t, 2.5, cfg.AutoOpenDelay)
	require.Equal(t, float64(75), cfg.OpenOnScroll)
	require.Equal(t, float64(56), cfg.ButtonSize)
	require.Equal(t, float64(320), cfg.PanelWidth)
}

func TestParseAttrsShadow(t *testing.T) {
	for keyword, want := range shadows {
		cfg := ParseAttrs(map[string]string{"shadow": keyword})
		require.Equal(t, want, cfg.Shadow)
	}
	cfg := ParseAttrs(map[string]string{"shadow": "gigantic"})
	require.Equal(t, shadows["medium"], cfg.Shadow)
}

func TestParseAttrsPositionAndURL(t *testing.T) {
	cfg := ParseAttrs(map[string]string{
		"position":    "bottom-left",
		"backend-url": "https://chat.example.com/",
	})
	require.Equal(t, "bottom-left", cfg.Position)
	require.Equal(t, "https://chat.example.com", cfg.BackendURL)

	cfg = ParseAttrs(map[string]string{"position": "top-center"})
	require.Equal(t, "bottom-right", cfg.Position)
}

func TestIsMobileUA(t *testing.T) {
	require.True(t, IsMobileUA("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"))
	require.True(t, IsMobileUA("Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile"))
	require.False(t, IsMobileUA("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"))
	require.False(t, IsMobileUA(""))
}
