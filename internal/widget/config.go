package widget

import (
	"strconv"
	"strings"
)

// Config holds every embed option with a definite value. Instances come out
// of ParseAttrs and are treated as immutable afterwards.
type Config struct {
	BackendURL  string
	HeaderText  string
	Placeholder string
	Position    string
	Greeting    string

	PrimaryColor string
	TextColor    string
	FontFamily   string
	ButtonSize   float64
	PanelWidth   float64
	PanelHeight  float64
	OffsetX      float64
	OffsetY      float64
	Shadow       string

	AutoOpen        bool
	AutoOpenDelay   float64
	AutoOpenMessage string
	AutoOpenOnce    bool
	OpenOnScroll    float64
	ExitIntent      bool
	CooldownHours   float64
}

const (
	defaultHeaderText  = "Chat with us"
	defaultPlaceholder = "Type a message..."
	defaultPosition    = "bottom-right"
	defaultGreeting    = "Hi! How can we help?"

	defaultPrimaryColor = "#3b82f6"
	defaultTextColor    = "#ffffff"
	defaultFontFamily   = "system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif"

	defaultButtonSize  = 56
	defaultPanelWidth  = 320
	defaultPanelHeight = 420
	defaultOffsetX     = 20
	defaultOffsetY     = 20

	defaultAutoOpenDelay = 5
)

// shadows maps the shadow keyword to a concrete box-shadow value.
// Unrecognized keywords fall back to medium.
var shadows = map[string]string{
	"none":   "none",
	"small":  "0 2px 8px rgba(0,0,0,0.15)",
	"medium": "0 4px 16px rgba(0,0,0,0.2)",
	"large":  "0 8px 32px rgba(0,0,0,0.3)",
}

// ParseAttrs builds a Config from embed attributes. Missing or malformed
// values silently resolve to defaults; parsing never fails.
func ParseAttrs(attrs map[string]string) Config {
	return Config{
		BackendURL:  strings.TrimRight(strings.TrimSpace(attrs["backend-url"]), "/"),
		HeaderText:  attrString(attrs, "header-text", defaultHeaderText),
		Placeholder: attrString(attrs, "placeholder", defaultPlaceholder),
		Position:    attrPosition(attrs["position"]),
		Greeting:    attrString(attrs, "greeting", defaultGreeting),

		PrimaryColor: attrString(attrs, "primary-color", defaultPrimaryColor),
		TextColor:    attrString(attrs, "text-color", defaultTextColor),
		FontFamily:   attrString(attrs, "font-family", defaultFontFamily),
		ButtonSize:   attrFloat(attrs, "button-size", defaultButtonSize),
		PanelWidth:   attrFloat(attrs, "panel-width", defaultPanelWidth),
		PanelHeight:  attrFloat(attrs, "panel-height", defaultPanelHeight),
		OffsetX:      attrFloat(attrs, "offset-x", defaultOffsetX),
		OffsetY:      attrFloat(attrs, "offset-y", defaultOffsetY),
		Shadow:       attrShadow(attrs["shadow"]),

		AutoOpen:        attrBool(attrs, "auto-open", false),
		AutoOpenDelay:   attrFloat(attrs, "auto-open-delay", defaultAutoOpenDelay),
		AutoOpenMessage: attrString(attrs, "auto-open-message", ""),
		AutoOpenOnce:    attrBool(attrs, "auto-open-once", true),
		OpenOnScroll:    attrFloat(attrs, "open-on-scroll", 0),
		ExitIntent:      attrBool(attrs, "exit-intent", false),
		CooldownHours:   attrFloat(attrs, "cooldown", 0),
	}
}

func attrString(attrs map[string]string, key, fallback string) string {
	if v, ok := attrs[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// attrBool treats "true" and "1" as true; anything else, including absence,
// resolves to the default.
func attrBool(attrs map[string]string, key string, fallback bool) bool {
	v, ok := attrs[key]
	if !ok {
		return fallback
	}
	switch strings.TrimSpace(v) {
	case "true", "1":
		return true
	}
	return fallback
}

func attrFloat(attrs map[string]string, key string, fallback float64) float64 {
	v, ok := attrs[key]
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func attrPosition(v string) string {
	if strings.TrimSpace(v) == "bottom-left" {
		return "bottom-left"
	}
	return defaultPosition
}

func attrShadow(v string) string {
	if s, ok := shadows[strings.ToLower(strings.TrimSpace(v))]; ok {
		return s
	}
	return shadows["medium"]
}

// mobile user agents have no exit-intent analogue, so the trigger is
// disabled for them entirely.
var mobileMarkers = []string{"mobi", "android", "iphone", "ipad", "ipod"}

// IsMobileUA reports whether the user agent string looks like a mobile
// browser.
func IsMobileUA(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range mobileMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}
