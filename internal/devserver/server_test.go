package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ts := httptest.NewServer(s.API())
	t.Cleanup(ts.Close)
	return s, ts
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp, err := http.Post(base+"/collections/chat_sessions/records", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestSessionAndMessageRoundTrip(t *testing.T) {
	s, ts := newTestServer(t)
	id := createSession(t, ts.URL)

	body := `{"session":"` + id + `","content":"hello there","role":"user"}`
	resp, err := http.Post(ts.URL+"/collections/chat_messages/records", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msgs, err := s.store.RecentMessages(0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, id, msgs[0].Session)
	require.Equal(t, "hello there", msgs[0].Content)
	require.Equal(t, "user", msgs[0].Role)
	require.WithinDuration(t, time.Now(), msgs[0].TS, time.Minute)
}

func TestCreateMessageRejectsUnknownSession(t *testing.T) {
	_, ts := newTestServer(t)

	body := `{"session":"nope","content":"hello"}`
	resp, err := http.Post(ts.URL+"/collections/chat_messages/records", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/collections/chat_messages/records", "application/json", strings.NewReader(`{"content":"x"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMessageSanitizesContent(t *testing.T) {
	s, ts := newTestServer(t)
	id := createSession(t, ts.URL)

	body := `{"session":"` + id + `","content":"hi <script>alert(1)</script>there"}`
	resp, err := http.Post(ts.URL+"/collections/chat_messages/records", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msgs, err := s.store.RecentMessages(0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotContains(t, msgs[0].Content, "<script>")
	require.Contains(t, msgs[0].Content, "hi")

	// markup-only content collapses to empty and is rejected
	body = `{"session":"` + id + `","content":"<b></b>"}`
	resp, err = http.Post(ts.URL+"/collections/chat_messages/records", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/collections/chat_messages/records", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://host.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStoreSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.store.AppendMessage(MessageRecord{ID: "a", Session: "s", Content: "one", Role: "user"}))
	require.NoError(t, s.store.AppendMessage(MessageRecord{ID: "b", Session: "s", Content: "two", Role: "user"}))
	require.NoError(t, s.Close())

	s2, err := New(dir, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	require.NoError(t, s2.store.AppendMessage(MessageRecord{ID: "c", Session: "s", Content: "three", Role: "user"}))

	msgs, err := s2.store.RecentMessages(0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "three", msgs[2].Content)
}
