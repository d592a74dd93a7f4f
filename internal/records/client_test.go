package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	var gotPath, gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "rec123"})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	id, err := c.CreateSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rec123", id)
	require.Equal(t, "/api/collections/chat_sessions/records", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.JSONEq(t, "{}", gotBody)
}

func TestCreateSessionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateSession(context.Background())
	require.ErrorContains(t, err, "unexpected status 403")

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv2.Close()

	_, err = New(srv2.URL).CreateSession(context.Background())
	require.ErrorContains(t, err, "no id")
}

func TestCreateMessage(t *testing.T) {
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := New(srv.URL).CreateMessage(context.Background(), "sess-1", "hello", "user")
	require.NoError(t, err)
	require.Equal(t, "/api/collections/chat_messages/records", gotPath)
	require.Equal(t, map[string]string{"session": "sess-1", "content": "hello", "role": "user"}, got)
}

func TestCreateMessageFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := New(srv.URL).CreateMessage(context.Background(), "sess-1", "hello", "user")
	require.ErrorContains(t, err, "unexpected status 400")
}

func TestCreateMessageNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := New(srv.URL).CreateMessage(context.Background(), "sess-1", "hello", "user")
	require.Error(t, err)
}
