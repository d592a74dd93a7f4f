// Package devserver is the built-in reference backend: it implements the two
// record-creation endpoints the widget posts to, persists records in
// PebbleDB, and exposes a live operator console over websocket. It exists so
// the repo runs end to end without an external backend; the widget itself
// still treats any backend as opaque.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Server is one backend instance bound to a data directory.
type Server struct {
	store  *store
	hub    *hub
	policy *bluemonday.Policy
	log    zerolog.Logger
}

func New(dataPath string, logger zerolog.Logger) (*Server, error) {
	st, err := openStore(dataPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		store: st,
		hub:   newHub(),
		// widget content is plain text; strip all markup before storage
		policy: bluemonday.StrictPolicy(),
		log:    logger,
	}, nil
}

// API returns the records router: the session and message creation endpoints
// under /collections, with permissive CORS so host pages on any origin can
// post. Mount it at /api.
func (s *Server) API() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)
	r.Post("/collections/chat_sessions/records", s.handleCreateSession)
	r.Post("/collections/chat_messages/records", s.handleCreateMessage)
	return r
}

// Console returns the operator console router: the page and its websocket
// feed. Mount it at /console.
func (s *Server) Console() http.Handler {
	r := chi.NewRouter()
	r.Get("/", serveConsole)
	r.Get("/ws", s.handleConsoleWS)
	return r
}

// Close shuts down console connections and the store.
func (s *Server) Close() error {
	s.hub.closeAll()
	s.hub.wait()
	return s.store.Close()
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if err := s.store.PutSession(id, time.Now()); err != nil {
		s.log.Error().Err(err).Msg("[devserver] persist session")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	s.log.Info().Str("session", id).Msg("[devserver] session created")
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Session string `json:"session"`
		Content string `json:"content"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Session == "" || !s.store.HasSession(req.Session) {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(s.policy.Sanitize(req.Content))
	if content == "" {
		http.Error(w, "empty content", http.StatusBadRequest)
		return
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	rec := MessageRecord{
		ID:      uuid.NewString(),
		Session: req.Session,
		Content: content,
		Role:    role,
		TS:      time.Now().UTC(),
	}
	if err := s.store.AppendMessage(rec); err != nil {
		s.log.Error().Err(err).Msg("[devserver] persist message")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	s.hub.broadcast(rec)
	writeJSON(w, http.StatusOK, map[string]string{"id": rec.ID})
}

func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	backlog, err := s.store.RecentMessages(200)
	if err != nil {
		s.log.Warn().Err(err).Msg("[devserver] load backlog")
	}
	s.hub.add(conn)
	for _, m := range backlog {
		_ = conn.WriteJSON(m)
	}
	s.hub.wg.Add(1)
	go func() {
		defer func() {
			s.hub.remove(conn)
			_ = conn.Close()
			s.hub.wg.Done()
		}()
		// consoles only read; drain until the peer goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cors allows cross-origin posts from any host page. The API is write-only;
// no credentials are involved.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
