// Package httpapi serves the chat endpoint and state snapshots over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/graph"
	"github.com/vthunder/nana/internal/logging"
)

const (
	maxBodyBytes       = 1 << 20
	defaultEpisodes    = 20
	maxEpisodes        = 200
	chatRequestTimeout = 30 * time.Second
)

// Brain is the agent surface the server needs
type Brain interface {
	Respond(ctx context.Context, input string) (*agent.Thought, error)
	Stats() agent.Stats
	Save() error
}

// EpisodeSource lists logged interactions (graph.DB in production)
type EpisodeSource interface {
	RecentEpisodes(limit int) ([]*graph.Episode, error)
}

// Server exposes the agent over HTTP
type Server struct {
	brain    Brain
	episodes EpisodeSource
	now      func() time.Time
}

// New creates a server. episodes may be nil to disable /api/episodes.
func New(brain Brain, episodes EpisodeSource) *Server {
	return &Server{brain: brain, episodes: episodes, now: time.Now}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/episodes", s.handleEpisodes)
	return mux
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply      string            `json:"reply"`
	Confidence float64           `json:"confidence"`
	Novelty    float64           `json:"novelty"`
	Now        map[string]string `json:"now"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatRequestTimeout)
	defer cancel()

	thought, err := s.brain.Respond(ctx, req.Message)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{err.Error()})
		return
	}
	if err := s.brain.Save(); err != nil {
		logging.Warn("http", "checkpoint failed: %v", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:      thought.Text,
		Confidence: thought.Confidence,
		Novelty:    thought.Novelty,
		Now:        nowContext(s.now()),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.brain.Stats())
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if s.episodes == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{"episode log disabled"})
		return
	}

	limit := defaultEpisodes
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{"limit must be a positive integer"})
			return
		}
		limit = min(n, maxEpisodes)
	}

	eps, err := s.episodes.RecentEpisodes(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
		return
	}
	if eps == nil {
		eps = []*graph.Episode{}
	}
	writeJSON(w, http.StatusOK, eps)
}

// nowContext describes the local time of a reply
func nowContext(t time.Time) map[string]string {
	return map[string]string{
		"iso":     t.Format("2006-01-02T15:04:05"),
		"date":    t.Format("2006-01-02"),
		"time":    t.Format("15:04:05"),
		"weekday": t.Weekday().String(),
	}
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
