package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/graph"
)

type fakeBrain struct {
	inputs  []string
	saves   int
	respErr error
}

func (f *fakeBrain) Respond(ctx context.Context, input string) (*agent.Thought, error) {
	if f.respErr != nil {
		return nil, f.respErr
	}
	f.inputs = append(f.inputs, input)
	return &agent.Thought{Text: "reply to " + input, Confidence: 0.4, Novelty: 1}, nil
}

func (f *fakeBrain) Stats() agent.Stats {
	return agent.Stats{Name: "Nana", Neurons: len(f.inputs), AgeCycles: len(f.inputs), Mood: agent.DefaultMood()}
}

func (f *fakeBrain) Save() error {
	f.saves++
	return nil
}

type fakeEpisodes struct {
	eps   []*graph.Episode
	limit int
}

func (f *fakeEpisodes) RecentEpisodes(limit int) ([]*graph.Episode, error) {
	f.limit = limit
	return f.eps, nil
}

func newTestServer(b Brain, e EpisodeSource) *Server {
	s := New(b, e)
	s.now = func() time.Time { return time.Date(2024, 6, 4, 21, 30, 5, 0, time.UTC) }
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	b := &fakeBrain{}
	h := newTestServer(b, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"I code at night"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if resp.Reply != "reply to I code at night" || resp.Confidence != 0.4 || resp.Novelty != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	want := map[string]string{"iso": "2024-06-04T21:30:05", "date": "2024-06-04", "time": "21:30:05", "weekday": "Tuesday"}
	for k, v := range want {
		if resp.Now[k] != v {
			t.Errorf("now[%s] = %q, want %q", k, resp.Now[k], v)
		}
	}
	if b.saves != 1 {
		t.Errorf("Expected a checkpoint after chat, got %d", b.saves)
	}
}

func TestChatBadRequests(t *testing.T) {
	h := newTestServer(&fakeBrain{}, nil).Handler()

	for _, body := range []string{"", "{not json"} {
		if rec := do(t, h, http.MethodPost, "/api/chat", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/chat", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /api/chat, got %d", rec.Code)
	}
}

func TestChatRespondError(t *testing.T) {
	b := &fakeBrain{respErr: errors.New("shutting down")}
	h := newTestServer(b, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	if b.saves != 0 {
		t.Error("Expected no checkpoint after a failed turn")
	}
}

func TestState(t *testing.T) {
	b := &fakeBrain{inputs: []string{"a", "b"}}
	h := newTestServer(b, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var st agent.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("Bad state JSON: %v", err)
	}
	if st.Name != "Nana" || st.Neurons != 2 || st.AgeCycles != 2 {
		t.Errorf("Unexpected state: %+v", st)
	}
}

func TestEpisodes(t *testing.T) {
	src := &fakeEpisodes{eps: []*graph.Episode{{ID: "e1", User: "hi", Reply: "hello"}}}
	h := newTestServer(&fakeBrain{}, src).Handler()

	rec := do(t, h, http.MethodGet, "/api/episodes?limit=5000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if src.limit != maxEpisodes {
		t.Errorf("Expected limit capped at %d, got %d", maxEpisodes, src.limit)
	}
	var eps []graph.Episode
	if err := json.Unmarshal(rec.Body.Bytes(), &eps); err != nil {
		t.Fatalf("Bad episodes JSON: %v", err)
	}
	if len(eps) != 1 || eps[0].Reply != "hello" {
		t.Errorf("Unexpected episodes: %+v", eps)
	}

	if rec := do(t, h, http.MethodGet, "/api/episodes?limit=zero", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}

	rec = do(t, newTestServer(&fakeBrain{}, nil).Handler(), http.MethodGet, "/api/episodes", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without an episode source, got %d", rec.Code)
	}
}

func TestEpisodesEmptyIsArray(t *testing.T) {
	src := &fakeEpisodes{}
	h := newTestServer(&fakeBrain{}, src).Handler()

	rec := do(t, h, http.MethodGet, "/api/episodes", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("Expected empty array, got %s", got)
	}
	if src.limit != defaultEpisodes {
		t.Errorf("Expected default limit %d, got %d", defaultEpisodes, src.limit)
	}
}
