package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSummary(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Robotics","extract":"Robotics is the design of robots."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/page/summary")
	text, err := c.Summary(context.Background(), "embedded robotics")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if text != "Robotics is the design of robots." {
		t.Errorf("Unexpected extract: %q", text)
	}
	if gotPath != "/page/summary/embedded robotics" {
		t.Errorf("Unexpected request path: %q", gotPath)
	}
}

func TestSummaryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"type":"not_found"}`, nil},
		{"empty extract", http.StatusOK, `{"extract":"  "}`, ErrNoSummary},
		{"bad json", http.StatusOK, `{`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Summary(context.Background(), "anything")
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSummaryEmptyQuery(t *testing.T) {
	if _, err := NewClient("http://unused.invalid").Summary(context.Background(), "  "); err == nil {
		t.Error("Expected error for empty query")
	}
}

func TestSummaryCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"extract":"late"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL).Summary(ctx, "night"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestSentences(t *testing.T) {
	if got := Sentences("   "); got != nil {
		t.Errorf("Expected nil for blank text, got %v", got)
	}

	got := Sentences("Robotics is an interdisciplinary field. It relies on embedded systems.")
	if len(got) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.HasPrefix(got[1], "It relies") {
		t.Errorf("Unexpected second sentence: %q", got[1])
	}
}
