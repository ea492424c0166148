package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tsawler/prose/v3"
)

// ErrNoSummary is returned when the page exists but has no extract
var ErrNoSummary = errors.New("no summary available")

// Client fetches short encyclopedia summaries used for web learning
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a summary client. baseURL is the endpoint prefix the
// escaped query is appended to.
func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 4 * time.Second,
		},
	}
}

// summaryResponse is the subset of the REST summary payload we read
type summaryResponse struct {
	Extract string `json:"extract"`
}

// Summary returns the plain-text extract for query
func (c *Client) Summary(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.PathEscape(query), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nana/1.0 (always-learning memory)")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("summary error (status %d): %s", resp.StatusCode, string(body))
	}

	var result summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(result.Extract) == "" {
		return "", ErrNoSummary
	}
	return result.Extract, nil
}

// Sentences splits text into sentences with the prose segmenter. Text the
// segmenter cannot handle comes back as a single sentence.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return []string{text}
	}

	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
