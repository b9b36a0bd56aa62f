// README: Search index client; queries candidate restaurant IDs by cuisine and bulk-indexes docs.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config carries the connection settings for the search cluster.
type Config struct {
	Endpoint string
	Index    string
	Username string
	Password string
}

// Client talks to an OpenSearch-compatible cluster over its JSON REST API.
type Client struct {
	endpoint   string
	index      string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		index:      cfg.Index,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Doc is the indexed projection of a catalog entry: just enough to resolve
// candidate IDs by cuisine. The full record lives in the catalog store.
type Doc struct {
	RestaurantID string `json:"RestaurantID"`
	Cuisine      string `json:"Cuisine"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Doc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// CandidatesByCuisine returns up to size distinct restaurant IDs whose cuisine
// matches, in index return order. The query ORs an exact term, the explicit
// keyword sub-field, and a full-text match so that either index mapping
// generation produces hits.
func (c *Client) CandidatesByCuisine(ctx context.Context, cuisine string, size int) ([]string, error) {
	cuisine = strings.ToLower(strings.TrimSpace(cuisine))
	if cuisine == "" {
		return nil, nil
	}

	query := map[string]any{
		"size":    size,
		"_source": []string{"RestaurantID", "Cuisine"},
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"term": map[string]any{"Cuisine": cuisine}},
					map[string]any{"term": map[string]any{"Cuisine.keyword": cuisine}},
					map[string]any{"match": map[string]any{"Cuisine": cuisine}},
				},
				"minimum_should_match": 1,
			},
		},
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/"+c.index+"/_search", query, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(resp.Hits.Hits))
	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		id := h.Source.RestaurantID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// BulkIndex writes docs through the _bulk endpoint (NDJSON, index actions).
// Used by the catalog loader, not by the serving path.
func (c *Client) BulkIndex(ctx context.Context, docs []Doc) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		action := map[string]any{"index": map[string]any{"_index": c.index, "_id": d.RestaurantID}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}

	var resp struct {
		Errors bool `json:"errors"`
	}
	if err := c.doRaw(ctx, http.MethodPost, "/_bulk", buf.Bytes(), "application/x-ndjson", &resp); err != nil {
		return err
	}
	if resp.Errors {
		return fmt.Errorf("search bulk index reported item errors")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	return c.doRaw(ctx, method, path, payload, "application/json", out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("search request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("search %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("search decode: %w", err)
	}
	return nil
}
