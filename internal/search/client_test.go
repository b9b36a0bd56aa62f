// README: Search client tests against a stub cluster.
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newStub(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, Index: "restaurants"})
}

func hitsResponse(ids ...string) string {
	var hits []string
	for _, id := range ids {
		hits = append(hits, `{"_source":{"RestaurantID":"`+id+`","Cuisine":"japanese"}}`)
	}
	return `{"hits":{"hits":[` + strings.Join(hits, ",") + `]}}`
}

func TestCandidatesByCuisineQueryShape(t *testing.T) {
	var captured map[string]any
	client := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/restaurants/_search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &captured); err != nil {
			t.Errorf("query not JSON: %v", err)
		}
		io.WriteString(w, hitsResponse("r1", "r2"))
	})

	ids, err := client.CandidatesByCuisine(context.Background(), " Japanese ", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Fatalf("ids = %v", ids)
	}

	if captured["size"] != float64(20) {
		t.Errorf("size = %v", captured["size"])
	}
	boolQuery, ok := captured["query"].(map[string]any)["bool"].(map[string]any)
	if !ok {
		t.Fatalf("query = %v", captured["query"])
	}
	should, ok := boolQuery["should"].([]any)
	if !ok || len(should) != 3 {
		t.Fatalf("should = %v", boolQuery["should"])
	}
	// Cuisine is normalised before it reaches the index.
	term := should[0].(map[string]any)["term"].(map[string]any)
	if term["Cuisine"] != "japanese" {
		t.Errorf("term cuisine = %v", term["Cuisine"])
	}
	if boolQuery["minimum_should_match"] != float64(1) {
		t.Errorf("minimum_should_match = %v", boolQuery["minimum_should_match"])
	}
}

func TestCandidatesByCuisineDeduplicates(t *testing.T) {
	client := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, hitsResponse("r1", "r2", "r1", "r3", "r2"))
	})
	ids, err := client.CandidatesByCuisine(context.Background(), "japanese", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 3 || ids[0] != "r1" || ids[1] != "r2" || ids[2] != "r3" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestCandidatesByCuisineEmptyCuisine(t *testing.T) {
	client := newStub(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty cuisine")
	})
	ids, err := client.CandidatesByCuisine(context.Background(), "  ", 20)
	if err != nil || ids != nil {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}

func TestCandidatesByCuisineErrorStatus(t *testing.T) {
	client := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "cluster_block_exception", http.StatusServiceUnavailable)
	})
	if _, err := client.CandidatesByCuisine(context.Background(), "japanese", 20); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestBulkIndexPayloadAndErrorFlag(t *testing.T) {
	var payload string
	client := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_bulk" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
			t.Errorf("content type = %s", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		payload = string(raw)
		io.WriteString(w, `{"errors":false}`)
	})

	docs := []Doc{{RestaurantID: "r1", Cuisine: "japanese"}, {RestaurantID: "r2", Cuisine: "italian"}}
	if err := client.BulkIndex(context.Background(), docs); err != nil {
		t.Fatalf("bulk: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(payload), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d:\n%s", len(lines), payload)
	}
	if !strings.Contains(lines[0], `"_id":"r1"`) || !strings.Contains(lines[1], `"RestaurantID":"r1"`) {
		t.Fatalf("first action pair wrong:\n%s", payload)
	}
}

func TestBulkIndexReportsItemErrors(t *testing.T) {
	client := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"errors":true}`)
	})
	if err := client.BulkIndex(context.Background(), []Doc{{RestaurantID: "r1"}}); err == nil {
		t.Fatal("expected error when bulk response flags item errors")
	}
}

func TestBasicAuthHeaderWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("auth = %s:%s ok=%v", user, pass, ok)
		}
		io.WriteString(w, hitsResponse())
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Index: "restaurants", Username: "admin", Password: "secret"})
	if _, err := client.CandidatesByCuisine(context.Background(), "japanese", 5); err != nil {
		t.Fatalf("search: %v", err)
	}
}
