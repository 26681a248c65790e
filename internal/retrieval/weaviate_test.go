// internal/retrieval/weaviate_test.go
package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func TestDecodePatterns(t *testing.T) {
	response := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				ClassName: []interface{}{
					map[string]interface{}{
						"title":     "OOM killer loop",
						"vendor":    "linux",
						"signature": "Out of memory: Killed process",
						"guidance":  "check memory limits and leaks",
						"_additional": map[string]interface{}{
							"id":        "abc-123",
							"certainty": 0.91,
						},
					},
					map[string]interface{}{
						"title": "partial fields only",
					},
				},
			},
		},
	}

	patterns := decodePatterns(response)
	if len(patterns) != 2 {
		t.Fatalf("decoded %d patterns, want 2", len(patterns))
	}
	first := patterns[0]
	if first.Title != "OOM killer loop" || first.Vendor != "linux" {
		t.Errorf("first pattern = %+v", first)
	}
	if first.ID != "abc-123" {
		t.Errorf("ID = %q, want abc-123", first.ID)
	}
	if first.Score != 0.91 {
		t.Errorf("Score = %v, want 0.91", first.Score)
	}
	if patterns[1].Title != "partial fields only" || patterns[1].Guidance != "" {
		t.Errorf("second pattern = %+v", patterns[1])
	}
}

func TestDecodePatternsMalformedShapes(t *testing.T) {
	responses := []*models.GraphQLResponse{
		{Data: map[string]models.JSONObject{}},
		{Data: map[string]models.JSONObject{"Get": "not a map"}},
		{Data: map[string]models.JSONObject{"Get": map[string]interface{}{ClassName: "not a list"}}},
		{Data: map[string]models.JSONObject{"Get": map[string]interface{}{ClassName: []interface{}{"not an object"}}}},
	}
	for i, resp := range responses {
		if got := decodePatterns(resp); len(got) != 0 {
			t.Errorf("case %d: decoded %d patterns from malformed response, want 0", i, len(got))
		}
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	// Empty or whitespace-only chunks collapse to an empty query; the
	// retriever must bail out before touching the collaborator.
	r := NewWeaviateRetriever(nil, 8)

	if got := r.Retrieve(context.Background(), nil); got != nil {
		t.Errorf("Retrieve(nil) = %v, want nil", got)
	}
	if got := r.Retrieve(context.Background(), []string{"", "  ", "\n"}); got != nil {
		t.Errorf("Retrieve(blank chunks) = %v, want nil", got)
	}
}

func TestRetrieveCollaboratorDownDegrades(t *testing.T) {
	// A dead endpoint must degrade to no patterns, not an error or panic.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := dead.Listener.Addr().String()
	dead.Close()

	client, err := NewClient("http", addr, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	r := NewWeaviateRetriever(client, 8)

	got := r.Retrieve(context.Background(), []string{"kernel: Out of memory"})
	if len(got) != 0 {
		t.Errorf("Retrieve against dead index = %v, want empty", got)
	}
}
