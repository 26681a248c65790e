// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCompleteReturnsRawContent(t *testing.T) {
	// The client must hand back content verbatim, fences and all -
	// normalization is a separate stage.
	rawContent := "```json\n{\"summary\":\"ok\"}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing or wrong Authorization header")
		}

		var reqBody struct {
			Model     string              `json:"model"`
			Messages  []map[string]string `json:"messages"`
			MaxTokens int                 `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("Decode request: %v", err)
		}
		if len(reqBody.Messages) != 2 || reqBody.Messages[0]["role"] != "system" {
			t.Errorf("Messages = %v, want system then user", reqBody.Messages)
		}
		if reqBody.MaxTokens != 512 {
			t.Errorf("MaxTokens = %d, want 512", reqBody.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": rawContent}},
			},
		})
	}))
	defer server.Close()

	client := NewClient([]Endpoint{{URL: server.URL, Model: "test-model", APIKey: "test-key"}}, 512)
	content, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if content != rawContent {
		t.Errorf("content = %q, want raw %q", content, rawContent)
	}
}

func TestClientFallback(t *testing.T) {
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failServer.Close()

	successServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "fallback worked"}},
			},
		})
	}))
	defer successServer.Close()

	client := NewClient([]Endpoint{
		{URL: failServer.URL, Model: "primary", APIKey: "key1"},
		{URL: successServer.URL, Model: "fallback", APIKey: "key2"},
	}, 0)
	content, err := client.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got: %v", err)
	}
	if content != "fallback worked" {
		t.Errorf("content = %q", content)
	}
}

func TestClientAllUnavailable(t *testing.T) {
	client := NewClient([]Endpoint{
		{URL: "http://127.0.0.1:59998", Model: "ep1", APIKey: "key"},
		{URL: "http://127.0.0.1:59999", Model: "ep2", APIKey: "key"},
	}, 0)
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Expected error when all endpoints unavailable")
	}
	if !IsUnavailable(err) {
		t.Errorf("Expected ErrUnavailable, got: %v", err)
	}
}

func TestClientNoEndpoints(t *testing.T) {
	client := NewClient(nil, 0)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("Expected error with no endpoints configured")
	}
}

func TestClientEmptyChoicesNoFallback(t *testing.T) {
	// A well-reachable endpoint returning a malformed body is not an
	// availability problem; the client must not mask it by falling back.
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer badServer.Close()

	goodServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "should not be reached"}},
			},
		})
	}))
	defer goodServer.Close()

	client := NewClient([]Endpoint{
		{URL: badServer.URL, Model: "bad", APIKey: "k"},
		{URL: goodServer.URL, Model: "good", APIKey: "k"},
	}, 0)
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Expected error, parse failures must not trigger fallback")
	}
}
