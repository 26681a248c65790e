// internal/retrieval/client.go
package retrieval

import (
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
)

// NewClient builds a Weaviate client from scheme/host plus an optional API key
func NewClient(scheme, host, apiKey string) (*weaviate.Client, error) {
	if scheme == "" {
		scheme = "http"
	}
	cfg := weaviate.Config{
		Scheme: scheme,
		Host:   host,
	}
	if apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}
