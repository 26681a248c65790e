// internal/retrieval/weaviate.go

// Package retrieval maps redacted log chunks to known incident patterns held
// in a Weaviate vector index. Retrieval is best-effort enrichment: collaborator
// failures degrade to no patterns and never fail the calling pipeline.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/signalnine/logwhisperer/internal/protocol"
)

// ClassName is the Weaviate class holding seeded incident patterns
const ClassName = "IncidentPattern"

// querySeedChunks caps how many leading chunks feed the retrieval query.
// Retrieval anchors on the start of the log, where the triggering event
// usually appears; tailing chunks of a huge upload add cost, not signal.
const querySeedChunks = 3

const defaultTopK = 8

// WeaviateRetriever performs nearText searches against the pattern index
type WeaviateRetriever struct {
	client *weaviate.Client
	topK   int
}

// NewWeaviateRetriever creates a retriever over an existing client
func NewWeaviateRetriever(client *weaviate.Client, topK int) *WeaviateRetriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &WeaviateRetriever{client: client, topK: topK}
}

// Retrieve returns patterns matching the leading chunks, best match first.
// An empty query, a collaborator error, or a malformed response all yield an
// empty result rather than an error.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, chunks []string) []protocol.RetrievedPattern {
	seed := chunks
	if len(seed) > querySeedChunks {
		seed = seed[:querySeedChunks]
	}
	query := strings.TrimSpace(strings.Join(seed, "\n"))
	if query == "" {
		return nil
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "title"},
		{Name: "vendor"},
		{Name: "signature"},
		{Name: "guidance"},
		{Name: "_additional { id certainty }"},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(r.topK).
		Do(ctx)
	if err != nil {
		slog.Warn("pattern retrieval failed", "error", err)
		return nil
	}
	if len(result.Errors) > 0 {
		slog.Warn("pattern retrieval error", "error", result.Errors[0].Message)
		return nil
	}

	return decodePatterns(result)
}

// AddPattern inserts one incident pattern into the index. Used by the seed
// command to load the pattern corpus.
func (r *WeaviateRetriever) AddPattern(ctx context.Context, p protocol.RetrievedPattern) error {
	_, err := r.client.Data().Creator().
		WithClassName(ClassName).
		WithProperties(map[string]interface{}{
			"title":     p.Title,
			"vendor":    p.Vendor,
			"signature": p.Signature,
			"guidance":  p.Guidance,
		}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("save pattern %q: %w", p.Title, err)
	}
	return nil
}

// decodePatterns unpacks the GraphQL response into typed pattern records.
// Unexpected shapes are skipped, never propagated.
func decodePatterns(result *models.GraphQLResponse) []protocol.RetrievedPattern {
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[ClassName].([]interface{})
	if !ok {
		return nil
	}

	var patterns []protocol.RetrievedPattern
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := protocol.RetrievedPattern{
			Title:     stringField(obj, "title"),
			Vendor:    stringField(obj, "vendor"),
			Signature: stringField(obj, "signature"),
			Guidance:  stringField(obj, "guidance"),
		}
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			if id, ok := add["id"].(string); ok {
				p.ID = id
			}
			if certainty, ok := add["certainty"].(float64); ok {
				p.Score = certainty
			}
		}
		patterns = append(patterns, p)
	}
	return patterns
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}
