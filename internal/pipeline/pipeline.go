// internal/pipeline/pipeline.go

// Package pipeline sequences one chat turn end to end: redact, chunk,
// retrieve, analyze, suggest, classify, persist. The sequence is strictly
// linear with no internal retries; each stage's own fallback behavior is its
// degradation policy.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/signalnine/logwhisperer/internal/chunk"
	"github.com/signalnine/logwhisperer/internal/normalize"
	"github.com/signalnine/logwhisperer/internal/protocol"
	"github.com/signalnine/logwhisperer/internal/redact"
	"github.com/signalnine/logwhisperer/internal/risk"
)

// maxSuggestions caps how many commands one run may return
const maxSuggestions = 3

// Inferencer is the inference collaborator: one system+user exchange in, raw
// model output out.
type Inferencer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Searcher maps redacted log chunks to known incident patterns
type Searcher interface {
	Retrieve(ctx context.Context, chunks []string) []protocol.RetrievedPattern
}

// EventWriter is the durable append-only store
type EventWriter interface {
	AppendEvent(sessionID, kind string, payload any) error
	AppendSuggestion(sessionID string, sug protocol.CommandSuggestion) error
}

// Config carries the session-invariant tunables for one pipeline instance
type Config struct {
	ChunkMaxBytes     int
	ChunkOverlapBytes int
	Allowlist         []string
}

// Pipeline runs chat turns against a fixed set of collaborators
type Pipeline struct {
	analysis Inferencer
	command  Inferencer
	patterns Searcher
	events   EventWriter
	cfg      Config
}

// New creates a pipeline. The patterns searcher may be nil when no vector
// index is configured; retrieval then degrades to no patterns.
func New(analysis, command Inferencer, patterns Searcher, events EventWriter, cfg Config) *Pipeline {
	return &Pipeline{
		analysis: analysis,
		command:  command,
		patterns: patterns,
		events:   events,
		cfg:      cfg,
	}
}

// analysisEvent is the payload persisted for each run. Chunk fingerprints ride
// along so downstream consumers can deduplicate identical log segments.
type analysisEvent struct {
	protocol.AnalysisResult
	ChunkFingerprints []string `json:"chunk_fingerprints"`
}

// Run executes one pipeline turn. Inference and retrieval failures degrade to
// typed fallbacks; storage failures and configuration errors fail the run.
func (p *Pipeline) Run(ctx context.Context, sessionID string, req protocol.ChatRequest) (*protocol.PipelineOutput, error) {
	redacted := redact.Redact(req.Logs)

	chunks, err := chunk.Split(redacted, p.cfg.ChunkMaxBytes, p.cfg.ChunkOverlapBytes)
	if err != nil {
		return nil, fmt.Errorf("chunk logs: %w", err)
	}
	fingerprints := make([]string, len(chunks))
	for i, c := range chunks {
		fingerprints[i] = chunk.Fingerprint(c)
	}

	var patterns []protocol.RetrievedPattern
	if p.patterns != nil {
		patterns = p.patterns.Retrieve(ctx, chunks)
	}

	analysis := p.analyze(ctx, chunks, patterns, req)
	suggestions := p.suggest(ctx, analysis)

	kept := make([]protocol.CommandSuggestion, 0, maxSuggestions)
	for _, sug := range suggestions {
		if len(kept) == maxSuggestions {
			break
		}
		sug.Risk = risk.Classify(sug.Cmd, p.cfg.Allowlist, sug.Risk)
		if !risk.Allowlisted(sug.Cmd, p.cfg.Allowlist) {
			// Outside the allowlist means dropped, never downgraded through
			slog.Debug("dropping suggestion outside allowlist", "cmd", sug.Cmd)
			continue
		}
		kept = append(kept, sug)
	}

	event := analysisEvent{AnalysisResult: analysis, ChunkFingerprints: fingerprints}
	if err := p.events.AppendEvent(sessionID, "analysis", event); err != nil {
		return nil, fmt.Errorf("append analysis event: %w", err)
	}
	for _, sug := range kept {
		if err := p.events.AppendSuggestion(sessionID, sug); err != nil {
			return nil, fmt.Errorf("append suggestion: %w", err)
		}
	}

	return &protocol.PipelineOutput{
		AnalysisResult:    analysis,
		SuggestedCommands: kept,
	}, nil
}

func (p *Pipeline) analyze(ctx context.Context, chunks []string, patterns []protocol.RetrievedPattern, req protocol.ChatRequest) protocol.AnalysisResult {
	user := buildAnalysisPrompt(chunks, patterns, req.Hints, req.Vendor)
	raw, err := p.analysis.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		slog.Warn("analysis model unavailable", "error", err)
		return normalize.FallbackAnalysis()
	}
	return normalize.Analysis(raw)
}

func (p *Pipeline) suggest(ctx context.Context, analysis protocol.AnalysisResult) []protocol.CommandSuggestion {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil
	}
	raw, err := p.command.Complete(ctx, buildCommandPrompt(p.cfg.Allowlist), string(payload))
	if err != nil {
		slog.Warn("command model unavailable", "error", err)
		return nil
	}
	return normalize.Suggestions(raw)
}
