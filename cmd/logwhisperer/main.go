// cmd/logwhisperer/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/signalnine/logwhisperer/internal/agent"
	"github.com/signalnine/logwhisperer/internal/blob"
	"github.com/signalnine/logwhisperer/internal/config"
	"github.com/signalnine/logwhisperer/internal/llm"
	"github.com/signalnine/logwhisperer/internal/pipeline"
	"github.com/signalnine/logwhisperer/internal/protocol"
	"github.com/signalnine/logwhisperer/internal/retrieval"
	"github.com/signalnine/logwhisperer/internal/server"
	"github.com/signalnine/logwhisperer/internal/session"
	"github.com/signalnine/logwhisperer/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "logwhisperer",
	Short: "LLM-assisted log diagnosis",
}

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the diagnosis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(serveConfigPath)
	},
}

var agentConfigPath string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the log-tailing agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAgentConfig(agentConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return agent.New(cfg).Run(ctx)
	},
}

var seedConfigPath string

var seedCmd = &cobra.Command{
	Use:   "seed <patterns.yaml>",
	Short: "Load incident patterns into the vector index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(seedConfigPath, args[0])
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "server.yaml", "config file path")
	agentCmd.Flags().StringVarP(&agentConfigPath, "config", "c", "agent.yaml", "config file path")
	seedCmd.Flags().StringVarP(&seedConfigPath, "config", "c", "server.yaml", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(seedCmd)
}

func runServe(configPath string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var blobs server.BlobWriter
	if cfg.BlobDir != "" {
		blobs = blob.NewStore(cfg.BlobDir)
	}

	var searcher pipeline.Searcher
	if cfg.Weaviate.Host != "" {
		client, err := retrieval.NewClient(cfg.Weaviate.Scheme, cfg.Weaviate.Host, cfg.Weaviate.APIKey)
		if err != nil {
			return err
		}
		searcher = retrieval.NewWeaviateRetriever(client, cfg.RetrievalTopK)
	} else {
		slog.Info("no weaviate host configured, pattern retrieval disabled")
	}

	analysis := llm.NewClient(endpoints(cfg.AnalysisEndpoints), cfg.MaxTokens)
	command := llm.NewClient(endpoints(cfg.CommandEndpoints), cfg.MaxTokens)

	pipe := pipeline.New(analysis, command, searcher, st, pipeline.Config{
		ChunkMaxBytes:     cfg.ChunkMaxBytes,
		ChunkOverlapBytes: cfg.ChunkOverlapBytes,
		Allowlist:         cfg.Allowlist,
	})
	manager := session.NewManager(st, pipe)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(manager, blobs, cfg.MaxPayloadBytes).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func endpoints(cfgs []config.LLMEndpoint) []llm.Endpoint {
	out := make([]llm.Endpoint, len(cfgs))
	for i, ep := range cfgs {
		out[i] = llm.Endpoint{URL: ep.URL, Model: ep.Model, APIKey: ep.APIKey}
	}
	return out
}

// seedPattern mirrors the pattern fields stored in the index
type seedPattern struct {
	Title     string `yaml:"title"`
	Vendor    string `yaml:"vendor"`
	Signature string `yaml:"signature"`
	Guidance  string `yaml:"guidance"`
}

func runSeed(configPath, patternsPath string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Weaviate.Host == "" {
		return errors.New("weaviate host not configured")
	}

	data, err := os.ReadFile(patternsPath)
	if err != nil {
		return err
	}
	var patterns []seedPattern
	if err := yaml.Unmarshal(data, &patterns); err != nil {
		return fmt.Errorf("parse %s: %w", patternsPath, err)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("no patterns in %s", patternsPath)
	}

	client, err := retrieval.NewClient(cfg.Weaviate.Scheme, cfg.Weaviate.Host, cfg.Weaviate.APIKey)
	if err != nil {
		return err
	}
	retriever := retrieval.NewWeaviateRetriever(client, cfg.RetrievalTopK)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, p := range patterns {
		err := retriever.AddPattern(ctx, protocol.RetrievedPattern{
			Title:     p.Title,
			Vendor:    p.Vendor,
			Signature: p.Signature,
			Guidance:  p.Guidance,
		})
		if err != nil {
			return err
		}
		slog.Info("seeded pattern", "title", p.Title)
	}
	slog.Info("seeding complete", "count", len(patterns))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
