// internal/agent/agent.go

// Package agent tails a log file and submits new content to the diagnosis
// server on an interval.
package agent

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/signalnine/logwhisperer/internal/config"
	"github.com/signalnine/logwhisperer/internal/protocol"
)

// Agent watches one log file and posts deltas to the chat endpoint
type Agent struct {
	cfg    *config.AgentConfig
	client *http.Client
}

// New creates a new agent
func New(cfg *config.AgentConfig) *Agent {
	transport := &http.Transport{}
	if cfg.TLSSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Agent{
		cfg: cfg,
		client: &http.Client{
			Timeout:   90 * time.Second,
			Transport: transport,
		},
	}
}

// Run starts the agent loop
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("agent starting",
		"watch", a.cfg.WatchFile, "server", a.cfg.ServerURL, "interval", a.cfg.PollInterval)

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	if err := a.poll(ctx); err != nil {
		slog.Error("poll failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent shutting down")
			return nil
		case <-ticker.C:
			if err := a.poll(ctx); err != nil {
				slog.Error("poll failed", "error", err)
			}
		}
	}
}

func (a *Agent) poll(ctx context.Context) error {
	offset, err := ReadOffset(a.cfg.StateFile)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	data, newOffset, err := ReadNew(a.cfg.WatchFile, offset)
	if err != nil {
		return fmt.Errorf("read %s: %w", a.cfg.WatchFile, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		slog.Debug("no new log content", "offset", offset)
		return nil
	}

	slog.Info("submitting new log content", "bytes", len(data))

	resp, err := a.send(ctx, string(data))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Reuse the server-assigned session for subsequent polls
	if a.cfg.SessionID == "" {
		a.cfg.SessionID = resp.SessionID
	}

	if err := WriteOffset(a.cfg.StateFile, newOffset); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	if resp.Summary != "" {
		slog.Info("diagnosis", "summary", resp.Summary, "anomalies", len(resp.Anomalies))
	}
	for _, sug := range resp.SuggestedCommands {
		slog.Info("suggested command", "cmd", sug.Cmd, "risk", sug.Risk)
	}
	return nil
}

func (a *Agent) send(ctx context.Context, logs string) (*protocol.ChatResponse, error) {
	body, err := json.Marshal(protocol.ChatRequest{
		SessionID: a.cfg.SessionID,
		Logs:      logs,
		Hints:     a.cfg.Hints,
		Vendor:    a.cfg.Vendor,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(a.cfg.ServerURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("server returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var resp protocol.ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
