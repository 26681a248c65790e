// internal/session/session.go

// Package session serializes chat turns per session and keeps each session's
// capped conversation transcript durable across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signalnine/logwhisperer/internal/protocol"
	"github.com/signalnine/logwhisperer/internal/redact"
	"github.com/signalnine/logwhisperer/internal/store"
)

// maxMessages caps how many transcript messages a session retains
const maxMessages = 20

const (
	historyEventLimit      = 50
	historySuggestionLimit = 20
)

// Runner executes one pipeline turn
type Runner interface {
	Run(ctx context.Context, sessionID string, req protocol.ChatRequest) (*protocol.PipelineOutput, error)
}

// SessionStore is the durable backing for session state and history
type SessionStore interface {
	LoadSession(sessionID string) (*store.SessionState, error)
	SaveSession(state *store.SessionState) error
	RecentEvents(sessionID string, limit int) ([]store.Event, error)
	RecentSuggestions(sessionID string, limit int) ([]store.Suggestion, error)
}

// Manager owns the in-memory view of active sessions. Turns within one
// session run strictly one at a time; different sessions proceed in parallel.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*state
	store    SessionStore
	pipeline Runner
}

type state struct {
	mu       sync.Mutex
	record   *store.SessionState
	messages []protocol.Message
}

// NewManager creates a session manager backed by st, running turns through r
func NewManager(st SessionStore, r Runner) *Manager {
	return &Manager{
		sessions: make(map[string]*state),
		store:    st,
		pipeline: r,
	}
}

func (m *Manager) session(id string) *state {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &state{}
		m.sessions[id] = s
	}
	return s
}

// ensureLoaded populates s from the durable store on first use. A transcript
// that fails to decode starts the session fresh rather than failing it.
func (s *state) ensureLoaded(st SessionStore, sessionID string) error {
	if s.record != nil {
		return nil
	}
	record, err := st.LoadSession(sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if record == nil {
		record = &store.SessionState{SessionID: sessionID, CreatedAt: time.Now()}
	} else if record.Messages != "" {
		var messages []protocol.Message
		if err := json.Unmarshal([]byte(record.Messages), &messages); err != nil {
			slog.Warn("discarding corrupt session transcript", "session", sessionID, "error", err)
		} else {
			s.messages = messages
		}
	}
	s.record = record
	return nil
}

// Chat runs one turn against the named session. The redacted user input and
// the assistant's structured reply are appended to the transcript and
// persisted before the response is returned; on any error the transcript is
// left exactly as it was.
func (m *Manager) Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	if req.Logs == "" {
		return nil, errors.New("logs must not be empty")
	}
	if req.SessionID == "" {
		return nil, errors.New("session id must not be empty")
	}

	s := m.session(req.SessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(m.store, req.SessionID); err != nil {
		return nil, err
	}
	snapshot := s.messages

	s.messages = append(s.messages, protocol.Message{
		Role:      protocol.RoleUser,
		Content:   redact.Redact(req.Logs),
		Timestamp: time.Now(),
	})

	out, err := m.pipeline.Run(ctx, req.SessionID, req)
	if err != nil {
		s.messages = snapshot
		return nil, err
	}

	reply, err := json.Marshal(out)
	if err != nil {
		s.messages = snapshot
		return nil, fmt.Errorf("encode assistant reply: %w", err)
	}
	s.messages = append(s.messages, protocol.Message{
		Role:      protocol.RoleAssistant,
		Content:   string(reply),
		Timestamp: time.Now(),
	})
	if len(s.messages) > maxMessages {
		trimmed := make([]protocol.Message, maxMessages)
		copy(trimmed, s.messages[len(s.messages)-maxMessages:])
		s.messages = trimmed
	}

	if err := s.persist(m.store); err != nil {
		s.messages = snapshot
		return nil, err
	}

	return &protocol.ChatResponse{
		PipelineOutput: *out,
		SessionID:      req.SessionID,
	}, nil
}

func (s *state) persist(st SessionStore) error {
	data, err := json.Marshal(s.messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	s.record.Messages = string(data)
	s.record.LastActive = time.Now()
	if err := st.SaveSession(s.record); err != nil {
		return fmt.Errorf("save session %s: %w", s.record.SessionID, err)
	}
	return nil
}

// History returns the session's recorded events, suggestions, and transcript
func (m *Manager) History(sessionID string) (*protocol.HistoryResponse, error) {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(m.store, sessionID); err != nil {
		return nil, err
	}

	events, err := m.store.RecentEvents(sessionID, historyEventLimit)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", sessionID, err)
	}
	suggestions, err := m.store.RecentSuggestions(sessionID, historySuggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("load suggestions for %s: %w", sessionID, err)
	}

	resp := &protocol.HistoryResponse{
		SessionID:   sessionID,
		Events:      make([]protocol.StoredEvent, 0, len(events)),
		Suggestions: make([]protocol.StoredSuggestion, 0, len(suggestions)),
		Messages:    append([]protocol.Message(nil), s.messages...),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, protocol.StoredEvent{
			ID:        e.ID,
			Kind:      e.Kind,
			Payload:   json.RawMessage(e.Payload),
			CreatedAt: e.CreatedAt,
		})
	}
	for _, sug := range suggestions {
		resp.Suggestions = append(resp.Suggestions, protocol.StoredSuggestion{
			ID:        sug.ID,
			Cmd:       sug.Cmd,
			Why:       sug.Why,
			Risk:      sug.Risk,
			Accepted:  sug.Accepted,
			CreatedAt: sug.CreatedAt,
		})
	}
	return resp, nil
}
