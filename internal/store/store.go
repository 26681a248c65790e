// internal/store/store.go

// Package store persists pipeline events, command suggestions, and session
// conversation state in SQLite. Writes here are never degraded: a failed
// append surfaces to the caller, because silently losing a write would corrupt
// the session history.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/signalnine/logwhisperer/internal/protocol"
)

// Event is one append-only pipeline event ("analysis" is the only kind today)
type Event struct {
	ID        int64     `gorm:"primaryKey"`
	SessionID string    `gorm:"index;size:64"`
	Kind      string    `gorm:"size:32"`
	Payload   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// Suggestion is one persisted command suggestion
type Suggestion struct {
	ID        int64     `gorm:"primaryKey"`
	SessionID string    `gorm:"index;size:64"`
	Cmd       string    `gorm:"type:text"`
	Why       string    `gorm:"type:text"`
	Risk      string    `gorm:"size:8"`
	Accepted  bool      `gorm:"index"`
	CreatedAt time.Time `gorm:"index"`
}

// SessionState is one session's durable conversation state. Messages holds
// the JSON-encoded message list, capped by the session layer.
type SessionState struct {
	ID         int64     `gorm:"primaryKey"`
	SessionID  string    `gorm:"uniqueIndex;size:64"`
	CreatedAt  time.Time
	LastActive time.Time `gorm:"index"`
	Messages   string    `gorm:"type:text"`
}

// Store wraps the SQLite connection
type Store struct {
	db *gorm.DB
}

// Open opens or creates the SQLite database and migrates the schema
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Event{}, &Suggestion{}, &SessionState{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// AppendEvent records one pipeline event, payload JSON-encoded
func (s *Store) AppendEvent(sessionID, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	event := Event{
		SessionID: sessionID,
		Kind:      kind,
		Payload:   string(data),
		CreatedAt: time.Now(),
	}
	return s.db.Create(&event).Error
}

// AppendSuggestion records one accepted command suggestion
func (s *Store) AppendSuggestion(sessionID string, sug protocol.CommandSuggestion) error {
	row := Suggestion{
		SessionID: sessionID,
		Cmd:       sug.Cmd,
		Why:       sug.Why,
		Risk:      sug.Risk,
		CreatedAt: time.Now(),
	}
	return s.db.Create(&row).Error
}

// RecentEvents returns a session's events, newest first
func (s *Store) RecentEvents(sessionID string, limit int) ([]Event, error) {
	var events []Event
	err := s.db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// RecentSuggestions returns a session's suggestions, newest first
func (s *Store) RecentSuggestions(sessionID string, limit int) ([]Suggestion, error) {
	var suggestions []Suggestion
	err := s.db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&suggestions).Error
	return suggestions, err
}

// LoadSession returns a session's durable state, or nil if never persisted
func (s *Store) LoadSession(sessionID string) (*SessionState, error) {
	var state SessionState
	err := s.db.Where("session_id = ?", sessionID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveSession inserts or updates a session's durable state
func (s *Store) SaveSession(state *SessionState) error {
	if state.ID == 0 {
		return s.db.Create(state).Error
	}
	return s.db.Save(state).Error
}
