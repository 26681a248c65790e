// internal/server/server.go

// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/signalnine/logwhisperer/internal/blob"
	"github.com/signalnine/logwhisperer/internal/protocol"
)

// Chatter runs chat turns and serves session history
type Chatter interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	History(sessionID string) (*protocol.HistoryResponse, error)
}

// BlobWriter stores raw uploaded payloads
type BlobWriter interface {
	Put(key string, data []byte) error
}

// Server wires the HTTP routes to the session layer
type Server struct {
	chat            Chatter
	blobs           BlobWriter
	maxPayloadBytes int64
}

// New creates a server. blobs may be nil; uploads then report unconfigured.
func New(chat Chatter, blobs BlobWriter, maxPayloadBytes int64) *Server {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 1 << 20
	}
	return &Server{chat: chat, blobs: blobs, maxPayloadBytes: maxPayloadBytes}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.limitBody)

	r.GET("/health", s.handleHealth)
	r.POST("/api/chat", s.handleChat)
	r.GET("/api/sessions/:id", s.handleHistory)
	r.POST("/api/upload", s.handleUpload)
	return r
}

func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxPayloadBytes)
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req protocol.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Logs == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logs must not be empty"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := s.chat.Chat(c.Request.Context(), req)
	if err != nil {
		slog.Error("chat turn failed", "session", req.SessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat turn failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	resp, err := s.chat.History(c.Param("id"))
	if err != nil {
		slog.Error("history lookup failed", "session", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleUpload archives a raw log payload verbatim, keyed by session and
// arrival time. Uploads bypass redaction; the blob directory is trusted
// operator storage, not model input.
func (s *Server) handleUpload(c *gin.Context) {
	if s.blobs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "blob storage not configured"})
		return
	}

	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}

	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	key := fmt.Sprintf("%s/%d", sessionID, time.Now().UnixNano())

	if err := s.blobs.Put(key, data); err != nil {
		if errors.Is(err, blob.ErrNotConfigured) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "blob storage not configured"})
			return
		}
		slog.Error("blob write failed", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "key": key})
}
