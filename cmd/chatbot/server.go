// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/assistant"
	"github.com/your-org/inventory-assistant/internal/config"
	"github.com/your-org/inventory-assistant/internal/history"
	"github.com/your-org/inventory-assistant/internal/inventory"
	"github.com/your-org/inventory-assistant/internal/render"
	"github.com/your-org/inventory-assistant/internal/resilience"
)

// Server exposes the chat pipeline over HTTP. Authentication happens
// upstream; the caller's identity arrives in the X-User-ID header and is
// trusted as-is.
type Server struct {
	cfg          *config.Config
	service      *assistant.Service
	store        *history.Store
	errorHandler *resilience.ErrorHandler
	health       *resilience.HealthChecker
	logger       *zap.Logger
}

// chatRequest is the body of POST /chat
type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// NewServer creates the HTTP server around an assembled pipeline
func NewServer(cfg *config.Config, service *assistant.Service, store *history.Store, provider inventory.Provider, logger *zap.Logger) *Server {
	health := resilience.NewHealthChecker("chatbot", logger)
	health.AddCheck("conversation_store", func(ctx context.Context) error {
		return store.Ping(ctx)
	})
	health.AddCheck("business_database", func(ctx context.Context) error {
		_, err := provider.ListCategories(ctx)
		return err
	})

	return &Server{
		cfg:          cfg,
		service:      service,
		store:        store,
		errorHandler: resilience.NewErrorHandler(logger),
		health:       health,
		logger:       logger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())

	router.GET("/health", s.handleHealth)
	router.POST("/chat", s.handleChat)
	router.GET("/chat/history", s.handleHistory)
	router.POST("/chat/clear", s.handleClear)
	router.GET("/chat/insights", s.handleInsights)
	router.GET("/chat/suggestions", s.handleSuggestions)
	router.GET("/chat/help", s.handleHelp)

	return router
}

// requestIDMiddleware tags every request with an ID for log correlation
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// userID extracts the authenticated user's identity from the X-User-ID
// header. A missing or malformed header is rejected; no authentication is
// performed here.
func (s *Server) userID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.errorHandler.WriteErrorResponse(c.Writer,
			resilience.NewUnauthorizedError("Missing or invalid X-User-ID header", err),
			requestID(c))
		c.Abort()
		return 0, false
	}
	return id, true
}

func (s *Server) handleChat(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorHandler.WriteErrorResponse(c.Writer,
			resilience.NewBadRequestError("A non-empty message is required", err),
			requestID(c))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.errorHandler.WriteErrorResponse(c.Writer,
			resilience.NewBadRequestError("A non-empty message is required", nil),
			requestID(c))
		return
	}

	text, err := s.service.Answer(c.Request.Context(), userID, message)
	if err != nil {
		if errors.Is(err, history.ErrStorage) {
			s.errorHandler.WriteErrorResponse(c.Writer,
				resilience.NewStorageFailureError("Your conversation could not be saved. Please try again.", err),
				requestID(c))
			return
		}
		s.errorHandler.WriteErrorResponse(c.Writer, err, requestID(c))
		return
	}

	html, err := render.ToHTML(text)
	if err != nil {
		s.logger.Warn("Markdown rendering failed, returning plain text only",
			zap.String("request_id", requestID(c)),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       message,
		"response":      text,
		"response_html": html,
		"timestamp":     time.Now().Format("2006-01-02 15:04:05"),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.errorHandler.WriteErrorResponse(c.Writer,
				resilience.NewBadRequestError("limit must be a non-negative integer", err),
				requestID(c))
			return
		}
		limit = parsed
	}

	turns, err := s.store.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		s.errorHandler.WriteErrorResponse(c.Writer,
			resilience.NewStorageFailureError("Conversation history is unavailable. Please try again.", err),
			requestID(c))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": turns,
	})
}

func (s *Server) handleClear(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	if err := s.store.Clear(c.Request.Context(), userID); err != nil {
		s.errorHandler.WriteErrorResponse(c.Writer,
			resilience.NewStorageFailureError("Conversation history could not be cleared. Please try again.", err),
			requestID(c))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Historial eliminado correctamente",
	})
}

func (s *Server) handleInsights(c *gin.Context) {
	if _, ok := s.userID(c); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"insights": s.service.QuickInsights(c.Request.Context()),
	})
}

func (s *Server) handleSuggestions(c *gin.Context) {
	if _, ok := s.userID(c); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": s.service.SuggestQuestions(c.Request.Context()),
	})
}

func (s *Server) handleHelp(c *gin.Context) {
	help := s.service.HelpMessage()
	html, err := render.ToHTML(help)
	if err != nil {
		s.logger.Warn("Markdown rendering failed for help message", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"help":      help,
		"help_html": html,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.health.Report(c.Request.Context())

	status := http.StatusOK
	if report.Status != resilience.HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, report)
}
