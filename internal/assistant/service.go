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

// Package assistant orchestrates the chat pipeline: history lookup, context
// aggregation and formatting, prompt assembly, the completion call with its
// degraded retry and local fallback, and persisting the finished turn.
package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/briefing"
	"github.com/your-org/inventory-assistant/internal/history"
	"github.com/your-org/inventory-assistant/internal/llm"
	"github.com/your-org/inventory-assistant/internal/prompt"
	"github.com/your-org/inventory-assistant/internal/resilience"
)

// Options tunes the pipeline
type Options struct {
	Temperature       float32
	RetryTemperature  float32
	TopP              float32
	MaxTokens         int
	HistoryLimit      int
	ContextWindow     int
	CompletionTimeout time.Duration
}

// Service runs one pipeline execution per chat request. The business data
// store is read-only from here; only conversation turns are written.
type Service struct {
	aggregator *briefing.Aggregator
	formatter  *briefing.Formatter
	completer  llm.Completer
	store      *history.Store
	opts       Options
	logger     *zap.Logger
}

// NewService wires the pipeline. The completer is injected so tests can
// substitute a fake completion service.
func NewService(aggregator *briefing.Aggregator, formatter *briefing.Formatter, completer llm.Completer, store *history.Store, opts Options, logger *zap.Logger) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = 5
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = 60 * time.Second
	}
	return &Service{
		aggregator: aggregator,
		formatter:  formatter,
		completer:  completer,
		store:      store,
		opts:       opts,
		logger:     logger,
	}
}

// Answer processes one user message and returns displayable text. The
// completion path never errors out: refusals and failures walk forward
// through a degraded retry into a local fallback. Only conversation storage
// failures propagate, wrapping history.ErrStorage.
func (s *Service) Answer(ctx context.Context, userID int64, message string) (string, error) {
	turns, err := s.store.Recent(ctx, userID, s.opts.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("loading conversation history: %w", err)
	}

	snap := s.aggregator.Snapshot(ctx)
	stats := s.aggregator.Statistics(ctx)
	conversation := prompt.BuildHistory(turns, s.opts.ContextWindow)
	wantsDiagram := prompt.WantsDiagram(message)

	text := s.generate(ctx, snap, stats, conversation, message, wantsDiagram)

	if err := s.store.Append(ctx, userID, message, text); err != nil {
		return "", fmt.Errorf("saving conversation turn: %w", err)
	}

	return text, nil
}

// generate walks the three completion states in order: primary, degraded
// retry, local fallback. Transitions are one-way forward.
func (s *Service) generate(ctx context.Context, snap briefing.Snapshot, stats briefing.Statistics, conversation []prompt.Message, message string, wantsDiagram bool) string {
	fullContext := s.formatter.Render(snap, stats, briefing.VerbosityFull)
	result := s.complete(ctx, llm.Request{
		Prompt:      prompt.BuildPrompt(prompt.SystemPrompt, fullContext, message),
		History:     conversation,
		Temperature: s.opts.Temperature,
		TopP:        s.opts.TopP,
		MaxTokens:   s.opts.MaxTokens,
	})
	if result.Outcome == llm.OutcomeSuccess {
		return result.Text
	}

	s.logger.Warn("Primary completion did not succeed, retrying with reduced context",
		zap.String("outcome", result.Outcome.String()),
		zap.Error(result.Err))

	reducedContext := s.formatter.Render(snap, stats, briefing.VerbosityReduced)
	retryPrompt := prompt.BuildPrompt(prompt.SystemPrompt, reducedContext, message)
	if wantsDiagram {
		retryPrompt += "\n\n" + prompt.DiagramInstruction
	}
	result = s.complete(ctx, llm.Request{
		Prompt:      retryPrompt,
		History:     conversation,
		Temperature: s.opts.RetryTemperature,
		TopP:        s.opts.TopP,
		MaxTokens:   s.opts.MaxTokens,
	})
	if result.Outcome == llm.OutcomeSuccess {
		return result.Text
	}

	s.logger.Warn("Degraded retry did not succeed, answering from local statistics",
		zap.String("outcome", result.Outcome.String()),
		zap.Error(result.Err))

	return fallbackAnswer(stats, wantsDiagram)
}

// complete runs one completion call under the configured timeout. A timeout
// is reported as a failed attempt so the caller moves to the next state.
func (s *Service) complete(ctx context.Context, req llm.Request) llm.Result {
	var result llm.Result
	err := resilience.WithTimeout(ctx, s.opts.CompletionTimeout, s.logger, func(ctx context.Context) error {
		result = s.completer.Complete(ctx, req)
		return nil
	})
	if err != nil {
		return llm.Result{Outcome: llm.OutcomeFailed, Err: err}
	}
	return result
}

// QuickInsights generates an executive summary of the current inventory.
// Falls back to the local statistics summary when the service is down.
func (s *Service) QuickInsights(ctx context.Context) string {
	return s.instructed(ctx, prompt.InsightsInstruction, func(stats briefing.Statistics) string {
		return fallbackAnswer(stats, false)
	})
}

// SuggestQuestions generates suggested user questions from the current
// data. Falls back to a generic invitation when the service is down.
func (s *Service) SuggestQuestions(ctx context.Context) string {
	return s.instructed(ctx, prompt.SuggestionsInstruction, func(briefing.Statistics) string {
		return "¿Qué te gustaría saber sobre tu inventario?"
	})
}

// instructed runs the aggregation and completion pipeline with a fixed
// instruction in place of a user question
func (s *Service) instructed(ctx context.Context, instruction string, fallback func(briefing.Statistics) string) string {
	snap := s.aggregator.Snapshot(ctx)
	stats := s.aggregator.Statistics(ctx)
	fullContext := s.formatter.Render(snap, stats, briefing.VerbosityFull)

	result := s.complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf("%s\n\n%s\n\n%s", prompt.SystemPrompt, fullContext, instruction),
		Temperature: s.opts.Temperature,
		TopP:        s.opts.TopP,
		MaxTokens:   s.opts.MaxTokens,
	})
	if result.Outcome == llm.OutcomeSuccess {
		return result.Text
	}

	s.logger.Warn("Instructed completion did not succeed, using fallback",
		zap.String("outcome", result.Outcome.String()),
		zap.Error(result.Err))

	return fallback(stats)
}

// HelpMessage returns the static onboarding text
func (s *Service) HelpMessage() string {
	return helpMessage
}

const helpMessage = `¡Hola! 👋 Soy tu asistente de inventario inteligente.

Puedes hablarme de manera natural. Por ejemplo:

💬 Preguntas que puedo responder:
- "¿Cuáles productos tienen poco stock?"
- "Muéstrame los productos más caros"
- "¿Cuánto hemos vendido esta semana?"
- "Dame un resumen del inventario"
- "¿Qué productos debería reordenar?"
- "Compara ventas vs compras"

🎯 También puedo:
- Analizar tendencias
- Generar recomendaciones
- Alertarte sobre problemas
- Responder preguntas específicas sobre cualquier producto

Solo pregúntame lo que necesites saber. ¿En qué puedo ayudarte?`
