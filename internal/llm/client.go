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

// Package llm talks to the external text-completion service. The service is
// opaque: callers get back a three-state result and never see wire details.
package llm

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/prompt"
)

// Outcome classifies one completion attempt
type Outcome int

const (
	// OutcomeSuccess means generated text was returned
	OutcomeSuccess Outcome = iota
	// OutcomeRefused means the service declined on content-safety grounds
	OutcomeRefused
	// OutcomeFailed means a transport or API error occurred
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRefused:
		return "refused"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is one completion call: the assembled prompt, the role-tagged
// conversation context, and generation parameters.
type Request struct {
	Prompt      string
	History     []prompt.Message
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Result is the explicit three-state outcome of a completion call. Err is
// set only when Outcome is OutcomeFailed.
type Result struct {
	Outcome      Outcome
	Text         string
	FinishReason string
	Err          error
}

// Completer generates text from an assembled request. Implementations are
// injected at construction so tests can substitute a fake.
type Completer interface {
	Complete(ctx context.Context, req Request) Result
}

// Client is a Completer backed by an OpenAI-compatible chat completion API
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Options configures the completion client
type Options struct {
	APIKey   string
	Endpoint string
	Model    string
}

// NewClient creates a completion client. A non-empty Endpoint points the
// client at an alternate OpenAI-compatible server.
func NewClient(opts Options, logger *zap.Logger) *Client {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.Endpoint != "" {
		config.BaseURL = opts.Endpoint
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  opts.Model,
		logger: logger,
	}
}

// Complete sends the request and maps the response onto a Result. Content
// filter terminations and safety-flavored API errors become OutcomeRefused;
// everything else that goes wrong becomes OutcomeFailed.
func (c *Client) Complete(ctx context.Context, req Request) Result {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := openai.ChatMessageRoleUser
		if msg.Role == prompt.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if looksLikeRefusal(err.Error()) {
			c.logger.Warn("Completion refused by service", zap.Error(err))
			return Result{Outcome: OutcomeRefused}
		}
		c.logger.Error("Completion call failed", zap.Error(err))
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("Completion returned no choices")
		return Result{Outcome: OutcomeRefused}
	}

	choice := resp.Choices[0]
	finish := string(choice.FinishReason)

	if choice.FinishReason == openai.FinishReasonContentFilter {
		c.logger.Warn("Completion blocked by content filter",
			zap.String("finish_reason", finish))
		return Result{Outcome: OutcomeRefused, FinishReason: finish}
	}

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		c.logger.Warn("Completion returned empty text",
			zap.String("finish_reason", finish))
		return Result{Outcome: OutcomeRefused, FinishReason: finish}
	}

	c.logger.Debug("Completion succeeded",
		zap.String("finish_reason", finish),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("response_len", len(text)))

	return Result{Outcome: OutcomeSuccess, Text: text, FinishReason: finish}
}

// refusalMarkers are substrings of error messages that indicate a
// content-safety block rather than a transport failure
var refusalMarkers = []string{
	"content_filter",
	"content filter",
	"content management policy",
	"safety",
	"blocked",
}

func looksLikeRefusal(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
