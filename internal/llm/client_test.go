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

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/prompt"
)

// newStubServer returns a client pointed at a fake chat completion endpoint
func newStubServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Options{
		APIKey:   "sk-test",
		Endpoint: server.URL + "/v1",
		Model:    "gpt-4o-mini",
	}, zap.NewNop())
}

func completionBody(t *testing.T, content, finishReason string) []byte {
	t.Helper()

	body, err := json.Marshal(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
			FinishReason: openai.FinishReason(finishReason),
		}},
	})
	require.NoError(t, err)
	return body
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, "Tienes 7 productos.", "stop"))
	})

	result := client.Complete(context.Background(), Request{
		Prompt: "¿cuántos productos tengo?",
		History: []prompt.Message{
			{Role: prompt.RoleUser, Text: "hola"},
			{Role: prompt.RoleAssistant, Text: "buenas"},
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	})

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "Tienes 7 productos.", result.Text)
	assert.Equal(t, "stop", result.FinishReason)

	// History precedes the prompt, in order, with mapped roles
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "hola", gotReq.Messages[0].Content)
	assert.Equal(t, "assistant", gotReq.Messages[1].Role)
	assert.Equal(t, "¿cuántos productos tengo?", gotReq.Messages[2].Content)
}

func TestCompleteContentFilterIsRefusal(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(t, "", "content_filter"))
	})

	result := client.Complete(context.Background(), Request{Prompt: "hola"})

	assert.Equal(t, OutcomeRefused, result.Outcome)
	assert.Empty(t, result.Text)
	assert.NoError(t, result.Err)
}

func TestCompleteSafetyErrorIsRefusal(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "The response was filtered due to safety reasons", "type": "invalid_request_error"}}`))
	})

	result := client.Complete(context.Background(), Request{Prompt: "hola"})

	assert.Equal(t, OutcomeRefused, result.Outcome)
}

func TestCompleteTransportErrorIsFailure(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result := client.Complete(context.Background(), Request{Prompt: "hola"})

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Error(t, result.Err)
}

func TestCompleteEmptyChoicesIsRefusal(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	})

	result := client.Complete(context.Background(), Request{Prompt: "hola"})

	assert.Equal(t, OutcomeRefused, result.Outcome)
}
