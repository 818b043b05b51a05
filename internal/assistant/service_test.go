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

package assistant

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/briefing"
	"github.com/your-org/inventory-assistant/internal/history"
	"github.com/your-org/inventory-assistant/internal/inventory"
	"github.com/your-org/inventory-assistant/internal/llm"
)

// fakeCompleter scripts completion outcomes and records every request
type fakeCompleter struct {
	script   func(call int, req llm.Request) llm.Result
	requests []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) llm.Result {
	f.requests = append(f.requests, req)
	return f.script(len(f.requests), req)
}

func alwaysRefuse(int, llm.Request) llm.Result {
	return llm.Result{Outcome: llm.OutcomeRefused, FinishReason: "content_filter"}
}

func echoPrompt(_ int, req llm.Request) llm.Result {
	return llm.Result{Outcome: llm.OutcomeSuccess, Text: req.Prompt}
}

// newTestService builds a pipeline over an in-memory inventory with exactly
// three products under the low-stock threshold
func newTestService(t *testing.T, completer llm.Completer) (*Service, *history.Store) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, inventory.EnsureSchema(db))

	inserts := []string{
		`INSERT INTO categories (name, description) VALUES ('Electrónica', 'Equipos y accesorios')`,
		`INSERT INTO products (name, description, category_id, cost_price, sale_price, stock) VALUES
			('Laptop', 'Portátil de trabajo', 1, 500.00, 800.00, 15),
			('Mouse', 'Mouse inalámbrico', 1, 5.00, 12.00, 3),
			('Teclado', 'Teclado compacto', 1, 10.00, 25.00, 7),
			('Cable HDMI', 'Cable de 2 metros', 1, 2.00, 6.00, 0)`,
		`INSERT INTO clients (name, email) VALUES ('Comercial Andina', 'compras@andina.example')`,
		`INSERT INTO sales (client_id, total, sale_date) VALUES (1, 824.00, '2026-08-10 10:30:00')`,
		`INSERT INTO sale_items (sale_id, product_id, quantity, subtotal) VALUES
			(1, 1, 1, 800.00),
			(1, 2, 2, 24.00)`,
	}
	for _, stmt := range inserts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	provider := inventory.NewSQLiteProviderFromDB(db, zap.NewNop())
	aggregator := briefing.NewAggregator(provider, briefing.AggregatorOptions{}, zap.NewNop())
	formatter := briefing.NewFormatter(briefing.FormatterOptions{})

	store, err := history.NewStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	service := NewService(aggregator, formatter, completer, store, Options{
		Temperature:      0.7,
		RetryTemperature: 0.3,
		MaxTokens:        2048,
	}, zap.NewNop())

	return service, store
}

func TestAnswerPrimarySuccess(t *testing.T) {
	completer := &fakeCompleter{script: func(int, llm.Request) llm.Result {
		return llm.Result{Outcome: llm.OutcomeSuccess, Text: "Tienes 4 productos registrados."}
	}}
	service, store := newTestService(t, completer)

	text, err := service.Answer(context.Background(), 1, "¿cuántos productos tengo?")
	require.NoError(t, err)

	assert.Equal(t, "Tienes 4 productos registrados.", text)
	assert.Len(t, completer.requests, 1)

	turns, err := store.Recent(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "¿cuántos productos tengo?", turns[0].Message)
	assert.Equal(t, text, turns[0].Response)
}

func TestAnswerAlwaysReturnsTextUnderPermanentRefusal(t *testing.T) {
	completer := &fakeCompleter{script: alwaysRefuse}
	service, _ := newTestService(t, completer)

	text, err := service.Answer(context.Background(), 1, "dame un resumen")
	require.NoError(t, err)

	assert.NotEmpty(t, text)
	// One primary attempt plus one degraded retry, then local fallback
	assert.Len(t, completer.requests, 2)
	assert.Contains(t, text, "datos locales")
}

func TestAnswerDegradedRetryReducesContext(t *testing.T) {
	completer := &fakeCompleter{script: func(call int, req llm.Request) llm.Result {
		if call == 1 {
			return llm.Result{Outcome: llm.OutcomeRefused}
		}
		return llm.Result{Outcome: llm.OutcomeSuccess, Text: "Aquí va tu diagrama."}
	}}
	service, _ := newTestService(t, completer)

	text, err := service.Answer(context.Background(), 1, "muéstrame un diagrama de flujo")
	require.NoError(t, err)
	assert.Equal(t, "Aquí va tu diagrama.", text)

	require.Len(t, completer.requests, 2)
	primary, retry := completer.requests[0], completer.requests[1]

	assert.Contains(t, primary.Prompt, "DATOS DEL SISTEMA DE INVENTARIO")
	assert.Contains(t, retry.Prompt, "ESTADÍSTICAS DEL INVENTARIO")
	assert.NotContains(t, retry.Prompt, "INSIGHTS GENERALES")
	assert.Contains(t, retry.Prompt, "mermaid")
	assert.Equal(t, float32(0.7), primary.Temperature)
	assert.Equal(t, float32(0.3), retry.Temperature)
}

func TestAnswerNoDiagramInstructionForPlainQuestion(t *testing.T) {
	completer := &fakeCompleter{script: func(call int, req llm.Request) llm.Result {
		if call == 1 {
			return llm.Result{Outcome: llm.OutcomeRefused}
		}
		return llm.Result{Outcome: llm.OutcomeSuccess, Text: "Tienes 4 productos."}
	}}
	service, _ := newTestService(t, completer)

	_, err := service.Answer(context.Background(), 1, "cuántos productos tengo")
	require.NoError(t, err)

	require.Len(t, completer.requests, 2)
	assert.NotContains(t, completer.requests[1].Prompt, "mermaid")
}

func TestAnswerEchoEndToEnd(t *testing.T) {
	completer := &fakeCompleter{script: echoPrompt}
	service, store := newTestService(t, completer)

	message := "¿cuántos productos tienen stock bajo?"
	text, err := service.Answer(context.Background(), 1, message)
	require.NoError(t, err)

	// The echoed context carries the low-stock insight computed from the
	// three products under the threshold
	assert.Contains(t, text, "3 productos tienen stock bajo")

	turns, err := store.Recent(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, message, turns[0].Message)
	assert.Equal(t, text, turns[0].Response)
}

func TestAnswerHistoryFlowsIntoCompletion(t *testing.T) {
	completer := &fakeCompleter{script: func(int, llm.Request) llm.Result {
		return llm.Result{Outcome: llm.OutcomeSuccess, Text: "ok"}
	}}
	service, store := newTestService(t, completer)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, 1, "hola", "buenas"))

	_, err := service.Answer(ctx, 1, "¿y ahora?")
	require.NoError(t, err)

	require.Len(t, completer.requests, 1)
	sent := completer.requests[0].History
	require.Len(t, sent, 2)
	assert.Equal(t, "hola", sent[0].Text)
	assert.Equal(t, "buenas", sent[1].Text)
}

func TestAnswerPropagatesStorageFailure(t *testing.T) {
	completer := &fakeCompleter{script: echoPrompt}
	service, store := newTestService(t, completer)

	// A closed store makes the history read fail
	require.NoError(t, store.Close())

	_, err := service.Answer(context.Background(), 1, "hola")
	assert.ErrorIs(t, err, history.ErrStorage)
}

func TestSuggestQuestionsFallsBackToCannedQuestion(t *testing.T) {
	completer := &fakeCompleter{script: alwaysRefuse}
	service, _ := newTestService(t, completer)

	out := service.SuggestQuestions(context.Background())

	assert.Equal(t, "¿Qué te gustaría saber sobre tu inventario?", out)
}

func TestQuickInsightsFallsBackToLocalSummary(t *testing.T) {
	completer := &fakeCompleter{script: alwaysRefuse}
	service, _ := newTestService(t, completer)

	out := service.QuickInsights(context.Background())

	assert.NotEmpty(t, out)
	assert.Contains(t, out, "datos locales")
}

func TestFallbackDiagramFromTopProducts(t *testing.T) {
	completer := &fakeCompleter{script: alwaysRefuse}
	service, _ := newTestService(t, completer)

	text, err := service.Answer(context.Background(), 1, "muéstrame un diagrama de ventas")
	require.NoError(t, err)

	assert.Contains(t, text, "```mermaid")
	assert.Contains(t, text, "graph TD")
	// Laptop is the top seller in the seeded sales
	assert.Contains(t, text, "Laptop")
}

func TestFallbackApologyWhenNoStatistics(t *testing.T) {
	text := fallbackAnswer(briefing.Statistics{}, true)

	assert.NotEmpty(t, text)
	assert.True(t, strings.HasPrefix(text, "Disculpa"))
	assert.NotContains(t, text, "mermaid")
}

func TestHelpMessageStatic(t *testing.T) {
	service, _ := newTestService(t, &fakeCompleter{script: echoPrompt})

	help := service.HelpMessage()
	assert.Contains(t, help, "asistente de inventario")
	assert.Equal(t, help, service.HelpMessage())
}
