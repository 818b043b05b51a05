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

package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/inventory-assistant/internal/history"
)

func TestBuildPromptOrder(t *testing.T) {
	out := BuildPrompt("PERSONA", "CONTEXTO", "¿cuántos productos tengo?")

	personaIdx := strings.Index(out, "PERSONA")
	contextIdx := strings.Index(out, "CONTEXTO")
	questionIdx := strings.Index(out, "Usuario: ¿cuántos productos tengo?")

	assert.GreaterOrEqual(t, personaIdx, 0)
	assert.Greater(t, contextIdx, personaIdx)
	assert.Greater(t, questionIdx, contextIdx)
}

func TestBuildHistoryWindowAndOrder(t *testing.T) {
	turns := make([]history.Turn, 0, 8)
	for i := 1; i <= 8; i++ {
		turns = append(turns, history.Turn{
			Message:  fmt.Sprintf("pregunta %d", i),
			Response: fmt.Sprintf("respuesta %d", i),
		})
	}

	messages := BuildHistory(turns, 5)

	// 5 turns, two entries each, chronological
	assert.Len(t, messages, 10)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "pregunta 4", messages[0].Text)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "respuesta 4", messages[1].Text)
	assert.Equal(t, "respuesta 8", messages[9].Text)
}

func TestBuildHistoryEmpty(t *testing.T) {
	assert.Empty(t, BuildHistory(nil, 5))
	assert.Empty(t, BuildHistory([]history.Turn{{Message: "hola", Response: "buenas"}}, 0))
}

func TestWantsDiagram(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"muéstrame un diagrama de flujo", true},
		{"hazme un chart de ventas", true},
		{"¿puedes visualizar el esquema?", true},
		{"DIAGRAMA por favor", true},
		{"un gráfico de stock", true},
		{"usa mermaid", true},
		{"cuántos productos tengo", false},
		{"dame un resumen de ventas", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, WantsDiagram(tc.message), "message %q", tc.message)
	}
}
