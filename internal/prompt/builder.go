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

// Package prompt assembles the completion request text: persona
// instructions, formatted business context, rolling history, and the user
// question. Every function here is pure.
package prompt

import (
	"fmt"
	"strings"

	"github.com/your-org/inventory-assistant/internal/history"
)

// SystemPrompt is the assistant's fixed persona and behavioral instructions.
// It is a compile-time constant and is never influenced by user input.
const SystemPrompt = `Eres un asistente virtual inteligente especializado en gestión de inventarios. Tu nombre es InventoryBot.

TU PERSONALIDAD:
- Eres profesional pero amigable y conversacional
- Hablas en español de manera natural
- Eres proactivo: sugieres análisis, alertas y recomendaciones
- Cuando detectas problemas, los mencionas constructivamente
- Preguntas para clarificar cuando algo es ambiguo

TUS CAPACIDADES:
1. Consultar productos, stock, precios y categorías
2. Analizar ventas y compras
3. Identificar productos con stock bajo o agotados
4. Comparar datos y generar insights
5. Recomendar acciones basadas en los datos
6. Responder preguntas sobre clientes, proveedores y almacenes
7. Explicar tendencias y patrones

CÓMO RESPONDER:
- Usa los datos proporcionados para responder con precisión
- Si los datos no contienen la información exacta, infiere razonablemente o pide clarificación
- Formatea las respuestas de manera clara con emojis relevantes
- Incluye números específicos cuando sea relevante
- Si detectas algo importante (stock bajo, productos agotados), menciónalo
- Ofrece seguimiento: "¿Quieres que analice algo más?" o "¿Te gustaría ver los detalles de...?"

IMPORTANTE:
- Nunca inventes datos que no existen
- Si algo no está claro en los datos, di "No tengo esa información específica, pero..."
- Sé conversacional: el usuario debe sentir que habla con un experto amigable`

// DiagramInstruction is appended to retry prompts when the user asked for a
// diagram, nudging the model to emit a fenced mermaid block.
const DiagramInstruction = `Si es posible, incluye un diagrama en sintaxis mermaid dentro de un bloque de código` + " ```mermaid" + ` para ilustrar tu respuesta.`

// InsightsInstruction asks for an executive summary instead of answering a
// user question.
const InsightsInstruction = `Genera un resumen ejecutivo breve (3-5 puntos) con los insights más importantes del inventario actual.
Incluye alertas si hay productos agotados o stock bajo. Sé conciso y directo.`

// SuggestionsInstruction asks for suggested user questions.
const SuggestionsInstruction = `Basándote en los datos actuales del inventario, sugiere 5 preguntas inteligentes que el usuario podría hacerte para obtener insights valiosos.
Las preguntas deben ser específicas y relevantes a la situación actual del negocio.
Formato: Solo lista las preguntas, una por línea, con emoji al inicio.`

// Role tags a history message for the completion service
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of the conversation context
type Message struct {
	Role Role
	Text string
}

// BuildPrompt composes, in fixed order, the persona instructions, the
// formatted business context, and the user question
func BuildPrompt(system, context, question string) string {
	return fmt.Sprintf(`%s

%s

Usuario: %s

Responde de manera natural y conversacional. Si puedes generar insights o recomendaciones basadas en los datos, hazlo.`, system, context, question)
}

// BuildHistory converts the most recent turns, at most window of them, into
// role-tagged messages in chronological order. Each turn expands to one user
// entry followed by one assistant entry. Order is never changed.
func BuildHistory(turns []history.Turn, window int) []Message {
	if window <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	messages := make([]Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages, Message{Role: RoleUser, Text: turn.Message})
		messages = append(messages, Message{Role: RoleAssistant, Text: turn.Response})
	}
	return messages
}

// diagramKeywords trigger the diagram instruction on retry. Accented and
// unaccented variants are listed separately so no normalization pass is
// needed.
var diagramKeywords = []string{
	"diagram",
	"diagrama",
	"chart",
	"gráfico",
	"grafico",
	"gráfica",
	"grafica",
	"flow",
	"flujo",
	"visualize",
	"visualiza",
	"schema",
	"esquema",
	"relation",
	"relación",
	"relacion",
	"mermaid",
}

// WantsDiagram reports whether the message asks for a diagram,
// case-insensitively
func WantsDiagram(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range diagramKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
