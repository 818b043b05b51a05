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
	"fmt"
	"strings"

	"github.com/your-org/inventory-assistant/internal/briefing"
)

const fallbackApology = `Disculpa, en este momento no puedo consultar el servicio de IA y tampoco tengo datos locales para responderte. Por favor, intenta de nuevo en unos minutos. 🙏`

// fallbackAnswer synthesizes a response from local statistics alone, without
// calling the external service. It always returns non-empty text; with no
// statistics available it apologizes and redirects.
func fallbackAnswer(stats briefing.Statistics, wantsDiagram bool) string {
	if statisticsEmpty(stats) {
		return fallbackApology
	}

	var b strings.Builder
	b.WriteString("⚠️ El servicio de IA no está disponible, así que preparé un resumen con los datos locales:\n\n")

	if len(stats.TopProducts) > 0 {
		b.WriteString("🏆 **Productos más vendidos:**\n")
		for i, p := range stats.TopProducts {
			fmt.Fprintf(&b, "%d. %s: %d unidades vendidas (%s)\n", i+1, p.Name, p.QuantitySold, briefing.FormatMoney(p.Revenue))
		}
		b.WriteString("\n")
	}

	if len(stats.TopClients) > 0 {
		b.WriteString("👥 **Mejores clientes:**\n")
		for i, c := range stats.TopClients {
			fmt.Fprintf(&b, "%d. %s: %s en %d compras\n", i+1, c.Name, briefing.FormatMoney(c.Total), c.Orders)
		}
		b.WriteString("\n")
	}

	if len(stats.CriticalStock) > 0 {
		b.WriteString("🚨 **Stock crítico:**\n")
		for _, p := range stats.CriticalStock {
			fmt.Fprintf(&b, "- %s: %d unidades\n", p.Name, p.Stock)
		}
		b.WriteString("\n")
	}

	if !stats.Valuation.AtCost.IsZero() || !stats.Valuation.AtSale.IsZero() {
		b.WriteString("💎 **Valoración del inventario:**\n")
		fmt.Fprintf(&b, "- A precio de costo: %s\n", briefing.FormatMoney(stats.Valuation.AtCost))
		fmt.Fprintf(&b, "- A precio de venta: %s\n\n", briefing.FormatMoney(stats.Valuation.AtSale))
	}

	if wantsDiagram && len(stats.TopProducts) > 0 {
		b.WriteString(fallbackDiagram(stats))
	}

	b.WriteString("¿Quieres que intente de nuevo con el análisis completo?")
	return b.String()
}

// fallbackDiagram builds a minimal mermaid node graph from the top-selling
// products
func fallbackDiagram(stats briefing.Statistics) string {
	var b strings.Builder
	b.WriteString("```mermaid\ngraph TD\n")
	b.WriteString("    V[Ventas]\n")
	for i, p := range stats.TopProducts {
		fmt.Fprintf(&b, "    V --> P%d[\"%s: %d unidades\"]\n", i+1, sanitizeNodeLabel(p.Name), p.QuantitySold)
	}
	b.WriteString("```\n\n")
	return b.String()
}

// sanitizeNodeLabel strips characters that break mermaid node labels
func sanitizeNodeLabel(name string) string {
	return strings.NewReplacer("\"", "'", "[", "(", "]", ")", "\n", " ").Replace(name)
}

func statisticsEmpty(stats briefing.Statistics) bool {
	return len(stats.TopProducts) == 0 &&
		len(stats.TopClients) == 0 &&
		len(stats.CriticalStock) == 0 &&
		stats.Valuation.AtCost.IsZero() &&
		stats.Valuation.AtSale.IsZero()
}
