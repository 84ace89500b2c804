// Package suggest derives rule-based financial advice from a summary.
package suggest

import (
	"fmt"

	"finanzas/internal/core"
)

type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Suggestion is one piece of advice. The output order of Generate is the rule
// evaluation order, never a priority sort.
type Suggestion struct {
	Kind           Kind     `json:"kind"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Priority       Priority `json:"priority"`
}

const genericRecommendation = "Revisa si puedes reducir este gasto o buscar alternativas más económicas."

var categoryRecommendations = map[core.Category]string{
	core.Alimentacion:    "Planifica tus comidas de la semana y compra con lista para evitar compras impulsivas.",
	core.Transporte:      "Considera el transporte público, compartir coche o la bicicleta para trayectos cortos.",
	core.Vivienda:        "Compara tu alquiler o hipoteca con el mercado y evalúa renegociar condiciones.",
	core.Servicios:       "Revisa tus tarifas de luz, agua e internet; cambiar de proveedor puede ahorrar mucho.",
	core.Entretenimiento: "Fija un presupuesto mensual de ocio y busca actividades gratuitas.",
	core.Salud:           "Valora un seguro médico adecuado y aprovecha las revisiones preventivas.",
	core.Educacion:       "Busca becas, cursos gratuitos en línea o materiales de segunda mano.",
	core.Ropa:            "Compra en temporada de rebajas y prioriza prendas versátiles y duraderas.",
	core.Tecnologia:      "Antes de comprar, pregúntate si realmente lo necesitas; considera equipos reacondicionados.",
}

// Generate evaluates the savings-rate rule, the top-expense-category rule and,
// when neither fires, a getting-started fallback. It is deterministic.
func Generate(s core.FinancialSummary) []Suggestion {
	var out []Suggestion
	if sg, ok := savingsRule(s); ok {
		out = append(out, sg)
	}
	if sg, ok := topCategoryRule(s); ok {
		out = append(out, sg)
	}
	if len(out) == 0 {
		out = append(out, Suggestion{
			Kind:           KindInfo,
			Title:          "Empieza a registrar tus movimientos",
			Description:    "Todavía no hay suficientes datos para analizar tus finanzas.",
			Recommendation: "Registra tus ingresos y gastos durante un mes para recibir sugerencias personalizadas.",
			Priority:       Low,
		})
	}
	return out
}

// savingsRule compares balance/income with 20% and 5% using integer cents:
// rate > 0.20 iff 5*balance > income, rate < 0.05 iff 20*balance < income.
func savingsRule(s core.FinancialSummary) (Suggestion, bool) {
	income := s.TotalIncome.Cents
	if income <= 0 {
		return Suggestion{}, false
	}
	balance := s.Balance.Cents
	rate := float64(balance) / float64(income) * 100

	switch {
	case balance*5 > income:
		return Suggestion{
			Kind:           KindSuccess,
			Title:          "¡Buen nivel de ahorro!",
			Description:    fmt.Sprintf("Estás ahorrando el %.1f%% de tus ingresos.", rate),
			Recommendation: "Considera invertir parte de tus ahorros o crear un fondo de emergencia de 3 a 6 meses de gastos.",
			Priority:       High,
		}, true
	case balance*20 < income:
		return Suggestion{
			Kind:           KindWarning,
			Title:          "Tu tasa de ahorro es baja",
			Description:    fmt.Sprintf("Solo estás ahorrando el %.1f%% de tus ingresos.", rate),
			Recommendation: "Intenta aplicar la regla 50/30/20: 50% necesidades, 30% deseos y 20% ahorro.",
			Priority:       High,
		}, true
	}
	return Suggestion{}, false
}

func topCategoryRule(s core.FinancialSummary) (Suggestion, bool) {
	if len(s.CategoryBreakdown) == 0 {
		return Suggestion{}, false
	}

	var (
		top    core.Category
		amount core.Money
		found  bool
	)
	for cat, m := range s.CategoryBreakdown {
		if !found || m.Cents > amount.Cents || (m.Cents == amount.Cents && cat < top) {
			top, amount, found = cat, m, true
		}
	}

	var pct float64
	if s.TotalExpense.Cents > 0 {
		pct = float64(amount.Cents) / float64(s.TotalExpense.Cents) * 100
	}

	rec, ok := categoryRecommendations[top]
	if !ok {
		rec = genericRecommendation
	}
	info := top.Describe(core.Expense)

	return Suggestion{
		Kind:           KindInfo,
		Title:          fmt.Sprintf("Tu mayor gasto: %s %s", info.Icon, info.Label),
		Description:    fmt.Sprintf("%s representa el %.1f%% de tus gastos (%s).", info.Label, pct, amount),
		Recommendation: rec,
		Priority:       Medium,
	}, true
}
