package core

// Category is a key from the fixed income or expense category tables.
type Category string

// CategoryInfo describes how a category is presented.
type CategoryInfo struct {
	Key   Category `json:"key"`
	Kind  Kind     `json:"kind"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
}

const (
	Alimentacion    Category = "alimentacion"
	Transporte      Category = "transporte"
	Vivienda        Category = "vivienda"
	Servicios       Category = "servicios"
	Entretenimiento Category = "entretenimiento"
	Salud           Category = "salud"
	Educacion       Category = "educacion"
	Ropa            Category = "ropa"
	Tecnologia      Category = "tecnologia"

	Salario     Category = "salario"
	Freelance   Category = "freelance"
	Inversiones Category = "inversiones"
	Negocio     Category = "negocio"
	Regalos     Category = "regalos"

	// Otros is valid for both kinds.
	Otros Category = "otros"
)

var (
	expenseCategories = []CategoryInfo{
		{Key: Alimentacion, Kind: Expense, Label: "Alimentación", Icon: "🍔"},
		{Key: Transporte, Kind: Expense, Label: "Transporte", Icon: "🚗"},
		{Key: Vivienda, Kind: Expense, Label: "Vivienda", Icon: "🏠"},
		{Key: Servicios, Kind: Expense, Label: "Servicios", Icon: "💡"},
		{Key: Entretenimiento, Kind: Expense, Label: "Entretenimiento", Icon: "🎬"},
		{Key: Salud, Kind: Expense, Label: "Salud", Icon: "🏥"},
		{Key: Educacion, Kind: Expense, Label: "Educación", Icon: "📚"},
		{Key: Ropa, Kind: Expense, Label: "Ropa", Icon: "👕"},
		{Key: Tecnologia, Kind: Expense, Label: "Tecnología", Icon: "💻"},
		{Key: Otros, Kind: Expense, Label: "Otros", Icon: "📦"},
	}

	incomeCategories = []CategoryInfo{
		{Key: Salario, Kind: Income, Label: "Salario", Icon: "💼"},
		{Key: Freelance, Kind: Income, Label: "Freelance", Icon: "🧑‍💻"},
		{Key: Inversiones, Kind: Income, Label: "Inversiones", Icon: "📈"},
		{Key: Negocio, Kind: Income, Label: "Negocio", Icon: "🏪"},
		{Key: Regalos, Kind: Income, Label: "Regalos", Icon: "🎁"},
		{Key: Otros, Kind: Income, Label: "Otros", Icon: "💰"},
	}

	genericCategory = CategoryInfo{Label: "Sin categoría", Icon: "❔"}
)

// Categories returns the category table for kind, in display order.
func Categories(kind Kind) []CategoryInfo {
	var src []CategoryInfo
	switch kind {
	case Income:
		src = incomeCategories
	case Expense:
		src = expenseCategories
	}
	return append([]CategoryInfo(nil), src...)
}

// LookupCategory finds c in the table for kind.
func LookupCategory(kind Kind, c Category) (CategoryInfo, bool) {
	for _, info := range Categories(kind) {
		if info.Key == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Describe returns the presentation of c for kind, falling back to a generic
// label and icon for keys missing from the table.
func (c Category) Describe(kind Kind) CategoryInfo {
	if info, ok := LookupCategory(kind, c); ok {
		return info
	}
	info := genericCategory
	info.Key = c
	info.Kind = kind
	return info
}

// ValidFor reports whether c belongs to the table of kind.
func (c Category) ValidFor(kind Kind) bool {
	_, ok := LookupCategory(kind, c)
	return ok
}
