package core

const (
	TypeNeed       ExpenseType = "need"
	TypeWant       ExpenseType = "want"
	TypeSaving     ExpenseType = "saving"
	TypeInvestment ExpenseType = "investment"
	TypeDebt       ExpenseType = "debt"
	TypeTransfer   ExpenseType = "transfer"
)

// Category labels with behaviour attached to them.
const (
	CategoryCashWithdrawal = "Retiro de Efectivo"
	GroupOther             = "Otros"

	CashAccountSlug = "efectivo"
)

type (
	// ExpenseType is the semantic budget label of an expense category group.
	ExpenseType string

	// CategoryGroup is one parent node of the fixed category taxonomy.
	CategoryGroup struct {
		Name  string
		Type  ExpenseType
		Items []string
	}
)

// Taxonomy is the fixed, ordered category tree used to derive an expense's
// group and type from its leaf category at creation time.
var Taxonomy = []CategoryGroup{
	{Name: "Movimientos entre Cuentas", Type: TypeTransfer, Items: []string{CategoryCashWithdrawal}},
	{Name: "Necesidades", Type: TypeNeed, Items: []string{
		"Renta / Hipoteca",
		"Servicios (Luz, Agua, Gas)",
		"Supermercado",
		"Transporte Público",
		"Gasolina",
		"Salud (Seguro, Medicinas)",
		"Psicólogo",
		"Educación Esencial",
	}},
	{Name: "Deseos / Ocio", Type: TypeWant, Items: []string{
		"Restaurantes / Cafés",
		"Suscripciones (Streaming)",
		"Cine / Eventos",
		"Compras (Ropa, Gadgets)",
		"Viajes / Vacaciones",
		"Hobbies",
		"Gimnasio",
	}},
	{Name: "Ahorro", Type: TypeSaving, Items: []string{"Fondo de Emergencia", "Ahorro para Metas (Auto, Casa)"}},
	{Name: "Inversión", Type: TypeInvestment, Items: []string{"Acciones / Fondos", "Criptomonedas", "Plan de Retiro"}},
	{Name: "Deudas", Type: TypeDebt, Items: []string{"Pago Tarjeta de Crédito", "Pago Préstamo Personal"}},
}

var categoryIndex = buildCategoryIndex()

func buildCategoryIndex() map[string]CategoryGroup {
	idx := make(map[string]CategoryGroup)
	for _, g := range Taxonomy {
		for _, item := range g.Items {
			idx[item] = g
		}
	}
	return idx
}

// Classify returns the group name and type of a leaf category.
func Classify(category string) (group string, typ ExpenseType, ok bool) {
	g, ok := categoryIndex[category]
	if !ok {
		return "", "", false
	}
	return g.Name, g.Type, true
}

// GroupType returns the type of a group by name.
func GroupType(group string) (ExpenseType, bool) {
	for _, g := range Taxonomy {
		if g.Name == group {
			return g.Type, true
		}
	}
	return "", false
}

// BuiltinAccounts returns the account set seeded at startup, in display order.
func BuiltinAccounts() []Account {
	return []Account{
		{ID: "builtin:bbva", Slug: "bbva", Name: "BBVA", Currency: MXN},
		{ID: "builtin:mercadoPago", Slug: "mercadoPago", Name: "Mercado Pago", Currency: MXN},
		{ID: "builtin:dolarApp", Slug: "dolarApp", Name: "Dolar App", Currency: USD},
		{ID: "builtin:efectivo", Slug: CashAccountSlug, Name: "Efectivo", Currency: MXN},
		{ID: "builtin:edenred", Slug: "edenred", Name: "Edenred", Currency: MXN},
	}
}
