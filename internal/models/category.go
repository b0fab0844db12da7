package models

// Category is a fixed classification bucket for expense entries.
// The catalog is closed: entries carrying a category outside this set are
// rejected at validation time.
type Category string

// Category constants
const (
	CategoryParticipationFees Category = "PARTICIPATION_FEES" // Teilnahmebeiträge
	CategoryOtherIncome       Category = "OTHER_INCOME"       // Sonstige Einnahmen
	CategoryAdvances          Category = "ADVANCES"           // Vorschüsse
	CategoryTravel            Category = "TRAVEL"             // Fahrtkosten
	CategoryLodging           Category = "LODGING"            // Unterkunft
	CategoryFood              Category = "FOOD"               // Verpflegung
	CategoryMaterials         Category = "MATERIALS"          // Material
	CategoryPostage           Category = "POSTAGE"            // Porto
	CategoryTelecom           Category = "TELECOM"            // Telekommunikation
	CategoryOtherExpense      Category = "OTHER_EXPENSE"      // Sonstige Ausgaben
	CategoryOpenLiabilities   Category = "OPEN_LIABILITIES"   // Offene Verbindlichkeiten
)

// CategoryKind partitions the catalog into income and expense sides.
type CategoryKind string

const (
	KindIncome  CategoryKind = "INCOME"
	KindExpense CategoryKind = "EXPENSE"
)

// categoryCatalog is the single authoritative catalog, in statement order.
// The income/expense classification is carried by the category itself and is
// never re-derived elsewhere.
var categoryCatalog = []struct {
	category Category
	kind     CategoryKind
	label    string
}{
	{CategoryParticipationFees, KindIncome, "Teilnahmebeiträge"},
	{CategoryOtherIncome, KindIncome, "Sonstige Einnahmen"},
	{CategoryAdvances, KindIncome, "Vorschüsse"},
	{CategoryTravel, KindExpense, "Fahrtkosten"},
	{CategoryLodging, KindExpense, "Unterkunft"},
	{CategoryFood, KindExpense, "Verpflegung"},
	{CategoryMaterials, KindExpense, "Material"},
	{CategoryPostage, KindExpense, "Porto"},
	{CategoryTelecom, KindExpense, "Telekommunikation"},
	{CategoryOtherExpense, KindExpense, "Sonstige Ausgaben"},
	{CategoryOpenLiabilities, KindExpense, "Offene Verbindlichkeiten"},
}

// Categories returns the full catalog in stable statement order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryCatalog))
	for _, c := range categoryCatalog {
		out = append(out, c.category)
	}
	return out
}

// Known reports whether the category is part of the fixed catalog.
func (c Category) Known() bool {
	for _, entry := range categoryCatalog {
		if entry.category == c {
			return true
		}
	}
	return false
}

// Kind returns the income/expense classification of the category.
// Unknown categories classify as expense; the second return value reports
// whether the category is part of the catalog so callers can validate.
func (c Category) Kind() (CategoryKind, bool) {
	for _, entry := range categoryCatalog {
		if entry.category == c {
			return entry.kind, true
		}
	}
	return KindExpense, false
}

// Label returns the German display name used on the statement.
func (c Category) Label() string {
	for _, entry := range categoryCatalog {
		if entry.category == c {
			return entry.label
		}
	}
	return string(c)
}
