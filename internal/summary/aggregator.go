package summary

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
)

// CategorySummary is the derived per-event financial summary. It is
// recomputed on demand from the current entry set and never cached across
// mutations.
type CategorySummary struct {
	PerCategory  map[models.Category]decimal.Decimal `json:"per_category"`
	EntryCounts  map[models.Category]int             `json:"entry_counts"`
	IncomeTotal  decimal.Decimal                     `json:"income_total"`
	ExpenseTotal decimal.Decimal                     `json:"expense_total"`
	Balance      decimal.Decimal                     `json:"balance"` // income minus expense

	// UnknownCategories lists categories encountered outside the fixed
	// catalog, for validation by the caller. Their amounts count as expense.
	UnknownCategories []models.Category `json:"unknown_categories,omitempty"`
}

// Deficit reports whether the event spent more than it took in. A deficit
// statement shows the bank details reimbursement should be sent to.
func (s *CategorySummary) Deficit() bool {
	return s.Balance.IsNegative()
}

// CategoryTotal returns the accumulated amount for one category.
func (s *CategorySummary) CategoryTotal(c models.Category) decimal.Decimal {
	if total, ok := s.PerCategory[c]; ok {
		return total
	}
	return decimal.Zero
}

// Aggregator groups expense entries by category and computes totals.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate builds the CategorySummary for one event's entries.
//
// Accumulation uses exact decimal arithmetic, so the result is invariant
// under permutation of the input. An empty entry collection yields an
// all-zero summary, not an error. Callers must not mutate the slice while
// aggregation runs.
func (a *Aggregator) Aggregate(entries []*models.ExpenseEntry) *CategorySummary {
	s := &CategorySummary{
		PerCategory:  make(map[models.Category]decimal.Decimal),
		EntryCounts:  make(map[models.Category]int),
		IncomeTotal:  decimal.Zero,
		ExpenseTotal: decimal.Zero,
		Balance:      decimal.Zero,
	}

	unknown := make(map[models.Category]bool)
	for _, entry := range entries {
		s.PerCategory[entry.Category] = s.CategoryTotal(entry.Category).Add(entry.Amount)
		s.EntryCounts[entry.Category]++

		kind, known := entry.Category.Kind()
		if !known {
			unknown[entry.Category] = true
		}
		if kind == models.KindIncome {
			s.IncomeTotal = s.IncomeTotal.Add(entry.Amount)
		} else {
			s.ExpenseTotal = s.ExpenseTotal.Add(entry.Amount)
		}
	}
	s.Balance = s.IncomeTotal.Sub(s.ExpenseTotal)

	for c := range unknown {
		s.UnknownCategories = append(s.UnknownCategories, c)
	}
	sort.Slice(s.UnknownCategories, func(i, j int) bool {
		return s.UnknownCategories[i] < s.UnknownCategories[j]
	})

	a.logger.Debug("Aggregated entries",
		zap.Int("entry_count", len(entries)),
		zap.String("income_total", s.IncomeTotal.StringFixed(2)),
		zap.String("expense_total", s.ExpenseTotal.StringFixed(2)),
		zap.String("balance", s.Balance.StringFixed(2)),
		zap.Int("unknown_categories", len(s.UnknownCategories)))

	return s
}
