package statement

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
)

// Statement is the composed, exportable document for one event: cover
// section, one section per catalog category, and an optional grant
// eligibility section.
type Statement struct {
	Event    *models.Event
	Summary  *summary.CategorySummary
	Cover    CoverSection
	Sections []CategorySection
	Grant    *GrantSection
}

// CoverSection summarizes the event: income and expense breakdowns by
// category, grand totals, balance, and (on a deficit) the account
// reimbursement should be sent to.
type CoverSection struct {
	IncomeLines       []TotalLine
	ExpenseLines      []TotalLine
	IncomeTotal       decimal.Decimal
	ExpenseTotal      decimal.Decimal
	Balance           decimal.Decimal
	Deficit           bool
	ReimbursementIBAN string // set only when Deficit
}

// TotalLine is one category total on the cover section.
type TotalLine struct {
	Category models.Category
	Label    string
	Amount   decimal.Decimal
}

// CategorySection lists the entries of one category with its subtotal.
// Categories without entries are rendered with an explicit empty marker
// rather than omitted.
type CategorySection struct {
	Category models.Category
	Label    string
	Kind     models.CategoryKind
	Rows     []EntryRow
	Subtotal decimal.Decimal
	Empty    bool
}

// EntryRow is one itemized line of a category section.
type EntryRow struct {
	Date        time.Time
	Name        string
	Description string
	Amount      decimal.Decimal
}

// GrantSection reports the Zuschuss eligibility derivation: the smaller of
// the day-based cap and the local-share cap, and the balance after the
// expected grant.
type GrantSection struct {
	MealDays         int
	SubsidyDays      int
	DayCap           decimal.Decimal
	LocalShareCap    decimal.Decimal
	ExpectedGrant    decimal.Decimal
	BalanceWithGrant decimal.Decimal
}

// Composer builds statements from an event, its entries, and the aggregated
// summary.
type Composer struct {
	grant  GrantPolicy
	logger *zap.Logger
}

// NewComposer creates a new Composer with the given grant policy.
func NewComposer(grant GrantPolicy, logger *zap.Logger) *Composer {
	return &Composer{grant: grant, logger: logger}
}

// Compose builds the ordered statement for one event.
//
// Every catalog category gets a section; sections without entries carry the
// empty marker. The sole exception is a fully empty entry list, which yields
// the cover section only. Entries are sorted by date ascending, ties broken
// by submitter name. The composed totals are verified against the aggregated
// summary before the statement is returned.
func (c *Composer) Compose(event *models.Event, entries []*models.ExpenseEntry, sum *summary.CategorySummary) (*Statement, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: event is required", models.ErrInvalidInput)
	}
	if sum == nil {
		return nil, fmt.Errorf("%w: category summary is required", models.ErrInvalidInput)
	}
	if len(sum.UnknownCategories) > 0 {
		return nil, fmt.Errorf("%w: entries carry unknown categories %v",
			models.ErrInvalidInput, sum.UnknownCategories)
	}

	st := &Statement{Event: event, Summary: sum}
	st.Cover = c.buildCover(event, sum)
	if len(entries) > 0 {
		st.Sections = c.buildSections(entries, sum)
	}
	if event.HasGrantData() {
		grant := c.buildGrant(event, sum)
		st.Grant = &grant
	}

	if err := c.verify(st, sum); err != nil {
		c.logger.Error("Composed statement failed consistency check",
			zap.Int64("event_id", event.ID),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("Statement composed",
		zap.Int64("event_id", event.ID),
		zap.Int("section_count", len(st.Sections)),
		zap.Bool("grant_section", st.Grant != nil),
		zap.String("balance", sum.Balance.StringFixed(2)))

	return st, nil
}

func (c *Composer) buildCover(event *models.Event, sum *summary.CategorySummary) CoverSection {
	cover := CoverSection{
		IncomeTotal:  sum.IncomeTotal,
		ExpenseTotal: sum.ExpenseTotal,
		Balance:      sum.Balance,
		Deficit:      sum.Deficit(),
	}
	for _, category := range models.Categories() {
		line := TotalLine{
			Category: category,
			Label:    category.Label(),
			Amount:   sum.CategoryTotal(category),
		}
		if kind, _ := category.Kind(); kind == models.KindIncome {
			cover.IncomeLines = append(cover.IncomeLines, line)
		} else {
			cover.ExpenseLines = append(cover.ExpenseLines, line)
		}
	}
	if cover.Deficit {
		cover.ReimbursementIBAN = event.IBAN
	}
	return cover
}

func (c *Composer) buildSections(entries []*models.ExpenseEntry, sum *summary.CategorySummary) []CategorySection {
	byCategory := make(map[models.Category][]*models.ExpenseEntry)
	for _, entry := range entries {
		byCategory[entry.Category] = append(byCategory[entry.Category], entry)
	}

	sections := make([]CategorySection, 0, len(models.Categories()))
	for _, category := range models.Categories() {
		kind, _ := category.Kind()
		section := CategorySection{
			Category: category,
			Label:    category.Label(),
			Kind:     kind,
			Subtotal: decimal.Zero,
		}

		categoryEntries := byCategory[category]
		if len(categoryEntries) == 0 {
			section.Empty = true
			sections = append(sections, section)
			continue
		}

		sort.SliceStable(categoryEntries, func(i, j int) bool {
			if !categoryEntries[i].EntryDate.Equal(categoryEntries[j].EntryDate) {
				return categoryEntries[i].EntryDate.Before(categoryEntries[j].EntryDate)
			}
			return categoryEntries[i].SubmitterName < categoryEntries[j].SubmitterName
		})

		for _, entry := range categoryEntries {
			section.Rows = append(section.Rows, EntryRow{
				Date:        entry.EntryDate,
				Name:        entry.SubmitterName,
				Description: entry.Description,
				Amount:      entry.Amount,
			})
			section.Subtotal = section.Subtotal.Add(entry.Amount)
		}
		sections = append(sections, section)
	}
	return sections
}

func (c *Composer) buildGrant(event *models.Event, sum *summary.CategorySummary) GrantSection {
	dayCap := c.grant.MealRate.Mul(decimal.NewFromInt(int64(event.MealDays))).
		Add(c.grant.SubsidyRate.Mul(decimal.NewFromInt(int64(event.SubsidyDays))))
	localShareCap := sum.ExpenseTotal.Mul(decimal.NewFromInt(1).Sub(c.grant.MinLocalShare)).Round(2)

	expected := dayCap
	if localShareCap.LessThan(expected) {
		expected = localShareCap
	}

	return GrantSection{
		MealDays:         event.MealDays,
		SubsidyDays:      event.SubsidyDays,
		DayCap:           dayCap,
		LocalShareCap:    localShareCap,
		ExpectedGrant:    expected,
		BalanceWithGrant: sum.Balance.Add(expected),
	}
}

// verify asserts the internal consistency of the composed statement: every
// section subtotal must equal the aggregator's total for that category, and
// the per-side section sums must equal the cover grand totals.
func (c *Composer) verify(st *Statement, sum *summary.CategorySummary) error {
	incomeSum := decimal.Zero
	expenseSum := decimal.Zero
	for _, section := range st.Sections {
		if !section.Subtotal.Equal(sum.CategoryTotal(section.Category)) {
			return fmt.Errorf("%w: section %s subtotal %s != aggregated total %s",
				ErrInconsistentTotals, section.Category,
				section.Subtotal.StringFixed(2),
				sum.CategoryTotal(section.Category).StringFixed(2))
		}
		if section.Kind == models.KindIncome {
			incomeSum = incomeSum.Add(section.Subtotal)
		} else {
			expenseSum = expenseSum.Add(section.Subtotal)
		}
	}
	if len(st.Sections) > 0 {
		if !incomeSum.Equal(sum.IncomeTotal) {
			return fmt.Errorf("%w: income section sum %s != income total %s",
				ErrInconsistentTotals, incomeSum.StringFixed(2), sum.IncomeTotal.StringFixed(2))
		}
		if !expenseSum.Equal(sum.ExpenseTotal) {
			return fmt.Errorf("%w: expense section sum %s != expense total %s",
				ErrInconsistentTotals, expenseSum.StringFixed(2), sum.ExpenseTotal.StringFixed(2))
		}
	}
	return nil
}
