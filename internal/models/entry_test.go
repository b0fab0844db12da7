package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validEntry() *ExpenseEntry {
	return &ExpenseEntry{
		EventID:       1,
		Category:      CategoryFood,
		Amount:        decimal.RequireFromString("12.50"),
		Description:   "Lebensmittel",
		EntryDate:     time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC),
		SubmitterName: "Mara Schmitt",
		Status:        EntryStatusSubmitted,
	}
}

func TestExpenseEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ExpenseEntry)
		wantErr bool
	}{
		{
			name:    "valid entry",
			mutate:  func(e *ExpenseEntry) {},
			wantErr: false,
		},
		{
			name:    "unknown category",
			mutate:  func(e *ExpenseEntry) { e.Category = "SNACKS" },
			wantErr: true,
		},
		{
			name:    "zero amount",
			mutate:  func(e *ExpenseEntry) { e.Amount = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "negative amount",
			mutate:  func(e *ExpenseEntry) { e.Amount = decimal.RequireFromString("-5.00") },
			wantErr: true,
		},
		{
			name:    "more than two decimal places",
			mutate:  func(e *ExpenseEntry) { e.Amount = decimal.RequireFromString("1.005") },
			wantErr: true,
		},
		{
			name:    "blank description",
			mutate:  func(e *ExpenseEntry) { e.Description = "   " },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(e *ExpenseEntry) { e.Status = "PENDING" },
			wantErr: true,
		},
		{
			name: "valid mileage details",
			mutate: func(e *ExpenseEntry) {
				e.Category = CategoryTravel
				e.Mileage = &MileageDetails{
					DistanceKm:  decimal.NewFromInt(120),
					VehicleType: "car",
					Passengers:  2,
				}
			},
			wantErr: false,
		},
		{
			name: "mileage distance over ceiling",
			mutate: func(e *ExpenseEntry) {
				e.Mileage = &MileageDetails{
					DistanceKm:  decimal.NewFromInt(10001),
					VehicleType: "car",
				}
			},
			wantErr: true,
		},
		{
			name: "mileage negative passengers",
			mutate: func(e *ExpenseEntry) {
				e.Mileage = &MileageDetails{
					DistanceKm:  decimal.NewFromInt(50),
					VehicleType: "car",
					Passengers:  -1,
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(entry)
			err := entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanTransitionEntry(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"draft to submitted", EntryStatusDraft, EntryStatusSubmitted, true},
		{"submitted to sent", EntryStatusSubmitted, EntryStatusSent, true},
		{"submitted to rejected", EntryStatusSubmitted, EntryStatusRejected, true},
		{"rejected back to submitted", EntryStatusRejected, EntryStatusSubmitted, true},
		{"sent is terminal", EntryStatusSent, EntryStatusSubmitted, false},
		{"draft cannot skip to sent", EntryStatusDraft, EntryStatusSent, false},
		{"no self transition", EntryStatusSubmitted, EntryStatusSubmitted, false},
		{"unknown from status", "PENDING", EntryStatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionEntry(tt.from, tt.to))
		})
	}
}

func TestCategoryKinds(t *testing.T) {
	incomes := []Category{CategoryParticipationFees, CategoryOtherIncome, CategoryAdvances}
	for _, c := range incomes {
		kind, known := c.Kind()
		assert.True(t, known, "category %s", c)
		assert.Equal(t, KindIncome, kind, "category %s", c)
	}

	kind, known := CategoryTravel.Kind()
	assert.True(t, known)
	assert.Equal(t, KindExpense, kind)

	// Unknown categories classify as expense but are flagged
	kind, known = Category("SNACKS").Kind()
	assert.False(t, known)
	assert.Equal(t, KindExpense, kind)

	assert.Len(t, Categories(), 11)
}
