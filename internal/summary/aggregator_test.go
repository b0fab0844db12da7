package summary

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
)

func entry(category models.Category, amount string) *models.ExpenseEntry {
	return &models.ExpenseEntry{
		EventID:     1,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Description: "test entry",
		EntryDate:   time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC),
		Status:      models.EntryStatusSubmitted,
	}
}

func TestAggregate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	aggregator := NewAggregator(logger)

	entries := []*models.ExpenseEntry{
		entry(models.CategoryParticipationFees, "100.00"),
		entry(models.CategoryOtherIncome, "20.00"),
		entry(models.CategoryFood, "500.25"),
		entry(models.CategoryFood, "240.25"),
		entry(models.CategoryTravel, "90.00"),
	}

	sum := aggregator.Aggregate(entries)

	assert.True(t, sum.IncomeTotal.Equal(decimal.RequireFromString("120.00")),
		"income total %s", sum.IncomeTotal)
	assert.True(t, sum.ExpenseTotal.Equal(decimal.RequireFromString("830.50")),
		"expense total %s", sum.ExpenseTotal)
	assert.True(t, sum.Balance.Equal(decimal.RequireFromString("-710.50")),
		"balance %s", sum.Balance)
	assert.True(t, sum.Deficit())

	assert.True(t, sum.CategoryTotal(models.CategoryFood).Equal(decimal.RequireFromString("740.50")))
	assert.Equal(t, 2, sum.EntryCounts[models.CategoryFood])
	assert.Equal(t, 1, sum.EntryCounts[models.CategoryTravel])
	assert.Empty(t, sum.UnknownCategories)

	// Categories without entries total zero
	assert.True(t, sum.CategoryTotal(models.CategoryLodging).IsZero())
}

func TestAggregateEmpty(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	aggregator := NewAggregator(logger)

	sum := aggregator.Aggregate(nil)

	assert.True(t, sum.IncomeTotal.IsZero())
	assert.True(t, sum.ExpenseTotal.IsZero())
	assert.True(t, sum.Balance.IsZero())
	assert.False(t, sum.Deficit())
	assert.Empty(t, sum.UnknownCategories)
}

// The totals must not depend on the order entries arrive in.
func TestAggregateOrderInvariant(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	aggregator := NewAggregator(logger)

	entries := []*models.ExpenseEntry{
		entry(models.CategoryParticipationFees, "1234.56"),
		entry(models.CategoryFood, "0.01"),
		entry(models.CategoryFood, "999.99"),
		entry(models.CategoryTravel, "87.50"),
		entry(models.CategoryMaterials, "12.34"),
		entry(models.CategoryAdvances, "300.00"),
	}

	reference := aggregator.Aggregate(entries)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := make([]*models.ExpenseEntry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		sum := aggregator.Aggregate(shuffled)
		require.True(t, sum.IncomeTotal.Equal(reference.IncomeTotal))
		require.True(t, sum.ExpenseTotal.Equal(reference.ExpenseTotal))
		require.True(t, sum.Balance.Equal(reference.Balance))
	}
}

func TestAggregateUnknownCategories(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	aggregator := NewAggregator(logger)

	entries := []*models.ExpenseEntry{
		entry(models.CategoryFood, "10.00"),
		entry("SNACKS", "5.00"),
		entry("SNACKS", "2.50"),
	}

	sum := aggregator.Aggregate(entries)

	// Unknown categories count as expense and are reported once
	assert.Equal(t, []models.Category{"SNACKS"}, sum.UnknownCategories)
	assert.True(t, sum.ExpenseTotal.Equal(decimal.RequireFromString("17.50")),
		"expense total %s", sum.ExpenseTotal)
}

// Surplus events carry a positive balance and no deficit flag.
func TestAggregateSurplus(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	aggregator := NewAggregator(logger)

	sum := aggregator.Aggregate([]*models.ExpenseEntry{
		entry(models.CategoryParticipationFees, "500.00"),
		entry(models.CategoryFood, "123.45"),
	})

	assert.True(t, sum.Balance.Equal(decimal.RequireFromString("376.55")))
	assert.False(t, sum.Deficit())
}
