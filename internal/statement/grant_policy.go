package statement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GrantPolicy holds the Zuschuss parameters: per-person-per-day rates for
// meal and subsidy days and the minimum share the chapter must fund itself.
type GrantPolicy struct {
	MealRate      decimal.Decimal
	SubsidyRate   decimal.Decimal
	MinLocalShare decimal.Decimal // fraction in [0,1)
}

// GrantConfig is the configuration form of GrantPolicy. Values are decimal
// strings to keep configured rates exact.
type GrantConfig struct {
	MealRate      string `mapstructure:"meal_rate"`
	SubsidyRate   string `mapstructure:"subsidy_rate"`
	MinLocalShare string `mapstructure:"min_local_share"`
}

// NewGrantPolicy parses and validates a grant configuration.
func NewGrantPolicy(cfg GrantConfig) (GrantPolicy, error) {
	mealRate, err := decimal.NewFromString(cfg.MealRate)
	if err != nil {
		return GrantPolicy{}, fmt.Errorf("invalid grant meal rate %q: %w", cfg.MealRate, err)
	}
	subsidyRate, err := decimal.NewFromString(cfg.SubsidyRate)
	if err != nil {
		return GrantPolicy{}, fmt.Errorf("invalid grant subsidy rate %q: %w", cfg.SubsidyRate, err)
	}
	share, err := decimal.NewFromString(cfg.MinLocalShare)
	if err != nil {
		return GrantPolicy{}, fmt.Errorf("invalid minimum local share %q: %w", cfg.MinLocalShare, err)
	}
	if mealRate.IsNegative() || subsidyRate.IsNegative() {
		return GrantPolicy{}, fmt.Errorf("grant rates must not be negative")
	}
	if share.IsNegative() || share.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return GrantPolicy{}, fmt.Errorf("minimum local share must be in [0,1), got %s", cfg.MinLocalShare)
	}
	return GrantPolicy{MealRate: mealRate, SubsidyRate: subsidyRate, MinLocalShare: share}, nil
}

// DefaultGrantConfig returns the chapter's standard grant parameters.
func DefaultGrantConfig() GrantConfig {
	return GrantConfig{
		MealRate:      "5.00",
		SubsidyRate:   "8.00",
		MinLocalShare: "0.10",
	}
}
