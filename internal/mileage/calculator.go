package mileage

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
)

// Calculator computes mileage reimbursement amounts from the rate table.
// Calculation is pure and deterministic: same inputs always produce the same
// output, with no side effects.
type Calculator struct {
	table *rates.Table
}

// NewCalculator creates a calculator backed by the given rate table.
func NewCalculator(table *rates.Table) *Calculator {
	return &Calculator{table: table}
}

// Input carries the parameters of one mileage calculation.
type Input struct {
	DistanceKm  decimal.Decimal
	VehicleType string
	Passengers  int
	Surcharges  []string
}

// Result carries the computed amount together with the resolved rates for
// display and audit.
type Result struct {
	Amount        decimal.Decimal `json:"amount"`
	BaseRate      decimal.Decimal `json:"base_rate"`
	SurchargeRate decimal.Decimal `json:"surcharge_rate"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	Capped        bool            `json:"capped"`
}

// Calculate resolves the effective per-kilometre rate and the reimbursement
// amount for the given input.
//
// The effective rate is the occupancy-resolved base rate plus the sum of all
// requested flat surcharges, capped at the table's maximum rate. The amount
// is distance times effective rate, rounded half-up to two decimal places.
func (c *Calculator) Calculate(in Input) (*Result, error) {
	if !in.DistanceKm.IsPositive() {
		return nil, fmt.Errorf("%w: distance must be positive, got %s",
			models.ErrInvalidInput, in.DistanceKm.String())
	}
	if in.DistanceKm.GreaterThan(models.MaxDistanceKm) {
		return nil, fmt.Errorf("%w: distance %s km exceeds single-trip ceiling of %s km",
			models.ErrInvalidInput, in.DistanceKm.String(), models.MaxDistanceKm.String())
	}
	if in.Passengers < 0 {
		return nil, fmt.Errorf("%w: passenger count must not be negative", models.ErrInvalidInput)
	}

	baseRate, err := c.table.BaseRate(in.VehicleType, in.Passengers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}

	// Surcharges are a set: a surcharge requested twice counts once.
	surchargeSum := decimal.Zero
	seen := make(map[string]bool, len(in.Surcharges))
	for _, name := range in.Surcharges {
		if seen[name] {
			continue
		}
		seen[name] = true
		rate, err := c.table.SurchargeRate(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		}
		surchargeSum = surchargeSum.Add(rate)
	}

	effective := baseRate.Add(surchargeSum)
	capped := false
	if effective.GreaterThan(c.table.MaxRate()) {
		effective = c.table.MaxRate()
		capped = true
	}

	return &Result{
		Amount:        in.DistanceKm.Mul(effective).Round(2),
		BaseRate:      baseRate,
		SurchargeRate: surchargeSum,
		EffectiveRate: effective,
		Capped:        capped,
	}, nil
}

// CalculateEntry computes the amount for a mileage-based expense entry.
func (c *Calculator) CalculateEntry(details *models.MileageDetails) (*Result, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: entry carries no mileage details", models.ErrInvalidInput)
	}
	return c.Calculate(Input{
		DistanceKm:  details.DistanceKm,
		VehicleType: details.VehicleType,
		Passengers:  details.Passengers,
		Surcharges:  details.Surcharges,
	})
}
