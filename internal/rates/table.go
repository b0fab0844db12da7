package rates

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Table is the single authoritative lookup for mileage reimbursement rates:
// per-vehicle base rates with optional occupancy tiers, the flat surcharge
// catalog, and the global rate cap. It is built once from configuration and
// read-only afterwards.
type Table struct {
	vehicles   map[string]vehicleRate
	surcharges map[string]decimal.Decimal
	maxRate    decimal.Decimal
}

type vehicleRate struct {
	base  decimal.Decimal
	tiers []occupancyTier // sorted ascending by minPassengers
}

// occupancyTier overrides the base rate once the passenger count reaches
// minPassengers. The occupancy model is discrete tiers; a flat per-passenger
// model can be expressed by enumerating one tier per passenger count in the
// configuration.
type occupancyTier struct {
	minPassengers int
	rate          decimal.Decimal
}

// Config describes the rate table in configuration form. Rates are decimal
// strings so that configured values survive without binary-float drift.
type Config struct {
	MaxRate    string                   `mapstructure:"max_rate"`
	Vehicles   map[string]VehicleConfig `mapstructure:"vehicles"`
	Surcharges map[string]string        `mapstructure:"surcharges"`
}

// VehicleConfig describes one vehicle type's rate model.
type VehicleConfig struct {
	BaseRate string       `mapstructure:"base_rate"`
	Tiers    []TierConfig `mapstructure:"tiers"`
}

// TierConfig describes one occupancy tier of a vehicle type.
type TierConfig struct {
	MinPassengers int    `mapstructure:"min_passengers"`
	Rate          string `mapstructure:"rate"`
}

// NewTable builds a rate table from configuration.
func NewTable(cfg Config) (*Table, error) {
	maxRate, err := parseRate(cfg.MaxRate, "max_rate")
	if err != nil {
		return nil, err
	}
	if len(cfg.Vehicles) == 0 {
		return nil, fmt.Errorf("rate table has no vehicle types")
	}

	t := &Table{
		vehicles:   make(map[string]vehicleRate, len(cfg.Vehicles)),
		surcharges: make(map[string]decimal.Decimal, len(cfg.Surcharges)),
		maxRate:    maxRate,
	}

	for name, vc := range cfg.Vehicles {
		base, err := parseRate(vc.BaseRate, fmt.Sprintf("vehicle %q base rate", name))
		if err != nil {
			return nil, err
		}
		vr := vehicleRate{base: base}
		for _, tc := range vc.Tiers {
			if tc.MinPassengers < 1 {
				return nil, fmt.Errorf("vehicle %q tier min_passengers must be at least 1", name)
			}
			rate, err := parseRate(tc.Rate, fmt.Sprintf("vehicle %q tier rate", name))
			if err != nil {
				return nil, err
			}
			vr.tiers = append(vr.tiers, occupancyTier{minPassengers: tc.MinPassengers, rate: rate})
		}
		sort.Slice(vr.tiers, func(i, j int) bool {
			return vr.tiers[i].minPassengers < vr.tiers[j].minPassengers
		})
		t.vehicles[name] = vr
	}

	for name, raw := range cfg.Surcharges {
		rate, err := parseRate(raw, fmt.Sprintf("surcharge %q rate", name))
		if err != nil {
			return nil, err
		}
		t.surcharges[name] = rate
	}

	return t, nil
}

// DefaultConfig returns the chapter's standard rate table. It is used when
// the configuration file carries no rates section and by the tests.
func DefaultConfig() Config {
	return Config{
		MaxRate: "0.50",
		Vehicles: map[string]VehicleConfig{
			"car": {
				BaseRate: "0.30",
				Tiers:    []TierConfig{{MinPassengers: 4, Rate: "0.35"}},
			},
			"van": {
				BaseRate: "0.40",
				Tiers:    []TierConfig{{MinPassengers: 7, Rate: "0.45"}},
			},
			"motorcycle": {BaseRate: "0.20"},
			"bicycle":    {BaseRate: "0.10"},
		},
		Surcharges: map[string]string{
			"camp-leadership": "0.05",
			"material":        "0.05",
			"trailer":         "0.05",
		},
	}
}

// BaseRate resolves the per-kilometre rate for a vehicle type at the given
// passenger count. The highest tier whose minimum is reached wins; with no
// matching tier the base rate applies.
func (t *Table) BaseRate(vehicleType string, passengers int) (decimal.Decimal, error) {
	vr, ok := t.vehicles[vehicleType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownVehicleType, vehicleType)
	}
	rate := vr.base
	for _, tier := range vr.tiers {
		if passengers >= tier.minPassengers {
			rate = tier.rate
		}
	}
	return rate, nil
}

// SurchargeRate resolves a named flat per-kilometre surcharge.
func (t *Table) SurchargeRate(name string) (decimal.Decimal, error) {
	rate, ok := t.surcharges[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownSurcharge, name)
	}
	return rate, nil
}

// MaxRate returns the global effective-rate cap.
func (t *Table) MaxRate() decimal.Decimal {
	return t.maxRate
}

// VehicleTypes returns the known vehicle type names in sorted order.
func (t *Table) VehicleTypes() []string {
	names := make([]string, 0, len(t.vehicles))
	for name := range t.vehicles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SurchargeNames returns the known surcharge names in sorted order.
func (t *Table) SurchargeNames() []string {
	names := make([]string, 0, len(t.surcharges))
	for name := range t.surcharges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseRate(raw, what string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%s is required", what)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", what, raw)
	}
	return rate, nil
}
