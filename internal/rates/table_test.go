package rates

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	t.Run("default config parses", func(t *testing.T) {
		table, err := NewTable(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, []string{"bicycle", "car", "motorcycle", "van"}, table.VehicleTypes())
		assert.Equal(t, []string{"camp-leadership", "material", "trailer"}, table.SurchargeNames())
		assert.True(t, table.MaxRate().Equal(decimal.RequireFromString("0.50")))
	})

	t.Run("missing max rate", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxRate = ""
		_, err := NewTable(cfg)
		assert.Error(t, err)
	})

	t.Run("no vehicles", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Vehicles = nil
		_, err := NewTable(cfg)
		assert.Error(t, err)
	})

	t.Run("non-decimal rate", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Surcharges["material"] = "cheap"
		_, err := NewTable(cfg)
		assert.Error(t, err)
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Vehicles["car"] = VehicleConfig{BaseRate: "-0.30"}
		_, err := NewTable(cfg)
		assert.Error(t, err)
	})

	t.Run("tier below one passenger", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Vehicles["car"] = VehicleConfig{
			BaseRate: "0.30",
			Tiers:    []TierConfig{{MinPassengers: 0, Rate: "0.35"}},
		}
		_, err := NewTable(cfg)
		assert.Error(t, err)
	})
}

func TestBaseRate(t *testing.T) {
	table, err := NewTable(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name       string
		vehicle    string
		passengers int
		want       string
	}{
		{"car alone", "car", 0, "0.30"},
		{"car below tier", "car", 3, "0.30"},
		{"car at tier threshold", "car", 4, "0.35"},
		{"car above tier threshold", "car", 9, "0.35"},
		{"van below tier", "van", 6, "0.40"},
		{"van at tier threshold", "van", 7, "0.45"},
		{"motorcycle has no tiers", "motorcycle", 1, "0.20"},
		{"bicycle", "bicycle", 0, "0.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := table.BaseRate(tt.vehicle, tt.passengers)
			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", rate, tt.want)
		})
	}

	t.Run("unknown vehicle type", func(t *testing.T) {
		_, err := table.BaseRate("spaceship", 0)
		assert.ErrorIs(t, err, ErrUnknownVehicleType)
	})
}

func TestSurchargeRate(t *testing.T) {
	table, err := NewTable(DefaultConfig())
	require.NoError(t, err)

	rate, err := table.SurchargeRate("trailer")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.05")))

	_, err = table.SurchargeRate("helicopter")
	assert.ErrorIs(t, err, ErrUnknownSurcharge)
}
