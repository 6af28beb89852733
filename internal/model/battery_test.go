package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() BatterySpec {
	return BatterySpec{
		CapacityKWh:         10,
		PowerLimitKW:        5,
		RoundTripEfficiency: 0.9,
		DischargeHour:       19,
	}
}

func TestBatterySpecValidate(t *testing.T) {
	require.NoError(t, validSpec().Validate())

	cases := []struct {
		name   string
		mutate func(*BatterySpec)
	}{
		{"zero capacity", func(b *BatterySpec) { b.CapacityKWh = 0 }},
		{"negative power", func(b *BatterySpec) { b.PowerLimitKW = -1 }},
		{"zero efficiency", func(b *BatterySpec) { b.RoundTripEfficiency = 0 }},
		{"efficiency above one", func(b *BatterySpec) { b.RoundTripEfficiency = 1.1 }},
		{"discharge hour too large", func(b *BatterySpec) { b.DischargeHour = 24 }},
		{"negative discharge hour", func(b *BatterySpec) { b.DischargeHour = -1 }},
		{"unknown basis", func(b *BatterySpec) { b.DecisionBasis = "oracle" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := validSpec()
			c.mutate(&b)
			assert.Error(t, b.Validate())
		})
	}

	t.Run("perfect efficiency is allowed", func(t *testing.T) {
		b := validSpec()
		b.RoundTripEfficiency = 1
		assert.NoError(t, b.Validate())
	})
}

func TestBatterySpecBasis(t *testing.T) {
	assert.Equal(t, BasisSpot, validSpec().Basis())

	b := validSpec()
	b.DecisionBasis = BasisSpotPlusFees
	assert.Equal(t, BasisSpotPlusFees, b.Basis())
}

func TestCostBlock(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, CostBlock{GridFeeSEKPerKWh: 0.1, EnergyTaxSEKPerKWh: 0.4, VATRate: 0.25}.Validate())
		assert.Error(t, CostBlock{GridFeeSEKPerKWh: -0.1}.Validate())
		assert.Error(t, CostBlock{VATRate: 1.5}.Validate())
	})

	t.Run("effective price", func(t *testing.T) {
		c := CostBlock{GridFeeSEKPerKWh: 0.1, EnergyTaxSEKPerKWh: 0.4, VATRate: 0.25}
		// (1.0 - 0.5) * 1.25
		assert.InDelta(t, 0.625, c.EffectivePrice(1.0), 1e-9)
		// Fees can push a positive spot price negative.
		assert.InDelta(t, -0.25, c.EffectivePrice(0.3), 1e-9)
	})
}

func TestRunOptionsNormalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		var o RunOptions
		require.NoError(t, o.Normalize())
		assert.Equal(t, "Europe/Stockholm", o.Timezone)
		assert.Equal(t, "SEK", o.Currency)
		assert.Equal(t, 11.5, o.FXRate)
		assert.Equal(t, DefaultFloors, o.Floors)
		assert.Equal(t, DefaultSections, o.Sections)
	})

	t.Run("rejects unsorted floors", func(t *testing.T) {
		o := RunOptions{Floors: []float64{0, -0.1}}
		assert.Error(t, o.Normalize())
	})

	t.Run("rejects equal floors", func(t *testing.T) {
		o := RunOptions{Floors: []float64{0, 0}}
		assert.Error(t, o.Normalize())
	})

	t.Run("fee basis battery requires costs", func(t *testing.T) {
		o := RunOptions{
			Batteries: []BatterySpec{{
				CapacityKWh: 10, PowerLimitKW: 5, RoundTripEfficiency: 0.9,
				DischargeHour: 19, DecisionBasis: BasisSpotPlusFees,
			}},
		}
		assert.Error(t, o.Normalize())

		o.Costs = &CostBlock{VATRate: 0.25}
		assert.NoError(t, o.Normalize())
	})

	t.Run("rejects negative retail price", func(t *testing.T) {
		retail := -1.0
		o := RunOptions{RetailPriceSEKPerKWh: &retail}
		assert.Error(t, o.Normalize())
	})
}
