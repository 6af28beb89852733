package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negprice/internal/model"
)

// oneDayWithNegativeMidday builds 24 hours where hours 11 and 12 produce
// 4 kWh each at -0.1 SEK/kWh and the evening target hour is priced 0.5.
func oneDayWithNegativeMidday(t *testing.T) *model.Table {
	t.Helper()
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	production := make([]float64, 24)
	prices := make([]*float64, 24)
	for i := 0; i < 24; i++ {
		p := 0.2
		switch {
		case i == 11 || i == 12:
			production[i] = 4
			p = -0.1
		case i == 19:
			p = 0.5
		}
		v := p
		prices[i] = &v
	}
	return mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
}

func TestSimulateBatteries(t *testing.T) {
	spec := model.BatterySpec{
		CapacityKWh:         10,
		PowerLimitKW:        5,
		RoundTripEfficiency: 0.9,
		DischargeHour:       19,
	}

	t.Run("charge, deliver and incremental revenue", func(t *testing.T) {
		tbl := oneDayWithNegativeMidday(t)
		shift := SimulateBatteries(tbl, []model.BatterySpec{spec}, nil)

		require.Len(t, shift.Scenarios, 1)
		sc := shift.Scenarios[0]

		assert.InDelta(t, 8.0, sc.TotalChargedKWh, 1e-9)
		assert.InDelta(t, 7.2, sc.EnergyShiftedKWh, 1e-9)
		assert.InDelta(t, 0.8, sc.RoundTripLossKWh, 1e-9)
		// 7.2 kWh at 0.5 minus the forgone -0.1 * 8 = 3.6 + 0.8
		assert.InDelta(t, 4.4, sc.IncrementalRevenueSEK, 1e-9)
		assert.Equal(t, 1, sc.DaysSimulated)
		assert.Equal(t, 1, sc.DaysActive)
		assert.True(t, sc.Check.Passed)
	})

	t.Run("losses always balance charged minus delivered", func(t *testing.T) {
		tbl := oneDayWithNegativeMidday(t)
		specs := []model.BatterySpec{
			spec,
			{CapacityKWh: 3, PowerLimitKW: 2, RoundTripEfficiency: 0.8, DischargeHour: 19},
			{CapacityKWh: 50, PowerLimitKW: 10, RoundTripEfficiency: 1.0, DischargeHour: 19},
		}
		shift := SimulateBatteries(tbl, specs, nil)

		for _, sc := range shift.Scenarios {
			assert.InDelta(t, sc.TotalChargedKWh-sc.EnergyShiftedKWh, sc.RoundTripLossKWh, 1e-6)
			assert.True(t, sc.Check.Passed, "loss check failed for %g kWh", sc.CapacityKWh)
		}
	})

	t.Run("capacity caps the charge", func(t *testing.T) {
		tbl := oneDayWithNegativeMidday(t)
		small := model.BatterySpec{CapacityKWh: 3, PowerLimitKW: 5, RoundTripEfficiency: 0.9, DischargeHour: 19}
		shift := SimulateBatteries(tbl, []model.BatterySpec{small}, nil)

		sc := shift.Scenarios[0]
		assert.InDelta(t, 3.0, sc.TotalChargedKWh, 1e-9)
	})

	t.Run("power limit caps the hourly charge", func(t *testing.T) {
		tbl := oneDayWithNegativeMidday(t)
		slow := model.BatterySpec{CapacityKWh: 10, PowerLimitKW: 2, RoundTripEfficiency: 0.9, DischargeHour: 19}
		shift := SimulateBatteries(tbl, []model.BatterySpec{slow}, nil)

		// 2 kWh per negative hour, two hours.
		sc := shift.Scenarios[0]
		assert.InDelta(t, 4.0, sc.TotalChargedKWh, 1e-9)
	})

	t.Run("no negative hours means an idle battery", func(t *testing.T) {
		loc := stockholm(t)
		start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
		production := make([]float64, 24)
		prices := make([]*float64, 24)
		for i := range production {
			production[i] = 2
			p := 0.3
			prices[i] = &p
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		shift := SimulateBatteries(tbl, []model.BatterySpec{spec}, nil)

		sc := shift.Scenarios[0]
		assert.Equal(t, 0.0, sc.TotalChargedKWh)
		assert.Equal(t, 0.0, sc.IncrementalRevenueSEK)
		assert.Equal(t, 0, sc.DaysActive)
	})

	t.Run("spot_plus_fees basis charges when the effective price is negative", func(t *testing.T) {
		loc := stockholm(t)
		start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
		// Spot 0.05 is positive, but fees push the effective price below zero.
		production := make([]float64, 24)
		prices := make([]*float64, 24)
		for i := range production {
			p := 0.4
			if i == 12 {
				production[i] = 3
				p = 0.05
			}
			v := p
			prices[i] = &v
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())

		costs := &model.CostBlock{GridFeeSEKPerKWh: 0.1, VATRate: 0.25}
		feeSpec := spec
		feeSpec.DecisionBasis = model.BasisSpotPlusFees

		withFees := SimulateBatteries(tbl, []model.BatterySpec{feeSpec}, costs)
		assert.InDelta(t, 3.0, withFees.Scenarios[0].TotalChargedKWh, 1e-9)

		spotOnly := SimulateBatteries(tbl, []model.BatterySpec{spec}, costs)
		assert.Equal(t, 0.0, spotOnly.Scenarios[0].TotalChargedKWh)
	})

	t.Run("state does not carry across days", func(t *testing.T) {
		loc := stockholm(t)
		start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
		// Day one charges but has no priced target hour; day two is clean.
		production := make([]float64, 48)
		prices := make([]*float64, 48)
		for i := 0; i < 48; i++ {
			p := 0.2
			switch {
			case i == 12:
				production[i] = 4
				p = -0.1
			case i == 19:
				// Day-one target hour has no published price.
				prices[i] = nil
				continue
			case i == 43: // hour 19 of day two
				p = 0.5
			}
			v := p
			prices[i] = &v
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		shift := SimulateBatteries(tbl, []model.BatterySpec{spec}, nil)

		sc := shift.Scenarios[0]
		// Day one's 4 kWh charge is stranded: nothing delivered, all loss.
		assert.InDelta(t, 4.0, sc.TotalChargedKWh, 1e-9)
		assert.Equal(t, 0.0, sc.EnergyShiftedKWh)
		assert.InDelta(t, 4.0, sc.RoundTripLossKWh, 1e-9)
		assert.Equal(t, 0, sc.DaysActive)
		assert.True(t, sc.Check.Passed)
	})
}

func TestSplitDays(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 22, 0, 0, 0, loc)

	production := []float64{1, 1, 1, 1}
	prices := make([]*float64, 4)
	tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())

	days := splitDays(tbl)
	require.Len(t, days, 2)
	assert.Len(t, days[0], 2) // 22:00, 23:00
	assert.Len(t, days[1], 2) // 00:00, 01:00
}
