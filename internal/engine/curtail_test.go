package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCurtailment(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	t.Run("lost energy is non-decreasing in the floor", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		n := 200
		production := make([]float64, n)
		prices := make([]*float64, n)
		for i := 0; i < n; i++ {
			production[i] = rng.Float64() * 5
			p := rng.Float64()*2 - 1
			prices[i] = &p
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{-0.5, -0.2, 0, 0.2, 0.5})

		for i := 0; i+1 < len(sweep.Points); i++ {
			assert.LessOrEqual(t, sweep.Points[i].LostEnergyKWh, sweep.Points[i+1].LostEnergyKWh+1e-9)
		}
		for _, c := range sweep.Checks {
			assert.True(t, c.Passed, "check %s failed: diff %g", c.Name, c.Diff)
		}
	})

	t.Run("lost energy at floor zero equals negative-hour production", func(t *testing.T) {
		production := []float64{2, 3, 0, 4, 1}
		v1, v2, v3, v4, v5 := -0.3, 0.2, -0.1, -0.05, 0.4
		prices := []*float64{&v1, &v2, &v3, &v4, &v5}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{-0.2, 0, 0.1})

		var zeroPoint *CurtailmentPoint
		for i := range sweep.Points {
			if sweep.Points[i].FloorSEKPerKWh == 0 {
				zeroPoint = &sweep.Points[i]
			}
		}
		require.NotNil(t, zeroPoint)
		// Hours priced -0.3, -0.1 and -0.05 produce 2 + 0 + 4 kWh.
		assert.InDelta(t, 6.0, zeroPoint.LostEnergyKWh, 1e-6)
	})

	t.Run("unknown prices are never curtailed", func(t *testing.T) {
		v := -0.5
		production := []float64{1, 1}
		prices := []*float64{&v, nil}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{0})

		require.Len(t, sweep.Points, 1)
		assert.InDelta(t, 1.0, sweep.Points[0].LostEnergyKWh, 1e-9)
	})

	t.Run("recommended floor is always a candidate", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		n := 100
		production := make([]float64, n)
		prices := make([]*float64, n)
		for i := 0; i < n; i++ {
			production[i] = rng.Float64() * 3
			p := rng.Float64() - 0.5
			prices[i] = &p
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		floors := []float64{-0.2, -0.1, 0, 0.1}
		sweep := SweepCurtailment(tbl, floors)

		require.NotNil(t, sweep.RecommendedFloor)
		assert.Contains(t, floors, *sweep.RecommendedFloor)
	})

	t.Run("revenue ties go to the lower floor", func(t *testing.T) {
		// A single hour priced -0.3: every floor above it curtails the same
		// hour, so all revenues tie and the lowest floor must win.
		v := -0.3
		production := []float64{1}
		prices := []*float64{&v}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{-0.2, -0.1, 0})

		require.NotNil(t, sweep.RecommendedFloor)
		assert.Equal(t, -0.2, *sweep.RecommendedFloor)
	})

	t.Run("recommended revenue never below baseline", func(t *testing.T) {
		production := []float64{2, 2, 2, 2}
		v1, v2, v3, v4 := -0.4, -0.1, 0.2, 0.5
		prices := []*float64{&v1, &v2, &v3, &v4}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{-0.2, 0, 0.1})

		assert.GreaterOrEqual(t, sweep.RecommendedRevenueSEK, sweep.BaselineRevenueSEK-1e-9)
	})

	t.Run("knee needs a material lost-energy step", func(t *testing.T) {
		// All prices positive: no floor loses energy, so no knee exists.
		production := []float64{1, 1, 1}
		v1, v2, v3 := 0.3, 0.4, 0.5
		prices := []*float64{&v1, &v2, &v3}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		sweep := SweepCurtailment(tbl, []float64{-0.1, 0, 0.1})

		assert.Nil(t, sweep.KneeFloor)
	})
}
