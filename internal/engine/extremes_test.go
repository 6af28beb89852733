package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeExtremes(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	// 30 priced, producing hours with strictly increasing revenue.
	n := 30
	production := make([]float64, n)
	prices := make([]*float64, n)
	for i := 0; i < n; i++ {
		production[i] = 1
		p := float64(i-5) / 10 // -0.5 .. 2.4
		prices[i] = &p
	}
	tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
	clusters := DetectClusters(tbl)
	e := ComputeExtremes(tbl, clusters)

	t.Run("worst and best are capped at ten", func(t *testing.T) {
		require.Len(t, e.WorstHours, 10)
		require.Len(t, e.BestHours, 10)
		assert.InDelta(t, -0.5, e.WorstHours[0].RevenueSEK, 1e-9)
		assert.InDelta(t, 2.4, e.BestHours[0].RevenueSEK, 1e-9)
		// Both lists run from most extreme outward.
		assert.Less(t, e.WorstHours[0].RevenueSEK, e.WorstHours[9].RevenueSEK)
		assert.Greater(t, e.BestHours[0].RevenueSEK, e.BestHours[9].RevenueSEK)
	})

	t.Run("longest streak matches the single cluster", func(t *testing.T) {
		require.Len(t, e.Clusters, 1)
		require.NotNil(t, e.LongestNegativeStreak)
		assert.Equal(t, e.Clusters[0].ID, e.LongestNegativeStreak.ClusterID)
		assert.Equal(t, 5, e.LongestNegativeStreak.Hours) // hours priced -0.5..-0.1
	})

	t.Run("archetype picks the modal negative hour", func(t *testing.T) {
		require.NotNil(t, e.WorstHourArchetype)
		a := e.WorstHourArchetype
		assert.Equal(t, 5, a.Occurrences)
		assert.Equal(t, "2025-06", a.Month)
		assert.Less(t, a.AvgPriceSEK, 0.0)
	})
}

func TestComputeExtremesEmpty(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	// No prices at all: nothing to rank, no archetype.
	production := []float64{1, 2}
	prices := make([]*float64, 2)
	tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
	e := ComputeExtremes(tbl, DetectClusters(tbl))

	assert.Empty(t, e.WorstHours)
	assert.Empty(t, e.BestHours)
	assert.Nil(t, e.LongestNegativeStreak)
	assert.Nil(t, e.WorstHourArchetype)
}
