package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negprice/internal/model"
)

func TestDetectClusters(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	neg := -0.5
	pos := 0.1

	t.Run("one contiguous run becomes one cluster", func(t *testing.T) {
		// Negative prices on hours 10..12 while producing.
		production := make([]float64, 24)
		prices := make([]*float64, 24)
		for i := range production {
			production[i] = 1
			p := pos
			if i >= 10 && i <= 12 {
				p = neg
			}
			v := p
			prices[i] = &v
		}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		clusters := DetectClusters(tbl)

		require.Len(t, clusters, 1)
		c := clusters[0]
		assert.Equal(t, "neg-2025-06-16-10to12", c.ID)
		assert.Equal(t, 3, c.Hours)
		assert.InDelta(t, 3.0, c.EnergyKWh, 1e-9)
		assert.InDelta(t, 1.5, c.CostSEK, 1e-9)
		assert.InDelta(t, -0.5, c.MinPriceSEK, 1e-9)

		for i, h := range tbl.Hours {
			if i >= 10 && i <= 12 {
				require.NotNil(t, h.ClusterID)
				assert.Equal(t, c.ID, *h.ClusterID)
			} else {
				assert.Nil(t, h.ClusterID)
			}
		}
	})

	t.Run("negative price without production is no cluster", func(t *testing.T) {
		production := []float64{0, 0, 0}
		v1, v2, v3 := neg, neg, neg
		prices := []*float64{&v1, &v2, &v3}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())

		assert.Empty(t, DetectClusters(tbl))
	})

	t.Run("run at the end of the series closes", func(t *testing.T) {
		production := []float64{1, 1, 1}
		v1, v2, v3 := pos, neg, neg
		prices := []*float64{&v1, &v2, &v3}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		clusters := DetectClusters(tbl)

		require.Len(t, clusters, 1)
		assert.Equal(t, 2, clusters[0].Hours)
	})

	t.Run("gap splits runs", func(t *testing.T) {
		production := []float64{1, 1, 1, 1, 1}
		v1, v2, v3, v4, v5 := neg, pos, neg, neg, pos
		prices := []*float64{&v1, &v2, &v3, &v4, &v5}
		tbl := mustDerive(t, rowsFromSEK(start, production, prices), sekOpts())
		clusters := DetectClusters(tbl)

		require.Len(t, clusters, 2)
		assert.Equal(t, 1, clusters[0].Hours)
		assert.Equal(t, 2, clusters[1].Hours)
	})
}

func TestLongestCluster(t *testing.T) {
	t.Run("empty yields nil", func(t *testing.T) {
		assert.Nil(t, LongestCluster(nil))
	})

	t.Run("ties go to the first occurrence", func(t *testing.T) {
		clusters := []model.Cluster{
			{ID: "a", Hours: 3},
			{ID: "b", Hours: 3},
			{ID: "c", Hours: 2},
		}
		longest := LongestCluster(clusters)
		require.NotNil(t, longest)
		assert.Equal(t, "a", longest.ID)
	})
}
