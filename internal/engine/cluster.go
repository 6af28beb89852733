package engine

import (
	"fmt"
	"math"

	"negprice/internal/model"
)

// DetectClusters run-length-encodes the maximal contiguous runs of
// "producing while price is negative" into named clusters, and stamps each
// member hour with its cluster id. The scan is a single linear pass that
// first collects (start, end) index pairs, then maps pairs to clusters.
func DetectClusters(tbl *model.Table) []model.Cluster {
	type span struct{ start, end int } // inclusive indexes into tbl.Hours

	var spans []span
	runStart := -1
	for i, h := range tbl.Hours {
		active := h.IsProducing && h.IsNegativePrice
		switch {
		case active && runStart < 0:
			runStart = i
		case !active && runStart >= 0:
			spans = append(spans, span{runStart, i - 1})
			runStart = -1
		}
	}
	if runStart >= 0 {
		spans = append(spans, span{runStart, len(tbl.Hours) - 1})
	}

	clusters := make([]model.Cluster, 0, len(spans))
	for _, s := range spans {
		first := tbl.Hours[s.start]
		last := tbl.Hours[s.end]
		c := model.Cluster{
			ID: fmt.Sprintf("neg-%s-%dto%d",
				first.TimestampLocal.Format("2006-01-02"),
				first.TimestampLocal.Hour(),
				last.TimestampLocal.Hour()),
			StartLocal:  first.TimestampLocal,
			EndLocal:    last.TimestampLocal,
			Hours:       s.end - s.start + 1,
			MinPriceSEK: math.Inf(1),
		}
		for i := s.start; i <= s.end; i++ {
			h := &tbl.Hours[i]
			id := c.ID
			h.ClusterID = &id
			c.EnergyKWh += h.ProductionKWh
			if rev, ok := h.Revenue(); ok && rev < 0 {
				c.CostSEK += -rev
			}
			if p, ok := h.Price(); ok && p < c.MinPriceSEK {
				c.MinPriceSEK = p
			}
		}
		clusters = append(clusters, c)
	}
	return clusters
}

// LongestCluster returns the longest negative-during-production run, or nil
// when no such run exists. Ties go to the first-occurring run.
func LongestCluster(clusters []model.Cluster) *model.Cluster {
	var best *model.Cluster
	for i := range clusters {
		if best == nil || clusters[i].Hours > best.Hours {
			best = &clusters[i]
		}
	}
	return best
}
