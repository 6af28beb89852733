package engine

import (
	"fmt"
	"math"
	"sort"

	"negprice/internal/model"
)

// DefaultPercentiles are the quantiles reported in the distributions section.
var DefaultPercentiles = []float64{0.05, 0.25, 0.50, 0.75, 0.95}

// DecileBucket summarizes one price-decile bucket.
type DecileBucket struct {
	Decile       int     `json:"decile"`
	PriceLowSEK  float64 `json:"price_low_sek_per_kwh"`
	PriceHighSEK float64 `json:"price_high_sek_per_kwh"`
	Hours        int     `json:"hours"`
	EnergyKWh    float64 `json:"energy_kwh"`
	RevenueSEK   float64 `json:"revenue_sek"`
}

// Distributions holds the distributional statistics of one run.
type Distributions struct {
	PricePercentilesSEK   map[string]float64 `json:"price_percentiles_sek_per_kwh"`
	RevenuePercentilesSEK map[string]float64 `json:"revenue_percentiles_sek"`
	RevenueGini           float64            `json:"revenue_gini"`
	Top10PctRevenueShare  float64            `json:"top_10pct_hours_revenue_share"`
	Worst10HoursLossShare float64            `json:"worst_10_hours_loss_share"`
	PriceDecileBuckets    []DecileBucket     `json:"price_decile_buckets"`
}

// ComputeDistributions derives percentiles, the Gini coefficient, revenue
// concentration and the price-decile buckets. Degenerate input (empty series,
// all-equal values) yields well-defined defaults, never an error.
func ComputeDistributions(tbl *model.Table) *Distributions {
	var prices, producingRevenues []float64
	for _, h := range tbl.Hours {
		if p, ok := h.Price(); ok {
			prices = append(prices, p)
		}
		if rev, ok := h.Revenue(); ok && h.IsProducing {
			producingRevenues = append(producingRevenues, rev)
		}
	}

	d := &Distributions{
		PricePercentilesSEK:   percentileMap(prices, DefaultPercentiles),
		RevenuePercentilesSEK: percentileMap(producingRevenues, DefaultPercentiles),
		RevenueGini:           gini(producingRevenues),
		Top10PctRevenueShare:  topShare(producingRevenues),
		Worst10HoursLossShare: worstLossShare(producingRevenues, 10),
		PriceDecileBuckets:    decileBuckets(tbl),
	}
	return d
}

func percentileMap(values []float64, qs []float64) map[string]float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := make(map[string]float64, len(qs))
	for _, q := range qs {
		out[fmt.Sprintf("p%02d", int(math.Round(q*100)))] = percentileSorted(sorted, q)
	}
	return out
}

// percentileSorted interpolates linearly between order statistics.
// Returns 0 for an empty slice.
func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// gini computes the Gini coefficient over the values after shifting them by
// the minimum so all are >= 0 (hourly revenue can be negative). Returns 0 for
// empty or all-equal input.
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	shifted := append([]float64(nil), values...)
	sort.Float64s(shifted)
	if shifted[0] < 0 {
		min := shifted[0]
		for i := range shifted {
			shifted[i] -= min
		}
	}
	var sum, weighted float64
	for i, v := range shifted {
		sum += v
		weighted += float64(2*(i+1)-n-1) * v
	}
	if sum == 0 {
		return 0
	}
	return weighted / (float64(n) * sum)
}

// topShare returns the share of total revenue contributed by the top 10% of
// producing hours by revenue; the slice is count-based, max(1, n/10) hours.
func topShare(revenues []float64) float64 {
	n := len(revenues)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), revenues...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	k := n / 10
	if k < 1 {
		k = 1
	}
	var top, total float64
	for i, v := range sorted {
		total += v
		if i < k {
			top += v
		}
	}
	if total <= 0 {
		return 0
	}
	return top / total
}

// worstLossShare returns the share of total loss contributed by the worst k
// hours by revenue, counted only among negative-revenue hours.
func worstLossShare(revenues []float64, k int) float64 {
	var losses []float64
	for _, v := range revenues {
		if v < 0 {
			losses = append(losses, v)
		}
	}
	if len(losses) == 0 {
		return 0
	}
	sort.Float64s(losses) // most negative first
	var worst, total float64
	for i, v := range losses {
		total += -v
		if i < k {
			worst += -v
		}
	}
	if total == 0 {
		return 0
	}
	return worst / total
}

func decileBuckets(tbl *model.Table) []DecileBucket {
	edges := tbl.PriceDecileEdges
	if len(edges) < 2 {
		return nil
	}
	buckets := make([]DecileBucket, len(edges)-1)
	for i := range buckets {
		buckets[i] = DecileBucket{
			Decile:       i,
			PriceLowSEK:  edges[i],
			PriceHighSEK: edges[i+1],
		}
	}
	for _, h := range tbl.Hours {
		if h.PriceDecile == nil {
			continue
		}
		b := &buckets[*h.PriceDecile]
		b.Hours++
		b.EnergyKWh += h.ProductionKWh
		if rev, ok := h.Revenue(); ok {
			b.RevenueSEK += rev
		}
	}
	// Only populated buckets are reported.
	out := buckets[:0]
	for _, b := range buckets {
		if b.Hours > 0 {
			out = append(out, b)
		}
	}
	return out
}
