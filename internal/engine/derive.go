// Package engine implements the negative-price analytics engine: a pure,
// synchronous batch computation that turns an aligned hourly
// production/price table into a multi-section analytical report.
package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"negprice/internal/model"
)

// Derive converts the raw aligned input rows into the enriched per-hour
// record set every downstream component consumes. The input slice is never
// mutated; the returned table is owned by the caller.
func Derive(rows []model.InputHour, opts model.RunOptions) (*model.Table, error) {
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", opts.Timezone, err)
	}

	tbl := &model.Table{
		Timezone: opts.Timezone,
		Currency: opts.Currency,
		FXRate:   opts.FXRate,
	}

	hours := make([]model.HourRecord, 0, len(rows))
	for _, r := range rows {
		local := floorHour(r.Timestamp.In(loc), loc)

		prod := r.ProductionKWh
		if math.IsNaN(prod) {
			prod = 0
			tbl.HoursMissingProduction++
		}
		if prod < 0 {
			prod = 0
		}

		h := model.HourRecord{
			TimestampLocal: local,
			TimestampUTC:   local.UTC(),
			ProductionKWh:  prod,
			IsProducing:    prod > 0,
		}

		if r.PriceEURPerMWh != nil && !math.IsNaN(*r.PriceEURPerMWh) {
			eur := *r.PriceEURPerMWh
			sek := eur * opts.FXRate / 1000
			rev := prod * sek
			h.PriceEURPerMWh = &eur
			h.PriceSEKPerKWh = &sek
			h.RevenueSEK = &rev
			h.IsNegativePrice = sek < 0
			h.IsNonpositivePrice = sek <= 0
		} else {
			tbl.HoursMissingPrice++
		}

		hours = append(hours, h)
	}

	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i].TimestampLocal.Before(hours[j].TimestampLocal)
	})

	// Drop duplicate timestamps, keeping the first occurrence.
	deduped := hours[:0]
	for i, h := range hours {
		if i > 0 && h.TimestampLocal.Equal(hours[i-1].TimestampLocal) {
			tbl.DuplicateTimestampsDropped++
			continue
		}
		deduped = append(deduped, h)
	}
	tbl.Hours = deduped

	assignBuckets(tbl)
	return tbl, nil
}

func floorHour(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

// assignBuckets computes the price-decile and production-quintile cuts.
// Bucket assignment degrades to "no bucket" when there are too few distinct
// values to form at least two edges.
func assignBuckets(tbl *model.Table) {
	var prices, prods []float64
	for _, h := range tbl.Hours {
		if p, ok := h.Price(); ok {
			prices = append(prices, p)
		}
		if h.IsProducing {
			prods = append(prods, h.ProductionKWh)
		}
	}
	sort.Float64s(prices)
	sort.Float64s(prods)

	tbl.PriceDecileEdges = quantileEdges(prices, 10)
	tbl.ProductionQuintileEdges = quantileEdges(prods, 5)

	for i := range tbl.Hours {
		h := &tbl.Hours[i]
		if p, ok := h.Price(); ok {
			if b, ok := bucketOf(p, tbl.PriceDecileEdges); ok {
				h.PriceDecile = &b
			}
		}
		if h.IsProducing {
			if b, ok := bucketOf(h.ProductionKWh, tbl.ProductionQuintileEdges); ok {
				h.ProductionQuintile = &b
			}
		}
	}
}

// quantileEdges returns the n+1 quantile cut edges over sorted values, with
// duplicate edges dropped. Returns nil when fewer than two distinct edges
// remain (degenerate input).
func quantileEdges(sorted []float64, n int) []float64 {
	if len(sorted) == 0 || n < 1 {
		return nil
	}
	edges := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		e := percentileSorted(sorted, float64(i)/float64(n))
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) < 2 {
		return nil
	}
	return edges
}

// bucketOf maps a value to its bucket index given ascending cut edges.
// Values at an interior edge fall into the lower bucket, matching a
// right-closed quantile cut.
func bucketOf(v float64, edges []float64) (int, bool) {
	if len(edges) < 2 {
		return 0, false
	}
	if v < edges[0] || v > edges[len(edges)-1] {
		return 0, false
	}
	// Index of the first edge >= v.
	i := sort.SearchFloat64s(edges, v)
	if i == 0 {
		return 0, true
	}
	return i - 1, true
}

func fptr(v float64) *float64 { return &v }
