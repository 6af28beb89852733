package engine

import (
	"math"

	"negprice/internal/model"
)

// InvariantResult is one advisory cross-check: a failure is recorded with its
// discrepancy and surfaced in diagnostics, never raised as an error.
type InvariantResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Diff      float64 `json:"diff"`
	Tolerance float64 `json:"tolerance"`
}

func check(name string, expected, actual, tol float64) InvariantResult {
	diff := math.Abs(expected - actual)
	return InvariantResult{
		Name:      name,
		Passed:    diff <= tol,
		Expected:  expected,
		Actual:    actual,
		Diff:      diff,
		Tolerance: tol,
	}
}

// CheckInvariants independently recomputes key payload numbers from the raw
// feature table and compares them against the assembled sections. It is
// decoupled from assembly on purpose: any payload built from the same table
// can be validated the same way. Sections absent from the payload are
// skipped, not failed.
func CheckInvariants(p *ReportPayload, tbl *model.Table) []InvariantResult {
	var out []InvariantResult

	// Ground truth straight from the raw flags.
	var production, revenue, negValue, weightedDen, priceSum float64
	var pricedHours int
	for _, h := range tbl.Hours {
		production += h.ProductionKWh
		price, ok := h.Price()
		if !ok {
			continue
		}
		pricedHours++
		priceSum += price
		weightedDen += h.ProductionKWh
		rev := h.ProductionKWh * price
		revenue += rev
		if rev < 0 {
			negValue += -rev
		}
	}

	if p.Hero != nil {
		out = append(out,
			check("hero_production_matches_table", production, p.Hero.ProductionKWh, 1e-6),
			check("hero_negative_value_recomputed_from_flags", negValue, p.Hero.NegativeValueSEK, 1e-6),
			check("hero_export_value_matches_table", revenue, p.Hero.ExportValueSEK, 1e-6),
		)
		if pricedHours > 0 && weightedDen > 0 {
			avg := priceSum / float64(pricedHours)
			if avg != 0 {
				discount := (1 - (revenue/weightedDen)/avg) * 100
				out = append(out, check("hero_timing_discount_consistent", discount, p.Hero.TimingDiscountPct, 1e-6))
			}
		}
	}

	if p.Aggregates != nil && p.Hero != nil {
		var daySum float64
		for _, d := range p.Aggregates.DaySummary {
			daySum += d.ProductionKWh
		}
		out = append(out, check("daily_production_sums_to_hero", p.Hero.ProductionKWh, daySum, 1e-6))
	}

	if p.Scenarios != nil && p.Scenarios.Curtailment != nil {
		sweep := p.Scenarios.Curtailment
		// A floor can only remove negative-revenue hours relative to no
		// floor at all, so the best evaluated floor must not lose money
		// against the uncurtailed baseline.
		if sweep.RecommendedFloor != nil {
			out = append(out, InvariantResult{
				Name:      "curtailed_revenue_not_below_baseline",
				Passed:    sweep.RecommendedRevenueSEK >= sweep.BaselineRevenueSEK-1e-9,
				Expected:  sweep.BaselineRevenueSEK,
				Actual:    sweep.RecommendedRevenueSEK,
				Diff:      sweep.BaselineRevenueSEK - sweep.RecommendedRevenueSEK,
				Tolerance: 1e-9,
			})
		}
		// Sweep-internal checks propagate into the payload-level list.
		out = append(out, sweep.Checks...)
	}

	if p.Scenarios != nil && p.Scenarios.Battery != nil {
		for _, sc := range p.Scenarios.Battery.Scenarios {
			out = append(out, sc.Check)
		}
	}

	if p.Series != nil && p.Hero != nil {
		var perDay float64
		for _, d := range p.Series.PerDay {
			perDay += d.ProductionKWh
		}
		out = append(out, check("series_per_day_production_sums_to_hero", p.Hero.ProductionKWh, perDay, 1e-6))
	}

	return out
}
