package engine

import (
	"math"

	"negprice/internal/model"
)

// CurtailmentPoint is the outcome of one candidate price floor: export is
// withheld for every hour whose known price is below the floor.
type CurtailmentPoint struct {
	FloorSEKPerKWh     float64 `json:"floor_sek_per_kwh"`
	RevenueSEK         float64 `json:"revenue_sek"`
	LostEnergyKWh      float64 `json:"lost_energy_kwh"`
	LostEnergySharePct float64 `json:"lost_energy_share_pct"`
}

// CurtailmentSweep is the full floor sweep plus its advisory sanity checks.
type CurtailmentSweep struct {
	Points                []CurtailmentPoint `json:"points"`
	BaselineRevenueSEK    float64            `json:"baseline_revenue_sek"`
	RecommendedFloor      *float64           `json:"recommended_floor_sek_per_kwh"`
	RecommendedRevenueSEK float64            `json:"recommended_revenue_sek"`
	KneeFloor             *float64           `json:"knee_floor_sek_per_kwh"`
	Checks                []InvariantResult  `json:"checks"`
}

// kneeMinLostShare is the incremental lost-energy share an adjacent floor
// pair must exceed before it qualifies for knee selection.
const kneeMinLostShare = 0.02

// SweepCurtailment evaluates each floor in the ascending candidate set.
// Hours with an unknown price are never curtailed and never counted as lost.
// The recommended floor maximizes revenue, ties going to the lower floor;
// the knee floor is the best marginal revenue-per-lost-energy step.
func SweepCurtailment(tbl *model.Table, floors []float64) *CurtailmentSweep {
	s := &CurtailmentSweep{Points: make([]CurtailmentPoint, 0, len(floors))}

	var totalProduction, negativeProduction float64
	for _, h := range tbl.Hours {
		totalProduction += h.ProductionKWh
		if rev, ok := h.Revenue(); ok {
			s.BaselineRevenueSEK += rev
		}
		if p, ok := h.Price(); ok && p < 0 {
			negativeProduction += h.ProductionKWh
		}
	}

	for _, floor := range floors {
		pt := CurtailmentPoint{FloorSEKPerKWh: floor}
		for _, h := range tbl.Hours {
			p, ok := h.Price()
			if !ok {
				continue
			}
			if p >= floor {
				pt.RevenueSEK += h.ProductionKWh * p
			} else {
				pt.LostEnergyKWh += h.ProductionKWh
			}
		}
		if totalProduction > 0 {
			pt.LostEnergySharePct = pt.LostEnergyKWh / totalProduction * 100
		}
		s.Points = append(s.Points, pt)
	}

	// Recommended floor: max revenue, first occurrence wins ties.
	for i, pt := range s.Points {
		if s.RecommendedFloor == nil || pt.RevenueSEK > s.RecommendedRevenueSEK {
			f := floors[i]
			s.RecommendedFloor = &f
			s.RecommendedRevenueSEK = pt.RevenueSEK
		}
	}

	// Knee floor: among adjacent pairs with strictly increasing lost energy
	// whose incremental lost share exceeds the threshold, take the pair with
	// the highest marginal revenue per lost kWh.
	bestRatio := math.Inf(-1)
	for i := 0; i+1 < len(s.Points); i++ {
		dLost := s.Points[i+1].LostEnergyKWh - s.Points[i].LostEnergyKWh
		if dLost <= 0 || totalProduction <= 0 || dLost/totalProduction <= kneeMinLostShare {
			continue
		}
		ratio := (s.Points[i+1].RevenueSEK - s.Points[i].RevenueSEK) / dLost
		if ratio > bestRatio {
			bestRatio = ratio
			f := floors[i+1]
			s.KneeFloor = &f
		}
	}

	s.Checks = sweepChecks(s, negativeProduction)
	return s
}

// sweepChecks reports the sweep invariants. Failures are advisory and never
// corrected: a failed check means the numbers disagree and the caller should
// see the discrepancy.
func sweepChecks(s *CurtailmentSweep, negativeProduction float64) []InvariantResult {
	var checks []InvariantResult

	mono := InvariantResult{Name: "lost_energy_monotonic", Passed: true, Tolerance: 1e-9}
	for i := 0; i+1 < len(s.Points); i++ {
		diff := s.Points[i].LostEnergyKWh - s.Points[i+1].LostEnergyKWh
		if diff > 1e-9 {
			mono.Passed = false
			mono.Expected = s.Points[i+1].LostEnergyKWh
			mono.Actual = s.Points[i].LostEnergyKWh
			mono.Diff = diff
		}
	}
	checks = append(checks, mono)

	for _, pt := range s.Points {
		if pt.FloorSEKPerKWh != 0 {
			continue
		}
		diff := math.Abs(pt.LostEnergyKWh - negativeProduction)
		checks = append(checks, InvariantResult{
			Name:      "lost_energy_at_zero_matches_negative_production",
			Passed:    diff <= 1e-6,
			Expected:  negativeProduction,
			Actual:    pt.LostEnergyKWh,
			Diff:      diff,
			Tolerance: 1e-6,
		})
		break
	}
	return checks
}
