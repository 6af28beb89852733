package engine

import (
	"math"

	"negprice/internal/model"
)

// BatteryScenario is the aggregate outcome of simulating one candidate
// battery over the whole series. The day-by-day state-of-charge trace is
// internal; only these aggregates are reported.
type BatteryScenario struct {
	CapacityKWh         float64             `json:"capacity_kwh"`
	PowerLimitKW        float64             `json:"power_kw"`
	RoundTripEfficiency float64             `json:"round_trip_efficiency"`
	DischargeHour       int                 `json:"discharge_hour"`
	DecisionBasis       model.DecisionBasis `json:"decision_basis"`

	IncrementalRevenueSEK float64 `json:"incremental_revenue_sek"`
	EnergyShiftedKWh      float64 `json:"energy_shifted_kwh"`
	TotalChargedKWh       float64 `json:"total_charged_kwh"`
	TotalDischargedKWh    float64 `json:"total_discharged_kwh"`
	RoundTripLossKWh      float64 `json:"round_trip_losses_kwh"`
	CyclesPerDayAvg       float64 `json:"cycles_per_day_avg"`
	UtilizationPct        float64 `json:"utilization_pct"`
	DaysSimulated         int     `json:"days_simulated"`
	DaysActive            int     `json:"days_active"`

	Check InvariantResult `json:"loss_check"`
}

// BatteryShift is the battery scenarios section of the payload.
type BatteryShift struct {
	Scenarios []BatteryScenario `json:"scenarios"`
	Note      string            `json:"note"`
}

const batteryNote = "greedy per-day heuristic: charge from production while the decision price is negative, " +
	"discharge from the fixed target hour; state does not carry across days and the schedule is not optimal dispatch"

// SimulateBatteries runs the greedy daily charge/discharge heuristic for each
// candidate spec. A day that cannot discharge (no target hour, unknown price)
// strands its charge; the stranded energy counts as loss so the books always
// balance against total charged energy.
func SimulateBatteries(tbl *model.Table, specs []model.BatterySpec, costs *model.CostBlock) *BatteryShift {
	days := splitDays(tbl)
	out := &BatteryShift{Note: batteryNote, Scenarios: make([]BatteryScenario, 0, len(specs))}

	for _, spec := range specs {
		sc := BatteryScenario{
			CapacityKWh:         spec.CapacityKWh,
			PowerLimitKW:        spec.PowerLimitKW,
			RoundTripEfficiency: spec.RoundTripEfficiency,
			DischargeHour:       spec.DischargeHour,
			DecisionBasis:       spec.Basis(),
			DaysSimulated:       len(days),
		}

		var delivered float64
		for _, day := range days {
			r := simulateDay(day, spec, costs)
			sc.TotalChargedKWh += r.chargedKWh
			sc.TotalDischargedKWh += r.dischargedKWh
			delivered += r.deliveredKWh
			sc.IncrementalRevenueSEK += r.revenueGainedSEK - r.revenueForgoneSEK
			if r.chargedKWh > 0 && r.dischargedKWh > 0 {
				sc.DaysActive++
			}
		}

		sc.EnergyShiftedKWh = delivered
		sc.RoundTripLossKWh = sc.TotalChargedKWh - delivered
		if sc.DaysSimulated > 0 {
			sc.CyclesPerDayAvg = float64(sc.DaysActive) / float64(sc.DaysSimulated)
			sc.UtilizationPct = delivered / (float64(sc.DaysSimulated) * spec.CapacityKWh) * 100
		}

		// Post-hoc sanity check, recomputed from the other aggregates.
		diff := math.Abs(sc.RoundTripLossKWh - (sc.TotalChargedKWh - sc.EnergyShiftedKWh))
		sc.Check = InvariantResult{
			Name:      "battery_losses_match_charged_minus_delivered",
			Passed:    diff <= 1e-6,
			Expected:  sc.TotalChargedKWh - sc.EnergyShiftedKWh,
			Actual:    sc.RoundTripLossKWh,
			Diff:      diff,
			Tolerance: 1e-6,
		}
		out.Scenarios = append(out.Scenarios, sc)
	}
	return out
}

// dayResult accumulates one simulated calendar day.
type dayResult struct {
	chargedKWh        float64
	dischargedKWh     float64
	deliveredKWh      float64
	revenueGainedSEK  float64
	revenueForgoneSEK float64
	actions           []model.Action
}

// simulateDay is the per-day state machine: a charging phase over the day's
// hours, then a discharging phase from the target hour onward.
//
// Charging diverts production whose decision price is below zero, capped by
// headroom and the power limit per hour; the diverted energy's original sale
// revenue (at spot) is forgone. Discharging releases min(SOC, power limit)
// per hour starting at the target hour; the whole dispatch is valued at the
// target hour's price, and the round-trip efficiency shrinks delivered
// energy.
func simulateDay(day []model.HourRecord, spec model.BatterySpec, costs *model.CostBlock) dayResult {
	r := dayResult{actions: make([]model.Action, len(day))}
	for i := range r.actions {
		r.actions[i] = model.ActionIdle
	}

	soc := 0.0

	// Charge phase.
	for i, h := range day {
		if !h.IsProducing {
			continue
		}
		price, ok := h.Price()
		if !ok {
			continue
		}
		decision := price
		if spec.Basis() == model.BasisSpotPlusFees && costs != nil {
			decision = costs.EffectivePrice(price)
		}
		if decision >= 0 {
			continue
		}
		charge := math.Min(h.ProductionKWh, math.Min(spec.CapacityKWh-soc, spec.PowerLimitKW))
		if charge <= 0 {
			continue
		}
		soc += charge
		r.chargedKWh += charge
		r.revenueForgoneSEK += charge * price
		r.actions[i] = model.ActionCharging
	}

	// Discharge phase: one dispatch event anchored at the target hour.
	target := -1
	for i, h := range day {
		if h.TimestampLocal.Hour() == spec.DischargeHour {
			target = i
			break
		}
	}
	if target < 0 || soc <= 0 {
		return r
	}
	targetPrice, ok := day[target].Price()
	if !ok {
		return r
	}
	for i := target; i < len(day) && soc > 1e-12; i++ {
		discharged := math.Min(soc, spec.PowerLimitKW)
		delivered := discharged * spec.RoundTripEfficiency
		soc -= discharged
		r.dischargedKWh += discharged
		r.deliveredKWh += delivered
		r.revenueGainedSEK += delivered * targetPrice
		r.actions[i] = model.ActionDischarging
	}
	return r
}

// splitDays groups the chronologically sorted hours by local calendar date.
func splitDays(tbl *model.Table) [][]model.HourRecord {
	var days [][]model.HourRecord
	var cur []model.HourRecord
	var curDate string
	for _, h := range tbl.Hours {
		d := h.LocalDate()
		if d != curDate && curDate != "" {
			days = append(days, cur)
			cur = nil
		}
		curDate = d
		cur = append(cur, h)
	}
	if len(cur) > 0 {
		days = append(days, cur)
	}
	return days
}
