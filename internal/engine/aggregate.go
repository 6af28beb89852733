package engine

import (
	"fmt"
	"sort"

	"negprice/internal/model"
)

// PeriodAgg is one weekly or monthly aggregation bucket.
type PeriodAgg struct {
	Period          string   `json:"period"`
	Hours           int      `json:"hours"`
	ProductionKWh   float64  `json:"production_kwh"`
	ExportValueSEK  float64  `json:"export_value_sek"`
	AvgPriceSEK     *float64 `json:"avg_price_sek_per_kwh"`
	NegativeHours   int      `json:"negative_hours"`
	NegativeCostSEK float64  `json:"negative_cost_sek"`
}

// DayAgg is the per-day summary row.
type DayAgg struct {
	Date            string   `json:"date"`
	Hours           int      `json:"hours"`
	ProductionKWh   float64  `json:"production_kwh"`
	ExportValueSEK  float64  `json:"export_value_sek"`
	AvgPriceSEK     *float64 `json:"avg_price_sek_per_kwh"`
	MinPriceSEK     *float64 `json:"min_price_sek_per_kwh"`
	MaxPriceSEK     *float64 `json:"max_price_sek_per_kwh"`
	NegativeHours   int      `json:"negative_hours"`
	NegativeCostSEK float64  `json:"negative_cost_sek"`
}

// HourOfDayAgg is one slot of the 24-hour profile.
type HourOfDayAgg struct {
	Hour             int      `json:"hour"`
	AvgProductionKWh float64  `json:"avg_production_kwh"`
	AvgPriceSEK      *float64 `json:"avg_price_sek_per_kwh"`
	ExportValueSEK   float64  `json:"export_value_sek"`
	NegativeHours    int      `json:"negative_hours"`
}

// TimingDiscount decomposes the gap between the time-average price and the
// production-weighted price the plant actually captured.
type TimingDiscount struct {
	TimeAvgPriceSEK            *float64 `json:"time_avg_price_sek_per_kwh"`
	ProductionWeightedPriceSEK *float64 `json:"production_weighted_price_sek_per_kwh"`
	CaptureRatePct             float64  `json:"capture_rate_pct"`
	TimingDiscountPct          float64  `json:"timing_discount_pct"`
	ValueAtTimeAvgSEK          float64  `json:"value_at_time_avg_sek"`
	ActualRevenueSEK           float64  `json:"actual_revenue_sek"`
	TimingLossSEK              float64  `json:"timing_loss_sek"`
	NegativeHoursLossSEK       float64  `json:"negative_hours_loss_sek"`
	OtherTimingLossSEK         float64  `json:"other_timing_loss_sek"`
}

// Aggregates is the aggregates section of the payload.
type Aggregates struct {
	Weekly           []PeriodAgg     `json:"weekly"`
	Monthly          []PeriodAgg     `json:"monthly"`
	DaySummary       []DayAgg        `json:"day_summary"`
	HourOfDayProfile []HourOfDayAgg  `json:"hour_of_day_profile"`
	TimingDiscount   *TimingDiscount `json:"timing_discount_decomposition"`
}

// ComputeAggregates builds the weekly/monthly/daily/hour-of-day rollups and
// the timing-discount decomposition. Hours with an unknown price contribute
// production but never price or revenue.
func ComputeAggregates(tbl *model.Table, priceOf priceFn) *Aggregates {
	weekly := map[string]*PeriodAgg{}
	monthly := map[string]*PeriodAgg{}
	daily := map[string]*DayAgg{}
	weeklyPrice := map[string]*meanAcc{}
	monthlyPrice := map[string]*meanAcc{}
	dailyPrice := map[string]*meanAcc{}

	var profile [24]HourOfDayAgg
	var profileDays [24]int
	var profilePrice [24]meanAcc

	for _, h := range tbl.Hours {
		y, w := h.TimestampLocal.ISOWeek()
		weekKey := fmt.Sprintf("%04d-W%02d", y, w)
		monthKey := h.TimestampLocal.Format("2006-01")
		dayKey := h.LocalDate()

		wk := getPeriod(weekly, weekKey)
		mo := getPeriod(monthly, monthKey)
		da := daily[dayKey]
		if da == nil {
			da = &DayAgg{Date: dayKey}
			daily[dayKey] = da
		}

		wk.Hours++
		mo.Hours++
		da.Hours++
		wk.ProductionKWh += h.ProductionKWh
		mo.ProductionKWh += h.ProductionKWh
		da.ProductionKWh += h.ProductionKWh

		hod := h.TimestampLocal.Hour()
		profile[hod].Hour = hod
		profile[hod].AvgProductionKWh += h.ProductionKWh
		profileDays[hod]++

		price, priced := priceOf(h)
		if priced {
			rev := h.ProductionKWh * price
			wk.ExportValueSEK += rev
			mo.ExportValueSEK += rev
			da.ExportValueSEK += rev
			profile[hod].ExportValueSEK += rev
			getAcc(weeklyPrice, weekKey).add(price)
			getAcc(monthlyPrice, monthKey).add(price)
			getAcc(dailyPrice, dayKey).add(price)
			profilePrice[hod].add(price)
			if da.MinPriceSEK == nil || price < *da.MinPriceSEK {
				da.MinPriceSEK = fptr(price)
			}
			if da.MaxPriceSEK == nil || price > *da.MaxPriceSEK {
				da.MaxPriceSEK = fptr(price)
			}
			if price < 0 {
				wk.NegativeHours++
				mo.NegativeHours++
				da.NegativeHours++
				profile[hod].NegativeHours++
				if rev < 0 {
					wk.NegativeCostSEK += -rev
					mo.NegativeCostSEK += -rev
					da.NegativeCostSEK += -rev
				}
			}
		}
	}

	agg := &Aggregates{
		Weekly:     flattenPeriods(weekly, weeklyPrice),
		Monthly:    flattenPeriods(monthly, monthlyPrice),
		DaySummary: flattenDays(daily, dailyPrice),
	}
	for hod := 0; hod < 24; hod++ {
		if profileDays[hod] == 0 {
			continue
		}
		p := profile[hod]
		p.Hour = hod
		p.AvgProductionKWh /= float64(profileDays[hod])
		p.AvgPriceSEK = profilePrice[hod].meanPtr()
		agg.HourOfDayProfile = append(agg.HourOfDayProfile, p)
	}
	agg.TimingDiscount = computeTimingDiscount(tbl, priceOf)
	return agg
}

// computeTimingDiscount compares the production-weighted price against the
// plain time average over hours with a known price.
func computeTimingDiscount(tbl *model.Table, priceOf priceFn) *TimingDiscount {
	var priceSum, prodWithPrice, revenue, negLoss float64
	var pricedHours int
	for _, h := range tbl.Hours {
		price, ok := priceOf(h)
		if !ok {
			continue
		}
		pricedHours++
		priceSum += price
		prodWithPrice += h.ProductionKWh
		rev := h.ProductionKWh * price
		revenue += rev
		if rev < 0 {
			negLoss += -rev
		}
	}
	td := &TimingDiscount{ActualRevenueSEK: revenue}
	if pricedHours == 0 {
		return td
	}
	timeAvg := priceSum / float64(pricedHours)
	td.TimeAvgPriceSEK = fptr(timeAvg)
	td.ValueAtTimeAvgSEK = prodWithPrice * timeAvg
	td.TimingLossSEK = td.ValueAtTimeAvgSEK - revenue
	td.NegativeHoursLossSEK = negLoss
	td.OtherTimingLossSEK = td.TimingLossSEK - negLoss
	if prodWithPrice > 0 {
		weighted := revenue / prodWithPrice
		td.ProductionWeightedPriceSEK = fptr(weighted)
		if timeAvg != 0 {
			td.CaptureRatePct = weighted / timeAvg * 100
			td.TimingDiscountPct = (1 - weighted/timeAvg) * 100
		}
	}
	return td
}

// priceFn selects the price basis an aggregation runs under; spotPrice is the
// default, the fee-adjusted variant feeds the views section.
type priceFn func(model.HourRecord) (float64, bool)

func spotPrice(h model.HourRecord) (float64, bool) { return h.Price() }

func feeAdjustedPrice(costs *model.CostBlock) priceFn {
	return func(h model.HourRecord) (float64, bool) {
		p, ok := h.Price()
		if !ok {
			return 0, false
		}
		return costs.EffectivePrice(p), true
	}
}

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) { m.sum += v; m.n++ }

func (m *meanAcc) meanPtr() *float64 {
	if m.n == 0 {
		return nil
	}
	return fptr(m.sum / float64(m.n))
}

func getPeriod(m map[string]*PeriodAgg, key string) *PeriodAgg {
	if p, ok := m[key]; ok {
		return p
	}
	p := &PeriodAgg{Period: key}
	m[key] = p
	return p
}

func getAcc(m map[string]*meanAcc, key string) *meanAcc {
	if a, ok := m[key]; ok {
		return a
	}
	a := &meanAcc{}
	m[key] = a
	return a
}

func flattenPeriods(m map[string]*PeriodAgg, prices map[string]*meanAcc) []PeriodAgg {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]PeriodAgg, 0, len(keys))
	for _, k := range keys {
		p := *m[k]
		if acc, ok := prices[k]; ok {
			p.AvgPriceSEK = acc.meanPtr()
		}
		out = append(out, p)
	}
	return out
}

func flattenDays(m map[string]*DayAgg, prices map[string]*meanAcc) []DayAgg {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]DayAgg, 0, len(keys))
	for _, k := range keys {
		d := *m[k]
		if acc, ok := prices[k]; ok {
			d.AvgPriceSEK = acc.meanPtr()
		}
		out = append(out, d)
	}
	return out
}
