package engine

import (
	"fmt"
	"time"

	"negprice/internal/model"
)

// SchemaVersion identifies the payload shape.
const SchemaVersion = "2.0"

// ArtifactRef points at a payload section persisted out-of-band.
type ArtifactRef struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// ArtifactSink writes large sections out-of-band so the returned payload
// stays small. Implemented by internal/store.
type ArtifactSink interface {
	WriteJSON(name string, v any) (ArtifactRef, error)
}

// ReportPayload is the aggregate root of one analysis run. Omitted sections
// are nil pointers, so absence is visible in the type rather than a missing
// map key. Built fresh per request; never mutated after assembly.
type ReportPayload struct {
	SchemaVersion string    `json:"schema_version"`
	CalculatedAt  time.Time `json:"calculated_at"`

	Input         *InputSection       `json:"input,omitempty"`
	Meta          *MetaSection        `json:"meta,omitempty"`
	Hero          *HeroSection        `json:"hero,omitempty"`
	Series        *SeriesSection      `json:"series,omitempty"`
	Aggregates    *Aggregates         `json:"aggregates,omitempty"`
	Distributions *Distributions      `json:"distributions,omitempty"`
	Extremes      *Extremes           `json:"extremes,omitempty"`
	Scenarios     *ScenariosSection   `json:"scenarios,omitempty"`
	Diagnostics   *DiagnosticsSection `json:"diagnostics,omitempty"`
	Views         map[string]View     `json:"views,omitempty"`
	Artifacts     []ArtifactRef       `json:"artifacts,omitempty"`
}

// InputSection echoes the parameters the run was made with.
type InputSection struct {
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	Rows        int                 `json:"rows"`
	Timezone    string              `json:"timezone"`
	Currency    string              `json:"currency"`
	FXRate      float64             `json:"eur_to_sek_rate"`
	Floors      []float64           `json:"floors_sek_per_kwh"`
	Costs       *model.CostBlock    `json:"costs,omitempty"`
	Batteries   []model.BatterySpec `json:"batteries,omitempty"`
}

// MetaSection carries notes on the price basis of the main payload.
type MetaSection struct {
	PriceBasis string   `json:"price_basis"`
	Notes      []string `json:"notes"`
}

// SelfConsumptionBlock values production at a caller-supplied retail price
// instead of exporting it at spot.
type SelfConsumptionBlock struct {
	RetailPriceSEKPerKWh float64 `json:"retail_price_sek_per_kwh"`
	PotentialValueSEK    float64 `json:"potential_value_sek"`
	ExportValueSEK       float64 `json:"export_value_sek"`
	UpliftSEK            float64 `json:"uplift_sek"`
}

// HeroSection is the single-number headline block.
type HeroSection struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PeriodDays  int    `json:"period_days"`
	TotalHours  int    `json:"total_hours"`

	ProductionKWh       float64 `json:"production_kwh"`
	HoursWithProduction int     `json:"hours_with_production"`
	HoursWithPrice      int     `json:"hours_with_price"`

	ExportValueSEK         float64 `json:"export_value_sek"`
	PositiveExportValueSEK float64 `json:"positive_export_value_sek"`
	NegativeValueSEK       float64 `json:"negative_value_sek"`

	HoursNegativeTotal            int     `json:"hours_negative_total"`
	HoursNegativeDuringProduction int     `json:"hours_negative_during_production"`
	NegativeHoursSharePct         float64 `json:"negative_hours_share_pct"`

	ProductionDuringNegativeKWh      float64 `json:"production_during_negative_kwh"`
	ProductionDuringNegativeSharePct float64 `json:"production_during_negative_share_pct"`

	AvgPriceSEKPerKWh                *float64 `json:"avg_price_sek_per_kwh"`
	ProductionWeightedPriceSEKPerKWh *float64 `json:"production_weighted_price_sek_per_kwh"`
	CaptureRatePct                   float64  `json:"capture_rate_pct"`
	TimingDiscountPct                float64  `json:"timing_discount_pct"`

	SelfConsumption *SelfConsumptionBlock `json:"self_consumption,omitempty"`

	Units map[string]string `json:"units"`
}

// HourPoint is one row of the serialized hourly series.
type HourPoint struct {
	TimestampLocal     time.Time `json:"timestamp_local"`
	TimestampUTC       time.Time `json:"timestamp_utc"`
	ProductionKWh      float64   `json:"production_kwh"`
	PriceEURPerMWh     *float64  `json:"price_eur_per_mwh"`
	PriceSEKPerKWh     *float64  `json:"price_sek_per_kwh"`
	RevenueSEK         *float64  `json:"revenue_sek"`
	IsNegativePrice    bool      `json:"is_negative_price"`
	PriceDecile        *int      `json:"price_decile"`
	ProductionQuintile *int      `json:"production_quintile"`
	ClusterID          *string   `json:"cluster_id"`
}

// SeriesSection carries the hourly and per-day series. When an artifact sink
// is configured the hourly rows live out-of-band and HourlyRef points there.
type SeriesSection struct {
	Hourly    []HourPoint  `json:"hourly,omitempty"`
	HourlyRef *ArtifactRef `json:"hourly_ref,omitempty"`
	PerDay    []DayAgg     `json:"per_day"`
}

// ScenariosSection bundles the mitigation scenarios.
type ScenariosSection struct {
	Curtailment *CurtailmentSweep `json:"curtailment_price_floor_sweep"`
	Battery     *BatteryShift     `json:"battery_shift"`
}

// DataQuality summarizes input hygiene for the diagnostics section.
type DataQuality struct {
	Rows                       int `json:"rows"`
	HoursMissingPrice          int `json:"hours_missing_price"`
	HoursMissingProduction     int `json:"hours_missing_production_filled"`
	DuplicateTimestampsDropped int `json:"duplicate_timestamps_dropped"`
}

// DiagnosticsSection carries data-quality flags, transform provenance and
// the advisory invariant results.
type DiagnosticsSection struct {
	DataQuality DataQuality       `json:"data_quality"`
	Provenance  []string          `json:"transform_provenance"`
	Invariants  []InvariantResult `json:"invariants"`
}

// View is a named alternate projection of the headline numbers under a
// different price basis.
type View struct {
	PriceBasis     string            `json:"price_basis"`
	Note           string            `json:"note"`
	Hero           *HeroSection      `json:"hero"`
	TimingDiscount *TimingDiscount   `json:"timing_discount_decomposition"`
	Curtailment    *CurtailmentSweep `json:"curtailment_price_floor_sweep"`
}

var knownSections = func() map[string]bool {
	m := make(map[string]bool, len(model.DefaultSections))
	for _, s := range model.DefaultSections {
		m[s] = true
	}
	return m
}()

// validateSections rejects unknown section names outright: a typo must fail
// the request, not silently drop a section.
func validateSections(sections []string) (map[string]bool, error) {
	want := make(map[string]bool, len(sections))
	for _, s := range sections {
		if !knownSections[s] {
			return nil, fmt.Errorf("unknown section %q (valid: %v)", s, model.DefaultSections)
		}
		want[s] = true
	}
	return want, nil
}

// BuildReport runs the whole engine: derive, detect, sweep, simulate,
// assemble, then cross-check. sink may be nil, in which case the hourly
// series is inlined when requested.
func BuildReport(rows []model.InputHour, opts model.RunOptions, sink ArtifactSink) (*ReportPayload, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	want, err := validateSections(opts.Sections)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty input table")
	}

	tbl, err := Derive(rows, opts)
	if err != nil {
		return nil, err
	}
	clusters := DetectClusters(tbl)

	p := &ReportPayload{
		SchemaVersion: SchemaVersion,
		CalculatedAt:  time.Now().UTC(),
	}

	if want["input"] {
		p.Input = buildInput(tbl, opts)
	}
	if want["meta"] {
		p.Meta = buildMeta(tbl, opts)
	}
	if want["hero"] {
		p.Hero = computeHero(tbl, spotPrice, opts.RetailPriceSEKPerKWh)
	}
	if want["aggregates"] {
		p.Aggregates = ComputeAggregates(tbl, spotPrice)
	}
	if want["distributions"] {
		p.Distributions = ComputeDistributions(tbl)
	}
	if want["extremes"] {
		p.Extremes = ComputeExtremes(tbl, clusters)
	}
	if want["scenarios"] {
		p.Scenarios = &ScenariosSection{
			Curtailment: SweepCurtailment(tbl, opts.Floors),
			Battery:     SimulateBatteries(tbl, opts.Batteries, opts.Costs),
		}
	}
	if want["series"] {
		series, ref, err := buildSeries(tbl, sink)
		if err != nil {
			return nil, err
		}
		p.Series = series
		if ref != nil {
			p.Artifacts = append(p.Artifacts, *ref)
		}
	}
	if want["views"] && opts.Costs != nil {
		p.Views = buildViews(tbl, opts)
	}
	if want["diagnostics"] {
		p.Diagnostics = &DiagnosticsSection{
			DataQuality: DataQuality{
				Rows:                       len(tbl.Hours),
				HoursMissingPrice:          tbl.HoursMissingPrice,
				HoursMissingProduction:     tbl.HoursMissingProduction,
				DuplicateTimestampsDropped: tbl.DuplicateTimestampsDropped,
			},
			Provenance: provenance(tbl),
		}
		p.Diagnostics.Invariants = CheckInvariants(p, tbl)
	}
	return p, nil
}

func buildInput(tbl *model.Table, opts model.RunOptions) *InputSection {
	in := &InputSection{
		Rows:      len(tbl.Hours),
		Timezone:  opts.Timezone,
		Currency:  opts.Currency,
		FXRate:    opts.FXRate,
		Floors:    opts.Floors,
		Costs:     opts.Costs,
		Batteries: opts.Batteries,
	}
	if len(tbl.Hours) > 0 {
		in.PeriodStart = tbl.Hours[0].LocalDate()
		in.PeriodEnd = tbl.Hours[len(tbl.Hours)-1].LocalDate()
	}
	return in
}

func buildMeta(tbl *model.Table, opts model.RunOptions) *MetaSection {
	m := &MetaSection{
		PriceBasis: string(model.BasisSpot),
		Notes: []string{
			"spot prices are day-ahead market prices excluding taxes and fees",
			fmt.Sprintf("prices converted from EUR/MWh to %s/kWh at rate %g", opts.Currency, opts.FXRate),
		},
	}
	if opts.Costs != nil {
		m.Notes = append(m.Notes, "a fee-adjusted projection is available under views.spot_plus_fees")
	}
	return m
}

// computeHero builds the headline block under the given price basis; the
// fee-adjusted views reuse it with a different priceFn.
func computeHero(tbl *model.Table, priceOf priceFn, retail *float64) *HeroSection {
	h := &HeroSection{
		TotalHours: len(tbl.Hours),
		Units: map[string]string{
			"production_kwh":                        "kWh",
			"export_value_sek":                      "SEK",
			"positive_export_value_sek":             "SEK",
			"negative_value_sek":                    "SEK",
			"production_during_negative_kwh":        "kWh",
			"avg_price_sek_per_kwh":                 "SEK/kWh",
			"production_weighted_price_sek_per_kwh": "SEK/kWh",
		},
	}
	if len(tbl.Hours) > 0 {
		h.PeriodStart = tbl.Hours[0].LocalDate()
		h.PeriodEnd = tbl.Hours[len(tbl.Hours)-1].LocalDate()
	}

	days := map[string]bool{}
	var priceSum float64
	for _, rec := range tbl.Hours {
		days[rec.LocalDate()] = true
		h.ProductionKWh += rec.ProductionKWh
		if rec.IsProducing {
			h.HoursWithProduction++
		}
		price, ok := priceOf(rec)
		if !ok {
			continue
		}
		h.HoursWithPrice++
		priceSum += price
		rev := rec.ProductionKWh * price
		h.ExportValueSEK += rev
		if price > 0 {
			h.PositiveExportValueSEK += rev
		}
		if rev < 0 {
			h.NegativeValueSEK += -rev
		}
		if price < 0 {
			h.HoursNegativeTotal++
			h.ProductionDuringNegativeKWh += rec.ProductionKWh
			if rec.IsProducing {
				h.HoursNegativeDuringProduction++
			}
		}
	}
	h.PeriodDays = len(days)
	if h.HoursWithPrice > 0 {
		h.NegativeHoursSharePct = float64(h.HoursNegativeTotal) / float64(h.HoursWithPrice) * 100
		avg := priceSum / float64(h.HoursWithPrice)
		h.AvgPriceSEKPerKWh = fptr(avg)

		var prodWithPrice float64
		for _, rec := range tbl.Hours {
			if _, ok := priceOf(rec); ok {
				prodWithPrice += rec.ProductionKWh
			}
		}
		if prodWithPrice > 0 {
			weighted := h.ExportValueSEK / prodWithPrice
			h.ProductionWeightedPriceSEKPerKWh = fptr(weighted)
			if avg != 0 {
				h.CaptureRatePct = weighted / avg * 100
				h.TimingDiscountPct = (1 - weighted/avg) * 100
			}
		}
	}
	if h.ProductionKWh > 0 {
		h.ProductionDuringNegativeSharePct = h.ProductionDuringNegativeKWh / h.ProductionKWh * 100
	}
	if retail != nil {
		potential := h.ProductionKWh * *retail
		h.SelfConsumption = &SelfConsumptionBlock{
			RetailPriceSEKPerKWh: *retail,
			PotentialValueSEK:    potential,
			ExportValueSEK:       h.ExportValueSEK,
			UpliftSEK:            potential - h.ExportValueSEK,
		}
	}
	return h
}

func buildSeries(tbl *model.Table, sink ArtifactSink) (*SeriesSection, *ArtifactRef, error) {
	s := &SeriesSection{
		PerDay: ComputeAggregates(tbl, spotPrice).DaySummary,
	}
	hourly := make([]HourPoint, 0, len(tbl.Hours))
	for _, h := range tbl.Hours {
		hourly = append(hourly, HourPoint{
			TimestampLocal:     h.TimestampLocal,
			TimestampUTC:       h.TimestampUTC,
			ProductionKWh:      h.ProductionKWh,
			PriceEURPerMWh:     h.PriceEURPerMWh,
			PriceSEKPerKWh:     h.PriceSEKPerKWh,
			RevenueSEK:         h.RevenueSEK,
			IsNegativePrice:    h.IsNegativePrice,
			PriceDecile:        h.PriceDecile,
			ProductionQuintile: h.ProductionQuintile,
			ClusterID:          h.ClusterID,
		})
	}
	if sink == nil {
		s.Hourly = hourly
		return s, nil, nil
	}
	ref, err := sink.WriteJSON("hourly_series", hourly)
	if err != nil {
		return nil, nil, fmt.Errorf("write hourly series artifact: %w", err)
	}
	s.HourlyRef = &ref
	return s, &ref, nil
}

func buildViews(tbl *model.Table, opts model.RunOptions) map[string]View {
	adjusted := feeAdjustedPrice(opts.Costs)
	return map[string]View{
		string(model.BasisSpotPlusFees): {
			PriceBasis:     string(model.BasisSpotPlusFees),
			Note:           "spot price adjusted by per-kWh fees and VAT before all headline numbers",
			Hero:           computeHero(tbl, adjusted, opts.RetailPriceSEKPerKWh),
			TimingDiscount: computeTimingDiscount(tbl, adjusted),
			Curtailment:    sweepWithBasis(tbl, opts.Floors, opts.Costs),
		},
	}
}

// sweepWithBasis reruns the curtailment sweep over a fee-adjusted copy of the
// table so the view's scenario numbers share the view's price basis.
func sweepWithBasis(tbl *model.Table, floors []float64, costs *model.CostBlock) *CurtailmentSweep {
	shadow := &model.Table{Hours: make([]model.HourRecord, len(tbl.Hours))}
	for i, h := range tbl.Hours {
		c := h
		if p, ok := h.Price(); ok {
			eff := costs.EffectivePrice(p)
			rev := c.ProductionKWh * eff
			c.PriceSEKPerKWh = &eff
			c.RevenueSEK = &rev
			c.IsNegativePrice = eff < 0
			c.IsNonpositivePrice = eff <= 0
		}
		shadow.Hours[i] = c
	}
	return SweepCurtailment(shadow, floors)
}

func provenance(tbl *model.Table) []string {
	steps := []string{
		fmt.Sprintf("timestamps floored to the hour in %s; naive timestamps assumed local", tbl.Timezone),
		fmt.Sprintf("prices converted EUR/MWh to SEK/kWh at rate %g; missing prices kept null", tbl.FXRate),
		"missing production filled with 0; missing price never coerced to 0",
	}
	if len(tbl.PriceDecileEdges) >= 2 {
		steps = append(steps, fmt.Sprintf("price decile cut produced %d buckets", len(tbl.PriceDecileEdges)-1))
	} else {
		steps = append(steps, "price decile cut degraded: too few distinct prices")
	}
	if len(tbl.ProductionQuintileEdges) >= 2 {
		steps = append(steps, fmt.Sprintf("production quintile cut produced %d buckets", len(tbl.ProductionQuintileEdges)-1))
	} else {
		steps = append(steps, "production quintile cut degraded: too few distinct values")
	}
	return steps
}
