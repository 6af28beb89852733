package model

import "time"

// InputHour is one row of the aligned hourly input table as produced by the
// loader (or supplied directly by an API caller).
//
// Units:
// - ProductionKWh: kWh produced during the hour (>= 0, 0 if missing)
// - PriceEURPerMWh: day-ahead spot price in EUR/MWh; nil when the market
//   published no price for the hour. A missing price is NOT a zero price.
type InputHour struct {
	Timestamp      time.Time
	ProductionKWh  float64
	PriceEURPerMWh *float64
}

// HourRecord is the enriched per-hour record every analysis component consumes.
// It is derived once per run and never mutated afterwards.
type HourRecord struct {
	// TimestampLocal is the hour start in the analysis calendar, floored to
	// the hour. TimestampUTC is the same instant in UTC.
	TimestampLocal time.Time
	TimestampUTC   time.Time

	ProductionKWh float64

	// Prices. SEK/kWh is the primary basis; EUR/MWh is kept for reference.
	PriceEURPerMWh *float64
	PriceSEKPerKWh *float64

	// RevenueSEK = ProductionKWh * PriceSEKPerKWh, defined only when the
	// price is known.
	RevenueSEK *float64

	IsProducing        bool
	IsNegativePrice    bool
	IsNonpositivePrice bool

	// PriceDecile is computed over all hours with a known price,
	// ProductionQuintile over producing hours only. nil when the quantile
	// cut degraded (too few distinct values).
	PriceDecile        *int
	ProductionQuintile *int

	// ClusterID is set only for hours inside a negative-during-production run.
	ClusterID *string
}

// Table is the derived per-hour record set plus the bookkeeping collected
// while deriving it. The engine owns it exclusively for the duration of a run.
type Table struct {
	Hours []HourRecord

	// Quantile cut edges actually used (may be shorter than requested when
	// duplicate edges were dropped; empty when the cut degraded entirely).
	PriceDecileEdges        []float64
	ProductionQuintileEdges []float64

	Timezone string
	Currency string
	FXRate   float64

	HoursMissingPrice          int
	HoursMissingProduction     int
	DuplicateTimestampsDropped int
}

// Cluster is a maximal contiguous run of hours with simultaneous production
// and negative price. Immutable once detected.
type Cluster struct {
	ID          string
	StartLocal  time.Time
	EndLocal    time.Time
	Hours       int
	EnergyKWh   float64
	CostSEK     float64
	MinPriceSEK float64
}

// Revenue returns the hour's revenue and whether it is defined.
func (h HourRecord) Revenue() (float64, bool) {
	if h.RevenueSEK == nil {
		return 0, false
	}
	return *h.RevenueSEK, true
}

// Price returns the hour's SEK/kWh price and whether it is known.
func (h HourRecord) Price() (float64, bool) {
	if h.PriceSEKPerKWh == nil {
		return 0, false
	}
	return *h.PriceSEKPerKWh, true
}

// LocalDate returns the local calendar date of the hour as YYYY-MM-DD.
func (h HourRecord) LocalDate() string {
	return h.TimestampLocal.Format("2006-01-02")
}
