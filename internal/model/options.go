package model

import (
	"errors"
	"fmt"
)

// DefaultFloors is the default curtailment sweep, in SEK/kWh, ascending.
var DefaultFloors = []float64{-0.20, -0.10, 0.0, 0.10}

// DefaultSections is every section the assembler knows about.
var DefaultSections = []string{
	"input", "meta", "hero", "series", "aggregates",
	"distributions", "extremes", "scenarios", "diagnostics", "views",
}

// RunOptions is the canonical "inputs to one analysis run" object: the
// aligned table is passed separately, everything else lives here.
type RunOptions struct {
	// Timezone is the IANA name of the local analysis calendar.
	// Timestamps without a zone are assumed to already be in it.
	Timezone string

	// Currency is the reporting currency (informational; the engine always
	// computes in SEK/kWh). FXRate converts EUR/MWh spot into it.
	Currency string
	FXRate   float64

	// Floors for the curtailment sweep, SEK/kWh, strictly ascending.
	Floors []float64

	// Batteries are the candidate specs for the time-shifting scenario.
	Batteries []BatterySpec

	// Costs enables the spot_plus_fees decision basis and the fee-basis view.
	Costs *CostBlock

	// RetailPriceSEKPerKWh, when set, adds the self-consumption valuation
	// block to the hero section.
	RetailPriceSEKPerKWh *float64

	// Sections is the subset of payload sections to assemble. An unknown
	// name is a hard validation error. Empty means DefaultSections.
	Sections []string

	// SeriesSink, when non-empty, is a directory the full hourly series is
	// written to instead of being inlined in the payload.
	SeriesSink string
}

// Normalize fills defaults and validates the options.
func (o *RunOptions) Normalize() error {
	if o.Timezone == "" {
		o.Timezone = "Europe/Stockholm"
	}
	if o.Currency == "" {
		o.Currency = "SEK"
	}
	if o.FXRate == 0 {
		o.FXRate = 11.5
	}
	if o.FXRate < 0 {
		return errors.New("fx rate must be > 0")
	}
	if len(o.Floors) == 0 {
		o.Floors = append([]float64(nil), DefaultFloors...)
	}
	for i := 1; i < len(o.Floors); i++ {
		if o.Floors[i] <= o.Floors[i-1] {
			return fmt.Errorf("floors must be strictly ascending: floor[%d]=%g <= floor[%d]=%g",
				i, o.Floors[i], i-1, o.Floors[i-1])
		}
	}
	for i, b := range o.Batteries {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("battery %d: %w", i, err)
		}
		if b.Basis() == BasisSpotPlusFees && o.Costs == nil {
			return fmt.Errorf("battery %d: decision_basis spot_plus_fees requires a cost block", i)
		}
	}
	if o.Costs != nil {
		if err := o.Costs.Validate(); err != nil {
			return fmt.Errorf("costs: %w", err)
		}
	}
	if o.RetailPriceSEKPerKWh != nil && *o.RetailPriceSEKPerKWh < 0 {
		return errors.New("retail price must be >= 0")
	}
	if len(o.Sections) == 0 {
		o.Sections = append([]string(nil), DefaultSections...)
	}
	return nil
}
