package models

import (
	"time"

	"negprice/internal/model"
)

// AnalyzeRequest is the request body for running one analysis. The aligned
// table arrives either as raw CSV content or as inline rows; everything else
// overrides the server's configured defaults when set.
type AnalyzeRequest struct {
	// CSV is aligned CSV content (timestamp, production, price columns).
	CSV string `json:"csv,omitempty"`
	// Rows is the inline alternative to CSV.
	Rows []RowInput `json:"rows,omitempty"`

	Timezone             string              `json:"timezone,omitempty"`
	Currency             string              `json:"currency,omitempty"`
	EURToSEKRate         float64             `json:"eur_sek_rate,omitempty"`
	Floors               []float64           `json:"floors,omitempty"`
	Sections             []string            `json:"sections,omitempty"`
	Batteries            []model.BatterySpec `json:"batteries,omitempty"`
	Costs                *model.CostBlock    `json:"costs,omitempty"`
	RetailPriceSEKPerKWh *float64            `json:"retail_price_sek_per_kwh,omitempty"`
}

// RowInput is one inline hour of the aligned table.
type RowInput struct {
	Timestamp      time.Time `json:"timestamp" binding:"required"`
	ProductionKWh  float64   `json:"production_kwh"`
	PriceEURPerMWh *float64  `json:"price_eur_per_mwh"`
}

// Options merges the request overrides onto the server defaults.
func (r AnalyzeRequest) Options(defaults model.RunOptions) model.RunOptions {
	opts := defaults
	if r.Timezone != "" {
		opts.Timezone = r.Timezone
	}
	if r.Currency != "" {
		opts.Currency = r.Currency
	}
	if r.EURToSEKRate != 0 {
		opts.FXRate = r.EURToSEKRate
	}
	if len(r.Floors) > 0 {
		opts.Floors = r.Floors
	}
	if len(r.Sections) > 0 {
		opts.Sections = r.Sections
	}
	if len(r.Batteries) > 0 {
		opts.Batteries = r.Batteries
	}
	if r.Costs != nil {
		opts.Costs = r.Costs
	}
	if r.RetailPriceSEKPerKWh != nil {
		opts.RetailPriceSEKPerKWh = r.RetailPriceSEKPerKWh
	}
	return opts
}
