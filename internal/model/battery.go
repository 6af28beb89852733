package model

import "errors"

// DecisionBasis selects which price the battery charge heuristic compares
// against zero.
type DecisionBasis string

const (
	// BasisSpot uses the raw spot price.
	BasisSpot DecisionBasis = "spot"
	// BasisSpotPlusFees uses the fee/tax/VAT-adjusted effective price.
	BasisSpotPlusFees DecisionBasis = "spot_plus_fees"
)

// BatterySpec defines one candidate battery for the time-shifting scenario.
// Units:
// - CapacityKWh: kWh usable storage
// - PowerLimitKW: kW, caps per-hour charge and discharge energy
// - RoundTripEfficiency: 0..1, applied on the discharge side
// - DischargeHour: local hour-of-day (0..23) the daily discharge starts at
type BatterySpec struct {
	CapacityKWh         float64       `yaml:"capacity_kwh" json:"capacity_kwh"`
	PowerLimitKW        float64       `yaml:"power_kw" json:"power_kw"`
	RoundTripEfficiency float64       `yaml:"round_trip_efficiency" json:"round_trip_efficiency"`
	DischargeHour       int           `yaml:"discharge_hour" json:"discharge_hour"`
	DecisionBasis       DecisionBasis `yaml:"decision_basis" json:"decision_basis"`
}

func (b BatterySpec) Validate() error {
	if b.CapacityKWh <= 0 {
		return errors.New("capacity_kwh must be > 0")
	}
	if b.PowerLimitKW <= 0 {
		return errors.New("power_kw must be > 0")
	}
	if b.RoundTripEfficiency <= 0 || b.RoundTripEfficiency > 1 {
		return errors.New("round_trip_efficiency must be in (0, 1]")
	}
	if b.DischargeHour < 0 || b.DischargeHour > 23 {
		return errors.New("discharge_hour must be in 0..23")
	}
	switch b.DecisionBasis {
	case BasisSpot, BasisSpotPlusFees, "":
	default:
		return errors.New("decision_basis must be 'spot' or 'spot_plus_fees'")
	}
	return nil
}

// Basis returns the configured decision basis, defaulting to spot.
func (b BatterySpec) Basis() DecisionBasis {
	if b.DecisionBasis == "" {
		return BasisSpot
	}
	return b.DecisionBasis
}

// CostBlock carries the caller-supplied fixed costs and taxes used to build
// the fee-adjusted effective price.
type CostBlock struct {
	GridFeeSEKPerKWh   float64 `yaml:"grid_fee_sek_per_kwh" json:"grid_fee_sek_per_kwh"`
	EnergyTaxSEKPerKWh float64 `yaml:"energy_tax_sek_per_kwh" json:"energy_tax_sek_per_kwh"`
	VATRate            float64 `yaml:"vat_rate" json:"vat_rate"`
}

func (c CostBlock) Validate() error {
	if c.GridFeeSEKPerKWh < 0 || c.EnergyTaxSEKPerKWh < 0 {
		return errors.New("per-kWh fees must be >= 0")
	}
	if c.VATRate < 0 || c.VATRate > 1 {
		return errors.New("vat_rate must be in [0, 1]")
	}
	return nil
}

// EffectivePrice converts a spot price (SEK/kWh) into the fee-adjusted price
// used under the spot_plus_fees basis: fees are deducted per kWh, then VAT is
// applied multiplicatively so the sign of the adjusted price is preserved
// apart from the fee shift.
func (c CostBlock) EffectivePrice(spotSEKPerKWh float64) float64 {
	return (spotSEKPerKWh - c.GridFeeSEKPerKWh - c.EnergyTaxSEKPerKWh) * (1 + c.VATRate)
}
