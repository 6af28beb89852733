package main

import (
	"flag"
	"fmt"
	"math"
	"time"

	"negprice/internal/engine"
	"negprice/internal/model"
)

// Demo:
// - Build a synthetic summer week with a solar bell curve and midday prices
//   dipping negative
// - Run the full analysis
// - Print the headline numbers and the mitigation scenarios
func main() {
	days := flag.Int("days", 7, "Number of days to synthesize")
	flag.Parse()

	rows := synthesize(*days)

	opts := model.RunOptions{
		Batteries: []model.BatterySpec{
			{CapacityKWh: 10, PowerLimitKW: 5, RoundTripEfficiency: 0.9, DischargeHour: 19},
		},
	}

	payload, err := engine.BuildReport(rows, opts, nil)
	if err != nil {
		panic(err)
	}

	h := payload.Hero
	fmt.Printf("Synthesized %d hours (%s to %s)\n\n", h.TotalHours, h.PeriodStart, h.PeriodEnd)
	fmt.Printf("Production            %8.1f kWh over %d producing hours\n", h.ProductionKWh, h.HoursWithProduction)
	fmt.Printf("Export value          %8.2f SEK\n", h.ExportValueSEK)
	fmt.Printf("Negative-price hours  %8d (%d during production)\n", h.HoursNegativeTotal, h.HoursNegativeDuringProduction)
	fmt.Printf("Negative value        %8.2f SEK (%.1f%% of production in negative hours)\n",
		h.NegativeValueSEK, h.ProductionDuringNegativeSharePct)
	fmt.Printf("Capture rate          %8.1f%% (timing discount %.1f%%)\n\n", h.CaptureRatePct, h.TimingDiscountPct)

	if sweep := payload.Scenarios.Curtailment; sweep != nil {
		fmt.Println("Curtailment floor sweep:")
		for _, pt := range sweep.Points {
			fmt.Printf("  floor %6.2f SEK/kWh: revenue %8.2f  lost %6.1f kWh (%4.1f%%)\n",
				pt.FloorSEKPerKWh, pt.RevenueSEK, pt.LostEnergyKWh, pt.LostEnergySharePct)
		}
		if sweep.RecommendedFloor != nil {
			fmt.Printf("  recommended floor: %.2f SEK/kWh\n", *sweep.RecommendedFloor)
		}
		fmt.Println()
	}

	if shift := payload.Scenarios.Battery; shift != nil {
		fmt.Println("Battery time-shifting:")
		for _, sc := range shift.Scenarios {
			fmt.Printf("  %4.0f kWh / %3.0f kW: shifted %6.1f kWh, incremental revenue %7.2f SEK (%.1f%% utilization)\n",
				sc.CapacityKWh, sc.PowerLimitKW, sc.EnergyShiftedKWh,
				sc.IncrementalRevenueSEK, sc.UtilizationPct)
		}
	}
}

// synthesize builds a bell-curve production profile peaking at noon, with
// spot prices that dip below zero in the middle of the day.
func synthesize(days int) []model.InputHour {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		panic(err)
	}
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)

	rows := make([]model.InputHour, 0, days*24)
	for d := 0; d < days; d++ {
		for hr := 0; hr < 24; hr++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(hr) * time.Hour)

			// Solar bell: zero at night, ~6 kWh at noon.
			prod := 0.0
			if hr >= 5 && hr <= 21 {
				prod = 6 * math.Exp(-math.Pow(float64(hr)-13, 2)/18)
				if prod < 0.05 {
					prod = 0
				}
			}

			// Duck-curve spot: expensive mornings and evenings, a midday dip
			// that goes negative on even days.
			eur := 60 - 55*math.Exp(-math.Pow(float64(hr)-13, 2)/8)
			if d%2 == 0 && hr >= 11 && hr <= 14 {
				eur = -15
			}

			rows = append(rows, model.InputHour{
				Timestamp:      ts,
				ProductionKWh:  prod,
				PriceEURPerMWh: &eur,
			})
		}
	}
	return rows
}
