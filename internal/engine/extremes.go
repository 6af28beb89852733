package engine

import (
	"sort"
	"time"

	"negprice/internal/model"
)

// HourExtreme is one ranked hour in the worst/best lists.
type HourExtreme struct {
	TimestampLocal time.Time `json:"timestamp_local"`
	ProductionKWh  float64   `json:"production_kwh"`
	PriceSEKPerKWh float64   `json:"price_sek_per_kwh"`
	RevenueSEK     float64   `json:"revenue_sek"`
}

// StreakInfo describes the longest negative-during-production run.
type StreakInfo struct {
	ClusterID  string    `json:"cluster_id"`
	Hours      int       `json:"hours"`
	StartLocal time.Time `json:"start_local"`
	EndLocal   time.Time `json:"end_local"`
	EnergyKWh  float64   `json:"energy_kwh"`
	CostSEK    float64   `json:"cost_sek"`
}

// ClusterInfo is the serialized form of one detected cluster.
type ClusterInfo struct {
	ID          string    `json:"id"`
	StartLocal  time.Time `json:"start_local"`
	EndLocal    time.Time `json:"end_local"`
	Hours       int       `json:"hours"`
	EnergyKWh   float64   `json:"energy_kwh"`
	CostSEK     float64   `json:"cost_sek"`
	MinPriceSEK float64   `json:"min_price_sek_per_kwh"`
}

// Archetype characterizes the typical worst hour: the modal hour-of-day and
// month among producing hours with a negative price.
type Archetype struct {
	HourOfDay        int     `json:"hour_of_day"`
	Month            string  `json:"month"`
	Occurrences      int     `json:"occurrences"`
	AvgProductionKWh float64 `json:"avg_production_kwh"`
	AvgPriceSEK      float64 `json:"avg_price_sek_per_kwh"`
}

// Extremes is the extremes section of the payload.
type Extremes struct {
	WorstHours            []HourExtreme `json:"worst_hours"`
	BestHours             []HourExtreme `json:"best_hours"`
	LongestNegativeStreak *StreakInfo   `json:"longest_negative_streak"`
	WorstHourArchetype    *Archetype    `json:"worst_hour_archetype"`
	Clusters              []ClusterInfo `json:"clusters"`
}

const extremeHourCount = 10

// ComputeExtremes ranks the best and worst hours by revenue and surfaces the
// longest negative streak and the worst-hour archetype.
func ComputeExtremes(tbl *model.Table, clusters []model.Cluster) *Extremes {
	var ranked []HourExtreme
	for _, h := range tbl.Hours {
		rev, ok := h.Revenue()
		if !ok {
			continue
		}
		price, _ := h.Price()
		ranked = append(ranked, HourExtreme{
			TimestampLocal: h.TimestampLocal,
			ProductionKWh:  h.ProductionKWh,
			PriceSEKPerKWh: price,
			RevenueSEK:     rev,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].RevenueSEK < ranked[j].RevenueSEK })

	e := &Extremes{
		WorstHours:         firstN(ranked, extremeHourCount),
		WorstHourArchetype: worstArchetype(tbl),
	}
	reversed := make([]HourExtreme, len(ranked))
	for i, r := range ranked {
		reversed[len(ranked)-1-i] = r
	}
	e.BestHours = firstN(reversed, extremeHourCount)

	for _, c := range clusters {
		e.Clusters = append(e.Clusters, ClusterInfo{
			ID:          c.ID,
			StartLocal:  c.StartLocal,
			EndLocal:    c.EndLocal,
			Hours:       c.Hours,
			EnergyKWh:   c.EnergyKWh,
			CostSEK:     c.CostSEK,
			MinPriceSEK: c.MinPriceSEK,
		})
	}
	if longest := LongestCluster(clusters); longest != nil {
		e.LongestNegativeStreak = &StreakInfo{
			ClusterID:  longest.ID,
			Hours:      longest.Hours,
			StartLocal: longest.StartLocal,
			EndLocal:   longest.EndLocal,
			EnergyKWh:  longest.EnergyKWh,
			CostSEK:    longest.CostSEK,
		}
	}
	return e
}

func firstN(s []HourExtreme, n int) []HourExtreme {
	if len(s) > n {
		s = s[:n]
	}
	return append([]HourExtreme(nil), s...)
}

// worstArchetype picks the modal hour-of-day and modal month over producing
// hours with a negative price. Modal ties go to the earlier hour/month.
func worstArchetype(tbl *model.Table) *Archetype {
	var hourCount [24]int
	monthCount := map[string]int{}
	var n int
	var prodSum, priceSum float64
	for _, h := range tbl.Hours {
		if !h.IsProducing || !h.IsNegativePrice {
			continue
		}
		n++
		hourCount[h.TimestampLocal.Hour()]++
		monthCount[h.TimestampLocal.Format("2006-01")]++
		prodSum += h.ProductionKWh
		if p, ok := h.Price(); ok {
			priceSum += p
		}
	}
	if n == 0 {
		return nil
	}
	a := &Archetype{
		Occurrences:      n,
		AvgProductionKWh: prodSum / float64(n),
		AvgPriceSEK:      priceSum / float64(n),
	}
	for hod, c := range hourCount {
		if c > hourCount[a.HourOfDay] {
			a.HourOfDay = hod
		}
	}
	months := make([]string, 0, len(monthCount))
	for m := range monthCount {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		if a.Month == "" || monthCount[m] > monthCount[a.Month] {
			a.Month = m
		}
	}
	return a
}
