package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"negprice/internal/config"
	"negprice/internal/engine"
	"negprice/internal/loader"
	"negprice/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		cmdAnalyze(os.Args[2:])
	case "inspect":
		cmdInspect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli analyze --data aligned.csv --config examples/config.yaml --out results/report.json")
	fmt.Println("  cli inspect --data aligned.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - analyze writes the full report payload as JSON (stdout when --out is empty)")
	fmt.Println("  - inspect prints a quick summary of the input table without running the engine")
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to aligned CSV (timestamp, production kWh, price EUR/MWh)")
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	sections := fs.String("sections", "", "Comma-separated payload sections (default: all)")
	floors := fs.String("floors", "", "Comma-separated curtailment floors in SEK/kWh, ascending")
	outPath := fs.String("out", "", "Output JSON path (default: stdout)")
	artifactDir := fs.String("artifacts", "", "Optional directory for the out-of-band hourly series")
	_ = fs.Parse(args)

	if *dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	opts := cfg.RunOptions()
	if *sections != "" {
		opts.Sections = splitList(*sections)
	}
	if *floors != "" {
		parsed, err := parseFloors(*floors)
		if err != nil {
			panic(err)
		}
		opts.Floors = parsed
	}

	rows, err := loader.LoadAligned(*dataPath, opts.Timezone)
	if err != nil {
		panic(err)
	}

	var sink engine.ArtifactSink
	if *artifactDir != "" {
		s, err := store.NewSink(*artifactDir)
		if err != nil {
			panic(err)
		}
		sink = s
	}

	payload, err := engine.BuildReport(rows, opts, sink)
	if err != nil {
		panic(err)
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		panic(err)
	}
	if *outPath == "" {
		fmt.Println(string(raw))
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %s\n", *outPath)
	if payload.Hero != nil {
		h := payload.Hero
		fmt.Printf("Period %s to %s: %.1f kWh produced, export value %.2f %s\n",
			h.PeriodStart, h.PeriodEnd, h.ProductionKWh, h.ExportValueSEK, opts.Currency)
		fmt.Printf("Negative-price hours: %d total, %d during production, cost %.2f %s\n",
			h.HoursNegativeTotal, h.HoursNegativeDuringProduction, h.NegativeValueSEK, opts.Currency)
	}
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to aligned CSV")
	tz := fs.String("tz", "Europe/Stockholm", "Timezone for naive timestamps")
	_ = fs.Parse(args)

	if *dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}

	rows, err := loader.LoadAligned(*dataPath, *tz)
	if err != nil {
		panic(err)
	}
	if len(rows) == 0 {
		fmt.Println("no rows")
		return
	}

	var totalKWh float64
	var producing, priced, negative int
	peak := rows[0]
	for _, r := range rows {
		totalKWh += r.ProductionKWh
		if r.ProductionKWh > 0 {
			producing++
		}
		if r.PriceEURPerMWh != nil {
			priced++
			if *r.PriceEURPerMWh < 0 {
				negative++
			}
		}
		if r.ProductionKWh > peak.ProductionKWh {
			peak = r
		}
	}

	fmt.Printf("%-22s %d\n", "rows", len(rows))
	fmt.Printf("%-22s %s to %s\n", "period",
		rows[0].Timestamp.Format("2006-01-02 15:04"),
		rows[len(rows)-1].Timestamp.Format("2006-01-02 15:04"))
	fmt.Printf("%-22s %.1f kWh\n", "total production", totalKWh)
	fmt.Printf("%-22s %d\n", "hours producing", producing)
	fmt.Printf("%-22s %d (%d negative)\n", "hours with price", priced, negative)
	fmt.Printf("%-22s %.2f kWh at %s\n", "peak hour", peak.ProductionKWh,
		peak.Timestamp.Format("2006-01-02 15:04"))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloors(s string) ([]float64, error) {
	parts := splitList(s)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad floor %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
