// Package loader reads production and price CSV files into the aligned
// hourly table the engine consumes. It tolerates the common European export
// formats: semicolon separators, decimal commas, localized column headers.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"negprice/internal/model"
)

var timestampKeywords = []string{"datum", "date", "time", "tid", "timestamp"}
var productionKeywords = []string{"produktion", "production", "kwh", "mwh", "power"}
var priceKeywords = []string{"price_eur_per_mwh", "eur_per_mwh", "price", "pris", "spot"}

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02.01.2006 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
}

// LoadAligned reads an already-merged CSV (timestamp, production, price) into
// input rows. Naive timestamps are interpreted in tz. Rows with an empty or
// unparsable price keep a nil price; production failures coerce to 0.
func LoadAligned(path, tz string) ([]model.InputHour, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAligned(f, tz)
}

// ParseAligned is LoadAligned over an io.Reader.
func ParseAligned(r io.Reader, tz string) ([]model.InputHour, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	header, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	tsCol, err := findColumn(header, timestampKeywords, "timestamp")
	if err != nil {
		return nil, err
	}
	prodCol, err := findColumn(header, productionKeywords, "production")
	if err != nil {
		return nil, err
	}
	priceCol, err := findColumn(header, priceKeywords, "price")
	if err != nil {
		return nil, err
	}

	rows := make([]model.InputHour, 0, len(records))
	for i, rec := range records {
		ts, err := parseTimestamp(rec[tsCol], loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		row := model.InputHour{
			Timestamp:     ts,
			ProductionKWh: parseNumberOrZero(rec[prodCol]),
		}
		if v, ok := parseNumber(rec[priceCol]); ok {
			row.PriceEURPerMWh = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ProductionRow is one parsed row of a production-only CSV.
type ProductionRow struct {
	Timestamp     time.Time
	ProductionKWh float64
}

// LoadProduction reads a production-only CSV (timestamp + kWh).
func LoadProduction(path, tz string) ([]ProductionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProduction(f, tz)
}

// ParseProduction is LoadProduction over an io.Reader.
func ParseProduction(r io.Reader, tz string) ([]ProductionRow, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	header, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	tsCol, err := findColumn(header, timestampKeywords, "timestamp")
	if err != nil {
		return nil, err
	}
	prodCol, err := findColumn(header, productionKeywords, "production")
	if err != nil {
		return nil, err
	}
	rows := make([]ProductionRow, 0, len(records))
	for i, rec := range records {
		ts, err := parseTimestamp(rec[tsCol], loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, ProductionRow{
			Timestamp:     ts,
			ProductionKWh: parseNumberOrZero(rec[prodCol]),
		})
	}
	return rows, nil
}

// Join inner-joins production rows with an hourly EUR/MWh price series on the
// hour-floored timestamp.
func Join(production []ProductionRow, prices map[time.Time]float64) []model.InputHour {
	rows := make([]model.InputHour, 0, len(production))
	for _, p := range production {
		hour := p.Timestamp.Truncate(time.Hour)
		row := model.InputHour{Timestamp: p.Timestamp, ProductionKWh: p.ProductionKWh}
		if v, ok := prices[hour]; ok {
			price := v
			row.PriceEURPerMWh = &price
		}
		rows = append(rows, row)
	}
	return rows
}

// readTable reads the whole CSV, trying a semicolon separator first (common
// in European exports) and falling back to comma when the header stays one
// column wide.
func readTable(r io.Reader) (header []string, records [][]string, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	for _, sep := range []rune{';', ','} {
		cr := csv.NewReader(strings.NewReader(string(raw)))
		cr.Comma = sep
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		all, err := cr.ReadAll()
		if err != nil || len(all) == 0 {
			continue
		}
		if len(all[0]) > 1 || sep == ',' {
			return all[0], all[1:], nil
		}
	}
	return nil, nil, fmt.Errorf("could not parse CSV with ';' or ',' separator")
}

func findColumn(header []string, keywords []string, what string) (int, error) {
	for _, kw := range keywords {
		for i, col := range header {
			if strings.Contains(strings.ToLower(strings.TrimSpace(col)), kw) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("could not find %s column in header %v", what, header)
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseNumber handles both decimal points and decimal commas. An empty or
// non-numeric cell reports !ok rather than an error: missing prices are a
// legitimate state.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// Decimal comma, but only when no point competes with it.
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseNumberOrZero(s string) float64 {
	v, ok := parseNumber(s)
	if !ok {
		return 0
	}
	return v
}
