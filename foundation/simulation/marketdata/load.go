package marketdata

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File names looked up by LoadDir.
const (
	BitcoinPricesFile = "bitcoinPrices.json"
	BitcoinFeesFile   = "bitcoinFeesPerTransaction.json"
	CPIFile           = "cpi.json"
	CrashScenarioFile = "terraScenario.json"
)

// number accepts a JSON number or a quoted number, since the generated
// data files carry both.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", data, err)
	}

	*n = number(v)
	return nil
}

// LoadBitcoinPrices reads a JSON array of {date, price} records.
func LoadBitcoinPrices(r io.Reader) (*Series, error) {
	var records []struct {
		Date  string `json:"date"`
		Price number `json:"price"`
	}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding bitcoin prices: %w", err)
	}

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		date, err := ParseDate(rec.Date)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Date: date, Value: float64(rec.Price)})
	}

	return newSeries(points), nil
}

// LoadBitcoinFees reads a JSON array of {date, feeInBitcoins} records.
func LoadBitcoinFees(r io.Reader) (*Series, error) {
	var records []struct {
		Date          string `json:"date"`
		FeeInBitcoins number `json:"feeInBitcoins"`
	}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding bitcoin fees: %w", err)
	}

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		date, err := ParseDate(rec.Date)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Date: date, Value: float64(rec.FeeInBitcoins)})
	}

	return newSeries(points), nil
}

// LoadCPI reads a JSON object keyed by year whose values are objects keyed
// by month name.
func LoadCPI(r io.Reader) (CPI, error) {
	var raw map[string]map[string]number
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding cpi: %w", err)
	}

	cpi := make(CPI, len(raw))
	for yearStr, months := range raw {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, fmt.Errorf("cpi year %q: %w", yearStr, err)
		}

		var values [12]float64
		for i, name := range Months {
			values[i] = float64(months[name])
		}
		cpi[year] = values
	}

	return cpi, nil
}

// LoadCrashScenario reads a JSON array of {date, circulationBurned,
// capitalOutflow} records and returns them in date order.
func LoadCrashScenario(r io.Reader) ([]CrashDay, error) {
	var records []struct {
		Date              string `json:"date"`
		CirculationBurned number `json:"circulationBurned"`
		CapitalOutflow    number `json:"capitalOutflow"`
	}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding crash scenario: %w", err)
	}

	days := make([]CrashDay, 0, len(records))
	for _, rec := range records {
		date, err := ParseDate(rec.Date)
		if err != nil {
			return nil, err
		}
		days = append(days, CrashDay{
			Date:              date,
			CirculationBurned: float64(rec.CirculationBurned),
			CapitalOutflow:    float64(rec.CapitalOutflow),
		})
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	return days, nil
}

// LoadCSVSeries reads a CSV file with a header row and builds a series from
// the named date and value columns.
func LoadCSVSeries(r io.Reader, dateColumn string, valueColumn string) (*Series, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return newSeries(nil), nil
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case dateColumn:
			dateIdx = i
		case valueColumn:
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("csv missing columns %q and %q", dateColumn, valueColumn)
	}

	points := make([]Point, 0, len(rows)-1)
	for _, row := range rows[1:] {
		date, err := ParseDate(strings.TrimSpace(row[dateIdx]))
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv value %q: %w", row[valueIdx], err)
		}

		points = append(points, Point{Date: date, Value: value})
	}

	return newSeries(points), nil
}

// =============================================================================

// LoadDir loads every known table found in the directory. Missing files
// leave the corresponding table empty.
func LoadDir(dir string) (Data, error) {
	var data Data

	var fees *Series
	loaders := []struct {
		name string
		load func(io.Reader) error
	}{
		{BitcoinPricesFile, func(r io.Reader) (err error) {
			data.BitcoinPrices, err = LoadBitcoinPrices(r)
			return err
		}},
		{BitcoinFeesFile, func(r io.Reader) (err error) {
			fees, err = LoadBitcoinFees(r)
			return err
		}},
		{CPIFile, func(r io.Reader) (err error) {
			data.CPI, err = LoadCPI(r)
			return err
		}},
		{CrashScenarioFile, func(r io.Reader) (err error) {
			data.CrashScenario, err = LoadCrashScenario(r)
			return err
		}},
	}

	for _, l := range loaders {
		if err := loadFile(filepath.Join(dir, l.name), l.load); err != nil {
			return Data{}, err
		}
	}

	if fees != nil {
		data.BitcoinFees = NewBitcoinFees(fees, data.BitcoinPrices)
	}

	return data, nil
}

func loadFile(path string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := load(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return nil
}
