package marketdata_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func day(s string) time.Time {
	d, err := marketdata.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSeriesAt(t *testing.T) {
	series, err := marketdata.NewSeries(map[string]float64{
		"2022-01-10": 40_000,
		"2022-01-01": 47_000,
		"2022-02-01": 38_000,
	})
	if err != nil {
		t.Fatalf("Should be able to build a series : %s", err)
	}

	type table struct {
		name string
		date time.Time
		exp  float64
		ok   bool
	}

	tt := []table{
		{name: "before", date: day("2021-12-31"), exp: 0, ok: false},
		{name: "exact", date: day("2022-01-10"), exp: 40_000, ok: true},
		{name: "prior", date: day("2022-01-20"), exp: 40_000, ok: true},
		{name: "intraday", date: day("2022-01-01").Add(13 * time.Hour), exp: 47_000, ok: true},
		{name: "after", date: day("2023-06-01"), exp: 38_000, ok: true},
	}

	t.Log("Given the need to look up dated values.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen looking up the %s date.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got, ok := series.At(tst.date)
					if ok != tst.ok || got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould fall back to the nearest prior date : got %v %v, exp %v %v", failed, testID, got, ok, tst.exp, tst.ok)
					}
					t.Logf("\t%s\tTest %d:\tShould fall back to the nearest prior date.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Log("Given the need to parse the dates used by the data files.")
	{
		exp := day("2022-05-08")

		for testID, s := range []string{"2022-05-08", "2022/05/08", "May 8, 2022", "2022-05-08T15:04:05Z"} {
			t.Logf("\tTest %d:\tWhen parsing %q.", testID, s)
			{
				got, err := marketdata.ParseDate(s)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to parse the date : %s", failed, testID, err)
				}
				if !got.Equal(exp) {
					t.Fatalf("\t%s\tTest %d:\tShould land on midnight UTC : got %v", failed, testID, got)
				}
				t.Logf("\t%s\tTest %d:\tShould land on midnight UTC.", success, testID)
			}
		}

		testID := 4
		t.Logf("\tTest %d:\tWhen parsing garbage.", testID)
		{
			if _, err := marketdata.ParseDate("yesterday"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the date.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the date.", success, testID)
		}
	}
}

func TestLoaders(t *testing.T) {
	t.Log("Given the need to load market data.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen prices mix numbers and strings.", testID)
		{
			const doc = `[{"date":"2022-01-02","price":"46000.5"},{"date":"2022-01-01","price":47000}]`

			series, err := marketdata.LoadBitcoinPrices(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load prices : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load prices.", success, testID)

			first, _ := series.First()
			latest, _ := series.Latest()
			if first.Value != 47_000 || latest.Value != 46_000.5 {
				t.Fatalf("\t%s\tTest %d:\tShould order points by date : got %v %v", failed, testID, first, latest)
			}
			t.Logf("\t%s\tTest %d:\tShould order points by date.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a number is malformed.", testID)
		{
			const doc = `[{"date":"2022-01-01","price":"lots"}]`

			if _, err := marketdata.LoadBitcoinPrices(strings.NewReader(doc)); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the document.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the document.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen loading the CPI table.", testID)
		{
			const doc = `{"2021":{"January":261.582,"December":"278.802"}}`

			cpi, err := marketdata.LoadCPI(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the cpi : %s", failed, testID, err)
			}

			if v, ok := cpi.Value(2021, time.December); !ok || v != 278.802 {
				t.Fatalf("\t%s\tTest %d:\tShould find December : got %v %v", failed, testID, v, ok)
			}
			if _, ok := cpi.Value(2021, time.June); ok {
				t.Fatalf("\t%s\tTest %d:\tShould not find June.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould index months by name.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen loading a csv series.", testID)
		{
			const doc = "Date,Open,Close\n2022-01-02,1,2\n2022-01-01,3,4\n"

			series, err := marketdata.LoadCSVSeries(strings.NewReader(doc), "Date", "Close")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the csv : %s", failed, testID, err)
			}
			if v, _ := series.At(day("2022-01-01")); v != 4 || series.Len() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould read the named column : got %v", failed, testID, v)
			}
			t.Logf("\t%s\tTest %d:\tShould read the named column.", success, testID)

			if _, err := marketdata.LoadCSVSeries(strings.NewReader(doc), "Date", "Volume"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a missing column.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a missing column.", success, testID)
		}
	}
}

func TestLoadDir(t *testing.T) {
	t.Log("Given the need to load a data directory.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen some files are missing.", testID)
		{
			dir := t.TempDir()

			files := map[string]string{
				marketdata.BitcoinPricesFile: `[{"date":"2022-05-01","price":40000}]`,
				marketdata.BitcoinFeesFile:   `[{"date":"2022-05-01","feeInBitcoins":0.0001}]`,
				marketdata.CrashScenarioFile: `[{"date":"2022-05-10","circulationBurned":2,"capitalOutflow":20},{"date":"May 9, 2022","circulationBurned":1,"capitalOutflow":10}]`,
			}
			for name, doc := range files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0600); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write %s : %s", failed, testID, name, err)
				}
			}

			data, err := marketdata.LoadDir(dir)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the directory : %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the directory.", success, testID)

			if data.CPI != nil {
				t.Fatalf("\t%s\tTest %d:\tShould leave the cpi empty.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the cpi empty.", success, testID)

			fee, err := data.BitcoinFees.InDollars(day("2022-05-03"))
			if err != nil || math.Abs(fee-4) > 1e-9 {
				t.Fatalf("\t%s\tTest %d:\tShould price fees in dollars : got %v, %v", failed, testID, fee, err)
			}
			t.Logf("\t%s\tTest %d:\tShould price fees in dollars.", success, testID)

			if _, err := data.BitcoinFees.InDollars(day("2022-04-01")); !errors.Is(err, marketdata.ErrNoData) {
				t.Fatalf("\t%s\tTest %d:\tShould report missing data : got %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report missing data.", success, testID)

			if len(data.CrashScenario) != 2 || data.CrashScenario[0].CapitalOutflow != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould order the crash by date : got %+v", failed, testID, data.CrashScenario)
			}
			t.Logf("\t%s\tTest %d:\tShould order the crash by date.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a file is corrupt.", testID)
		{
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, marketdata.CPIFile), []byte("{"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file : %s", failed, testID, err)
			}

			if _, err := marketdata.LoadDir(dir); err == nil || !strings.Contains(err.Error(), marketdata.CPIFile) {
				t.Fatalf("\t%s\tTest %d:\tShould name the corrupt file : got %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould name the corrupt file.", success, testID)
		}
	}
}
