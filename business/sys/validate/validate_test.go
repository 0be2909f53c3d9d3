package validate_test

import (
	"testing"

	"github.com/ardanlabs/argonsim/business/sys/validate"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCheckRules(t *testing.T) {
	type table struct {
		name   string
		mutate func(r *rules.Rules)
		fields []string
	}

	tt := []table{
		{"defaults", func(r *rules.Rules) {}, nil},
		{"negative circulation", func(r *rules.Rules) { r.Circulation = -1 }, []string{"circulation"}},
		{"capacity over 100", func(r *rules.Rules) { r.BtcVaultCapacityPct = 101 }, []string{"btcVaultCapacityPct"}},
		{"greed high below low", func(r *rules.Rules) { r.CertaintyGreedHigh = 1 }, []string{"certaintyGreedHigh"}},
		{"latency high below low", func(r *rules.Rules) {
			r.SpeculativeLatencyLow = 48
			r.SpeculativeLatencyHigh = 24
		}, []string{"speculativeLatencyHigh"}},
	}

	t.Log("Given the need to validate rules.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
				{
					r := rules.Default()
					tst.mutate(&r)

					err := validate.Check(r)
					if tst.fields == nil {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be valid: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be valid.", success, testID)
						return
					}

					fe := validate.GetFieldErrors(err)
					if fe == nil {
						t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

					fields := fe.Fields()
					for _, name := range tst.fields {
						if _, exists := fields[name]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould name field %q: %v", failed, testID, name, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould name the invalid fields.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
