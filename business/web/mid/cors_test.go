package mid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/argonsim/business/web/mid"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCors(t *testing.T) {
	type table struct {
		name      string
		origins   []string
		origin    string
		expOrigin string
		expVary   bool
	}

	tt := []table{
		{name: "wildcard", origins: []string{"*"}, origin: "http://sim.example", expOrigin: "*"},
		{name: "wildcard-no-origin", origins: []string{"*"}, origin: "", expOrigin: "*"},
		{name: "listed", origins: []string{"http://a.example", "http://sim.example"}, origin: "http://sim.example", expOrigin: "http://sim.example", expVary: true},
		{name: "unlisted", origins: []string{"http://a.example"}, origin: "http://sim.example", expOrigin: ""},
		{name: "none", origins: nil, origin: "http://sim.example", expOrigin: ""},
	}

	t.Log("Given the need to answer cross origin requests.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the origin is %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					var called bool
					handler := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						called = true
						return nil
					}

					r := httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil)
					if tst.origin != "" {
						r.Header.Set("Origin", tst.origin)
					}
					w := httptest.NewRecorder()

					if err := mid.Cors(tst.origins)(handler)(context.Background(), w, r); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould call the handler : %v", failed, testID, err)
					}
					if !called {
						t.Fatalf("\t%s\tTest %d:\tShould call the handler.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould call the handler.", success, testID)

					if got := w.Header().Get("Access-Control-Allow-Origin"); got != tst.expOrigin {
						t.Fatalf("\t%s\tTest %d:\tShould allow the right origin : got %q, exp %q", failed, testID, got, tst.expOrigin)
					}
					t.Logf("\t%s\tTest %d:\tShould allow the right origin.", success, testID)

					if got := w.Header().Get("Vary") == "Origin"; got != tst.expVary {
						t.Fatalf("\t%s\tTest %d:\tShould vary by origin only when echoing : got %v", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould vary by origin only when echoing.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
