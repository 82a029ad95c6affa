package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"commoditybot/internal/fetcher"
)

func sample() *Report {
	return New([]Entry{
		{ID: "coconut", Category: CategoryCoconut, Result: fetcher.Success("k1", []fetcher.Quote{{Name: "China", Value: decimal.NewFromInt(2)}})},
		{ID: "coal-index", Category: CategoryCoal, Result: fetcher.Failure("k2", errors.New("boom"))},
		{ID: "coal-dalian", Category: CategoryCoal, Result: fetcher.Success("k3", nil)},
		{ID: "bromine", Category: CategoryBromine, Result: fetcher.Failure("k4", fetcher.NewNotFoundError("x"))},
	}, time.Date(2025, 6, 13, 8, 0, 0, 0, time.UTC))
}

func TestReport_Accessors(t *testing.T) {
	r := sample()

	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
	if r.Succeeded() != 2 {
		t.Errorf("Succeeded() = %d, want 2", r.Succeeded())
	}
	if got := len(r.Section(CategoryCoal)); got != 2 {
		t.Errorf("len(Section(coal)) = %d, want 2", got)
	}

	e, ok := r.Get("coal-dalian")
	if !ok {
		t.Fatal("Get(coal-dalian) not found")
	}
	if !e.Result.Empty() {
		t.Error("coal-dalian should be an empty success")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestNew_CopiesEntries(t *testing.T) {
	entries := []Entry{{ID: "a"}}
	r := New(entries, time.Now())
	entries[0].ID = "changed"

	if r.Entries[0].ID != "a" {
		t.Errorf("report entry mutated through caller slice: %q", r.Entries[0].ID)
	}
}

func TestReport_Clone(t *testing.T) {
	r := New([]Entry{
		{ID: "bromine", Result: fetcher.Success("k", []fetcher.Quote{{Name: "Bromine", Value: decimal.NewFromInt(100), Change: fetcher.Ptr(decimal.NewFromInt(3))}})},
		{ID: "coal-index", Result: fetcher.Failure("k2", errors.New("boom"))},
	}, time.Unix(1, 0))

	c := r.Clone()
	if c.Len() != r.Len() || !c.GeneratedAt.Equal(r.GeneratedAt) {
		t.Fatalf("Clone() = %+v, want same shape as original", c)
	}
	if c.Entries[1].Result.Error == nil {
		t.Error("Clone() dropped the failure")
	}

	c.Entries[0].Result.Quotes[0].Name = "edited"
	*c.Entries[0].Result.Quotes[0].Change = decimal.Zero
	c.Entries[1].ID = "edited"

	q := r.Entries[0].Result.Quotes[0]
	if q.Name != "Bromine" || !q.Change.Equal(decimal.NewFromInt(3)) {
		t.Errorf("original quote changed to %+v", q)
	}
	if r.Entries[1].ID != "coal-index" {
		t.Errorf("original entry id changed to %q", r.Entries[1].ID)
	}

	var nilReport *Report
	if nilReport.Clone() != nil {
		t.Error("nil Clone() should be nil")
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sample())
	if err != nil {
		t.Fatalf("json.Marshal() returned unexpected error: %v", err)
	}
	s := string(data)

	for _, want := range []string{`"ok":true`, `"ok":false`, `"error_kind":"not_found"`, `"name":"China"`, `"value":"2"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
}
