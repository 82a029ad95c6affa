// Package report holds the aggregation root produced by every coordinator run.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"commoditybot/internal/fetcher"
)

// Category groups sources into report sections.
type Category string

const (
	CategoryCoconut Category = "coconut"
	CategoryCoal    Category = "coal"
	CategoryBromine Category = "bromine"
)

// Categories lists the sections in display order.
var Categories = []Category{CategoryCoconut, CategoryCoal, CategoryBromine}

// Entry is one configured source's outcome.
type Entry struct {
	ID       string         `json:"id"`
	Category Category       `json:"category"`
	Label    string         `json:"label"`
	Result   fetcher.Result `json:"-"`
}

// Report is a snapshot of every configured source. Entries follow
// configuration order, never completion order. Holders that hand a report to
// several readers give each one a Clone.
type Report struct {
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// New builds a report; entries are copied so later changes to the slice do
// not leak into the snapshot.
func New(entries []Entry, generatedAt time.Time) *Report {
	return &Report{
		Entries:     append([]Entry(nil), entries...),
		GeneratedAt: generatedAt,
	}
}

// Clone returns a copy that shares no entry, quote or change value with r.
// A FetchError is shared; nothing mutates one after classification.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := &Report{GeneratedAt: r.GeneratedAt}
	if r.Entries != nil {
		out.Entries = make([]Entry, len(r.Entries))
	}
	for i, e := range r.Entries {
		if e.Result.Quotes != nil {
			quotes := make([]fetcher.Quote, len(e.Result.Quotes))
			for j, q := range e.Result.Quotes {
				q.ChangePercent = cloneDecimal(q.ChangePercent)
				q.Change = cloneDecimal(q.Change)
				quotes[j] = q
			}
			e.Result.Quotes = quotes
		}
		out.Entries[i] = e
	}
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Len returns the number of source entries.
func (r *Report) Len() int {
	return len(r.Entries)
}

// Get returns the entry for a source id.
func (r *Report) Get(id string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Succeeded counts entries whose fetch succeeded.
func (r *Report) Succeeded() int {
	n := 0
	for _, e := range r.Entries {
		if e.Result.OK() {
			n++
		}
	}
	return n
}

// Section returns the entries of one category in report order.
func (r *Report) Section(c Category) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}
