// Package cnyes looks up energy futures closing prices on the cnyes quote board.
package cnyes

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"commoditybot/internal/browser"
	"commoditybot/internal/fetcher"
)

// DefaultURL is the energy futures board.
const DefaultURL = "https://www.cnyes.com/futures/energy2.aspx"

const (
	rowSelector = "table tr"

	colDate   = 0
	colName   = 1
	colClose  = 4
	colChange = 5

	// minCells filters out header and layout rows.
	minCells = 8
)

// Instrument names a lookup on the board. A row matches when its name cell
// contains any of the keywords (case-sensitive substring match).
type Instrument struct {
	Name     string
	Keywords []string
}

// DefaultInstruments are the three coal contracts tracked by the report.
var DefaultInstruments = []Instrument{
	{Name: "紐約煤西北歐", Keywords: []string{"紐約煤西北歐"}},
	{Name: "倫敦煤澳洲", Keywords: []string{"倫敦煤澳洲"}},
	{Name: "大連焦煤", Keywords: []string{"大連焦煤"}},
}

// FuturesFetcher scans the board for one instrument.
type FuturesFetcher struct {
	url        string
	instrument Instrument
	loader     browser.Loader
}

// NewFuturesFetcher creates a new coal-futures fetcher for one instrument.
func NewFuturesFetcher(url string, instrument Instrument, loader browser.Loader) *FuturesFetcher {
	if instrument.Name == "" {
		instrument.Name = strings.Join(instrument.Keywords, "、")
	}
	return &FuturesFetcher{url: url, instrument: instrument, loader: loader}
}

// Fetch renders the board and returns the first matching row.
func (f *FuturesFetcher) Fetch(ctx context.Context) ([]fetcher.Quote, error) {
	html, err := f.loader.Load(ctx, f.url, browser.Element(rowSelector))
	if err != nil {
		return nil, err
	}
	q, err := FindRow(html, f.instrument.Keywords)
	if err != nil {
		return nil, err
	}
	return []fetcher.Quote{q}, nil
}

// Name is the instrument's display name.
func (f *FuturesFetcher) Name() string {
	return f.instrument.Name
}

// Key returns the log key for this fetcher
func (f *FuturesFetcher) Key() string {
	return fmt.Sprintf("fetcher:cnyes:%s", f.instrument.Name)
}

// FindRow scans every board row and builds a quote from the first one whose
// name cell contains a keyword. No match is a not-found error.
func FindRow(html string, keywords []string) (fetcher.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fetcher.Quote{}, fetcher.NewShapeError("unparseable html: %v", err)
	}

	var (
		quote   fetcher.Quote
		found   bool
		cellErr error
	)
	doc.Find(rowSelector).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < minCells {
			return true
		}
		name := strings.TrimSpace(cells.Eq(colName).Text())
		if !containsAny(name, keywords) {
			return true
		}
		found = true
		quote, cellErr = rowQuote(name, cells)
		return false
	})

	if !found {
		return fetcher.Quote{}, fetcher.NewNotFoundError(strings.Join(keywords, "、"))
	}
	if cellErr != nil {
		return fetcher.Quote{}, cellErr
	}
	return quote, nil
}

func rowQuote(name string, cells *goquery.Selection) (fetcher.Quote, error) {
	date := strings.TrimSpace(cells.Eq(colDate).Text())
	closeText := strings.TrimSpace(cells.Eq(colClose).Text())
	changeText := strings.TrimSpace(cells.Eq(colChange).Text())

	value, _, err := fetcher.ParseNumber(closeText)
	if err != nil {
		return fetcher.Quote{}, fetcher.NewPartialDataError("%s: close %q is not a number", name, closeText)
	}
	q := fetcher.Quote{Name: name, Value: value, AsOf: date}

	if change, percent, err := fetcher.ParseNumber(changeText); err == nil {
		if percent {
			q.ChangePercent = fetcher.Ptr(change)
		} else {
			q.Change = fetcher.Ptr(change)
		}
	}
	return q, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
