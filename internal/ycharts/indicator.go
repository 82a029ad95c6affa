// Package ycharts reads a single economic indicator (the US coal-mining
// producer price index by default) from its ycharts summary tables.
package ycharts

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"commoditybot/internal/browser"
	"commoditybot/internal/fetcher"
)

const (
	// DefaultURL is the coal-mining PPI indicator page.
	DefaultURL = "https://ycharts.com/indicators/us_producer_price_index_coal_mining"
	// DefaultName labels the quote in reports.
	DefaultName = "FRED"

	tableSelector = "table.table"

	labelValue  = "Last Value"
	labelPeriod = "Latest Period"
	labelChange = "Change from Last Month"

	// minTables is how many summary tables must be present before the page is
	// trusted; the first table alone renders before the data has loaded.
	minTables = 2
)

// IndicatorFetcher reads the latest value, period and monthly change.
type IndicatorFetcher struct {
	url    string
	name   string
	loader browser.Loader
}

// NewIndicatorFetcher creates a new coal-index fetcher.
func NewIndicatorFetcher(url, name string, loader browser.Loader) *IndicatorFetcher {
	if name == "" {
		name = DefaultName
	}
	return &IndicatorFetcher{url: url, name: name, loader: loader}
}

// Fetch renders the indicator page and reads its labeled rows
func (f *IndicatorFetcher) Fetch(ctx context.Context) ([]fetcher.Quote, error) {
	html, err := f.loader.Load(ctx, f.url, browser.AtLeast(tableSelector, minTables))
	if err != nil {
		return nil, err
	}
	q, err := ParsePage(html, f.name)
	if err != nil {
		return nil, err
	}
	return []fetcher.Quote{q}, nil
}

// Key returns the log key for this fetcher
func (f *IndicatorFetcher) Key() string {
	return fmt.Sprintf("fetcher:ycharts:%s", f.name)
}

// ParsePage indexes every two-cell row of the summary tables by its label and
// builds the quote from the value, period and change rows.
func ParsePage(html, name string) (fetcher.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fetcher.Quote{}, fetcher.NewShapeError("unparseable html: %v", err)
	}

	tables := doc.Find(tableSelector)
	if tables.Length() < minTables {
		return fetcher.Quote{}, fetcher.NewShapeError("found %d summary tables, want at least %d", tables.Length(), minTables)
	}

	rows := map[string]string{}
	tables.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() != 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		rows[label] = strings.TrimSpace(cells.Eq(1).Text())
	})

	value, hasValue := rows[labelValue]
	period, hasPeriod := rows[labelPeriod]
	switch {
	case !hasValue && !hasPeriod:
		return fetcher.Quote{}, fetcher.NewShapeError("rows %q and %q not found", labelValue, labelPeriod)
	case !hasValue || value == "":
		return fetcher.Quote{}, fetcher.NewPartialDataError("row %q missing", labelValue)
	case !hasPeriod || period == "":
		return fetcher.Quote{}, fetcher.NewPartialDataError("row %q missing", labelPeriod)
	}

	v, _, err := fetcher.ParseNumber(firstField(value))
	if err != nil {
		return fetcher.Quote{}, fetcher.NewShapeError("value %q is not a number", value)
	}
	q := fetcher.Quote{Name: name, Value: v, AsOf: period}

	if change, ok := rows[labelChange]; ok && change != "" {
		d, _, err := fetcher.ParseNumber(firstField(change))
		if err == nil {
			q.ChangePercent = fetcher.Ptr(d)
		}
	}
	return q, nil
}

// firstField drops trailing annotations such as units ("253.41 index").
func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
