// Package ppi100 reads the bromine price history table from 100ppi.com.
package ppi100

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"commoditybot/internal/browser"
	"commoditybot/internal/fetcher"
)

const (
	// DefaultURL is the bromine price basket page.
	DefaultURL = "https://pdata.100ppi.com/?f=basket&dir=hghy&id=643#hghy_643"
	// DefaultName labels the quote in reports.
	DefaultName = "溴素"

	rowSelector = "table.tab2 tr"

	colDate    = 0
	colPrice   = 1
	colPercent = 2
)

var hundred = decimal.NewFromInt(100)

// BromineFetcher reads the newest row of the price table.
type BromineFetcher struct {
	url           string
	name          string
	computeChange bool
	loader        browser.Loader
}

// NewBromineFetcher creates a new bromine fetcher. When computeChange is set
// the percent column is ignored and the change is derived from the last two rows.
func NewBromineFetcher(url, name string, computeChange bool, loader browser.Loader) *BromineFetcher {
	if name == "" {
		name = DefaultName
	}
	return &BromineFetcher{url: url, name: name, computeChange: computeChange, loader: loader}
}

// Fetch renders the history page and parses its last data row
func (f *BromineFetcher) Fetch(ctx context.Context) ([]fetcher.Quote, error) {
	html, err := f.loader.Load(ctx, f.url, browser.Element(rowSelector))
	if err != nil {
		return nil, err
	}
	q, err := ParseTable(html, f.name, f.computeChange)
	if err != nil {
		return nil, err
	}
	return []fetcher.Quote{q}, nil
}

// Key returns the log key for this fetcher
func (f *BromineFetcher) Key() string {
	return "fetcher:100ppi:bromine"
}

type row struct {
	date      string
	priceText string
	price     *decimal.Decimal
	percent   *decimal.Decimal
}

// ParseTable builds a quote from the last row with at least two cells. An
// unreadable price in that row is a partial-data error. The row's own percent
// column is used when present and numeric; otherwise the change is
// (last - previous) / previous * 100 rounded to two places, which needs at
// least two rows.
func ParseTable(html, name string, computeChange bool) (fetcher.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fetcher.Quote{}, fetcher.NewShapeError("unparseable html: %v", err)
	}

	var rows []row
	doc.Find(rowSelector).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		r := row{
			date:      strings.TrimSpace(cells.Eq(colDate).Text()),
			priceText: strings.TrimSpace(cells.Eq(colPrice).Text()),
		}
		if price, _, err := fetcher.ParseNumber(r.priceText); err == nil {
			r.price = fetcher.Ptr(price)
		}
		if cells.Length() > colPercent {
			if pct, _, err := fetcher.ParseNumber(cells.Eq(colPercent).Text()); err == nil {
				r.percent = fetcher.Ptr(pct)
			}
		}
		rows = append(rows, r)
	})

	if len(rows) == 0 {
		return fetcher.Quote{}, fetcher.NewShapeError("no bromine data rows")
	}

	last := rows[len(rows)-1]
	if last.price == nil {
		return fetcher.Quote{}, fetcher.NewPartialDataError("latest row %s: price %q is not a number", last.date, last.priceText)
	}
	q := fetcher.Quote{Name: name, Value: *last.price, AsOf: last.date}

	if !computeChange && last.percent != nil {
		q.ChangePercent = last.percent
		return q, nil
	}

	if len(rows) < 2 {
		return fetcher.Quote{}, fetcher.NewPartialDataError("need two rows to compute change, have %d", len(rows))
	}
	prev := rows[len(rows)-2]
	if prev.price == nil {
		return fetcher.Quote{}, fetcher.NewPartialDataError("previous row %s: price %q is not a number", prev.date, prev.priceText)
	}
	if prev.price.IsZero() {
		return fetcher.Quote{}, fetcher.NewPartialDataError("previous price is zero")
	}
	change := ChangePercent(*prev.price, *last.price)
	q.ChangePercent = &change
	return q, nil
}

// ChangePercent returns (cur - prev) / prev * 100 rounded to two decimal places.
func ChangePercent(prev, cur decimal.Decimal) decimal.Decimal {
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
}
