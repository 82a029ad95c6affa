// Package businessanalytiq scrapes activated-carbon prices per region from the
// businessanalytiq procurement index page.
package businessanalytiq

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"commoditybot/internal/browser"
	"commoditybot/internal/fetcher"
)

const (
	// DefaultURL is the activated charcoal price index page.
	DefaultURL = "https://businessanalytiq.com/procurementanalytics/index/activated-charcoal-prices/"
	// DefaultMarker is matched case-insensitively against <h3> headings.
	DefaultMarker = "activated carbon price"

	// Unit is attached to every quote this source produces.
	Unit = "US$/KG"
)

var (
	entryPattern = regexp.MustCompile(`^(.+?):\s*US\$\s*(\d+(?:\.\d+)?)\s*/\s*(?i:kg)\s*,?\s*(?:([-+]?\d+(?:\.\d+)?)\s*%?)?\s*(up|down)?`)
	asOfPattern  = regexp.MustCompile(`([A-Za-z]+ \d{4})`)
)

// CharcoalFetcher reads the regional price list following the marker heading.
type CharcoalFetcher struct {
	url    string
	marker string
	loader browser.Loader
}

// NewCharcoalFetcher creates a new coconut-carbon fetcher. The page is static,
// so loader is normally a browser.Static.
func NewCharcoalFetcher(url, marker string, loader browser.Loader) *CharcoalFetcher {
	if marker == "" {
		marker = DefaultMarker
	}
	return &CharcoalFetcher{
		url:    url,
		marker: strings.ToLower(marker),
		loader: loader,
	}
}

// Fetch retrieves the price list. Entries that do not match the expected
// pattern are skipped; a list with no usable entry is a shape error.
func (f *CharcoalFetcher) Fetch(ctx context.Context) ([]fetcher.Quote, error) {
	html, err := f.loader.Load(ctx, f.url, browser.Wait{})
	if err != nil {
		return nil, err
	}
	return ParsePage(html, f.marker)
}

// Key returns the log key for this fetcher
func (f *CharcoalFetcher) Key() string {
	return "fetcher:businessanalytiq:activated-charcoal"
}

// ParsePage extracts quotes from the list that follows the first <h3>
// containing marker.
func ParsePage(html, marker string) ([]fetcher.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fetcher.NewShapeError("unparseable html: %v", err)
	}

	marker = strings.ToLower(marker)
	var heading *goquery.Selection
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), marker) {
			heading = s
			return false
		}
		return true
	})
	if heading == nil {
		return nil, fetcher.NewShapeError("heading %q not found", marker)
	}

	list := heading.NextAllFiltered("ul").First()
	if list.Length() == 0 {
		return nil, fetcher.NewShapeError("no list after heading %q", marker)
	}

	var quotes []fetcher.Quote
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		if q, ok := ParseEntry(li.Text()); ok {
			quotes = append(quotes, q)
		}
	})
	if len(quotes) == 0 {
		return nil, fetcher.NewShapeError("no list entry matched the price pattern")
	}
	return quotes, nil
}

// ParseEntry parses one "<name>:US$<price>/KG, <percent>% <up|down> <Month> <Year>"
// line. The percent, direction and date parts are optional.
func ParseEntry(text string) (fetcher.Quote, bool) {
	text = strings.Join(strings.Fields(text), " ")
	m := entryPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return fetcher.Quote{}, false
	}
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	price, err := decimal.NewFromString(group(2))
	if err != nil {
		return fetcher.Quote{}, false
	}
	q := fetcher.Quote{
		Name:  strings.TrimSpace(group(1)),
		Value: price,
		Unit:  Unit,
	}

	if pct := group(3); pct != "" {
		change, err := decimal.NewFromString(strings.TrimPrefix(pct, "+"))
		if err != nil {
			return fetcher.Quote{}, false
		}
		switch group(4) {
		case "down":
			change = change.Abs().Neg()
		case "up":
			change = change.Abs()
		}
		q.ChangePercent = fetcher.Ptr(change)
	}

	if date := asOfPattern.FindStringSubmatch(text[m[1]:]); date != nil {
		q.AsOf = date[1]
	}
	return q, true
}

// FormatEntry writes q back in the page's list-entry form; ParseEntry(FormatEntry(q))
// recovers the name, price, signed change and date.
func FormatEntry(q fetcher.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:US$%s/KG", q.Name, q.Value.String())
	if q.ChangePercent != nil {
		dir := "down"
		if q.ChangePercent.Sign() > 0 {
			dir = "up"
		}
		fmt.Fprintf(&b, ", %s%% %s", q.ChangePercent.Abs().String(), dir)
	}
	if q.AsOf != "" {
		b.WriteString(" ")
		b.WriteString(q.AsOf)
	}
	return b.String()
}
