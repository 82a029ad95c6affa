package fetcher

import "github.com/shopspring/decimal"

// Quote is one normalized price data point.
type Quote struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	// Unit is a display hint such as "US$/KG"; empty when the source gives none.
	Unit string `json:"unit,omitempty"`
	// ChangePercent is the signed relative change; nil when the source has none.
	ChangePercent *decimal.Decimal `json:"change_percent,omitempty"`
	// Change is a signed absolute change for sources that publish points, not percent.
	Change *decimal.Decimal `json:"change,omitempty"`
	// AsOf is the source's own period label ("May 2025", "2025-06-13", ...).
	AsOf string `json:"as_of,omitempty"`
}

// Direction returns the sign that drives the up/down indicator and whether
// the quote carries any change at all. ChangePercent wins over Change.
func (q Quote) Direction() (sign int, ok bool) {
	switch {
	case q.ChangePercent != nil:
		return q.ChangePercent.Sign(), true
	case q.Change != nil:
		return q.Change.Sign(), true
	}
	return 0, false
}

// Ptr returns a pointer to d, for the optional decimal fields of Quote.
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
