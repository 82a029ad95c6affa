package fetcher

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber parses a price or change cell as printed on a page. It tolerates
// thousands separators, a leading "+", a trailing "%", surrounding spaces and
// full-width minus signs. The bool reports whether the cell ended in "%".
func ParseNumber(cell string) (decimal.Decimal, bool, error) {
	s := strings.TrimSpace(cell)
	s = strings.NewReplacer(",", "", "，", "", "−", "-", "－", "-", "＋", "+", "％", "%").Replace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, percent, err
	}
	return d, percent, nil
}
