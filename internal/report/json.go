package report

import (
	"encoding/json"

	"commoditybot/internal/fetcher"
)

type entryJSON struct {
	ID       string          `json:"id"`
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	OK       bool            `json:"ok"`
	Quotes   []fetcher.Quote `json:"quotes,omitempty"`
	Error    string          `json:"error,omitempty"`
	Kind     string          `json:"error_kind,omitempty"`
}

// MarshalJSON flattens each entry's Result into ok/quotes/error fields.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:       e.ID,
		Category: e.Category,
		Label:    e.Label,
		OK:       e.Result.OK(),
		Quotes:   e.Result.Quotes,
		Error:    e.Result.Reason(),
		Kind:     string(e.Result.Kind()),
	})
}
