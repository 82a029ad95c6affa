package render

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/report"
)

func pct(s string) *decimal.Decimal {
	return fetcher.Ptr(decimal.RequireFromString(s))
}

func sampleReport() *report.Report {
	return report.New([]report.Entry{
		{ID: "coconut", Category: report.CategoryCoconut, Label: "椰殼活性碳", Result: fetcher.Success("k1", []fetcher.Quote{
			{Name: "China", Value: decimal.RequireFromString("1.85"), Unit: "US$/KG", ChangePercent: pct("0.5"), AsOf: "May 2025"},
			{Name: "India", Value: decimal.RequireFromString("1.2"), Unit: "US$/KG", ChangePercent: pct("-2.3")},
		})},
		{ID: "coal-index", Category: report.CategoryCoal, Label: "FRED", Result: fetcher.Failure("k2", fetcher.NewNetworkError(errors.New("refused")))},
		{ID: "coal-dalian", Category: report.CategoryCoal, Label: "大連焦煤", Result: fetcher.Success("k3", nil)},
		{ID: "bromine", Category: report.CategoryBromine, Label: "溴素", Result: fetcher.Success("k4", []fetcher.Quote{
			{Name: "溴素", Value: decimal.RequireFromString("105.00"), ChangePercent: pct("5"), AsOf: "2025-06-13"},
		})},
	}, time.Date(2025, 6, 13, 8, 30, 0, 0, time.UTC))
}

func TestArrow(t *testing.T) {
	tests := []struct {
		sign int
		want string
	}{
		{1, ArrowUp},
		{0, ArrowDown},
		{-1, ArrowDown},
	}

	for _, tt := range tests {
		if got := Arrow(tt.sign); got != tt.want {
			t.Errorf("Arrow(%d) = %q, want %q", tt.sign, got, tt.want)
		}
	}
}

func TestQuoteLine(t *testing.T) {
	tests := []struct {
		name string
		q    fetcher.Quote
		want string
	}{
		{
			name: "up with date",
			q:    fetcher.Quote{Name: "China", Value: decimal.RequireFromString("1.85"), Unit: "US$/KG", ChangePercent: pct("0.5"), AsOf: "May 2025"},
			want: "China：1.85 US$/KG  ⬆️ 0.50%（May 2025）",
		},
		{
			name: "zero renders down",
			q:    fetcher.Quote{Name: "FRED", Value: decimal.RequireFromString("253.41"), ChangePercent: pct("0")},
			want: "FRED：253.41  ⬇️ 0.00%",
		},
		{
			name: "negative",
			q:    fetcher.Quote{Name: "India", Value: decimal.RequireFromString("1.2"), ChangePercent: pct("-2.3")},
			want: "India：1.20  ⬇️ 2.30%",
		},
		{
			name: "absolute change",
			q:    fetcher.Quote{Name: "紐約煤西北歐 07", Value: decimal.RequireFromString("102.5"), Change: pct("1.25"), AsOf: "06/13"},
			want: "紐約煤西北歐 07：102.50  ⬆️ 1.25（06/13）",
		},
		{
			name: "no change",
			q:    fetcher.Quote{Name: "USA", Value: decimal.RequireFromString("3.1")},
			want: "USA：3.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteLine(tt.q); got != tt.want {
				t.Errorf("QuoteLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestText_Render(t *testing.T) {
	msg := (&Text{Location: time.UTC}).Render(sampleReport())

	if msg.Card != nil {
		t.Error("text renderer should not produce a card")
	}

	want := strings.Join([]string{
		"📊 原物料價格報告（2025-06-13 08:30）",
		"",
		"🥥 椰殼活性碳價格：",
		"China：1.85 US$/KG  ⬆️ 0.50%（May 2025）",
		"India：1.20 US$/KG  ⬇️ 2.30%",
		"",
		"🪨 煤質活性碳價格：",
		"FRED ❌ 抓取失敗",
		"大連焦煤：暫無資料",
		"",
		"🧪 溴素最新價格：",
		"溴素：105.00  ⬆️ 5.00%（2025-06-13）",
	}, "\n")
	if msg.Text != want {
		t.Errorf("Render() text =\n%s\nwant\n%s", msg.Text, want)
	}
}

func TestCardRenderer_Render(t *testing.T) {
	msg := (&CardRenderer{Location: time.UTC}).Render(sampleReport())

	if msg.Card == nil {
		t.Fatal("card renderer returned no card")
	}
	card := msg.Card
	if card.Title.Text != Title || card.Title.Subtext != "2025-06-13 08:30" {
		t.Errorf("Title = %+v", card.Title)
	}
	if len(card.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(card.Sections))
	}
	if got := card.Sections[1].Lines; len(got) != 2 || got[0] != "FRED ❌ 抓取失敗" {
		t.Errorf("coal section lines = %q", got)
	}

	// Both renderers agree on the text.
	text := (&Text{Location: time.UTC}).Render(sampleReport())
	if msg.Text != text.Text {
		t.Error("card fallback text differs from text renderer output")
	}

	if _, err := json.Marshal(msg); err != nil {
		t.Errorf("json.Marshal(card) returned unexpected error: %v", err)
	}
}

func TestRender_AllFailed(t *testing.T) {
	var entries []report.Entry
	for _, c := range report.Categories {
		entries = append(entries, report.Entry{ID: string(c), Category: c, Result: fetcher.Failure("k", errors.New("x"))})
	}
	msg := (&Text{}).Render(report.New(entries, time.Time{}))

	if got := strings.Count(msg.Text, "❌ 抓取失敗"); got != 3 {
		t.Errorf("failure lines = %d, want 3:\n%s", got, msg.Text)
	}
	for _, c := range report.Categories {
		if !strings.Contains(msg.Text, Heading(c)) {
			t.Errorf("heading for %s missing", c)
		}
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name    string
		card    bool
		wantErr bool
	}{
		{"", false, false},
		{"text", false, false},
		{"CARD", true, false},
		{"flex", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ForFormat(tt.name, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			_, isCard := r.(*CardRenderer)
			if isCard != tt.card {
				t.Errorf("ForFormat(%q) card = %v, want %v", tt.name, isCard, tt.card)
			}
		})
	}
}
