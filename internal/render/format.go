package render

import (
	"strings"
	"time"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/report"
)

const (
	// Title heads every report.
	Title = "📊 原物料價格報告"

	ArrowUp   = "⬆️"
	ArrowDown = "⬇️"

	failedText = "❌ 抓取失敗"
	emptyText  = "暫無資料"
)

var headings = map[report.Category]string{
	report.CategoryCoconut: "🥥 椰殼活性碳價格：",
	report.CategoryCoal:    "🪨 煤質活性碳價格：",
	report.CategoryBromine: "🧪 溴素最新價格：",
}

// Heading returns the section heading for a category.
func Heading(c report.Category) string {
	if h, ok := headings[c]; ok {
		return h
	}
	return string(c) + "："
}

// Arrow maps a change sign to its indicator; zero counts as down.
func Arrow(sign int) string {
	if sign > 0 {
		return ArrowUp
	}
	return ArrowDown
}

// Timestamp formats the report time in loc (local time when nil).
func Timestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04")
}

// EntryLines renders one source: a failure line, a no-data line, or one line
// per quote.
func EntryLines(e report.Entry) []string {
	switch {
	case !e.Result.OK():
		return []string{FailedLine(e)}
	case e.Result.Empty():
		return []string{label(e) + "：" + emptyText}
	}
	lines := make([]string, 0, len(e.Result.Quotes))
	for _, q := range e.Result.Quotes {
		lines = append(lines, QuoteLine(q))
	}
	return lines
}

// FailedLine is the fixed line substituted for a failed source.
func FailedLine(e report.Entry) string {
	return label(e) + " " + failedText
}

// QuoteLine renders "<name>：<value> <unit>  <arrow> <change>（<asOf>）".
func QuoteLine(q fetcher.Quote) string {
	var b strings.Builder
	b.WriteString(q.Name)
	b.WriteString("：")
	b.WriteString(q.Value.StringFixed(2))
	if q.Unit != "" {
		b.WriteString(" ")
		b.WriteString(q.Unit)
	}

	if sign, ok := q.Direction(); ok {
		b.WriteString("  ")
		b.WriteString(Arrow(sign))
		b.WriteString(" ")
		if q.ChangePercent != nil {
			b.WriteString(q.ChangePercent.Abs().StringFixed(2))
			b.WriteString("%")
		} else {
			b.WriteString(q.Change.Abs().StringFixed(2))
		}
	}

	if q.AsOf != "" {
		b.WriteString("（")
		b.WriteString(q.AsOf)
		b.WriteString("）")
	}
	return b.String()
}

func label(e report.Entry) string {
	if e.Label != "" {
		return e.Label
	}
	return e.ID
}
