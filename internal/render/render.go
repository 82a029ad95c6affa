// Package render turns a report into a message. Text and Card renderers share
// the same line formatting, so either can be handed to the dispatcher.
package render

import (
	"fmt"
	"strings"
	"time"

	"commoditybot/internal/report"
)

// Message is what gets delivered to a subscriber. Text is always set; for
// card messages it doubles as the notification/alt text.
type Message struct {
	Text string `json:"text"`
	Card *Card  `json:"card,omitempty"`
}

// Card is a nested block layout: a title block and one section per category.
type Card struct {
	Title    Block     `json:"title"`
	Sections []Section `json:"sections"`
}

// Block is a heading with an optional smaller line under it.
type Block struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext,omitempty"`
}

// Section is one category: a heading line plus one line per quote.
type Section struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

// Renderer converts a report into a deliverable message.
type Renderer interface {
	Render(r *report.Report) Message
}

// Format names a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatCard Format = "card"
)

// ForFormat returns the renderer for a configured format name.
func ForFormat(name string, loc *time.Location) (Renderer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatText, "":
		return &Text{Location: loc}, nil
	case FormatCard:
		return &CardRenderer{Location: loc}, nil
	}
	return nil, fmt.Errorf("unknown render format %q", name)
}

// Text renders a plain multi-line message.
type Text struct {
	Location *time.Location
}

// Render implements Renderer
func (t *Text) Render(r *report.Report) Message {
	return Message{Text: plain(buildCard(r, t.Location))}
}

// CardRenderer renders a structured card with the plain text as fallback.
type CardRenderer struct {
	Location *time.Location
}

// Render implements Renderer
func (c *CardRenderer) Render(r *report.Report) Message {
	card := buildCard(r, c.Location)
	return Message{Text: plain(card), Card: &card}
}

func buildCard(r *report.Report, loc *time.Location) Card {
	card := Card{Title: Block{Text: Title, Subtext: Timestamp(r.GeneratedAt, loc)}}
	for _, c := range report.Categories {
		entries := r.Section(c)
		if len(entries) == 0 {
			continue
		}
		s := Section{Heading: Heading(c)}
		for _, e := range entries {
			s.Lines = append(s.Lines, EntryLines(e)...)
		}
		card.Sections = append(card.Sections, s)
	}
	return card
}

func plain(card Card) string {
	var b strings.Builder
	b.WriteString(card.Title.Text)
	if card.Title.Subtext != "" {
		b.WriteString("（" + card.Title.Subtext + "）")
	}
	for _, s := range card.Sections {
		b.WriteString("\n\n")
		b.WriteString(s.Heading)
		for _, line := range s.Lines {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}
