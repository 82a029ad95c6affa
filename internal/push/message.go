package push

import "commoditybot/internal/render"

type pushRequest struct {
	To       string    `json:"to"`
	Messages []message `json:"messages"`
}

// message is either a text message or a flex message carrying a bubble.
type message struct {
	Type     string  `json:"type"`
	Text     string  `json:"text,omitempty"`
	AltText  string  `json:"altText,omitempty"`
	Contents *bubble `json:"contents,omitempty"`
}

type bubble struct {
	Type string `json:"type"`
	Body box    `json:"body"`
}

type box struct {
	Type     string      `json:"type"`
	Layout   string      `json:"layout"`
	Spacing  string      `json:"spacing,omitempty"`
	Margin   string      `json:"margin,omitempty"`
	Contents []component `json:"contents"`
}

// component is a text, separator or nested box.
type component struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	Weight   string      `json:"weight,omitempty"`
	Size     string      `json:"size,omitempty"`
	Color    string      `json:"color,omitempty"`
	Wrap     bool        `json:"wrap,omitempty"`
	Margin   string      `json:"margin,omitempty"`
	Layout   string      `json:"layout,omitempty"`
	Spacing  string      `json:"spacing,omitempty"`
	Contents []component `json:"contents,omitempty"`
}

// altText is capped by the gateway.
const maxAltText = 400

func toMessage(msg render.Message) message {
	if msg.Card == nil {
		return message{Type: "text", Text: msg.Text}
	}
	alt := []rune(msg.Text)
	if len(alt) == 0 {
		alt = []rune(msg.Card.Title.Text)
	}
	if len(alt) > maxAltText {
		alt = alt[:maxAltText]
	}
	return message{
		Type:     "flex",
		AltText:  string(alt),
		Contents: toBubble(msg.Card),
	}
}

func toBubble(card *render.Card) *bubble {
	contents := []component{
		{Type: "text", Text: card.Title.Text, Weight: "bold", Size: "lg", Wrap: true},
	}
	if card.Title.Subtext != "" {
		contents = append(contents, component{Type: "text", Text: card.Title.Subtext, Size: "xs", Color: "#888888"})
	}

	for _, sec := range card.Sections {
		lines := []component{{Type: "text", Text: sec.Heading, Weight: "bold", Size: "md", Wrap: true}}
		for _, line := range sec.Lines {
			lines = append(lines, component{Type: "text", Text: line, Size: "sm", Wrap: true})
		}
		contents = append(contents,
			component{Type: "separator", Margin: "md"},
			component{Type: "box", Layout: "vertical", Spacing: "xs", Margin: "md", Contents: lines},
		)
	}

	return &bubble{
		Type: "bubble",
		Body: box{Type: "box", Layout: "vertical", Spacing: "sm", Contents: contents},
	}
}
