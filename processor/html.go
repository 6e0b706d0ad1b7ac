package processor

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/newslate"
	"golang.org/x/net/html"
)

// HTMLProcessor converts HTML fragments from news feeds into plain text.
type HTMLProcessor struct {
	ignored string // goquery selector matching every ignored tag
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	tags := make([]string, 0, len(IgnoredTags))
	for tag := range IgnoredTags {
		tags = append(tags, tag)
	}
	return NewHTMLProcessorWithIgnoredTags(tags)
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			names = append(names, tag)
		}
	}
	sort.Strings(names)
	return &HTMLProcessor{
		ignored: strings.Join(names, ","),
	}
}

// PlainText renders content as plain text. Ignored elements and their
// content are dropped, block elements and <br> become line breaks, entities
// are decoded and whitespace is collapsed. Text without markup is only
// whitespace-normalized.
func (p *HTMLProcessor) PlainText(content string) (string, error) {
	if !strings.ContainsAny(content, "<&") {
		return collapseLines(content), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", &newslate.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	if p.ignored != "" {
		doc.Find(p.ignored).Remove()
	}

	var b strings.Builder
	for _, n := range doc.Selection.Nodes {
		p.render(&b, n)
	}
	return collapseLines(b.String()), nil
}

// Paragraphs returns the non-empty lines of the plain-text rendering.
func (p *HTMLProcessor) Paragraphs(content string) ([]string, error) {
	text, err := p.PlainText(content)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// MustPlainText is PlainText that falls back to the input on parse errors.
func (p *HTMLProcessor) MustPlainText(content string) string {
	text, err := p.PlainText(content)
	if err != nil {
		return collapseLines(content)
	}
	return text
}

func (p *HTMLProcessor) render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if tag == "br" {
			b.WriteByte('\n')
			return
		}
		if tag == "td" || tag == "th" {
			b.WriteByte(' ')
		}
		if blockTags[tag] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.render(b, c)
	}
}
