// Package processor reduces article markup to the plain text that is
// displayed and sent for translation.
package processor

import "strings"

// IgnoredTags are elements whose content is never part of article text.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
	"canvas":   true,
	"object":   true,
	"embed":    true,
	"head":     true,
	"button":   true,
	"form":     true,
	"nav":      true,
	"figure":   true,
}

// blockTags start and end a line in the plain-text rendering.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true,
	"ul": true,
}

// collapseLines trims every line, collapses inner whitespace runs to a
// single space, and drops empty lines.
func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
