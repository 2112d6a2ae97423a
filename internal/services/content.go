package services

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const excerptLength = 200

var (
	contentPolicy = bluemonday.UGCPolicy()
	textPolicy    = newTextPolicy()
)

func newTextPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	// keep words in adjacent block elements apart
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// sanitizeHTML strips scripts, event handlers and other unsafe markup from rich text.
func sanitizeHTML(markup string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(markup))
}

// plainText returns the text content of markup with whitespace collapsed.
func plainText(markup string) string {
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(markup))), " ")
}

// excerptFrom derives a short summary from rich text, cut at a word boundary.
func excerptFrom(markup string) string {
	text := plainText(markup)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:excerptLength])
	if i := strings.LastIndex(cut, " "); i > excerptLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// normalizeTags trims, lowercases and de-duplicates tags, preserving order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
