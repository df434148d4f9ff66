package content

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText strips markup and returns whitespace-normalized visible text.
// Non-HTML input falls through goquery unharmed and comes back as-is.
func htmlToText(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return normalizeWhitespace(string(raw))
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Text()
	return normalizeWhitespace(text)
}

// htmlTitle returns the <title> text, or "" when the input has none.
func htmlTitle(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
