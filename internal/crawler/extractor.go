package crawler

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPageMetadata pulls the title and meta description out of an
// HTML document for the crawl records. Malformed HTML yields empty
// strings rather than an error; metadata is best-effort.
func ExtractPageMetadata(body []byte) (title, description string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		if strings.EqualFold(name, "description") || strings.EqualFold(property, "og:description") {
			content, _ := s.Attr("content")
			description = strings.TrimSpace(content)
			return false
		}
		return true
	})

	return title, description
}
