package content

import (
	"regexp"
	"strings"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

// Lexical tag scan. The rewriter needs exact byte spans for every
// reference, which DOM parsers do not preserve, so tags are located
// with patterns and the relevant attribute is resolved inside each
// tag's own bytes.
var (
	htmlTagPattern = regexp.MustCompile(`(?is)<(a|link|script|img|iframe|source|embed|form)\b[^>]*>`)
	relPattern     = regexp.MustCompile(`(?i)\brel\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)

	htmlAttrPatterns = map[string]*regexp.Regexp{
		"href":   regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`),
		"src":    regexp.MustCompile(`(?i)\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`),
		"action": regexp.MustCompile(`(?i)\baction\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`),
	}
)

// ExtractHTML scans HTML for anchor hrefs and src/href attributes on
// link, script, img, iframe and related tags. Media references (img,
// iframe, non-stylesheet link) are recorded but never followed.
func ExtractHTML(body []byte) []domain.Reference {
	var refs []domain.Reference

	for _, tagSpan := range htmlTagPattern.FindAllSubmatchIndex(body, -1) {
		tag := strings.ToLower(string(body[tagSpan[2]:tagSpan[3]]))
		tagBytes := body[tagSpan[0]:tagSpan[1]]

		attr := "src"
		var kind domain.RefKind
		switch tag {
		case "a":
			attr, kind = "href", domain.RefAnchor
		case "form":
			attr, kind = "action", domain.RefAnchor
		case "link":
			attr = "href"
			if linkRelIsStylesheet(tagBytes) {
				kind = domain.RefStylesheet
			} else {
				kind = domain.RefMedia
			}
		case "script":
			kind = domain.RefScript
		default: // img, iframe, source, embed
			kind = domain.RefMedia
		}

		start, end, ok := attrValueSpan(htmlAttrPatterns[attr], tagBytes)
		if !ok {
			continue
		}
		raw := string(tagBytes[start:end])
		if !usableHTMLRef(raw) {
			continue
		}
		refs = append(refs, domain.Reference{
			Raw:   raw,
			Start: tagSpan[0] + start,
			End:   tagSpan[0] + end,
			Kind:  kind,
		})
	}

	return refs
}

// attrValueSpan locates the attribute's value within tag, returning
// the span of the value itself (excluding quotes).
func attrValueSpan(pattern *regexp.Regexp, tag []byte) (start, end int, ok bool) {
	idx := pattern.FindSubmatchIndex(tag)
	if idx == nil {
		return 0, 0, false
	}
	for group := 1; group <= 3; group++ {
		if idx[2*group] >= 0 {
			return idx[2*group], idx[2*group+1], true
		}
	}
	return 0, 0, false
}

func linkRelIsStylesheet(tag []byte) bool {
	idx := relPattern.FindSubmatchIndex(tag)
	if idx == nil {
		return false
	}
	for group := 1; group <= 3; group++ {
		if idx[2*group] >= 0 {
			rel := strings.ToLower(string(tag[idx[2*group]:idx[2*group+1]]))
			for _, token := range strings.Fields(rel) {
				if token == "stylesheet" {
					return true
				}
			}
		}
	}
	return false
}

// usableHTMLRef filters out values the crawler can never act on:
// fragment-only links must keep their in-page meaning and non-URL
// schemes are handled by the normalizer anyway but are common enough
// to drop early.
func usableHTMLRef(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
