package content

import (
	"regexp"
	"strings"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

var (
	jsStringPattern = regexp.MustCompile("\"((?:[^\"\\\\\\n])*)\"|'((?:[^'\\\\\\n])*)'|`([^`\\\\]*)`")

	// Root-relative page/stylesheet/script shapes. Constructed or
	// concatenated URLs are deliberately not recognized; the scan is
	// purely lexical.
	jsRootRelativePattern = regexp.MustCompile(`(?i)^/[^\s'"<>]*\.(?:html?|css|js|mjs)(?:\?[^\s'"<>]*)?$`)
)

// ExtractJS scans JavaScript for whole string literals that look like
// same-origin URLs referencing HTML, CSS or JS. String literals with
// escape sequences are skipped because their runtime value differs
// from their source bytes.
func ExtractJS(body []byte, origin urlutil.URL) []domain.Reference {
	var refs []domain.Reference

	for _, idx := range jsStringPattern.FindAllSubmatchIndex(body, -1) {
		start, end, ok := firstGroup(idx, 3)
		if !ok || start == end {
			continue
		}
		raw := string(body[start:end])
		if !jsURLShape(raw, origin) {
			continue
		}
		refs = append(refs, domain.Reference{
			Raw:   raw,
			Start: start,
			End:   end,
			Kind:  domain.RefJSLiteral,
		})
	}

	return refs
}

func jsURLShape(raw string, origin urlutil.URL) bool {
	if strings.ContainsAny(raw, " \t") {
		return false
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := urlutil.Parse(raw)
		if err != nil {
			return false
		}
		// Same comparison the origin policy makes: ports don't matter.
		if u.Hostname() != origin.Hostname() {
			return false
		}
		return crawlableExt(u.Path) || strings.HasSuffix(u.Path, "/")
	}

	return jsRootRelativePattern.MatchString(raw)
}

func crawlableExt(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range []string{".html", ".htm", ".css", ".js", ".mjs"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
