package content

import (
	"regexp"
	"sort"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

var (
	cssURLPattern    = regexp.MustCompile(`(?i)url\s*\(\s*(?:"([^")]*)"|'([^')]*)'|([^'")\s]+))\s*\)`)
	cssImportPattern = regexp.MustCompile(`(?i)@import\s+(?:url\s*\(\s*(?:"([^")]*)"|'([^')]*)'|([^'")\s]+))\s*\)|"([^"]+)"|'([^']+)')`)
)

// ExtractCSS scans a stylesheet for @import targets (followed, they
// are stylesheets themselves) and url() tokens (recorded only; fonts
// and images referenced from CSS stay out of scope).
func ExtractCSS(body []byte) []domain.Reference {
	var refs []domain.Reference

	importSpans := cssImportPattern.FindAllSubmatchIndex(body, -1)
	for _, idx := range importSpans {
		start, end, ok := firstGroup(idx, 5)
		if !ok {
			continue
		}
		raw := string(body[start:end])
		if raw == "" {
			continue
		}
		refs = append(refs, domain.Reference{
			Raw:   raw,
			Start: start,
			End:   end,
			Kind:  domain.RefImport,
		})
	}

	for _, idx := range cssURLPattern.FindAllSubmatchIndex(body, -1) {
		if insideAny(idx[0], importSpans) {
			continue // @import url(...) already recorded above
		}
		start, end, ok := firstGroup(idx, 3)
		if !ok {
			continue
		}
		raw := string(body[start:end])
		if raw == "" {
			continue
		}
		refs = append(refs, domain.Reference{
			Raw:   raw,
			Start: start,
			End:   end,
			Kind:  domain.RefCSSResource,
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Start < refs[j].Start })
	return refs
}

// firstGroup returns the span of the first matched capture group out
// of groups 1..n in a FindSubmatchIndex result.
func firstGroup(idx []int, n int) (start, end int, ok bool) {
	for group := 1; group <= n; group++ {
		if 2*group+1 < len(idx) && idx[2*group] >= 0 {
			return idx[2*group], idx[2*group+1], true
		}
	}
	return 0, 0, false
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
