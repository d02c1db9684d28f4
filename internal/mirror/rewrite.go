package mirror

import (
	"path"
	"sort"
	"strings"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

// Rewrite splices replacement text over the given reference spans and
// returns the result. Only the exact recorded spans change; all
// surrounding bytes are preserved. References without a replacement
// stay verbatim. Overlapping or out-of-range spans are dropped rather
// than risking corruption.
func Rewrite(body []byte, refs []domain.Reference, replacements map[int]string) []byte {
	if len(replacements) == 0 {
		return body
	}

	type edit struct {
		start, end int
		text       string
	}
	edits := make([]edit, 0, len(replacements))
	for i, ref := range refs {
		text, ok := replacements[i]
		if !ok {
			continue
		}
		if ref.Start < 0 || ref.End > len(body) || ref.Start > ref.End {
			continue
		}
		edits = append(edits, edit{start: ref.Start, end: ref.End, text: text})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out []byte
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue // overlaps the previous edit
		}
		out = append(out, body[pos:e.start]...)
		out = append(out, e.text...)
		pos = e.end
	}
	out = append(out, body[pos:]...)
	return out
}

// RelativeTo computes the link text that reaches the local file at
// target from the file at from, both being slash-separated paths
// relative to the mirror root.
func RelativeTo(from, to string) string {
	fromDir := path.Dir(from)
	var fromParts []string
	if fromDir != "." {
		fromParts = strings.Split(fromDir, "/")
	}
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}

	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	return strings.Join(parts, "/")
}
