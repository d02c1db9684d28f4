// Package content classifies fetched bytes and lexically extracts the
// URL references embedded in them. Nothing in this package executes or
// interprets fetched content.
package content

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// Classify determines the content kind from the declared Content-Type,
// falling back to the URL's file extension and finally to sniffing the
// first bytes. Unknown types are opaque binary.
func Classify(declared string, u urlutil.URL, body []byte) domain.ContentKind {
	if kind, ok := kindFromMediaType(declared); ok {
		return kind
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".html", ".htm", ".xhtml":
		return domain.KindHTML
	case ".css":
		return domain.KindCSS
	case ".js", ".mjs":
		return domain.KindJS
	}
	if kind, ok := kindFromMediaType(http.DetectContentType(body)); ok {
		return kind
	}
	return domain.KindBinary
}

func kindFromMediaType(value string) (domain.ContentKind, bool) {
	if value == "" {
		return domain.KindBinary, false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return domain.KindBinary, false
	}
	switch strings.ToLower(mediaType) {
	case "text/html", "application/xhtml+xml":
		return domain.KindHTML, true
	case "text/css":
		return domain.KindCSS, true
	case "application/javascript", "text/javascript", "application/x-javascript", "application/ecmascript":
		return domain.KindJS, true
	}
	return domain.KindBinary, false
}

// Extract returns the ordered references found in body. The origin is
// needed for the JavaScript scan, which only reports same-origin URL
// shapes. Binary content yields no references.
func Extract(kind domain.ContentKind, body []byte, origin urlutil.URL) []domain.Reference {
	switch kind {
	case domain.KindHTML:
		return ExtractHTML(body)
	case domain.KindCSS:
		return ExtractCSS(body)
	case domain.KindJS:
		return ExtractJS(body, origin)
	default:
		return nil
	}
}
