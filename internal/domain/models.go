package domain

import (
	"time"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// ContentKind is the closed set of content classes the crawler tells
// apart. Extraction dispatches over this enum; anything unknown is
// treated as opaque binary and stored without inspection.
type ContentKind int

const (
	KindBinary ContentKind = iota
	KindHTML
	KindCSS
	KindJS
)

func (k ContentKind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindCSS:
		return "css"
	case KindJS:
		return "js"
	default:
		return "binary"
	}
}

// RefKind describes where inside a resource a reference was found,
// which decides whether its target is fetched and rewritten.
type RefKind int

const (
	// RefAnchor is an <a href> hyperlink to another page.
	RefAnchor RefKind = iota
	// RefStylesheet is a <link rel="stylesheet" href> target.
	RefStylesheet
	// RefScript is a <script src> target.
	RefScript
	// RefMedia covers img/iframe/media sources and non-stylesheet link
	// targets. Recorded for diagnostics, never fetched or rewritten.
	RefMedia
	// RefImport is a CSS @import target (a stylesheet).
	RefImport
	// RefCSSResource is a CSS url() token that is not an import, such
	// as fonts and background images. Never fetched or rewritten.
	RefCSSResource
	// RefJSLiteral is a string literal in JavaScript shaped like a
	// same-origin page/stylesheet/script URL.
	RefJSLiteral
)

func (k RefKind) String() string {
	switch k {
	case RefAnchor:
		return "anchor"
	case RefStylesheet:
		return "stylesheet"
	case RefScript:
		return "script"
	case RefMedia:
		return "media"
	case RefImport:
		return "import"
	case RefCSSResource:
		return "css-resource"
	case RefJSLiteral:
		return "js-literal"
	default:
		return "unknown"
	}
}

// Followed reports whether targets of this reference kind are
// scheduled for fetching and rewritten to local paths. Media and
// nested CSS resources stay verbatim.
func (k RefKind) Followed() bool {
	switch k {
	case RefAnchor, RefStylesheet, RefScript, RefImport, RefJSLiteral:
		return true
	default:
		return false
	}
}

// Reference is one occurrence of a URL-like token inside a resource's
// content. Start and End delimit exactly the raw token's bytes, so the
// rewriter can substitute it without touching surrounding content.
type Reference struct {
	Raw   string
	Start int
	End   int
	Kind  RefKind
}

// Status tracks a resource through its lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusFetched Status = "fetched"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Resource is one fetched (or failed) entity of the mirror.
type Resource struct {
	URL        urlutil.URL
	Kind       ContentKind
	Status     Status
	LocalPath  string
	Size       int64
	FailReason string

	// Page metadata, HTML resources only.
	Title       string
	Description string

	// DiscoveredFrom lists referrer URLs for diagnostics. It carries no
	// ownership semantics.
	DiscoveredFrom []string

	FetchedAt time.Time
}

// Report summarizes a finished (or cancelled) crawl run.
type Report struct {
	Seed         string        `json:"seed"`
	Fetched      int64         `json:"fetched"`
	Failed       int64         `json:"failed"`
	Skipped      int64         `json:"skipped"`
	BytesWritten int64         `json:"bytes_written"`
	Duration     time.Duration `json:"duration"`
	Cancelled    bool          `json:"cancelled"`
}
