package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMalformedURL marks a reference that cannot be parsed as an
	// absolute or relative URL. Callers skip the single reference.
	ErrMalformedURL = errors.New("malformed URL")

	// ErrUnsupportedScheme marks parseable references outside http/https
	// (mailto:, javascript:, data:, ...) which are never crawled.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// URL is the canonical form of an http(s) URL and the identity key used
// for deduplication. Two raw strings that canonicalize to the same URL
// refer to the same resource. The zero value is not a valid URL.
type URL struct {
	Scheme string // "http" or "https", lower-case
	Host   string // lower-case, default port stripped, non-default port kept
	Path   string // escaped path, always starts with "/", dot segments removed
	Query  string // raw query preserved verbatim (order-sensitive), no leading "?"
}

// Parse canonicalizes an absolute URL string.
func Parse(raw string) (URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URL{}, fmt.Errorf("%w: %q: %v", ErrMalformedURL, raw, err)
	}
	if !parsed.IsAbs() {
		return URL{}, fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	return canonicalize(parsed)
}

// Resolve interprets ref relative to u and canonicalizes the result.
// Absolute references are accepted as well and resolve to themselves.
func (u URL) Resolve(ref string) (URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return URL{}, fmt.Errorf("%w: %q: %v", ErrMalformedURL, ref, err)
	}
	if parsed.IsAbs() && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return URL{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref)
	}
	return canonicalize(u.std().ResolveReference(parsed))
}

// String renders the canonical URL. The output is stable and reparses
// to an equal URL, so it doubles as the dedup key.
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	return b.String()
}

// Key returns the dedup identity of the URL.
func (u URL) Key() string { return u.String() }

// Hostname returns the host without any port.
func (u URL) Hostname() string {
	host := u.Host
	if strings.HasPrefix(host, "[") {
		if i := strings.IndexByte(host, ']'); i >= 0 {
			return host[1:i]
		}
		return host
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

func (u URL) std() *url.URL {
	parsed, err := url.Parse(u.String())
	if err != nil {
		// Canonical URLs always reparse; reaching this means the value
		// was constructed by hand with invalid contents.
		panic(fmt.Sprintf("urlutil: canonical URL %q does not reparse: %v", u.String(), err))
	}
	return parsed
}

func canonicalize(parsed *url.URL) (URL, error) {
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return URL{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.String())
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return URL{}, fmt.Errorf("%w: %q has no host", ErrMalformedURL, parsed.String())
	}
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	p := parsed.EscapedPath()
	if p == "" {
		p = "/"
	}
	p = removeDotSegments(upperEscapes(p))

	return URL{
		Scheme: scheme,
		Host:   host,
		Path:   p,
		Query:  upperEscapes(parsed.RawQuery),
	}, nil
}

// removeDotSegments collapses "." and ".." path segments per RFC 3986
// without touching empty segments, so "//" stays server-visible. A "."
// or ".." final segment leaves a trailing slash, matching browsers.
func removeDotSegments(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	segments := strings.Split(p[1:], "/")
	out := make([]string, 0, len(segments))
	trailing := false
	for i, seg := range segments {
		last := i == len(segments)-1
		switch seg {
		case ".":
			if last {
				trailing = true
			}
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				trailing = true
			}
		default:
			out = append(out, seg)
			if last {
				trailing = seg == ""
			}
		}
	}
	result := "/" + strings.Join(out, "/")
	if trailing && !strings.HasSuffix(result, "/") {
		result += "/"
	}
	return result
}

// upperEscapes canonicalizes the case of percent-encoded triplets
// without decoding them, so server-visible semantics stay untouched.
func upperEscapes(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	b := []byte(s)
	for i := 0; i+2 < len(b); i++ {
		if b[i] == '%' && isHex(b[i+1]) && isHex(b[i+2]) {
			b[i+1] = upperHex(b[i+1])
			b[i+2] = upperHex(b[i+2])
		}
	}
	return string(b)
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func upperHex(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - ('a' - 'A')
	}
	return c
}
