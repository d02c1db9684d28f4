// Package mirror maps canonical URLs onto the local directory tree,
// rewrites references and persists the final bytes.
package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"sync"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// asciiTable transliterates the few characters worth keeping readable;
// everything else non-ASCII becomes an underscore.
var asciiTable = map[rune]string{
	'ä': "ae", 'Ä': "Ae",
	'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue",
	'ß': "ss",
}

// MapperOptions tune the shape of generated local paths.
type MapperOptions struct {
	// ASCIIOnly transliterates non-ASCII path characters.
	ASCIIOnly bool
	// Lowered lower-cases all local paths.
	Lowered bool
}

// PathMapper assigns each canonical URL a unique file path relative to
// the mirror root. The mapping is memoized under a lock, so it is
// deterministic for the whole crawl run and injective: when two
// distinct URLs would naturally collide (also counting file-versus-
// directory conflicts), the later one gets a stable hash suffix
// derived from its full canonical URL. Alias is the one sanctioned
// exception: it deliberately points two URLs that name the same
// resource at one shared file.
type PathMapper struct {
	mu    sync.Mutex
	opts  MapperOptions
	byURL map[string]string
	files map[string]string
	dirs  map[string]struct{}
}

// NewPathMapper returns an empty mapper.
func NewPathMapper(opts MapperOptions) *PathMapper {
	return &PathMapper{
		opts:  opts,
		byURL: make(map[string]string),
		files: make(map[string]string),
		dirs:  make(map[string]struct{}),
	}
}

// Assign returns the local path for u, allocating one on first use.
// Safe for concurrent use.
func (m *PathMapper) Assign(u urlutil.URL) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignLocked(u)
}

// Alias maps u onto the path assigned to target, so both URLs resolve
// to the same local file. Used when a fetch ends in a same-origin
// redirect: source and final URL identify one resource, so sharing the
// path keeps every rewritten link backed by a file.
func (m *PathMapper) Alias(u, target urlutil.URL) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byURL[u.Key()]; ok {
		return p
	}
	p := m.assignLocked(target)
	m.byURL[u.Key()] = p
	return p
}

func (m *PathMapper) assignLocked(u urlutil.URL) string {
	key := u.Key()

	if p, ok := m.byURL[key]; ok {
		return p
	}

	candidate := m.naturalPath(u)
	if m.conflictsLocked(candidate) {
		hash := hashSuffix(key)
		n := 8
		for attempt := 0; attempt < 8 && m.conflictsLocked(candidate); attempt++ {
			candidate = m.disambiguateLocked(candidate, hash[:n])
			if n+4 <= len(hash) {
				n += 4
			}
		}
		if m.conflictsLocked(candidate) {
			// Pathological tree, flatten to a name derived from the
			// full URL hash. Distinct URLs hash distinctly, so this
			// stays injective.
			candidate = "resource-" + hash + path.Ext(m.naturalPath(u))
		}
	}

	m.byURL[key] = candidate
	m.files[candidate] = key
	for dir := path.Dir(candidate); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = struct{}{}
	}
	return candidate
}

// Lookup returns the already assigned path for u, if any.
func (m *PathMapper) Lookup(u urlutil.URL) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byURL[u.Key()]
	return p, ok
}

// naturalPath derives the collision-unaware path: URL path segments,
// index.html for directory-style URLs, the query folded into the file
// name so that distinct queries stay distinct resources.
func (m *PathMapper) naturalPath(u urlutil.URL) string {
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	if u.Query != "" {
		p += "?" + strings.ReplaceAll(u.Query, "/", "_")
	}
	if m.opts.ASCIIOnly {
		p = toASCII(p)
	}
	if m.opts.Lowered {
		p = strings.ToLower(p)
	}
	return p
}

// conflictsLocked reports whether p cannot be used as a fresh file
// path: taken by another URL, already used as a directory, or blocked
// by a file on its directory chain.
func (m *PathMapper) conflictsLocked(p string) bool {
	if _, ok := m.files[p]; ok {
		return true
	}
	if _, ok := m.dirs[p]; ok {
		return true
	}
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, ok := m.files[dir]; ok {
			return true
		}
	}
	return false
}

// disambiguateLocked resolves one conflict: when a file blocks a
// directory on the candidate's chain, that component is renamed;
// otherwise the suffix goes into the file name itself.
func (m *PathMapper) disambiguateLocked(p, suffix string) string {
	parts := strings.Split(p, "/")
	for i := 0; i < len(parts)-1; i++ {
		prefix := strings.Join(parts[:i+1], "/")
		if _, ok := m.files[prefix]; ok {
			parts[i] += "-" + suffix
			return strings.Join(parts, "/")
		}
	}
	return insertSuffix(p, suffix)
}

func insertSuffix(p, suffix string) string {
	ext := path.Ext(p)
	return p[:len(p)-len(ext)] + "-" + suffix + ext
}

func hashSuffix(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func toASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 128:
			b.WriteRune(r)
		default:
			if repl, ok := asciiTable[r]; ok {
				b.WriteString(repl)
			} else {
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}
