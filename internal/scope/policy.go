// Package scope decides which discovered URLs belong to the mirrored site.
package scope

import (
	"strings"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

// Policy admits URLs that share the seed's exact host. Subdomains are
// different origins: www.example.com never matches example.com. Ports
// are ignored for matching, schemes are interchangeable between http
// and https so that a site switching schemes mid-crawl stays in scope.
type Policy struct {
	host string
}

// NewPolicy derives the admission policy from the seed URL.
func NewPolicy(seed urlutil.URL) Policy {
	return Policy{host: strings.ToLower(seed.Hostname())}
}

// Admit reports whether u may be fetched. Rejected URLs are left in
// content as absolute external links and are never scheduled.
func (p Policy) Admit(u urlutil.URL) bool {
	return strings.ToLower(u.Hostname()) == p.host
}

// Host returns the exact host the policy matches against.
func (p Policy) Host() string { return p.host }
