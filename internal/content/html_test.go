package content

import (
	"testing"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

func checkSpans(t *testing.T, body []byte, refs []domain.Reference) {
	t.Helper()
	for _, ref := range refs {
		if ref.Start < 0 || ref.End > len(body) || ref.Start >= ref.End {
			t.Fatalf("reference %q has invalid span [%d,%d)", ref.Raw, ref.Start, ref.End)
		}
		if got := string(body[ref.Start:ref.End]); got != ref.Raw {
			t.Errorf("span [%d,%d) contains %q, reference says %q", ref.Start, ref.End, got, ref.Raw)
		}
	}
}

func TestExtractHTML(t *testing.T) {
	body := []byte(`<!DOCTYPE html>
<html>
<head>
  <title>Demo</title>
  <link rel="stylesheet" href="/styles/main.css">
  <link rel="icon" href="/favicon.ico">
  <script src="app.js"></script>
</head>
<body>
  <a href="/about.html">About</a>
  <a href='https://other.net/page'>External</a>
  <a href="#section">Skip me</a>
  <a href="mailto:hi@example.com">Mail</a>
  <img src="/img/logo.png" alt="logo">
  <iframe src="/embed.html"></iframe>
  <form action="/search.html" method="get"></form>
</body>
</html>`)

	refs := ExtractHTML(body)
	checkSpans(t, body, refs)

	want := []struct {
		raw  string
		kind domain.RefKind
	}{
		{"/styles/main.css", domain.RefStylesheet},
		{"/favicon.ico", domain.RefMedia},
		{"app.js", domain.RefScript},
		{"/about.html", domain.RefAnchor},
		{"https://other.net/page", domain.RefAnchor},
		{"/img/logo.png", domain.RefMedia},
		{"/embed.html", domain.RefMedia},
		{"/search.html", domain.RefAnchor},
	}

	if len(refs) != len(want) {
		t.Fatalf("got %d references, want %d: %+v", len(refs), len(want), refs)
	}
	for i, w := range want {
		if refs[i].Raw != w.raw || refs[i].Kind != w.kind {
			t.Errorf("ref[%d] = %q (%s), want %q (%s)", i, refs[i].Raw, refs[i].Kind, w.raw, w.kind)
		}
	}
}

func TestExtractHTMLAttributeVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		raw  string
	}{
		{"single quotes", `<a href='/a.html'>x</a>`, "/a.html"},
		{"unquoted", `<a href=/b.html>x</a>`, "/b.html"},
		{"mixed case attr", `<a HREF="/c.html">x</a>`, "/c.html"},
		{"attr order", `<link type="text/css" href="/d.css" rel="stylesheet">`, "/d.css"},
		{"whitespace around equals", `<a href = "/e.html">x</a>`, "/e.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(tt.body)
			refs := ExtractHTML(body)
			checkSpans(t, body, refs)
			if len(refs) != 1 {
				t.Fatalf("got %d references, want 1: %+v", len(refs), refs)
			}
			if refs[0].Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", refs[0].Raw, tt.raw)
			}
		})
	}
}

func TestExtractHTMLIgnoresUnusableRefs(t *testing.T) {
	body := []byte(`<a href="">empty</a>
<a href="#top">fragment</a>
<a href="javascript:void(0)">js</a>
<a href="data:text/plain,x">data</a>
<script>var s = "inline";</script>`)

	if refs := ExtractHTML(body); len(refs) != 0 {
		t.Errorf("got %d references from unusable markup: %+v", len(refs), refs)
	}
}
