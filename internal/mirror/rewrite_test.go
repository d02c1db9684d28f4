package mirror

import (
	"bytes"
	"testing"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

func TestRewriteReplacesOnlyRecordedSpans(t *testing.T) {
	body := []byte(`<a href="/about.html">About</a> <img src="/logo.png">`)
	refs := []domain.Reference{
		{Raw: "/about.html", Start: 9, End: 20, Kind: domain.RefAnchor},
		{Raw: "/logo.png", Start: 42, End: 51, Kind: domain.RefMedia},
	}
	for _, ref := range refs {
		if got := string(body[ref.Start:ref.End]); got != ref.Raw {
			t.Fatalf("test fixture span mismatch: %q != %q", got, ref.Raw)
		}
	}

	out := Rewrite(body, refs, map[int]string{0: "about.html"})
	want := `<a href="about.html">About</a> <img src="/logo.png">`
	if string(out) != want {
		t.Errorf("Rewrite = %q, want %q", out, want)
	}
}

func TestRewriteNoReplacementsReturnsInputBytes(t *testing.T) {
	body := []byte("untouched content")
	out := Rewrite(body, nil, nil)
	if !bytes.Equal(out, body) {
		t.Errorf("Rewrite without replacements changed content")
	}
}

func TestRewriteMultipleSpansPreservesSurroundings(t *testing.T) {
	body := []byte("AAA[one]BBB[two]CCC[three]DDD")
	refs := []domain.Reference{
		{Raw: "one", Start: 4, End: 7},
		{Raw: "two", Start: 12, End: 15},
		{Raw: "three", Start: 20, End: 25},
	}
	out := Rewrite(body, refs, map[int]string{0: "1", 2: "33333333"})
	want := "AAA[1]BBB[two]CCC[33333333]DDD"
	if string(out) != want {
		t.Errorf("Rewrite = %q, want %q", out, want)
	}
}

func TestRewriteDropsInvalidSpans(t *testing.T) {
	body := []byte("short")
	refs := []domain.Reference{
		{Raw: "x", Start: 3, End: 99},
		{Raw: "y", Start: -1, End: 2},
	}
	out := Rewrite(body, refs, map[int]string{0: "a", 1: "b"})
	if string(out) != "short" {
		t.Errorf("Rewrite with invalid spans = %q, want input unchanged", out)
	}
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want string
	}{
		{"index.html", "styles/main.css", "styles/main.css"},
		{"docs/index.html", "styles/main.css", "../styles/main.css"},
		{"docs/guide/setup.html", "docs/guide/next.html", "next.html"},
		{"docs/guide/setup.html", "docs/api/index.html", "../api/index.html"},
		{"a/b/c/d.html", "index.html", "../../../index.html"},
		{"index.html", "index.html", "index.html"},
		{"docs/index.html", "docs", "../docs"},
	}
	for _, tt := range tests {
		if got := RelativeTo(tt.from, tt.to); got != tt.want {
			t.Errorf("RelativeTo(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}
