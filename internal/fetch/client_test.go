package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CrsiX/WebsiteCrawler/internal/urlutil"
)

func TestFetchFollowsSameOriginRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved here"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(Options{
		AllowRedirect: func(urlutil.URL) bool { return true },
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := urlutil.Parse(srv.URL + "/old")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Fetch(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !resp.Redirected {
		t.Error("Redirected = false after a redirect")
	}
	if !strings.HasSuffix(resp.FinalURL.Path, "/new") {
		t.Errorf("FinalURL = %s, want .../new", resp.FinalURL)
	}
	if string(resp.Body) != "moved here" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestFetchRefusesOffOriginRedirect(t *testing.T) {
	var externalHits int
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		externalHits++
	}))
	defer external.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, external.URL+"/x", http.StatusFound)
	}))
	defer srv.Close()

	origin, err := urlutil.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	client, err := NewClient(Options{
		AllowRedirect: func(u urlutil.URL) bool { return u.Hostname() == origin.Hostname() && u.Host == origin.Host },
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := urlutil.Parse(srv.URL + "/r")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Fetch(context.Background(), u); !errors.Is(err, ErrOffOriginRedirect) {
		t.Fatalf("Fetch error = %v, want ErrOffOriginRedirect", err)
	}
	if externalHits != 0 {
		t.Errorf("off-origin target was requested %d times", externalHits)
	}
}

func TestFetchSetsUserAgent(t *testing.T) {
	const agent = "Mozilla/5.0 (compatible; WebsiteCrawler)"
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client, err := NewClient(Options{UserAgent: agent})
	if err != nil {
		t.Fatal(err)
	}
	u, err := urlutil.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Fetch(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if got != agent {
		t.Errorf("User-Agent = %q, want %q", got, agent)
	}
}

func TestFetchReportsTransportError(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Reserved TEST-NET-1 address, nothing listens there.
	u, err := urlutil.Parse("http://192.0.2.1:81/")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = client.Fetch(ctx, u)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Fetch error = %v, want *TransportError", err)
	}
}
