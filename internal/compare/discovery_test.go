package compare

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brandscope/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testFetchClient() *fetcher.Client {
	return fetcher.New(fetcher.Options{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	})
}

func TestDecodeRedirect(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"/l/?uddg=https%3A%2F%2Fcompetitor.com%2Fshop&rut=abc", "https://competitor.com/shop"},
		{"/url?q=https%3A%2F%2Fcompetitor.com%2F&sa=U", "https://competitor.com/"},
		{"https://competitor.com/direct", "https://competitor.com/direct"},
		{"/relative/path", "/relative/path"},
	}
	for _, tc := range cases {
		if got := decodeRedirect(tc.href); got != tc.want {
			t.Errorf("decodeRedirect(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestExcludedHost(t *testing.T) {
	if !excludedHost("www.amazon.com") {
		t.Fatal("expected marketplace host excluded")
	}
	if !excludedHost("m.facebook.com") {
		t.Fatal("expected social host excluded")
	}
	if excludedHost("cozy-knits.com") {
		t.Fatal("expected plain store host allowed")
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://www.Acme.com/shop"); got != "acme.com" {
		t.Fatalf("expected normalized host, got %q", got)
	}
	if got := hostOf("acme.com"); got != "acme.com" {
		t.Fatalf("expected scheme-less input handled, got %q", got)
	}
}

func TestBuildQueries(t *testing.T) {
	plain := buildQueries("Acme", nil)
	if len(plain) != len(queryTemplates) {
		t.Fatalf("expected one query per template, got %d", len(plain))
	}

	enriched := buildQueries("Acme", []string{"bags", "wallets"})
	if len(enriched) != len(queryTemplates)+1 {
		t.Fatalf("expected an extra category query, got %d", len(enriched))
	}
	if !strings.Contains(enriched[0], "bags wallets") {
		t.Fatalf("expected category terms in the leading query, got %q", enriched[0])
	}
}

func TestDiscoverFiltersAndDeduplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a class="result__a" href="/l/?uddg=https%3A%2F%2Fcompetitor-one.com%2F">One</a>
			<a class="result__a" href="https://competitor-two.com/shop">Two</a>
			<a class="result__a" href="https://competitor-one.com/other-page">One again</a>
			<a href="https://duckduckgo.com/about">About the engine</a>
			<a href="https://www.acme.com/">The brand itself</a>
		</body></html>`))
	}))
	defer srv.Close()

	d := NewDiscovery(testFetchClient(), srv.URL, testLogger)
	got := d.Discover(context.Background(), "", "https://acme.com", nil, 3)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", got)
	}
	if got[0] != "https://competitor-one.com/" {
		t.Fatalf("expected decoded redirect first, got %q", got[0])
	}
	if hostOf(got[1]) != "competitor-two.com" {
		t.Fatalf("unexpected second candidate %q", got[1])
	}
}

func TestDiscoverSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscovery(testFetchClient(), srv.URL, testLogger)
	if got := d.Discover(context.Background(), "", "https://acme.com", nil, 3); len(got) != 0 {
		t.Fatalf("expected empty slate on search failure, got %v", got)
	}
}
