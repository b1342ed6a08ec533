package insight

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"brandscope/internal/catalog"
	"brandscope/internal/config"
	"brandscope/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func testAssembler() (*Assembler, *fetcher.Client) {
	client := fetcher.New(fetcher.Options{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	})
	retriever := catalog.NewRetriever(client, config.CatalogConfig{PageSize: 50, MaxPages: 5}, testLogger)
	assembler := New(client, retriever, nil, config.ExtractConfig{
		MaxFAQs:         10,
		MaxFAQPages:     3,
		MaxHeroProducts: 6,
		PolicyCharLimit: 1000,
		AboutCharLimit:  500,
	}, testLogger)
	return assembler, client
}

func storefrontMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>
		<head>
			<title>Acme | Canvas Goods</title>
			<meta property="og:site_name" content="Acme">
		</head>
		<body>
			<div class="shopify-section">
				<a href="/products/day-pack">Day Pack</a>
			</div>
			<div class="our-story">We started in a garage in 2015 making durable canvas goods for people who travel light.</div>
			<a href="https://instagram.com/acmegoods">Instagram</a>
			<nav><a href="/pages/contact">Contact Us</a></nav>
			<footer>
				<a href="/policies/privacy-policy">Privacy Policy</a>
				<a href="/pages/faq">FAQ</a>
			</footer>
			<p>support@acme.com</p>
		</body></html>`)
	})
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"products": [
			{"id": 1, "title": "Day Pack", "handle": "day-pack", "product_type": "bags",
			 "tags": "canvas, travel",
			 "variants": [{"price": "89.00", "available": true}]},
			{"id": 2, "title": "Tote", "handle": "tote", "product_type": "bags",
			 "variants": [{"price": "49.00", "available": false}]}
		]}`)
	})
	mux.HandleFunc("/pages/contact", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>wholesale@acme.com or call (415) 555-0134</p></body></html>`)
	})
	mux.HandleFunc("/policies/privacy-policy", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><main>We only collect what we need to fulfil your order.</main></body></html>`)
	})
	mux.HandleFunc("/pages/faq", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="faq-item">
				<h4>Do you repair worn bags?</h4>
				<div class="answer">Yes, lifetime repairs are free for original owners.</div>
			</div>
		</body></html>`)
	})
	return mux
}

func TestExtractFullStore(t *testing.T) {
	srv := httptest.NewServer(storefrontMux())
	defer srv.Close()

	assembler, _ := testAssembler()
	record := assembler.Extract(context.Background(), srv.URL)

	if !record.Success {
		t.Fatalf("expected success, errors: %v", record.Errors)
	}
	if record.BrandName != "Acme" {
		t.Fatalf("unexpected brand name %q", record.BrandName)
	}
	if record.TotalProducts != 2 || len(record.Catalog) != 2 {
		t.Fatalf("expected 2 catalog products, got %d", record.TotalProducts)
	}
	if len(record.HeroProducts) != 1 || record.HeroProducts[0].Handle != "day-pack" {
		t.Fatalf("unexpected hero products %v", record.HeroProducts)
	}
	if record.Social.Instagram == "" {
		t.Fatal("expected instagram link")
	}
	if len(record.Contact.Emails) != 2 {
		t.Fatalf("expected homepage and contact-page emails, got %v", record.Contact.Emails)
	}
	if !strings.Contains(record.Policies.Privacy, "only collect") {
		t.Fatalf("unexpected privacy policy %q", record.Policies.Privacy)
	}
	if len(record.FAQs) != 1 || record.FAQs[0].Question != "Do you repair worn bags?" {
		t.Fatalf("unexpected faqs %v", record.FAQs)
	}
	if !strings.Contains(record.BrandContext, "garage in 2015") {
		t.Fatalf("unexpected brand context %q", record.BrandContext)
	}
	if record.Links.ContactUs == "" {
		t.Fatal("expected contact link in navigation slots")
	}
	if record.ExtractedAt.IsZero() {
		t.Fatal("expected extraction timestamp")
	}
}

func TestExtractUnreachableSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	assembler, _ := testAssembler()
	record := assembler.Extract(context.Background(), deadURL)

	if record.Success {
		t.Fatal("expected failure against a dead server")
	}
	if record.BrandName != "Unknown" {
		t.Fatalf("expected Unknown brand, got %q", record.BrandName)
	}
	if len(record.Errors) == 0 {
		t.Fatal("expected the fetch error recorded")
	}
}

func TestExtractDegradesWithoutCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Acme</title></head><body>
			<a href="https://instagram.com/acmegoods">Instagram</a>
		</body></html>`)
	})
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	assembler, _ := testAssembler()
	record := assembler.Extract(context.Background(), srv.URL)

	if !record.Success {
		t.Fatal("expected extraction to succeed without a catalog")
	}
	if record.TotalProducts != 0 {
		t.Fatalf("expected empty catalog, got %d", record.TotalProducts)
	}
	if len(record.Errors) == 0 {
		t.Fatal("expected the catalog failure noted")
	}
	if record.Social.Instagram == "" {
		t.Fatal("expected other extractors to keep working")
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"acme.com", "https://acme.com"},
		{"https://acme.com/", "https://acme.com"},
		{"http://acme.com", "http://acme.com"},
		{" acme.com ", "https://acme.com"},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBrandName(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{"title with dash suffix", `<html><head><title>Acme - Home</title></head></html>`, "Acme"},
		{"title with pipe suffix", `<html><head><title>Acme | Official Store</title></head></html>`, "Acme"},
		{"og site name fallback", `<html><head><title></title><meta property="og:site_name" content="Acme"></head></html>`, "Acme"},
		{"domain fallback", `<html><head></head></html>`, "Acme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDoc(t, tc.html)
			if got := brandName(doc, "https://www.acme.com"); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLooksLikeStorefront(t *testing.T) {
	with := mustDoc(t, `<html><body><script src="https://cdn.shopify.com/x.js"></script></body></html>`)
	if !looksLikeStorefront(with) {
		t.Fatal("expected markers detected")
	}
	without := mustDoc(t, `<html><body><p>plain site</p></body></html>`)
	if looksLikeStorefront(without) {
		t.Fatal("expected no markers on a plain page")
	}
}
