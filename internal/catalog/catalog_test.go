package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandscope/internal/config"
	"brandscope/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRetriever(pageSize, maxPages int) (*Retriever, *fetcher.Client) {
	client := fetcher.New(fetcher.Options{
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	})
	return NewRetriever(client, config.CatalogConfig{PageSize: pageSize, MaxPages: maxPages}, testLogger), client
}

func productJSON(id int, title string) string {
	return fmt.Sprintf(`{
		"id": %d,
		"title": %q,
		"handle": "item-%d",
		"body_html": "<p>Desc %d</p>",
		"product_type": "Shoes",
		"tags": "summer, sale",
		"images": [{"src": "https://cdn.example.com/%d.jpg"}],
		"variants": [{"price": "19.99", "compare_at_price": null, "available": true}]
	}`, id, title, id, id, id)
}

func TestAllPaginatesUntilShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			fmt.Fprintf(w, `{"products": [%s, %s]}`, productJSON(1, "One"), productJSON(2, "Two"))
		case "2":
			fmt.Fprintf(w, `{"products": [%s]}`, productJSON(3, "Three"))
		default:
			t.Errorf("unexpected page request %q", page)
			fmt.Fprint(w, `{"products": []}`)
		}
	}))
	defer srv.Close()

	retriever, _ := newTestRetriever(2, 10)
	products, err := retriever.All(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].ID != "1" || products[2].ID != "3" {
		t.Fatalf("unexpected product ids: %v, %v", products[0].ID, products[2].ID)
	}
}

func TestAllStopsOnEmptyPage(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintf(w, `{"products": [%s, %s]}`, productJSON(1, "One"), productJSON(2, "Two"))
			return
		}
		fmt.Fprint(w, `{"products": []}`)
	}))
	defer srv.Close()

	retriever, _ := newTestRetriever(2, 10)
	products, err := retriever.All(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if pages != 2 {
		t.Fatalf("expected pagination to stop after the empty page, got %d requests", pages)
	}
}

func TestAllFirstPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	retriever, _ := newTestRetriever(50, 10)
	if _, err := retriever.All(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error when the first page is unavailable")
	}
}

func TestAllLaterPageFailureKeepsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"products": [%s, %s]}`, productJSON(1, "One"), productJSON(2, "Two"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	retriever, _ := newTestRetriever(2, 10)
	products, err := retriever.All(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected partial result, got error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected the 2 products from page 1, got %d", len(products))
	}
}

func TestConvertFirstVariant(t *testing.T) {
	raw := rawProduct{
		ID:     "42",
		Title:  "Runner",
		Handle: "runner",
		Variants: []map[string]any{
			{"price": "49.95", "compare_at_price": "59.95", "available": true},
			{"price": "99.00", "available": false},
		},
	}
	p := convert(raw, "https://example.com")
	if p.Price == nil || *p.Price != 49.95 {
		t.Fatalf("expected first variant price 49.95, got %v", p.Price)
	}
	if p.CompareAtPrice == nil || *p.CompareAtPrice != 59.95 {
		t.Fatalf("expected compare price 59.95, got %v", p.CompareAtPrice)
	}
	if !p.Available {
		t.Fatal("expected availability from first variant")
	}
	if p.URL != "https://example.com/products/runner" {
		t.Fatalf("unexpected product URL %q", p.URL)
	}
}

func TestConvertWithoutVariants(t *testing.T) {
	p := convert(rawProduct{ID: "7", Title: "Ghost", Handle: "ghost"}, "https://example.com")
	if p.Price != nil {
		t.Fatalf("expected nil price without variants, got %v", *p.Price)
	}
	if p.Available {
		t.Fatal("expected product without variants to be unavailable")
	}
}

func TestParseTagsForms(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"comma string", `"summer, sale, summer"`, 2},
		{"array", `["summer", "sale"]`, 2},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseTags([]byte(tc.raw))
			if len(got) != tc.want {
				t.Fatalf("expected %d tags, got %v", tc.want, got)
			}
		})
	}
}
