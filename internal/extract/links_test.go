package extract

import (
	"context"
	"strings"
	"testing"
)

func TestLinksFindsNavigationSlots(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<nav>
			<a href="/pages/contact">Contact Us</a>
			<a href="/pages/about">About Us</a>
			<a href="/blogs/news">Blog</a>
			<a href="/apps/track">Track Order</a>
		</nav>
	</body></html>`)

	nav := Links(doc, "https://acme.com")
	if nav.ContactUs != "https://acme.com/pages/contact" {
		t.Fatalf("unexpected contact link %q", nav.ContactUs)
	}
	if nav.AboutUs != "https://acme.com/pages/about" {
		t.Fatalf("unexpected about link %q", nav.AboutUs)
	}
	if nav.Blog != "https://acme.com/blogs/news" {
		t.Fatalf("unexpected blog link %q", nav.Blog)
	}
	if nav.OrderTracking != "https://acme.com/apps/track" {
		t.Fatalf("unexpected tracking link %q", nav.OrderTracking)
	}
	if nav.Careers != "" {
		t.Fatalf("expected missing careers slot to stay empty, got %q", nav.Careers)
	}
}

func TestLinksSkipsNonNavigableHrefs(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="javascript:void(0)">Contact Us</a>
		<a href="mailto:hi@acme.com">Contact Us</a>
		<a href="/real-contact">Contact Us</a>
	</body></html>`)

	nav := Links(doc, "https://acme.com")
	if nav.ContactUs != "https://acme.com/real-contact" {
		t.Fatalf("expected the navigable link, got %q", nav.ContactUs)
	}
}

func TestBrandContextFromHomepage(t *testing.T) {
	long := "We started in a garage in 2015 making durable canvas goods for people who travel light."
	doc := mustDoc(t, `<html><body><div class="our-story">`+long+`</div></body></html>`)

	got := BrandContext(context.Background(), doc, "", nil, 500, testLogger)
	if got != long {
		t.Fatalf("unexpected brand context %q", got)
	}
}

func TestBrandContextIgnoresShortBlocks(t *testing.T) {
	doc := mustDoc(t, `<html><body><div class="about">Too short.</div></body></html>`)
	fetch := &stubFetcher{pages: map[string]string{
		"https://acme.com/about": `<html><body><main>A longer brand story lives on the about page itself.</main></body></html>`,
	}}

	got := BrandContext(context.Background(), doc, "https://acme.com/about", fetch, 500, testLogger)
	if !strings.Contains(got, "longer brand story") {
		t.Fatalf("expected about-page fallback, got %q", got)
	}
}

func TestBrandContextPlaceholder(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>hello</p></body></html>`)
	got := BrandContext(context.Background(), doc, "", nil, 500, testLogger)
	if got != "Brand context not found" {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestBrandContextTruncates(t *testing.T) {
	doc := mustDoc(t, `<html><body><div class="brand-story">`+strings.Repeat("story ", 200)+`</div></body></html>`)
	got := BrandContext(context.Background(), doc, "", nil, 500, testLogger)
	if len(got) > 500 {
		t.Fatalf("expected context capped at 500, got %d", len(got))
	}
}
