package extract

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"brandscope/pkg/types"
)

// navKeywords maps each navigation slot to its matching labels and
// path fragments. First matching link per slot wins.
var navKeywords = []struct {
	name     string
	keywords []string
}{
	{"contact_us", []string{"contact us", "contact-us", "contact"}},
	{"about_us", []string{"about us", "about-us", "our story", "about"}},
	{"blog", []string{"blog", "journal", "news"}},
	{"order_tracking", []string{"order tracking", "track order", "tracking", "track"}},
	{"size_guide", []string{"size guide", "size-guide", "sizing"}},
	{"careers", []string{"careers", "jobs", "join us"}},
}

// aboutSelectors locate brand-narrative blocks on the homepage.
var aboutSelectors = []string{
	".about", ".brand-story", ".our-story", ".hero-text",
	`[class*="about"]`, `[class*="story"]`,
}

// brandContextPlaceholder is returned when no narrative text is found
// anywhere; the field is never left empty.
const brandContextPlaceholder = "Brand context not found"

// Links extracts the six labeled navigation links from the page.
func Links(doc *goquery.Document, baseURL string) types.NavLinks {
	var nav types.NavLinks
	if doc == nil {
		return nav
	}

	base := BaseURL(doc, baseURL)
	found := make(map[string]string, len(navKeywords))

	matchLinks(doc.Selection, base, func(label, href string) bool {
		for _, entry := range navKeywords {
			if _, taken := found[entry.name]; taken {
				continue
			}
			if containsAny(label, href, entry.keywords) {
				found[entry.name] = href
				break
			}
		}
		return len(found) < len(navKeywords)
	})

	nav.ContactUs = found["contact_us"]
	nav.AboutUs = found["about_us"]
	nav.Blog = found["blog"]
	nav.OrderTracking = found["order_tracking"]
	nav.SizeGuide = found["size_guide"]
	nav.Careers = found["careers"]
	return nav
}

// BrandContext pulls the brand narrative: the first homepage element
// matching an about selector with more than 50 characters of text,
// else the about page's main content, else a fixed placeholder.
func BrandContext(ctx context.Context, doc *goquery.Document, aboutURL string, client Fetcher, charLimit int, logger *slog.Logger) string {
	if charLimit <= 0 {
		charLimit = 500
	}

	if doc != nil {
		for _, selector := range aboutSelectors {
			element := doc.Find(selector).First()
			if element.Length() == 0 {
				continue
			}
			text := CleanText(element.Text())
			if len(text) > 50 {
				return Truncate(text, charLimit)
			}
		}
	}

	if aboutURL != "" && client != nil {
		if text := fetchMainContent(ctx, client, aboutURL, charLimit, logger); text != "" {
			return text
		}
	}

	return brandContextPlaceholder
}
