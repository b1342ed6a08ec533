package extract

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"brandscope/pkg/types"
)

// policyKeywords maps each policy type to the labels and path
// fragments its links carry. First matching link per type wins.
var policyKeywords = []struct {
	name     string
	keywords []string
}{
	{"privacy", []string{"privacy policy", "privacy-policy", "privacy"}},
	{"returns", []string{"return policy", "return-policy", "returns", "return"}},
	{"refund", []string{"refund policy", "refund-policy", "refunds", "refund"}},
	{"terms", []string{"terms of service", "terms-of-service", "terms", "tos"}},
	{"shipping", []string{"shipping policy", "shipping-policy", "shipping"}},
}

// contentSelectors is the ordered list of regions tried when pulling
// the main text out of a policy or about page. Whole-page text is the
// final fallback.
var contentSelectors = []string{"main", ".main-content", ".policy-content", ".content", "article"}

// Policies finds policy page links on the homepage, fetches each
// linked page once, and extracts its main content truncated to
// charLimit. Missing links or failed fetches leave that policy empty.
func Policies(ctx context.Context, doc *goquery.Document, baseURL string, client Fetcher, charLimit int, logger *slog.Logger) types.Policies {
	var bundle types.Policies
	if doc == nil || client == nil {
		return bundle
	}
	if charLimit <= 0 {
		charLimit = 1000
	}

	links := policyLinks(doc, baseURL)
	for name, link := range links {
		text := fetchMainContent(ctx, client, link, charLimit, logger)
		if text == "" {
			continue
		}
		switch name {
		case "privacy":
			bundle.Privacy = text
		case "returns":
			bundle.Returns = text
		case "refund":
			bundle.Refund = text
		case "terms":
			bundle.Terms = text
		case "shipping":
			bundle.Shipping = text
		}
	}
	return bundle
}

func policyLinks(doc *goquery.Document, baseURL string) map[string]string {
	base := BaseURL(doc, baseURL)
	links := make(map[string]string, len(policyKeywords))

	matchLinks(doc.Selection, base, func(label, href string) bool {
		for _, entry := range policyKeywords {
			if _, taken := links[entry.name]; taken {
				continue
			}
			if containsAny(label, href, entry.keywords) {
				links[entry.name] = href
				break
			}
		}
		return len(links) < len(policyKeywords)
	})
	return links
}

// fetchMainContent retrieves a page and extracts its primary text via
// the ordered content selectors, falling back to the whole page.
func fetchMainContent(ctx context.Context, client Fetcher, pageURL string, charLimit int, logger *slog.Logger) string {
	pageDoc, err := client.Document(ctx, pageURL)
	if err != nil {
		if logger != nil {
			logger.Debug("content page fetch failed", "url", pageURL, "error", err)
		}
		return ""
	}
	return MainContent(pageDoc, charLimit)
}

// MainContent extracts the primary readable text of a document using
// the shared content-region selector chain.
func MainContent(doc *goquery.Document, charLimit int) string {
	for _, selector := range contentSelectors {
		region := doc.Find(selector).First()
		if region.Length() == 0 {
			continue
		}
		if text := CleanText(region.Text()); text != "" {
			return Truncate(text, charLimit)
		}
	}
	return Truncate(CleanText(doc.Text()), charLimit)
}
