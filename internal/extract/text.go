// Package extract implements the heuristic pattern extractors that
// turn parsed storefront HTML into partial brand-insight fragments.
// Every extractor degrades to an empty or partial fragment instead of
// failing; markup on arbitrary stores carries no schema guarantee.
package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves and parses sub-pages on behalf of extractors.
// Callers may wrap the transport client with policy checks before
// handing it in.
type Fetcher interface {
	Document(ctx context.Context, rawURL string) (*goquery.Document, error)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
)

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanHTML strips markup from an HTML fragment and normalizes the
// remaining text.
func CleanHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}

// Truncate caps a string at limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ResolveURL converts a possibly relative href into an absolute URL
// against base. Unresolvable hrefs come back unchanged.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// NormalizeQuestion reduces a question to its comparison form: strip
// punctuation, fold case, collapse whitespace. Entries whose
// normalized form is 5 characters or shorter are considered noise.
func NormalizeQuestion(q string) string {
	return CleanText(strings.ToLower(nonWordRe.ReplaceAllString(q, "")))
}

// BaseURL returns the document's URL for resolving relative links,
// falling back to parsing the supplied raw URL.
func BaseURL(doc *goquery.Document, rawURL string) *url.URL {
	if doc != nil && doc.Url != nil {
		return doc.Url
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return parsed
}

// matchLinks walks every anchor in the selection and hands label text
// plus the resolved absolute href to fn, stopping early when fn
// returns false. Shared by the policy, navigation, and FAQ link scans.
func matchLinks(sel *goquery.Selection, base *url.URL, fn func(label, href string) bool) {
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
			return true
		}
		label := strings.ToLower(CleanText(a.Text()))
		return fn(label, ResolveURL(base, href))
	})
}

// containsAny reports whether any keyword occurs in label or in the
// lowercased href.
func containsAny(label, href string, keywords []string) bool {
	lowerHref := strings.ToLower(href)
	for _, kw := range keywords {
		if strings.Contains(label, kw) || strings.Contains(lowerHref, kw) {
			return true
		}
	}
	return false
}
