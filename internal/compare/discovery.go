package compare

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brandscope/internal/fetcher"
	"brandscope/internal/insight"
)

// queryTemplates are the web searches run per brand, in order. Each
// takes the brand name.
var queryTemplates = []string{
	`"%s" competitors online store`,
	`brands like %s online shop`,
	`%s alternatives buy online`,
}

// buildQueries expands the templates and, when category terms are
// known, leads with a category-qualified query so the results skew
// toward stores selling the same kind of product.
func buildQueries(brandName string, terms []string) []string {
	var queries []string
	if len(terms) > 0 {
		queries = append(queries, fmt.Sprintf("%s %s online store", strings.Join(terms, " "), brandName))
	}
	for _, template := range queryTemplates {
		queries = append(queries, fmt.Sprintf(template, brandName))
	}
	return queries
}

// excludedHosts filters out search engines, marketplaces, and social
// platforms that surface in results but are never direct competitors.
var excludedHosts = []string{
	"google.", "duckduckgo.", "bing.", "yahoo.",
	"facebook.", "instagram.", "twitter.", "x.com", "youtube.",
	"pinterest.", "linkedin.", "tiktok.", "reddit.", "quora.",
	"amazon.", "ebay.", "etsy.", "walmart.", "aliexpress.",
	"wikipedia.", "medium.", "yelp.", "trustpilot.",
}

// domainVariationTemplates guess direct competitor domains from a
// brand-adjacent keyword. Each candidate is probed before use.
var domainVariationTemplates = []string{
	"https://%s.com",
	"https://www.%s.com",
	"https://%s.myshopify.com",
	"https://shop%s.com",
}

// maxSearchCandidates caps how many search hits are carried forward
// per discovery run before reachability filtering.
const maxSearchCandidates = 10

// Discovery finds candidate competitor storefronts through an HTML
// search endpoint plus direct domain guessing. Discovery is best
// effort: an unreachable endpoint yields an empty slate, never an
// error, and results carry no relevance guarantee until scored.
type Discovery struct {
	client   *fetcher.Client
	endpoint string
	logger   *slog.Logger
}

// NewDiscovery constructs a discovery helper against the given HTML
// search endpoint.
func NewDiscovery(client *fetcher.Client, endpoint string, logger *slog.Logger) *Discovery {
	if endpoint == "" {
		endpoint = "https://html.duckduckgo.com/html/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{client: client, endpoint: endpoint, logger: logger}
}

// Discover returns up to limit candidate store URLs for the brand,
// excluding the brand's own domain. terms are optional category words
// sampled from the brand's catalog that sharpen the search queries.
// Search failures degrade to the domain-guess candidates alone.
func (d *Discovery) Discover(ctx context.Context, brandName, mainURL string, terms []string, limit int) []string {
	if limit <= 0 {
		limit = 3
	}
	mainHost := hostOf(mainURL)

	seen := make(map[string]struct{})
	var candidates []string
	add := func(candidate string) {
		host := hostOf(candidate)
		if host == "" || host == mainHost || excludedHost(host) {
			return
		}
		if _, dup := seen[host]; dup {
			return
		}
		seen[host] = struct{}{}
		candidates = append(candidates, candidate)
	}

	for _, query := range buildQueries(brandName, terms) {
		if len(candidates) >= maxSearchCandidates {
			break
		}
		for _, hit := range d.search(ctx, query) {
			add(hit)
			if len(candidates) >= maxSearchCandidates {
				break
			}
		}
	}

	// Domain guessing is a fallback for when search comes up short.
	if len(candidates) < limit {
		for _, guess := range d.domainGuesses(ctx, brandName, mainHost) {
			add(guess)
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	d.logger.Info("competitor discovery finished", "brand", brandName, "candidates", len(candidates))
	return candidates
}

// search runs one query against the HTML endpoint and returns the
// outbound result URLs.
func (d *Discovery) search(ctx context.Context, query string) []string {
	searchURL := d.endpoint + "?q=" + url.QueryEscape(query)
	resp, err := d.client.Get(ctx, searchURL)
	if err != nil {
		d.logger.Warn("search request failed", "query", query, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		d.logger.Warn("search response parse failed", "query", query, "error", err)
		return nil
	}

	var hits []string
	doc.Find("a.result__a, a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target := decodeRedirect(href)
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			hits = append(hits, target)
		}
	})
	return hits
}

// decodeRedirect unwraps search-engine redirect links: the uddg query
// parameter on /l/ style links, and the q parameter on /url style
// links. Anything else passes through unchanged.
func decodeRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.Contains(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if strings.HasPrefix(parsed.Path, "/url") {
		if target := parsed.Query().Get("q"); target != "" {
			return target
		}
	}
	return href
}

// domainGuesses probes brand-derived domains and keeps the ones that
// answer.
func (d *Discovery) domainGuesses(ctx context.Context, brandName, mainHost string) []string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(brandName), " ", ""))
	if slug == "" {
		return nil
	}

	var alive []string
	for _, template := range domainVariationTemplates {
		candidate := fmt.Sprintf(template, slug)
		if hostOf(candidate) == mainHost {
			continue
		}
		if d.client.Reachable(ctx, candidate) {
			alive = append(alive, candidate)
		}
	}
	return alive
}

func excludedHost(host string) bool {
	for _, excluded := range excludedHosts {
		if strings.Contains(host, excluded) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(insight.NormalizeURL(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
