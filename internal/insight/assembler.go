// Package insight orchestrates the extractors into a complete brand
// profile for one storefront.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"brandscope/internal/catalog"
	"brandscope/internal/config"
	"brandscope/internal/extract"
	"brandscope/internal/fetcher"
	"brandscope/internal/robots"
	"brandscope/pkg/types"
)

// storefrontMarkers are substrings whose presence in the homepage
// markup identifies a hosted storefront. Their absence is logged but
// does not stop extraction; stores on custom domains with heavily
// customized themes can hide every marker.
var storefrontMarkers = []string{
	"Shopify.theme",
	"shopify_pay",
	"cdn.shopify.com",
	"myshopify.com",
	"shopify-section",
	"/products.json",
}

// titleSuffixRe strips the store-name suffix conventions out of a
// <title>, eg "Acme - Home", "Acme | Official Store".
var titleSuffixRe = regexp.MustCompile(`\s*[-–|].*$`)

// Assembler runs the full extraction pipeline for a single store URL.
type Assembler struct {
	client  *fetcher.Client
	catalog *catalog.Retriever
	robots  *robots.Agent
	cfg     config.ExtractConfig
	logger  *slog.Logger
}

// New constructs an assembler. The robots agent may be nil, in which
// case sub-page fetches are not gated.
func New(client *fetcher.Client, retriever *catalog.Retriever, robotsAgent *robots.Agent, cfg config.ExtractConfig, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		client:  client,
		catalog: retriever,
		robots:  robotsAgent,
		cfg:     cfg,
		logger:  logger,
	}
}

// NormalizeURL makes a user-supplied store URL fetchable: it defaults
// the scheme to https and strips the trailing slash.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimSuffix(raw, "/")
}

// Extract builds the full insight record for one store. It always
// returns a record; failures are reported through Success and Errors,
// and a partial result is better than none.
func (a *Assembler) Extract(ctx context.Context, rawURL string) *types.BrandInsight {
	site := NormalizeURL(rawURL)
	result := &types.BrandInsight{
		BrandName:   "Unknown",
		WebsiteURL:  site,
		ExtractedAt: time.Now().UTC(),
	}

	started := time.Now()
	a.logger.Info("starting extraction", "url", site)

	doc, err := a.client.Document(ctx, site)
	if err != nil {
		a.logger.Warn("homepage fetch failed", "url", site, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("website fetch failed: %v", err))
		return result
	}

	if !looksLikeStorefront(doc) {
		a.logger.Warn("no storefront markers found, extracting anyway", "url", site)
	}

	result.BrandName = brandName(doc, site)

	products, err := a.catalog.All(ctx, site)
	if err != nil {
		a.logger.Warn("catalog retrieval failed", "url", site, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("product catalog unavailable: %v", err))
	}
	result.Catalog = products
	result.TotalProducts = len(products)
	result.HeroProducts = catalog.Hero(doc, products, site, a.cfg.MaxHeroProducts)

	sub := a.subPageFetcher()
	result.Social = extract.Social(doc)
	result.Links = extract.Links(doc, site)
	result.Contact = extract.Contact(ctx, doc, result.Links.ContactUs, sub, a.logger)
	result.Policies = extract.Policies(ctx, doc, site, sub, a.cfg.PolicyCharLimit, a.logger)
	result.FAQs = extract.FAQs(ctx, doc, site, sub, extract.FAQOptions{
		MaxEntries: a.cfg.MaxFAQs,
		MaxPages:   a.cfg.MaxFAQPages,
	}, a.logger)
	result.BrandContext = extract.BrandContext(ctx, doc, result.Links.AboutUs, sub, a.cfg.AboutCharLimit, a.logger)

	result.Success = true
	a.logger.Info("extraction complete",
		"url", site,
		"brand", result.BrandName,
		"products", result.TotalProducts,
		"faqs", len(result.FAQs),
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return result
}

// Reachable reports whether the normalized store URL answers at all.
func (a *Assembler) Reachable(ctx context.Context, rawURL string) bool {
	return a.client.Reachable(ctx, NormalizeURL(rawURL))
}

// subPageFetcher wraps the transport client with the robots gate for
// discovered sub-pages.
func (a *Assembler) subPageFetcher() extract.Fetcher {
	return &gatedFetcher{client: a.client, robots: a.robots}
}

type gatedFetcher struct {
	client *fetcher.Client
	robots *robots.Agent
}

func (g *gatedFetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if !g.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}
	return g.client.Document(ctx, rawURL)
}

// looksLikeStorefront scans the raw markup for hosted-storefront
// fingerprints.
func looksLikeStorefront(doc *goquery.Document) bool {
	html, err := doc.Html()
	if err != nil {
		return false
	}
	for _, marker := range storefrontMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}

// brandName derives the display name: the <title> with its suffix
// stripped, else the og:site_name meta tag, else the capitalized
// second-level domain label.
func brandName(doc *goquery.Document, site string) string {
	if title := extract.CleanText(doc.Find("title").First().Text()); title != "" {
		if name := extract.CleanText(titleSuffixRe.ReplaceAllString(title, "")); name != "" {
			return name
		}
	}

	if siteName, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if name := extract.CleanText(siteName); name != "" {
			return name
		}
	}

	if parsed, err := url.Parse(site); err == nil {
		host := strings.TrimPrefix(parsed.Hostname(), "www.")
		if label, _, found := strings.Cut(host, "."); found && label != "" {
			return capitalize(label)
		}
		if host != "" {
			return capitalize(host)
		}
	}
	return "Unknown"
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
