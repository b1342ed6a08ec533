package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brandscope/internal/extract"
	"brandscope/pkg/types"
)

// heroSelectors are tried in order against the homepage to collect
// candidate product links.
var heroSelectors = []string{
	`a[href*="/products/"]`,
	".product-item a",
	".featured-product a",
	".hero-product a",
	".product-card a",
}

// heroScanWindow bounds the catalog scan: a homepage-first heuristic
// that only considers the leading entries in catalog order.
const heroScanWindow = 10

// Hero intersects homepage product links with the catalog and returns
// at most maxHero entries, all drawn from the catalog itself.
func Hero(doc *goquery.Document, allProducts []types.Product, baseURL string, maxHero int) []types.Product {
	if doc == nil || len(allProducts) == 0 {
		return nil
	}
	if maxHero <= 0 {
		maxHero = 6
	}

	base := extract.BaseURL(doc, baseURL)
	linked := make(map[string]struct{})
	for _, selector := range heroSelectors {
		doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || !strings.Contains(href, "/products/") {
				return
			}
			linked[extract.ResolveURL(base, href)] = struct{}{}
		})
	}
	if len(linked) == 0 {
		return nil
	}

	window := allProducts
	if len(window) > heroScanWindow {
		window = window[:heroScanWindow]
	}

	var hero []types.Product
	for _, product := range window {
		if _, ok := linked[product.URL]; ok {
			hero = append(hero, product)
			if len(hero) == maxHero {
				break
			}
		}
	}
	return hero
}
