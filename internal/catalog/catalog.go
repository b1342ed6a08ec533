// Package catalog retrieves and normalizes a storefront's full
// product listing from its paginated products.json endpoint.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"brandscope/internal/config"
	"brandscope/internal/extract"
	"brandscope/internal/fetcher"
	"brandscope/pkg/types"
)

// Retriever pages through a product-listing endpoint until the server
// stops returning full pages.
type Retriever struct {
	client   *fetcher.Client
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewRetriever constructs a catalog retriever.
func NewRetriever(client *fetcher.Client, cfg config.CatalogConfig, logger *slog.Logger) *Retriever {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{client: client, pageSize: pageSize, maxPages: maxPages, logger: logger}
}

type productsPayload struct {
	Products []rawProduct `json:"products"`
}

type rawProduct struct {
	ID          json.Number      `json:"id"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        json.RawMessage  `json:"tags"`
	Images      []rawImage       `json:"images"`
	Variants    []map[string]any `json:"variants"`
}

type rawImage struct {
	Src string `json:"src"`
}

// All fetches every product page and returns the normalized catalog.
// Pagination stops when a page comes back empty or shorter than the
// page size; maxPages guards against endpoints that never do either.
// A failure on the first page is returned to the caller; later-page
// failures end pagination with the partial result.
func (r *Retriever) All(ctx context.Context, baseURL string) ([]types.Product, error) {
	base := strings.TrimSuffix(baseURL, "/")
	var products []types.Product

	for page := 1; page <= r.maxPages; page++ {
		pageURL := fmt.Sprintf("%s/products.json?limit=%d&page=%d", base, r.pageSize, page)

		var payload productsPayload
		if err := r.client.JSON(ctx, pageURL, &payload); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("product listing: %w", err)
			}
			r.logger.Warn("catalog page fetch failed, stopping pagination", "url", pageURL, "error", err)
			break
		}

		if len(payload.Products) == 0 {
			break
		}
		for _, raw := range payload.Products {
			products = append(products, convert(raw, base))
		}
		if len(payload.Products) < r.pageSize {
			break
		}
	}

	return products, nil
}

// convert normalizes one raw listing record. Price and availability
// derive from the first variant only; this mirrors the listing
// endpoint's own ordering and is a known simplification.
func convert(raw rawProduct, base string) types.Product {
	product := types.Product{
		ID:          raw.ID.String(),
		Title:       raw.Title,
		Handle:      raw.Handle,
		Description: extract.CleanHTML(raw.BodyHTML),
		Vendor:      raw.Vendor,
		ProductType: raw.ProductType,
		Tags:        parseTags(raw.Tags),
		URL:         base + "/products/" + raw.Handle,
		Variants:    raw.Variants,
	}

	for _, img := range raw.Images {
		if img.Src != "" {
			product.Images = append(product.Images, img.Src)
		}
	}

	if len(raw.Variants) > 0 {
		first := raw.Variants[0]
		product.Price = numericValue(first["price"])
		product.CompareAtPrice = numericValue(first["compare_at_price"])
		if avail, ok := first["available"].(bool); ok {
			product.Available = avail
		}
	}

	return product
}

// parseTags accepts both wire forms: a comma-separated string and a
// JSON array. Duplicates are removed; order is not meaningful.
func parseTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var joined string
	var list []string
	if err := json.Unmarshal(raw, &joined); err == nil {
		list = strings.Split(joined, ",")
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(list))
	var tags []string
	for _, tag := range list {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// numericValue extracts a float from the loose typing of variant
// fields, which arrive as strings on some stores and numbers on
// others.
func numericValue(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		return &parsed
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}
