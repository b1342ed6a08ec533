// Package compare scores storefronts against each other and discovers
// likely competitors on the open web.
package compare

import (
	"math"
	"strings"

	"brandscope/pkg/types"
)

// Component weights of the similarity score. They sum to 1 so the
// final score stays in [0, 1].
const (
	weightCategory = 0.4
	weightPrice    = 0.3
	weightSize     = 0.2
	weightSocial   = 0.1
)

// categorySampleSize bounds the category comparison to the leading
// catalog entries; large catalogs dilute the signal past that point.
const categorySampleSize = 50

// Score computes the weighted similarity of two stores, rounded to
// three decimals. A degenerate pair (either record nil or unsuccessful)
// scores 0.
func Score(main, other *types.BrandInsight) float64 {
	if main == nil || other == nil {
		return 0
	}

	score := weightCategory*categoryOverlap(main, other) +
		weightPrice*priceCloseness(main, other) +
		weightSize*sizeRatio(main, other) +
		weightSocial*socialRatio(main, other)

	score = math.Round(score*1000) / 1000
	return math.Min(1, math.Max(0, score))
}

// categoryOverlap is the Jaccard index of the two stores' category
// vocabularies (product types and tags of the leading catalog entries).
func categoryOverlap(main, other *types.BrandInsight) float64 {
	a := categorySet(main.Catalog)
	b := categorySet(other.Catalog)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func categorySet(products []types.Product) map[string]struct{} {
	if len(products) > categorySampleSize {
		products = products[:categorySampleSize]
	}
	set := make(map[string]struct{})
	for _, p := range products {
		if t := strings.ToLower(strings.TrimSpace(p.ProductType)); t != "" {
			set[t] = struct{}{}
		}
		for _, tag := range p.Tags {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	return set
}

// priceCloseness compares average catalog prices: the gap relative to
// the larger of the two averages, so the measure is symmetric.
func priceCloseness(main, other *types.BrandInsight) float64 {
	mainAvg := averagePrice(main.Catalog)
	otherAvg := averagePrice(other.Catalog)
	if mainAvg <= 0 || otherAvg <= 0 {
		return 0
	}
	closeness := 1 - math.Abs(mainAvg-otherAvg)/math.Max(mainAvg, otherAvg)
	return math.Max(0, closeness)
}

func averagePrice(products []types.Product) float64 {
	var sum float64
	var count int
	for _, p := range products {
		if p.Price != nil && *p.Price > 0 {
			sum += *p.Price
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// sizeRatio compares catalog sizes as min/max. The catalog itself is
// the source of truth; summary fields on the record may be unset on
// hand-built or deserialized inputs.
func sizeRatio(main, other *types.BrandInsight) float64 {
	a := float64(len(main.Catalog))
	b := float64(len(other.Catalog))
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}

// socialRatio compares social footprints as min/max filled platforms.
// Two stores with no social presence at all share nothing measurable,
// so the pair scores 0 rather than a perfect match.
func socialRatio(main, other *types.BrandInsight) float64 {
	a := float64(main.Social.FilledCount())
	b := float64(other.Social.FilledCount())
	if a == 0 && b == 0 {
		return 0
	}
	return math.Min(a, b) / math.Max(math.Max(a, b), 1)
}
