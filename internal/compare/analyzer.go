package compare

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"brandscope/internal/config"
	"brandscope/internal/insight"
	"brandscope/pkg/types"
)

// Analyzer runs the end-to-end competitor analysis: extract the main
// store, discover candidates, extract each candidate concurrently, and
// rank them by similarity.
type Analyzer struct {
	assembler *insight.Assembler
	discovery *Discovery
	cfg       config.CompetitorsConfig
	logger    *slog.Logger
}

// NewAnalyzer constructs a competitor analyzer.
func NewAnalyzer(assembler *insight.Assembler, discovery *Discovery, cfg config.CompetitorsConfig, logger *slog.Logger) *Analyzer {
	if cfg.MaxCompetitors <= 0 {
		cfg.MaxCompetitors = 3
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{assembler: assembler, discovery: discovery, cfg: cfg, logger: logger}
}

// Analyze produces a full competitor report for the store at rawURL.
// maxCompetitors overrides the configured cap when positive. The whole
// run is bounded by the configured deadline; candidates still in
// flight when it expires are dropped from the report.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string, maxCompetitors int) *types.CompetitorReport {
	if maxCompetitors <= 0 || maxCompetitors > a.cfg.MaxCompetitors {
		maxCompetitors = a.cfg.MaxCompetitors
	}
	if a.cfg.Deadline.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Deadline.Duration)
		defer cancel()
	}

	main := a.assembler.Extract(ctx, rawURL)
	report := &types.CompetitorReport{
		MainBrand:  *main,
		AnalyzedAt: time.Now().UTC(),
	}
	if !main.Success {
		a.logger.Warn("main store extraction failed, skipping discovery", "url", rawURL)
		return report
	}

	candidates := a.discovery.Discover(ctx, main.BrandName, main.WebsiteURL, topCategories(main.Catalog, 2), maxCompetitors)
	if len(candidates) == 0 {
		return report
	}

	report.Competitors = a.extractAll(ctx, main, candidates)
	return report
}

// topCategories samples the most frequent product types from the
// catalog for search-query enrichment.
func topCategories(products []types.Product, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, p := range products {
		pt := strings.ToLower(strings.TrimSpace(p.ProductType))
		if pt == "" {
			continue
		}
		if counts[pt] == 0 {
			order = append(order, pt)
		}
		counts[pt]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// extractAll fans candidate extraction out over a bounded worker pool
// and returns the scored results sorted by similarity, best first.
func (a *Analyzer) extractAll(ctx context.Context, main *types.BrandInsight, candidates []string) []types.CompetitorInfo {
	sem := make(chan struct{}, a.cfg.MaxWorkers)
	results := make([]*types.CompetitorInfo, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			info := a.assembler.Extract(ctx, candidate)
			if !info.Success {
				a.logger.Warn("competitor extraction failed", "url", candidate)
				return
			}
			results[i] = &types.CompetitorInfo{
				BrandName:       info.BrandName,
				WebsiteURL:      info.WebsiteURL,
				SimilarityScore: Score(main, info),
				Insight:         info,
			}
		}(i, candidate)
	}
	wg.Wait()

	var competitors []types.CompetitorInfo
	for _, r := range results {
		if r != nil {
			competitors = append(competitors, *r)
		}
	}
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].SimilarityScore > competitors[j].SimilarityScore
	})
	return competitors
}
