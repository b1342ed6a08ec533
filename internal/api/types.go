package api

import "brandscope/pkg/types"

// AnalyzeStoreRequest asks for a single-store extraction.
type AnalyzeStoreRequest struct {
	WebsiteURL string `json:"website_url"`
	Save       bool   `json:"save"`
}

// AnalyzeStoreResponse carries the extraction result. SavedID is the
// persisted row id when saving was requested and succeeded.
type AnalyzeStoreResponse struct {
	Insight *types.BrandInsight `json:"insight"`
	SavedID int64               `json:"saved_id,omitempty"`
}

// AnalyzeCompetitorsRequest asks for a competitor analysis run.
type AnalyzeCompetitorsRequest struct {
	WebsiteURL     string `json:"website_url"`
	MaxCompetitors int    `json:"max_competitors"`
	Save           bool   `json:"save"`
}

// AnalyzeCompetitorsResponse carries the ranked competitor report.
type AnalyzeCompetitorsResponse struct {
	Report  *types.CompetitorReport `json:"report"`
	SavedID int64                   `json:"saved_id,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
