// Package api exposes the extraction and analysis pipeline over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"brandscope/internal/compare"
	"brandscope/internal/insight"
	"brandscope/internal/storage"
)

// Server wires the HTTP surface to the pipeline components.
type Server struct {
	assembler *insight.Assembler
	analyzer  *compare.Analyzer
	store     storage.InsightStore
	logger    *slog.Logger
}

// NewServer constructs the HTTP server facade. store may be a
// NoopStore when persistence is not configured.
func NewServer(assembler *insight.Assembler, analyzer *compare.Analyzer, store storage.InsightStore, logger *slog.Logger) *Server {
	if store == nil {
		store = storage.NoopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{assembler: assembler, analyzer: analyzer, store: store, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/analyze-store", s.handleAnalyzeStore)
	mux.HandleFunc("/api/analyze-competitors", s.handleAnalyzeCompetitors)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyzeStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req AnalyzeStoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.WebsiteURL) == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}

	ctx := r.Context()
	if !s.assembler.Reachable(ctx, req.WebsiteURL) {
		writeError(w, http.StatusUnprocessableEntity, "website not found or not accessible")
		return
	}

	record := s.assembler.Extract(ctx, req.WebsiteURL)

	resp := AnalyzeStoreResponse{Insight: record}
	if req.Save {
		id, err := s.store.SaveInsight(ctx, record)
		if err != nil {
			s.logger.Error("save insight failed", "url", record.WebsiteURL, "error", err)
		} else {
			resp.SavedID = id
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyzeCompetitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req AnalyzeCompetitorsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.WebsiteURL) == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}

	ctx := r.Context()
	if !s.assembler.Reachable(ctx, req.WebsiteURL) {
		writeError(w, http.StatusUnprocessableEntity, "website not found or not accessible")
		return
	}

	report := s.analyzer.Analyze(ctx, req.WebsiteURL, req.MaxCompetitors)

	resp := AnalyzeCompetitorsResponse{Report: report}
	if req.Save {
		id, err := s.store.SaveReport(ctx, report)
		if err != nil {
			s.logger.Error("save report failed", "url", req.WebsiteURL, "error", err)
		} else {
			resp.SavedID = id
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
