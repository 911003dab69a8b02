package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

// ErrorResponse represents an API error response.
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// HealthResponse represents the health check response with per-component
// status.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health status of a single dependency.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// handleHealth godoc
// @Summary      Health check
// @Description  Returns 200 with per-dependency status; "degraded" if any dependency is unhealthy
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]ComponentHealth)
	allHealthy := true

	if err := s.index.HealthCheck(r.Context()); err != nil {
		components["index"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
		allHealthy = false
	} else {
		components["index"] = ComponentHealth{Status: "healthy"}
	}

	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			components["cache"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			allHealthy = false
		} else {
			components["cache"] = ComponentHealth{Status: "healthy"}
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: status, Components: components})
}

// handleStats godoc
// @Summary      Index statistics
// @Description  Returns administrative counters for the index (document count, etc.)
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  ErrorResponse
// @Router       /stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingestService.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleExact godoc
// @Summary      Exact domain lookup
// @Description  Looks up a single domain by its normalized exact form
// @Tags         Search
// @Produce      json
// @Param        domain  query     string  true  "Raw domain string"
// @Success      200     {object}  domain.ExactResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /exact [get]
func (s *Server) handleExact(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("domain")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "domain query parameter is required")
		return
	}

	resp, err := s.searchService.Exact(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSearch godoc
// @Summary      Keyword search
// @Description  Multi-keyword search with domain-specific ranking and hyphenation interleaving
// @Tags         Search
// @Produce      json
// @Param        q          query     string  true   "Query tokens, whitespace separated"
// @Param        tld        query     string  false  "Restrict results to this TLD"
// @Param        limit      query     int     false  "Page size, default 50"
// @Param        min_match  query     int     false  "Minimum matched tokens, default 1"
// @Success      200        {object}  domain.SearchResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := domain.SearchQuery{
		Q:        q.Get("q"),
		TLD:      q.Get("tld"),
		Limit:    parseIntOrDefault(q.Get("limit"), domain.DefaultSearchLimit),
		MinMatch: parseIntOrDefault(q.Get("min_match"), domain.DefaultMinMatch),
	}

	resp, err := s.searchService.Search(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// bulkSearchRequest is the body of POST /search/bulk.
type bulkSearchRequest struct {
	Queries []domain.BulkSubQuery `json:"queries"`
	Limit   int                   `json:"limit,omitempty"`
}

// handleBulkSearch godoc
// @Summary      Bulk keyword search
// @Description  Runs up to 100 independent search sub-queries and returns their results together
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      bulkSearchRequest  true  "Sub-queries"
// @Success      200      {object}  domain.BulkResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /search/bulk [post]
func (s *Server) handleBulkSearch(w http.ResponseWriter, r *http.Request) {
	var req bulkSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = domain.DefaultSearchLimit
	}

	resp, err := s.searchService.Bulk(r.Context(), req.Limit, req.Queries)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// writeDomainError maps a *domain.CodedError's Kind to an HTTP status,
// per spec §7's error-handling table.
func writeDomainError(w http.ResponseWriter, err error) {
	switch domain.ErrorKind(err) {
	case domain.KindBadRequest, domain.KindInvalidDomain:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
