package http

import (
	"net/http"

	"fintrack/internal/insights"
)

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request, owner string) {
	q := insights.Query{
		Granularity: r.URL.Query().Get("granularity"),
		StartDate:   r.URL.Query().Get("startDate"),
		EndDate:     r.URL.Query().Get("endDate"),
	}
	resp, err := s.insights.ComputeInsights(r.Context(), owner, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFinancialHealth(w http.ResponseWriter, r *http.Request, owner string) {
	score, err := s.insights.ComputeFinancialHealth(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

type categoryTotalResponse struct {
	Category   string `json:"category"`
	TotalCents int64  `json:"totalCents"`
}

type monthlyTotalResponse struct {
	Month      string `json:"month"`
	TotalCents int64  `json:"totalCents"`
}

type statsResponse struct {
	TotalCents int64                   `json:"totalCents"`
	ByCategory []categoryTotalResponse `json:"byCategory"`
	Monthly    []monthlyTotalResponse  `json:"monthly"`
}

// handleGetStats summarizes the owner's entire ledger, unlike the insights
// endpoint it is not bounded to a window.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request, owner string) {
	stats, err := s.store.GetTransactionStats(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := statsResponse{
		TotalCents: stats.Total.Cents,
		ByCategory: make([]categoryTotalResponse, 0, len(stats.ByCategory)),
		Monthly:    make([]monthlyTotalResponse, 0, len(stats.Monthly)),
	}
	for _, ct := range stats.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalResponse{Category: ct.Category, TotalCents: ct.Total.Cents})
	}
	for _, mt := range stats.Monthly {
		resp.Monthly = append(resp.Monthly, monthlyTotalResponse{Month: mt.Month, TotalCents: mt.Total.Cents})
	}
	writeJSON(w, http.StatusOK, resp)
}
