package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type recurringRequest struct {
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	Every       string    `json:"every"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

type recurringResponse struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	AmountCents    int64      `json:"amountCents"`
	Category       string     `json:"category"`
	Every          string     `json:"every"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	LastExecutedAt *time.Time `json:"lastExecutedAt,omitempty"`
}

func toRecurringResponse(rt core.RecurringTransaction) recurringResponse {
	resp := recurringResponse{
		ID:          rt.ID,
		Description: rt.Description,
		AmountCents: rt.Amount.Cents,
		Category:    rt.Category,
		Every:       string(rt.Every),
		StartDate:   rt.StartDate,
	}
	if !rt.EndDate.IsZero() {
		end := rt.EndDate
		resp.EndDate = &end
	}
	if !rt.LastExecutedAt.IsZero() {
		last := rt.LastExecutedAt
		resp.LastExecutedAt = &last
	}
	return resp
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request, owner string) {
	var req recurringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rt := core.RecurringTransaction{
		OwnerID:     owner,
		Description: req.Description,
		Amount:      core.Money{Cents: req.AmountCents},
		Category:    req.Category,
		Every:       core.RepetitionType(req.Every),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := rt.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateRecurring(r.Context(), rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringResponse(created))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, owner string) {
	templates, err := s.store.ListRecurring(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringResponse, 0, len(templates))
	for _, rt := range templates {
		out = append(out, toRecurringResponse(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteRecurring(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRuleRequest struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

type categoryRuleResponse struct {
	ID       string `json:"id"`
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

func toCategoryRuleResponse(rule core.CategoryRule) categoryRuleResponse {
	return categoryRuleResponse{
		ID:       rule.ID,
		Pattern:  rule.Pattern,
		Category: rule.Category,
		Priority: rule.Priority,
	}
}

func (s *Server) handleCreateCategoryRule(w http.ResponseWriter, r *http.Request, owner string) {
	var req categoryRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rule := core.CategoryRule{
		OwnerID:  owner,
		Pattern:  req.Pattern,
		Category: req.Category,
		Priority: req.Priority,
	}
	if err := rule.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateCategoryRule(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.matcher.Invalidate(owner)
	writeJSON(w, http.StatusCreated, toCategoryRuleResponse(created))
}

func (s *Server) handleListCategoryRules(w http.ResponseWriter, r *http.Request, owner string) {
	rules, err := s.store.ListCategoryRules(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toCategoryRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

type matchRequest struct {
	Description string `json:"description"`
}

type matchResponse struct {
	Category string `json:"category"`
	Matched  bool   `json:"matched"`
}

// handleMatchCategoryRule previews which category the owner's rules would
// assign to a description, without creating anything.
func (s *Server) handleMatchCategoryRule(w http.ResponseWriter, r *http.Request, owner string) {
	var req matchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, matched, err := s.matcher.Match(r.Context(), owner, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Category: category, Matched: matched})
}

func (s *Server) handleDeleteCategoryRule(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteCategoryRule(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.matcher.Invalidate(owner)
	w.WriteHeader(http.StatusNoContent)
}

type customCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type customCategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCreateCustomCategory(w http.ResponseWriter, r *http.Request, owner string) {
	var req customCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := core.CustomCategory{
		OwnerID: owner,
		Name:    req.Name,
		Color:   req.Color,
	}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateCustomCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customCategoryResponse{ID: created.ID, Name: created.Name, Color: created.Color})
}

func (s *Server) handleListCustomCategories(w http.ResponseWriter, r *http.Request, owner string) {
	categories, err := s.store.ListCustomCategories(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]customCategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, customCategoryResponse{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCustomCategory(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteCustomCategory(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
