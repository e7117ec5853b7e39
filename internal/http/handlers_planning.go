package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type budgetRequest struct {
	Category   string `json:"category"`
	LimitCents int64  `json:"limitCents"`
}

type budgetResponse struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	LimitCents int64  `json:"limitCents"`
}

type budgetWithSpendingResponse struct {
	budgetResponse
	SpentCents  int64   `json:"spentCents"`
	Utilization float64 `json:"utilization"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{ID: b.ID, Category: b.Category, LimitCents: b.Limit.Cents}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, owner string) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := core.Budget{
		OwnerID:  owner,
		Category: req.Category,
		Limit:    core.Money{Cents: req.LimitCents},
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, owner string) {
	budgets, err := s.store.ListBudgets(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListBudgetsWithSpending reports each budget alongside the spend
// accumulated in the current calendar month.
func (s *Server) handleListBudgetsWithSpending(w http.ResponseWriter, r *http.Request, owner string) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	month := core.DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}

	budgets, err := s.store.ListBudgetsWithSpending(r.Context(), owner, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetWithSpendingResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetWithSpendingResponse{
			budgetResponse: toBudgetResponse(b.Budget),
			SpentCents:     b.Spent.Cents,
			Utilization:    b.Utilization(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, owner string) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := core.Budget{
		ID:       r.PathValue("id"),
		OwnerID:  owner,
		Category: req.Category,
		Limit:    core.Money{Cents: req.LimitCents},
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteBudget(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type billReminderRequest struct {
	Name        string    `json:"name"`
	AmountCents int64     `json:"amountCents"`
	DueDate     time.Time `json:"dueDate"`
	IsPaid      bool      `json:"isPaid"`
}

type billReminderResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"amountCents"`
	DueDate     time.Time `json:"dueDate"`
	IsPaid      bool      `json:"isPaid"`
	IsOverdue   bool      `json:"isOverdue"`
}

func toBillReminderResponse(b core.BillReminder, now time.Time) billReminderResponse {
	return billReminderResponse{
		ID:          b.ID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		DueDate:     b.DueDate,
		IsPaid:      b.IsPaid,
		IsOverdue:   b.IsOverdue(now),
	}
}

func (s *Server) handleCreateBillReminder(w http.ResponseWriter, r *http.Request, owner string) {
	var req billReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := core.BillReminder{
		OwnerID: owner,
		Name:    req.Name,
		Amount:  core.Money{Cents: req.AmountCents},
		DueDate: req.DueDate,
		IsPaid:  req.IsPaid,
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateBillReminder(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillReminderResponse(created, time.Now()))
}

func (s *Server) handleListBillReminders(w http.ResponseWriter, r *http.Request, owner string) {
	bills, err := s.store.ListBillReminders(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillReminderResponses(bills, time.Now()))
}

// handleListUpcomingBills lists unpaid bills due within the next 30 days,
// overdue ones included.
func (s *Server) handleListUpcomingBills(w http.ResponseWriter, r *http.Request, owner string) {
	bills, err := s.store.ListActiveBillReminders(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now()
	horizon := now.AddDate(0, 0, 30)
	upcoming := make([]core.BillReminder, 0, len(bills))
	for _, b := range bills {
		if !b.DueDate.After(horizon) {
			upcoming = append(upcoming, b)
		}
	}
	writeJSON(w, http.StatusOK, toBillReminderResponses(upcoming, now))
}

func toBillReminderResponses(bills []core.BillReminder, now time.Time) []billReminderResponse {
	out := make([]billReminderResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillReminderResponse(b, now))
	}
	return out
}

func (s *Server) handleUpdateBillReminder(w http.ResponseWriter, r *http.Request, owner string) {
	var req billReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := core.BillReminder{
		ID:      r.PathValue("id"),
		OwnerID: owner,
		Name:    req.Name,
		Amount:  core.Money{Cents: req.AmountCents},
		DueDate: req.DueDate,
		IsPaid:  req.IsPaid,
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateBillReminder(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillReminderResponse(b, time.Now()))
}

func (s *Server) handleDeleteBillReminder(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteBillReminder(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type savingsGoalRequest struct {
	Name         string `json:"name"`
	TargetCents  int64  `json:"targetCents"`
	CurrentCents int64  `json:"currentCents"`
	IsCompleted  bool   `json:"isCompleted"`
}

type savingsGoalResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TargetCents  int64  `json:"targetCents"`
	CurrentCents int64  `json:"currentCents"`
	IsCompleted  bool   `json:"isCompleted"`
}

func toSavingsGoalResponse(g core.SavingsGoal) savingsGoalResponse {
	return savingsGoalResponse{
		ID:           g.ID,
		Name:         g.Name,
		TargetCents:  g.Target.Cents,
		CurrentCents: g.Current.Cents,
		IsCompleted:  g.IsCompleted,
	}
}

func (s *Server) handleCreateSavingsGoal(w http.ResponseWriter, r *http.Request, owner string) {
	var req savingsGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	g := core.SavingsGoal{
		OwnerID:     owner,
		Name:        req.Name,
		Target:      core.Money{Cents: req.TargetCents},
		Current:     core.Money{Cents: req.CurrentCents},
		IsCompleted: req.IsCompleted,
	}
	if err := g.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateSavingsGoal(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSavingsGoalResponse(created))
}

func (s *Server) handleListSavingsGoals(w http.ResponseWriter, r *http.Request, owner string) {
	goals, err := s.store.ListSavingsGoals(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]savingsGoalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toSavingsGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSavingsGoal(w http.ResponseWriter, r *http.Request, owner string) {
	var req savingsGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	g := core.SavingsGoal{
		ID:          r.PathValue("id"),
		OwnerID:     owner,
		Name:        req.Name,
		Target:      core.Money{Cents: req.TargetCents},
		Current:     core.Money{Cents: req.CurrentCents},
		IsCompleted: req.IsCompleted,
	}
	if err := g.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateSavingsGoal(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingsGoalResponse(g))
}

func (s *Server) handleDeleteSavingsGoal(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteSavingsGoal(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type savingsChallengeRequest struct {
	Name         string `json:"name"`
	TargetCents  int64  `json:"targetCents"`
	CurrentCents int64  `json:"currentCents"`
	Progress     string `json:"progress"`
	IsCompleted  bool   `json:"isCompleted"`
}

type savingsChallengeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TargetCents  int64  `json:"targetCents"`
	CurrentCents int64  `json:"currentCents"`
	Progress     string `json:"progress"`
	IsCompleted  bool   `json:"isCompleted"`
}

func toSavingsChallengeResponse(c core.SavingsChallenge) savingsChallengeResponse {
	return savingsChallengeResponse{
		ID:           c.ID,
		Name:         c.Name,
		TargetCents:  c.Target.Cents,
		CurrentCents: c.Current.Cents,
		Progress:     c.Progress,
		IsCompleted:  c.IsCompleted,
	}
}

func (s *Server) handleCreateSavingsChallenge(w http.ResponseWriter, r *http.Request, owner string) {
	var req savingsChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := core.SavingsChallenge{
		OwnerID:     owner,
		Name:        req.Name,
		Target:      core.Money{Cents: req.TargetCents},
		Current:     core.Money{Cents: req.CurrentCents},
		Progress:    req.Progress,
		IsCompleted: req.IsCompleted,
	}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.CreateSavingsChallenge(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSavingsChallengeResponse(created))
}

func (s *Server) handleListSavingsChallenges(w http.ResponseWriter, r *http.Request, owner string) {
	challenges, err := s.store.ListSavingsChallenges(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]savingsChallengeResponse, 0, len(challenges))
	for _, c := range challenges {
		out = append(out, toSavingsChallengeResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSavingsChallenge(w http.ResponseWriter, r *http.Request, owner string) {
	var req savingsChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := core.SavingsChallenge{
		ID:          r.PathValue("id"),
		OwnerID:     owner,
		Name:        req.Name,
		Target:      core.Money{Cents: req.TargetCents},
		Current:     core.Money{Cents: req.CurrentCents},
		Progress:    req.Progress,
		IsCompleted: req.IsCompleted,
	}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateSavingsChallenge(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingsChallengeResponse(c))
}

func (s *Server) handleDeleteSavingsChallenge(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.store.DeleteSavingsChallenge(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
