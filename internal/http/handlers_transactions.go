package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

// transactionRequest is the wire form of a ledger entry. Amounts are integer
// cents. An empty category asks the service to categorize via rules.
type transactionRequest struct {
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Description: tx.Description,
		OccurredAt:  tx.OccurredAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx := core.Transaction{
		OwnerID:     owner,
		Amount:      core.Money{Cents: req.AmountCents},
		Category:    req.Category,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	}
	created, err := s.txs.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// handleListTransactions lists the owner's entries between the optional from
// and to query dates, defaulting to the current calendar month.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	from, ok := parseDateParam(r.URL.Query().Get("from"))
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
		return
	}
	to, ok := parseDateParam(r.URL.Query().Get("to"))
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
		return
	}

	now := time.Now()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if to.IsZero() {
		to = now
	} else {
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())
	}
	dr := core.DateRange{Start: from, End: to}
	if err := dr.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.store.ListTransactionsInRange(r.Context(), owner, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	tx, err := s.store.GetTransaction(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx := core.Transaction{
		ID:          r.PathValue("id"),
		OwnerID:     owner,
		Amount:      core.Money{Cents: req.AmountCents},
		Category:    req.Category,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	}
	if err := s.txs.UpdateTransaction(r.Context(), tx); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.txs.DeleteTransaction(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
