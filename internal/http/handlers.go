package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"cashtrack/internal/core"
	"cashtrack/internal/ledger"
	applog "cashtrack/internal/log"
)

type borrowerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type transactionRequest struct {
	BorrowerID string `json:"borrower_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Notes      string `json:"notes"`
}

type transactionPatch struct {
	Amount *string `json:"amount"`
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	Notes  *string `json:"notes"`
}

type summaryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	TotalLent     string    `json:"total_lent"`
	TotalReceived string    `json:"total_received"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

type transactionResponse struct {
	ID         string    `json:"id"`
	BorrowerID string    `json:"borrower_id"`
	Kind       string    `json:"kind"`
	Amount     string    `json:"amount"`
	Date       string    `json:"date"`
	Time       string    `json:"time,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type statsResponse struct {
	TotalLent        string `json:"total_lent"`
	TotalReceived    string `json:"total_received"`
	TotalOutstanding string `json:"total_outstanding"`
	ActiveBorrowers  int    `json:"active_borrowers"`
}

func summaryToResponse(s core.BorrowerSummary) summaryResponse {
	return summaryResponse{
		ID:            s.ID,
		Name:          s.Name,
		Phone:         s.Phone,
		Notes:         s.Notes,
		TotalLent:     s.TotalLent.Decimal(),
		TotalReceived: s.TotalReceived.Decimal(),
		Balance:       s.Balance.Decimal(),
		CreatedAt:     s.CreatedAt,
	}
}

func transactionToResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		BorrowerID: t.BorrowerID,
		Kind:       string(t.Kind),
		Amount:     t.Amount.Decimal(),
		Date:       t.Date.String(),
		Time:       t.Time,
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt,
	}
}

func (s *Server) handleListBorrowers(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.ledger.Summaries(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	out := make([]summaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, summaryToResponse(sum))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req borrowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	created, err := s.ledger.AddBorrower(r.Context(), core.Borrower{
		Name:  sanitizeInput(req.Name),
		Phone: sanitizeInput(req.Phone),
		Notes: sanitizeInput(req.Notes),
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/borrowers/"+created.ID)
	respondWithJSON(w, http.StatusCreated, summaryToResponse(core.BorrowerSummary{Borrower: created}))
}

func (s *Server) handleGetBorrower(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	summaries, err := s.ledger.Summaries(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	for _, sum := range summaries {
		if sum.ID == id {
			respondWithJSON(w, http.StatusOK, summaryToResponse(sum))
			return
		}
	}
	respondWithError(w, http.StatusNotFound, "Borrower not found")
}

func (s *Server) handleUpdateBorrower(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req borrowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	err := s.ledger.UpdateBorrower(r.Context(), id, ledger.BorrowerUpdate{
		Name:  sanitizeInput(req.Name),
		Phone: sanitizeInput(req.Phone),
		Notes: sanitizeInput(req.Notes),
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteBorrower(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.ledger.DeleteBorrower(r.Context(), id); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBorrowerTransactions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	transactions, err := s.ledger.BorrowerTransactions(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionToResponse(t))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	t, err := transactionFromRequest(req)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	created, err := s.ledger.AddTransaction(r.Context(), t)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/transactions/"+created.ID)
	respondWithJSON(w, http.StatusCreated, transactionToResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req transactionPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	upd, err := patchFromRequest(req)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), id, upd); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, statsResponse{
		TotalLent:        stats.TotalLent.Decimal(),
		TotalReceived:    stats.TotalReceived.Decimal(),
		TotalOutstanding: stats.TotalOutstanding.Decimal(),
		ActiveBorrowers:  stats.ActiveBorrowers,
	})
}

// handleExport serves the CSV report as a dated attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	csv, err := s.ledger.ExportCSV(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	filename := fmt.Sprintf("cashtrack-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

// respondDomainError maps domain errors onto status codes: validation
// failures are 422, missing records 404, anything else 500.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Record not found")
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidClockTime) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrNameTooLong) ||
		errors.Is(err, core.ErrEmptyBorrowerRef) ||
		errors.Is(err, core.ErrUnknownKind)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}
