// internal/api/handler/loan.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/service"
	"sacco-ledger/internal/util"
)

// LoanHandler handles HTTP requests for loan operations.
type LoanHandler struct {
	service service.LoanService
	logger  *slog.Logger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(svc service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{service: svc, logger: logger}
}

// CreateLoanRequest represents the request body for a loan proposal.
type CreateLoanRequest struct {
	WalletID   int64           `json:"wallet_id" validate:"required,gt=0"`
	BorrowerID int64           `json:"borrower_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Rate       decimal.Decimal `json:"rate" validate:"required"`
	TermMonths int             `json:"term_months" validate:"required,min=1,max=36"`
	Purpose    string          `json:"purpose"`
}

// CreateLoan handles POST /loans.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	loanID, err := h.service.CreateLoanProposal(r.Context(), req.WalletID, req.BorrowerID, req.Amount, req.Rate, req.TermMonths, req.Purpose)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, map[string]string{"loan_id": loanID})
}

// VoteRequest represents the request body for casting a vote.
type VoteRequest struct {
	MemberID int64  `json:"member_id" validate:"required,gt=0"`
	Choice   string `json:"choice" validate:"required,oneof=for against"`
}

// CastVote handles POST /loans/{loanID}/votes.
func (h *LoanHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	var req VoteRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	loan, err := h.service.CastVote(r.Context(), loanID, req.MemberID, domain.VoteChoice(req.Choice))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"loan_id":       loan.ID,
		"status":        loan.Status,
		"votes_for":     len(loan.Tally.VotesFor),
		"votes_against": len(loan.Tally.VotesAgainst),
	})
}

// RepaymentRequest represents the request body for a loan repayment.
type RepaymentRequest struct {
	PayerID int64           `json:"payer_id" validate:"required,gt=0"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
}

// ProcessRepayment handles POST /loans/{loanID}/repayments.
func (h *LoanHandler) ProcessRepayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	var req RepaymentRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	loan, err := h.service.ProcessRepayment(r.Context(), loanID, req.PayerID, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"loan_id":      loan.ID,
		"status":       loan.Status,
		"total_repaid": loan.TotalRepaid,
	})
}

// MarkDefaultedRequest represents the request body for marking a default.
type MarkDefaultedRequest struct {
	ActorID int64 `json:"actor_id" validate:"required,gt=0"`
}

// MarkDefaulted handles POST /loans/{loanID}/default.
func (h *LoanHandler) MarkDefaulted(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	var req MarkDefaultedRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	if err := h.service.MarkDefaulted(r.Context(), loanID, req.ActorID); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Loan marked as defaulted"})
}

// ListWalletLoans handles GET /wallets/{walletID}/loans.
func (h *LoanHandler) ListWalletLoans(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	loans, err := h.service.ListWalletLoans(r.Context(), walletID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, loans)
}

// GetLoan handles GET /loans/{loanID}.
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, loan)
}
