// internal/api/handler/withdrawal.go
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

// WithdrawalHandler handles HTTP requests for withdrawal governance.
type WithdrawalHandler struct {
	service service.WithdrawalService
	logger  *slog.Logger
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(svc service.WithdrawalService, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{service: svc, logger: logger}
}

// CreateProposalRequest represents the request body for a withdrawal proposal.
type CreateProposalRequest struct {
	WalletID  int64           `json:"wallet_id" validate:"required,gt=0"`
	CreatorID int64           `json:"creator_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reason    string          `json:"reason"`
}

// CreateProposal handles POST /withdrawal-proposals.
func (h *WithdrawalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	proposalID, err := h.service.CreateProposal(r.Context(), req.WalletID, req.CreatorID, req.Amount, req.Reason)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, map[string]string{"proposal_id": proposalID})
}

// CastVote handles POST /withdrawal-proposals/{proposalID}/votes.
func (h *WithdrawalHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "proposalID")

	var req VoteRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	proposal, err := h.service.CastVote(r.Context(), proposalID, req.MemberID, domain.VoteChoice(req.Choice))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"proposal_id":   proposal.ID,
		"status":        proposal.Status,
		"votes_for":     len(proposal.Tally.VotesFor),
		"votes_against": len(proposal.Tally.VotesAgainst),
	})
}

// ExecuteRequest represents the request body for executing a proposal.
type ExecuteRequest struct {
	RequesterID int64 `json:"requester_id" validate:"required,gt=0"`
}

// Execute handles POST /withdrawal-proposals/{proposalID}/execute.
func (h *WithdrawalHandler) Execute(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "proposalID")

	var req ExecuteRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	amount, err := h.service.Execute(r.Context(), proposalID, req.RequesterID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":          "Withdrawal executed",
		"withdrawn_amount": amount,
	})
}

// ListWalletProposals handles GET /wallets/{walletID}/proposals.
func (h *WithdrawalHandler) ListWalletProposals(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	proposals, err := h.service.ListWalletProposals(r.Context(), walletID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, proposals)
}

// GetProposal handles GET /withdrawal-proposals/{proposalID}.
func (h *WithdrawalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "proposalID")

	proposal, err := h.service.GetProposal(r.Context(), proposalID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, proposal)
}
