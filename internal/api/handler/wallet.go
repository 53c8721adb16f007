// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/api/types"
	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/service"
	"sacco-ledger/internal/util"
)

// WalletHandler handles HTTP requests for group wallet operations.
type WalletHandler struct {
	service service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{service: svc, logger: logger}
}

func walletIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "walletID"), 10, 64)
}

// CreateWalletRequest represents the request body for wallet creation.
type CreateWalletRequest struct {
	Name        string `json:"name" validate:"required"`
	TokenSymbol string `json:"token_symbol"`
	CreatorID   int64  `json:"creator_id" validate:"required,gt=0"`
}

// CreateWallet handles POST /wallets.
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}
	if req.TokenSymbol == "" {
		req.TokenSymbol = "KES"
	}

	wallet, err := h.service.CreateWallet(r.Context(), req.Name, req.TokenSymbol, req.CreatorID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, wallet)
}

// GetWallet handles GET /wallets/{walletID}.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), walletID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, wallet)
}

// ContributeRequest represents the request body for a contribution.
type ContributeRequest struct {
	MemberID    int64           `json:"member_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// Contribute handles POST /wallets/{walletID}/contributions.
func (h *WalletHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	var req ContributeRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	entry, err := h.service.Contribute(r.Context(), walletID, req.MemberID, req.Amount, req.Description)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"message":        "Contribution recorded",
		"transaction_id": entry.ID,
		"hash":           entry.Hash,
	})
}

// AddMemberRequest represents the request body for a member join.
type AddMemberRequest struct {
	MemberID int64 `json:"member_id" validate:"required,gt=0"`
}

// AddMember handles POST /wallets/{walletID}/members.
func (h *WalletHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	var req AddMemberRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	if err := h.service.AddMember(r.Context(), walletID, req.MemberID); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Member added"})
}

// WithdrawContributionsRequest represents the request body for a
// net-contribution withdrawal.
type WithdrawContributionsRequest struct {
	MemberID int64           `json:"member_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

// WithdrawContributions handles POST /wallets/{walletID}/withdrawals.
func (h *WalletHandler) WithdrawContributions(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	var req WithdrawContributionsRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	entry, err := h.service.WithdrawNetContributions(r.Context(), walletID, req.MemberID, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":        "Withdrawal recorded",
		"transaction_id": entry.ID,
		"amount":         entry.Amount,
	})
}

// GetTransactionHistory handles GET /wallets/{walletID}/transactions.
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	limit, offset := paginationParams(r)
	transactions, totalCount, err := h.service.GetTransactionHistory(r.Context(), walletID, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}

// VerifyChain handles GET /wallets/{walletID}/verify.
func (h *WalletHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	walletID, err := walletIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	if err := h.service.VerifyWalletChain(r.Context(), walletID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			respondWithError(w, h.logger, err)
			return
		}
		respondWithJSON(w, h.logger, http.StatusConflict, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"valid": true})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
