// internal/api/handler/ledger.go
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

// LedgerHandler handles HTTP requests for members and their personal ledgers.
type LedgerHandler struct {
	service service.LedgerService
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: svc, logger: logger}
}

func memberIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
}

// RegisterMemberRequest represents the request body for member registration.
type RegisterMemberRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=member admin"`
}

// RegisterMember handles POST /members.
func (h *LedgerHandler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req RegisterMemberRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	member, err := h.service.RegisterMember(r.Context(), req.Username, domain.MemberRole(req.Role))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, member)
}

// PersonalTransactionRequest represents the request body for a personal
// deposit or withdrawal. Amount is always positive; the type sets the sign.
type PersonalTransactionRequest struct {
	Type        string          `json:"type" validate:"required,oneof=personal_deposit personal_withdrawal"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// AddPersonalTransaction handles POST /members/{memberID}/transactions.
func (h *LedgerHandler) AddPersonalTransaction(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	var req PersonalTransactionRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	entry, err := h.service.AddPersonalTransaction(r.Context(), memberID, domain.TransactionType(req.Type), req.Amount, req.Description)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"transaction_id": entry.ID,
		"hash":           entry.Hash,
		"amount":         entry.Amount,
	})
}

// GetPersonalHistory handles GET /members/{memberID}/transactions.
func (h *LedgerHandler) GetPersonalHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	limit, offset := paginationParams(r)
	transactions, totalCount, err := h.service.GetPersonalHistory(r.Context(), memberID, limit, offset)
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

// VerifyPersonalChain handles GET /members/{memberID}/ledger/verify.
func (h *LedgerHandler) VerifyPersonalChain(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	if err := h.service.VerifyPersonalChain(r.Context(), memberID); err != nil {
		respondWithJSON(w, h.logger, http.StatusConflict, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"valid": true})
}
