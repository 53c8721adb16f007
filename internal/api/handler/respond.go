// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"sacco-ledger/internal/util"
)

// DefaultTimeout bounds request handling time at the router level.
const DefaultTimeout = 30 * time.Second

// validate checks request DTO struct tags. A single instance caches struct
// metadata, per the validator docs.
var validate = validator.New()

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors to HTTP statuses.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrInvalidAmount),
		util.IsError(err, util.ErrInvalidTerm),
		util.IsError(err, util.ErrInvalidTransactionType):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrNotAMember),
		util.IsError(err, util.ErrUnauthorized),
		util.IsError(err, util.ErrSelfVote):
		statusCode = http.StatusForbidden
		message = err.Error()
	case util.IsError(err, util.ErrAlreadyVoted),
		util.IsError(err, util.ErrNotVotingPhase),
		util.IsError(err, util.ErrProposalNotApproved),
		util.IsError(err, util.ErrLoanNotActive),
		util.IsError(err, util.ErrStoreConflict):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientFunds),
		util.IsError(err, util.ErrExceedsNetContribution),
		util.IsError(err, util.ErrExceedsWalletBalance),
		util.IsError(err, util.ErrOverpaymentRejected):
		statusCode = http.StatusPaymentRequired
		message = err.Error()
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	respondWithJSON(w, logger, statusCode, map[string]string{"error": message})
}

// decodeAndValidate decodes the request body into dst and runs struct tag
// validation. Returns false after writing the error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, logger, util.ErrInvalidInput)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondWithJSON(w, logger, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}
