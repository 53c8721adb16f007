// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input provided")
	ErrCorruptRecord          = errors.New("stored record failed validation")
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrInvalidTerm            = errors.New("loan term must be between 1 and 36 months")
	ErrInvalidTransactionType = errors.New("unsupported transaction type")
	ErrNotAMember             = errors.New("member does not belong to this wallet")
	ErrAlreadyVoted           = errors.New("member has already voted")
	ErrNotVotingPhase         = errors.New("voting is not open")
	ErrSelfVote               = errors.New("proposal creator cannot vote on their own proposal")
	ErrUnauthorized           = errors.New("actor is not authorized for this operation")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrExceedsNetContribution = errors.New("withdrawal exceeds member's net contribution")
	ErrExceedsWalletBalance   = errors.New("withdrawal exceeds wallet balance")
	ErrLoanNotActive          = errors.New("loan is not active")
	ErrOverpaymentRejected    = errors.New("repayment exceeds remaining loan balance")
	ErrProposalNotApproved    = errors.New("proposal is not approved for execution")
	ErrStoreConflict          = errors.New("concurrent update conflict, retry the operation")
)

// IsError reports whether err wraps target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
