// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sacco-ledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	walletHandler *handler.WalletHandler,
	loanHandler *handler.LoanHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	ledgerHandler *handler.LedgerHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Member and personal ledger routes
	r.Route("/members", func(r chi.Router) {
		r.Post("/", ledgerHandler.RegisterMember)
		r.Post("/{memberID}/transactions", ledgerHandler.AddPersonalTransaction)
		r.Get("/{memberID}/transactions", ledgerHandler.GetPersonalHistory)
		r.Get("/{memberID}/ledger/verify", ledgerHandler.VerifyPersonalChain)
	})

	// Group wallet routes
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/", walletHandler.CreateWallet)
		r.Get("/{walletID}", walletHandler.GetWallet)
		r.Post("/{walletID}/members", walletHandler.AddMember)
		r.Post("/{walletID}/contributions", walletHandler.Contribute)
		r.Post("/{walletID}/withdrawals", walletHandler.WithdrawContributions)
		r.Get("/{walletID}/transactions", walletHandler.GetTransactionHistory)
		r.Get("/{walletID}/verify", walletHandler.VerifyChain)
		r.Get("/{walletID}/loans", loanHandler.ListWalletLoans)
		r.Get("/{walletID}/proposals", withdrawalHandler.ListWalletProposals)
	})

	// Loan voting and repayment routes
	r.Route("/loans", func(r chi.Router) {
		r.Post("/", loanHandler.CreateLoan)
		r.Get("/{loanID}", loanHandler.GetLoan)
		r.Post("/{loanID}/votes", loanHandler.CastVote)
		r.Post("/{loanID}/repayments", loanHandler.ProcessRepayment)
		r.Post("/{loanID}/default", loanHandler.MarkDefaulted)
	})

	// Group withdrawal governance routes
	r.Route("/withdrawal-proposals", func(r chi.Router) {
		r.Post("/", withdrawalHandler.CreateProposal)
		r.Get("/{proposalID}", withdrawalHandler.GetProposal)
		r.Post("/{proposalID}/votes", withdrawalHandler.CastVote)
		r.Post("/{proposalID}/execute", withdrawalHandler.Execute)
	})

	return r
}
