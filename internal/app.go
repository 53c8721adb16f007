// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "sacco-ledger/internal/api"
	"sacco-ledger/internal/api/handler"
	"sacco-ledger/internal/config"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/repository/postgres"
	"sacco-ledger/internal/service"
	"sacco-ledger/internal/util"
	"sacco-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	MemberRepository   repository.MemberRepository
	WalletRepository   repository.WalletRepository
	LedgerRepository   repository.LedgerRepository
	LoanRepository     repository.LoanRepository
	ProposalRepository repository.ProposalRepository

	// Services
	WalletService     service.WalletService
	LoanService       service.LoanService
	WithdrawalService service.WithdrawalService
	LedgerService     service.LedgerService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Run schema migrations
	if err := db.RunMigrations(app.DB, app.Config.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Info("Database migrations applied.")

	// 5. Initialize Repositories
	app.MemberRepository = postgres.NewMemberRepository(app.DB)
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.LedgerRepository = postgres.NewLedgerRepository(app.DB)
	app.LoanRepository = postgres.NewLoanRepository(app.DB)
	app.ProposalRepository = postgres.NewProposalRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.WalletService = service.NewWalletService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.WalletRepository,
		app.LedgerRepository,
		app.MemberRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.PersonalChainScope,
	)
	app.LoanService = service.NewLoanService(
		app.DB,
		app.DB,
		app.LoanRepository,
		app.WalletRepository,
		app.LedgerRepository,
		app.MemberRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.WithdrawalService = service.NewWithdrawalService(
		app.DB,
		app.DB,
		app.ProposalRepository,
		app.WalletRepository,
		app.LedgerRepository,
		app.MemberRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.PersonalChainScope,
	)
	app.LedgerService = service.NewLedgerService(
		app.DB,
		app.DB,
		app.LedgerRepository,
		app.MemberRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.PersonalChainScope,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	loanHandler := handler.NewLoanHandler(app.LoanService, app.Logger)
	withdrawalHandler := handler.NewWithdrawalHandler(app.WithdrawalService, app.Logger)
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, loanHandler, withdrawalHandler, ledgerHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
