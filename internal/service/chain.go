// internal/service/chain.go
package service

import (
	"context"
	"fmt"

	"sacco-ledger/internal/config"
	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/hashchain"
	"sacco-ledger/internal/metrics"
	"sacco-ledger/internal/repository"
)

// appendToWalletChain seals tx off the wallet chain's current head and
// inserts it. The caller must hold the wallet row lock in the same store
// transaction, otherwise two writers could chain off the same head.
func appendToWalletChain(ctx context.Context, q repository.DBExecutor, ledgerRepo repository.LedgerRepository, walletID int64, tx *domain.Transaction) error {
	head, err := ledgerRepo.GetWalletChainHead(ctx, q, walletID)
	if err != nil {
		return fmt.Errorf("failed to read chain head for wallet %d: %w", walletID, err)
	}
	previous := hashchain.GenesisHash
	if head != nil {
		previous = head.Hash
	}
	tx.Seal(previous)
	if err := ledgerRepo.AppendTransaction(ctx, q, tx); err != nil {
		return err
	}
	metrics.LedgerEntriesTotal.WithLabelValues(string(tx.Type)).Inc()
	return nil
}

// appendToPersonalChain does the same for the personal ledger. scopeMemberID
// selects the chain: a member id for per-member chains, nil for the single
// global chain.
func appendToPersonalChain(ctx context.Context, q repository.DBExecutor, ledgerRepo repository.LedgerRepository, scopeMemberID *int64, tx *domain.Transaction) error {
	head, err := ledgerRepo.GetPersonalChainHead(ctx, q, scopeMemberID)
	if err != nil {
		return fmt.Errorf("failed to read personal chain head: %w", err)
	}
	previous := hashchain.GenesisHash
	if head != nil {
		previous = head.Hash
	}
	tx.Seal(previous)
	if err := ledgerRepo.AppendTransaction(ctx, q, tx); err != nil {
		return err
	}
	metrics.LedgerEntriesTotal.WithLabelValues(string(tx.Type)).Inc()
	return nil
}

// personalScope maps the configured chain scope to the repository's head
// lookup argument.
func personalScope(scope config.PersonalChainScope, memberID int64) *int64 {
	if scope == config.ChainScopeGlobal {
		return nil
	}
	return &memberID
}

// verifyChain checks link integrity and hash integrity of an ordered chain.
func verifyChain(txs []domain.Transaction) error {
	records := make([]hashchain.Record, len(txs))
	hashes := make([]string, len(txs))
	for i := range txs {
		records[i] = txs[i].HashRecord()
		hashes[i] = txs[i].Hash
	}
	return hashchain.Verify(records, hashes)
}
