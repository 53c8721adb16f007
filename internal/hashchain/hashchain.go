// internal/hashchain/hashchain.go
package hashchain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GenesisHash is the previous-hash sentinel for the first entry of any chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Record is the canonical subset of a ledger transaction that participates in
// hashing. Pointer fields serialize as the empty string when nil, so a record
// with an absent wallet id hashes identically everywhere.
type Record struct {
	ID                    string
	WalletID              *int64
	MemberID              *int64
	Type                  string
	Amount                decimal.Decimal
	Date                  time.Time
	Description           string
	PreviousHash          string
	RelatedLoanID         *string
	RelatedContributionID *string
}

// Canonical returns the deterministic string form of r. Field keys are fixed
// and sorted, the date is normalized to ISO-8601 UTC at microsecond
// resolution (what a timestamptz column retains), and the amount uses the
// decimal's exact string form, so identical logical records always serialize
// identically regardless of platform or source timestamp representation.
func Canonical(r Record) string {
	var b strings.Builder
	b.WriteString("amount=" + r.Amount.String())
	b.WriteString("|date=" + r.Date.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano))
	b.WriteString("|description=" + r.Description)
	b.WriteString("|id=" + r.ID)
	b.WriteString("|memberId=" + int64PtrString(r.MemberID))
	b.WriteString("|previousHash=" + r.PreviousHash)
	b.WriteString("|relatedContributionId=" + strPtrString(r.RelatedContributionID))
	b.WriteString("|relatedLoanId=" + strPtrString(r.RelatedLoanID))
	b.WriteString("|type=" + r.Type)
	b.WriteString("|walletId=" + int64PtrString(r.WalletID))
	return b.String()
}

// ComputeHash returns the hex-encoded SHA-256 digest of the canonical form of
// r. The digest is tamper-evident, not confidential: any change to a hashed
// field yields a different digest.
func ComputeHash(r Record) string {
	sum := sha256.Sum256([]byte(Canonical(r)))
	return hex.EncodeToString(sum[:])
}

// Verify walks records in order and checks that every entry chains off its
// predecessor and that each stored hash matches a recomputation. records must
// carry their stored hashes in storedHashes, index-aligned.
func Verify(records []Record, storedHashes []string) error {
	if len(records) != len(storedHashes) {
		return fmt.Errorf("hashchain: %d records but %d hashes", len(records), len(storedHashes))
	}
	for i, r := range records {
		if i == 0 {
			if r.PreviousHash != GenesisHash {
				return fmt.Errorf("hashchain: entry 0 (%s) does not chain off the genesis sentinel", r.ID)
			}
		} else if r.PreviousHash != storedHashes[i-1] {
			return fmt.Errorf("hashchain: entry %d (%s) does not chain off entry %d", i, r.ID, i-1)
		}
		if got := ComputeHash(r); got != storedHashes[i] {
			return fmt.Errorf("hashchain: entry %d (%s) hash mismatch, record was altered", i, r.ID)
		}
	}
	return nil
}

func int64PtrString(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func strPtrString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
