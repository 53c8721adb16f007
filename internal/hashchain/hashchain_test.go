// internal/hashchain/hashchain_test.go
package hashchain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testRecord() Record {
	walletID := int64(1)
	memberID := int64(7)
	return Record{
		ID:           "tx-1",
		WalletID:     &walletID,
		MemberID:     &memberID,
		Type:         "contribution",
		Amount:       decimal.NewFromFloat(250.00),
		Date:         time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
		Description:  "monthly savings",
		PreviousHash: GenesisHash,
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	r := testRecord()
	assert.Equal(t, ComputeHash(r), ComputeHash(r))
	assert.Len(t, ComputeHash(r), 64)
}

func TestComputeHashFieldSensitivity(t *testing.T) {
	base := ComputeHash(testRecord())

	r := testRecord()
	r.Amount = decimal.NewFromFloat(250.01)
	assert.NotEqual(t, base, ComputeHash(r), "amount change must change the hash")

	r = testRecord()
	r.Description = "altered"
	assert.NotEqual(t, base, ComputeHash(r), "description change must change the hash")

	r = testRecord()
	r.PreviousHash = "abc"
	assert.NotEqual(t, base, ComputeHash(r), "previous hash change must change the hash")

	r = testRecord()
	r.WalletID = nil
	assert.NotEqual(t, base, ComputeHash(r), "dropping the wallet id must change the hash")
}

func TestCanonicalNormalizesToMicroseconds(t *testing.T) {
	precise := testRecord()
	precise.Date = time.Date(2025, 3, 15, 10, 30, 0, 123456789, time.UTC)

	// What a timestamptz column hands back for the same instant.
	stored := testRecord()
	stored.Date = precise.Date.Truncate(time.Microsecond)

	assert.Equal(t, Canonical(precise), Canonical(stored))
	assert.Equal(t, ComputeHash(precise), ComputeHash(stored))
}

func TestCanonicalNormalizesTimezone(t *testing.T) {
	r := testRecord()
	nairobi := time.FixedZone("EAT", 3*60*60)
	shifted := testRecord()
	shifted.Date = r.Date.In(nairobi)

	assert.Equal(t, Canonical(r), Canonical(shifted))
}

func TestCanonicalNilPointers(t *testing.T) {
	r := testRecord()
	r.WalletID = nil
	r.RelatedLoanID = nil

	assert.Contains(t, Canonical(r), "|walletId=")
	assert.Contains(t, Canonical(r), "|relatedLoanId=|")
}

func TestVerify(t *testing.T) {
	buildChain := func(n int) ([]Record, []string) {
		records := make([]Record, 0, n)
		hashes := make([]string, 0, n)
		previous := GenesisHash
		for i := 0; i < n; i++ {
			r := testRecord()
			r.ID = string(rune('a' + i))
			r.PreviousHash = previous
			h := ComputeHash(r)
			previous = h
			records = append(records, r)
			hashes = append(hashes, h)
		}
		return records, hashes
	}

	t.Run("ValidChain", func(t *testing.T) {
		records, hashes := buildChain(4)
		assert.NoError(t, Verify(records, hashes))
	})

	t.Run("EmptyChain", func(t *testing.T) {
		assert.NoError(t, Verify(nil, nil))
	})

	t.Run("BadGenesis", func(t *testing.T) {
		records, hashes := buildChain(2)
		records[0].PreviousHash = "not-genesis"
		hashes[0] = ComputeHash(records[0])

		err := Verify(records, hashes)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "genesis")
	})

	t.Run("BrokenLink", func(t *testing.T) {
		records, hashes := buildChain(3)
		records[2].PreviousHash = GenesisHash
		hashes[2] = ComputeHash(records[2])

		err := Verify(records, hashes)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not chain off")
	})

	t.Run("TamperedRecord", func(t *testing.T) {
		records, hashes := buildChain(3)
		records[1].Amount = decimal.NewFromInt(999999)

		err := Verify(records, hashes)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "hash mismatch")
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		records, hashes := buildChain(3)
		assert.Error(t, Verify(records, hashes[:2]))
	})
}
