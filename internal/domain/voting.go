// internal/domain/voting.go
package domain

import (
	"slices"

	"sacco-ledger/internal/util"
)

// VoteChoice is a member's position on a ballot.
type VoteChoice string

const (
	VoteFor     VoteChoice = "for"
	VoteAgainst VoteChoice = "against"
)

// VoteOutcome is the state of a ballot after counting.
type VoteOutcome int

const (
	VotePending VoteOutcome = iota
	VoteApproved
	VoteRejected
)

// VoteTally records who voted and how. Loan voting and withdrawal voting share
// this type; they differ only in the QuorumRules they count against.
type VoteTally struct {
	Voters       []int64 `json:"voters"`
	VotesFor     []int64 `json:"votes_for"`
	VotesAgainst []int64 `json:"votes_against"`
}

// HasVoted reports whether memberID already appears in the tally.
func (t *VoteTally) HasVoted(memberID int64) bool {
	return slices.Contains(t.Voters, memberID)
}

// Record appends a vote. Fails with ErrAlreadyVoted on a duplicate voter.
func (t *VoteTally) Record(memberID int64, choice VoteChoice) error {
	if t.HasVoted(memberID) {
		return util.ErrAlreadyVoted
	}
	t.Voters = append(t.Voters, memberID)
	if choice == VoteFor {
		t.VotesFor = append(t.VotesFor, memberID)
	} else {
		t.VotesAgainst = append(t.VotesAgainst, memberID)
	}
	return nil
}

// QuorumRules parameterizes the shared majority math. TotalVoters is the size
// of the eligible voter pool: the full member count for loans, the member
// count minus the proposal creator for withdrawals. Eligibility itself (who
// may enter the tally) is enforced by the engine, not here.
type QuorumRules struct {
	TotalVoters int
}

// ApprovalThreshold is the strict majority: floor(N/2)+1.
func (r QuorumRules) ApprovalThreshold() int {
	return r.TotalVoters/2 + 1
}

// RejectionThreshold is the number of "against" votes that makes approval
// mathematically impossible: N - threshold + 1.
func (r QuorumRules) RejectionThreshold() int {
	return r.TotalVoters - r.ApprovalThreshold() + 1
}

// Outcome counts t against r. The two checks are symmetric: a ballot is
// approved the moment a strict majority is for it, and rejected the moment
// enough votes are against it that the majority can no longer be reached.
func (r QuorumRules) Outcome(t VoteTally) VoteOutcome {
	if len(t.VotesFor) >= r.ApprovalThreshold() {
		return VoteApproved
	}
	if len(t.VotesAgainst) >= r.RejectionThreshold() {
		return VoteRejected
	}
	return VotePending
}
