package entities

import (
	"time"

	"agora/contexts/governance/voting-engine/domain/services"
)

// Proposal is the central governance entity. It is created once, mutated only
// through ballot casting and a single execution event, and never deleted.
// QuorumPct, SupportPct, VoteDuration and TotalEligibleWeight are frozen
// copies taken at creation time; later configuration changes never affect an
// in-flight proposal.
type Proposal struct {
	ID                  uint64
	Creator             string
	StartTime           time.Time
	SnapshotPoint       uint64
	QuorumPct           uint64
	SupportPct          uint64
	VoteDuration        time.Duration
	TotalWeightedShare  uint64
	TotalStake          uint64
	TotalEligibleWeight uint64
	Metadata            string
	ActionPayload       []byte
	Executed            bool
	Ballots             map[string]uint64
}

// DeclaredShare returns the voter's last recorded declared share, 0 if the
// voter never cast a ballot on this proposal.
func (p Proposal) DeclaredShare(voter string) (uint64, bool) {
	share, ok := p.Ballots[voter]
	return share, ok
}

// Deadline is the instant the voting window closes.
func (p Proposal) Deadline() time.Time {
	return p.StartTime.Add(p.VoteDuration)
}

// OpenAt reports whether ballots may still be cast at the given instant.
func (p Proposal) OpenAt(now time.Time) bool {
	return !p.Executed && now.Before(p.Deadline())
}

// Executable reports whether the proposal may execute. A proposal whose
// quorum and support thresholds are both satisfied is decisively closed and
// may execute before its window elapses; window expiry alone never makes an
// under-quorum proposal executable, so the current time is not consulted.
func (p Proposal) Executable() bool {
	if p.Executed {
		return false
	}
	if !services.MeetsPct(p.TotalStake, p.TotalEligibleWeight, p.QuorumPct) {
		return false
	}
	return services.MeetsSupportPct(p.TotalWeightedShare, p.TotalStake, p.SupportPct)
}

// Clone returns a deep copy so adapters can hand out proposals without
// aliasing the stored ballot map or action payload.
func (p Proposal) Clone() Proposal {
	copied := p
	copied.Ballots = make(map[string]uint64, len(p.Ballots))
	for voter, share := range p.Ballots {
		copied.Ballots[voter] = share
	}
	copied.ActionPayload = append([]byte(nil), p.ActionPayload...)
	return copied
}

// QuorumConfig is the process-wide governance configuration read at proposal
// creation time. MinQuorumPct must be positive; a zero minimum quorum would
// make every proposal trivially executable.
type QuorumConfig struct {
	MinQuorumPct  uint64
	MinSupportPct uint64
	VoteDuration  time.Duration
	UpdatedAt     time.Time
}
