package queries

import (
	"context"
	"strings"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"
)

// ProposalView is the side-effect-free read model over a stored proposal.
// Open and Executable are evaluated lazily against the clock; no timer ever
// closes a proposal proactively.
type ProposalView struct {
	ID                  uint64
	Creator             string
	StartTime           time.Time
	Deadline            time.Time
	SnapshotPoint       uint64
	QuorumPct           uint64
	SupportPct          uint64
	TotalWeightedShare  uint64
	TotalStake          uint64
	TotalEligibleWeight uint64
	Metadata            string
	ActionPayload       []byte
	Executed            bool
	Open                bool
	Executable          bool
	BallotCount         int
}

// VoterBallotView is a single voter's recorded ballot on a proposal.
type VoterBallotView struct {
	ProposalID    uint64
	Voter         string
	DeclaredShare uint64
	HasVoted      bool
}

type ProposalQueryUseCase struct {
	Proposals ports.ProposalRepository
	Snapshots ports.WeightSnapshotProvider
	Config    ports.QuorumConfigStore
	Clock     ports.Clock
}

// GetProposal returns the read model for one proposal. Id 0 and ids beyond
// the arena fail with ErrProposalNotFound.
func (uc ProposalQueryUseCase) GetProposal(ctx context.Context, proposalID uint64) (ProposalView, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return ProposalView{}, err
	}
	return uc.view(proposal), nil
}

// ListProposals returns every proposal in arena order.
func (uc ProposalQueryUseCase) ListProposals(ctx context.Context) ([]ProposalView, error) {
	proposals, err := uc.Proposals.ListProposals(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ProposalView, 0, len(proposals))
	for _, proposal := range proposals {
		views = append(views, uc.view(proposal))
	}
	return views, nil
}

// VoterBallot returns the voter's last recorded declared share, reporting
// HasVoted=false with a zero share when the voter never cast a ballot.
func (uc ProposalQueryUseCase) VoterBallot(ctx context.Context, proposalID uint64, voter string) (VoterBallotView, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return VoterBallotView{}, err
	}
	voter = strings.TrimSpace(voter)
	share, voted := proposal.DeclaredShare(voter)
	return VoterBallotView{
		ProposalID:    proposal.ID,
		Voter:         voter,
		DeclaredShare: share,
		HasVoted:      voted,
	}, nil
}

// CanVote reports whether the voter could cast a ballot right now: the
// proposal must be open and the voter's weight at the frozen snapshot point
// must be nonzero.
func (uc ProposalQueryUseCase) CanVote(ctx context.Context, proposalID uint64, voter string) (bool, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return false, err
	}
	if !proposal.OpenAt(uc.now()) {
		return false, nil
	}
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return false, nil
	}
	weight, err := uc.Snapshots.WeightOf(ctx, voter, proposal.SnapshotPoint)
	if err != nil {
		return false, err
	}
	return weight > 0, nil
}

// CanExecute reports whether Execute would currently succeed.
func (uc ProposalQueryUseCase) CanExecute(ctx context.Context, proposalID uint64) (bool, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return false, err
	}
	return proposal.Executable(), nil
}

// IsOpen reports whether the voting window is still accepting ballots.
func (uc ProposalQueryUseCase) IsOpen(ctx context.Context, proposalID uint64) (bool, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return false, err
	}
	return proposal.OpenAt(uc.now()), nil
}

// QuorumConfig returns the current process-wide governance configuration.
func (uc ProposalQueryUseCase) QuorumConfig(ctx context.Context) (entities.QuorumConfig, error) {
	config, err := uc.Config.GetQuorumConfig(ctx)
	if err != nil {
		return entities.QuorumConfig{}, err
	}
	if config.MinQuorumPct == 0 {
		return entities.QuorumConfig{}, domainerrors.ErrInvalidConfiguration
	}
	return config, nil
}

func (uc ProposalQueryUseCase) view(proposal entities.Proposal) ProposalView {
	now := uc.now()
	return ProposalView{
		ID:                  proposal.ID,
		Creator:             proposal.Creator,
		StartTime:           proposal.StartTime,
		Deadline:            proposal.Deadline(),
		SnapshotPoint:       proposal.SnapshotPoint,
		QuorumPct:           proposal.QuorumPct,
		SupportPct:          proposal.SupportPct,
		TotalWeightedShare:  proposal.TotalWeightedShare,
		TotalStake:          proposal.TotalStake,
		TotalEligibleWeight: proposal.TotalEligibleWeight,
		Metadata:            proposal.Metadata,
		ActionPayload:       append([]byte(nil), proposal.ActionPayload...),
		Executed:            proposal.Executed,
		Open:                proposal.OpenAt(now),
		Executable:          proposal.Executable(),
		BallotCount:         len(proposal.Ballots),
	}
}

func (uc ProposalQueryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
