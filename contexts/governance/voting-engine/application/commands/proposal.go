package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"strings"
	"time"

	application "agora/contexts/governance/voting-engine/application"
	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/domain/services"
	"agora/contexts/governance/voting-engine/ports"
)

// Capabilities consulted before privileged governance operations.
const (
	CapabilityCreateProposal = "governance.proposal.create"
	CapabilityUpdateQuorum   = "governance.quorum.update"
)

// CreateProposalCommand is the write-model input for proposal creation.
type CreateProposalCommand struct {
	Creator        string
	Metadata       string
	ActionPayload  []byte
	CastInitialYes bool
}

// CreateProposalResult returns the stored proposal after creation and, when
// an initial yes ballot was cast, after that ballot's effects.
type CreateProposalResult struct {
	Proposal entities.Proposal
	Executed bool
}

// CastBallotCommand records or replaces a voter's ballot on an open proposal.
// DeclaredShare is a fraction of services.PctBase.
type CastBallotCommand struct {
	ProposalID       uint64
	Voter            string
	DeclaredShare    uint64
	ExecuteIfDecided bool
}

// CastBallotResult carries the proposal state after the ballot, the stake
// weight resolved from the eligibility snapshot, and whether the ballot
// triggered execution.
type CastBallotResult struct {
	Proposal    entities.Proposal
	StakeWeight uint64
	Executed    bool
}

// ExecuteProposalCommand triggers one-shot execution of a decided proposal.
type ExecuteProposalCommand struct {
	ProposalID uint64
	Caller     string
}

// SetMinQuorumCommand updates the process-wide minimum quorum percentage.
type SetMinQuorumCommand struct {
	Caller string
	NewPct uint64
}

// SetMinSupportCommand updates the process-wide minimum support percentage.
type SetMinSupportCommand struct {
	Caller string
	NewPct uint64
}

// ForwardCommand wraps an action payload for create-and-vote-yes forwarding.
type ForwardCommand struct {
	Caller  string
	Payload []byte
}

// ProposalUseCase is the proposal lifecycle state machine. It owns creation
// with a frozen eligibility snapshot, latest-ballot-wins weighted tallying,
// closure determination and one-shot action execution.
//
// Re-entrancy discipline: the snapshot provider and the action executor are
// external collaborators that may call back into this use case before
// returning. Every mutation therefore works on locally captured state, and
// the Executed flag is persisted before the executor runs so a re-entrant
// execution attempt observes an already-executed proposal.
type ProposalUseCase struct {
	Proposals    ports.ProposalRepository
	Snapshots    ports.WeightSnapshotProvider
	Cursor       ports.LedgerCursor
	Executor     ports.ActionExecutor
	Capabilities ports.CapabilityChecker
	Config       ports.QuorumConfigStore
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// CreateProposal allocates the next arena slot and freezes the eligibility
// snapshot and quorum rules in force at creation time. The snapshot point is
// the ledger point immediately before the current one, so the creating call
// can never influence its own eligibility set. With CastInitialYes the
// creator immediately casts a full-support ballot, including its side effect
// of attempting execution.
func (uc ProposalUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (CreateProposalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	creator := strings.TrimSpace(cmd.Creator)
	logger.Info("proposal create started",
		"event", "governance_proposal_create_started",
		"module", "governance/voting-engine",
		"layer", "application",
		"creator", creator,
		"cast_initial_yes", cmd.CastInitialYes,
	)
	if creator == "" {
		return CreateProposalResult{}, domainerrors.ErrUnauthorized
	}
	if err := uc.requireCapability(ctx, creator, CapabilityCreateProposal); err != nil {
		return CreateProposalResult{}, err
	}

	now := uc.now()
	point, err := uc.Cursor.CurrentPoint(ctx)
	if err != nil {
		return CreateProposalResult{}, err
	}
	snapshotPoint := uint64(0)
	if point > 0 {
		snapshotPoint = point - 1
	}

	totalEligible, err := uc.Snapshots.TotalWeightAt(ctx, snapshotPoint)
	if err != nil {
		return CreateProposalResult{}, err
	}

	config, err := uc.Config.GetQuorumConfig(ctx)
	if err != nil {
		return CreateProposalResult{}, err
	}
	if config.MinQuorumPct == 0 {
		return CreateProposalResult{}, domainerrors.ErrInvalidConfiguration
	}

	// With an initial yes ballot requested, check the creator's snapshot
	// weight before allocating a slot so an ineligible creator fails without
	// leaving a half-created proposal behind.
	if cmd.CastInitialYes {
		weight, err := uc.Snapshots.WeightOf(ctx, creator, snapshotPoint)
		if err != nil {
			return CreateProposalResult{}, err
		}
		if weight == 0 {
			return CreateProposalResult{}, domainerrors.ErrNotEligible
		}
	}

	proposalID, err := uc.Proposals.CreateSlot(ctx)
	if err != nil {
		return CreateProposalResult{}, err
	}

	proposal := entities.Proposal{
		ID:                  proposalID,
		Creator:             creator,
		StartTime:           now,
		SnapshotPoint:       snapshotPoint,
		QuorumPct:           config.MinQuorumPct,
		SupportPct:          config.MinSupportPct,
		VoteDuration:        config.VoteDuration,
		TotalEligibleWeight: totalEligible,
		Metadata:            cmd.Metadata,
		ActionPayload:       append([]byte(nil), cmd.ActionPayload...),
		Ballots:             make(map[string]uint64),
	}
	if err := uc.Proposals.SaveProposal(ctx, proposal); err != nil {
		return CreateProposalResult{}, err
	}
	if err := uc.appendProposalEvent(ctx, "proposal.created", proposal.ID, now, map[string]any{
		"proposal_id":           proposal.ID,
		"creator":               proposal.Creator,
		"snapshot_point":        proposal.SnapshotPoint,
		"quorum_pct":            proposal.QuorumPct,
		"support_pct":           proposal.SupportPct,
		"vote_duration_seconds": int64(proposal.VoteDuration / time.Second),
		"total_eligible_weight": proposal.TotalEligibleWeight,
		"metadata":              proposal.Metadata,
	}); err != nil {
		return CreateProposalResult{}, err
	}
	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "governance/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"creator", proposal.Creator,
		"snapshot_point", proposal.SnapshotPoint,
		"total_eligible_weight", proposal.TotalEligibleWeight,
	)

	if !cmd.CastInitialYes {
		return CreateProposalResult{Proposal: proposal}, nil
	}

	ballot, err := uc.CastBallot(ctx, CastBallotCommand{
		ProposalID:       proposal.ID,
		Voter:            creator,
		DeclaredShare:    services.PctBase,
		ExecuteIfDecided: true,
	})
	if err != nil {
		return CreateProposalResult{}, err
	}
	return CreateProposalResult{Proposal: ballot.Proposal, Executed: ballot.Executed}, nil
}

// CastBallot records the voter's latest ballot. Re-casting replaces the prior
// contribution in both running accumulators, never adds to it. The stake
// weight always comes from the proposal's frozen snapshot point, never from a
// current balance.
func (uc ProposalUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" || cmd.DeclaredShare > services.PctBase {
		logger.Warn("ballot validation failed",
			"event", "governance_ballot_validation_failed",
			"module", "governance/voting-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"voter", voter,
			"declared_share", cmd.DeclaredShare,
		)
		return CastBallotResult{}, domainerrors.ErrInvalidBallot
	}

	proposal, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return CastBallotResult{}, err
	}
	now := uc.now()
	if !proposal.OpenAt(now) {
		return CastBallotResult{}, domainerrors.ErrNotEligible
	}

	stake, err := uc.Snapshots.WeightOf(ctx, voter, proposal.SnapshotPoint)
	if err != nil {
		return CastBallotResult{}, err
	}
	if stake == 0 {
		logger.Warn("ballot rejected for zero snapshot weight",
			"event", "governance_ballot_zero_weight",
			"module", "governance/voting-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"voter", voter,
			"snapshot_point", proposal.SnapshotPoint,
		)
		return CastBallotResult{}, domainerrors.ErrNotEligible
	}

	// All tally math happens on local values; the proposal copy is saved once
	// at the end so a failed call leaves no partial state behind.
	totalWeighted := proposal.TotalWeightedShare
	totalStake := proposal.TotalStake
	if prior, voted := proposal.DeclaredShare(voter); voted {
		priorContribution, err := mulWeight(prior, stake)
		if err != nil {
			return CastBallotResult{}, err
		}
		if totalWeighted, err = subWeight(totalWeighted, priorContribution); err != nil {
			return CastBallotResult{}, err
		}
		if totalStake, err = subWeight(totalStake, stake); err != nil {
			return CastBallotResult{}, err
		}
	}
	contribution, err := mulWeight(cmd.DeclaredShare, stake)
	if err != nil {
		return CastBallotResult{}, err
	}
	if totalWeighted, err = addWeight(totalWeighted, contribution); err != nil {
		return CastBallotResult{}, err
	}
	if totalStake, err = addWeight(totalStake, stake); err != nil {
		return CastBallotResult{}, err
	}

	proposal.TotalWeightedShare = totalWeighted
	proposal.TotalStake = totalStake
	proposal.Ballots[voter] = cmd.DeclaredShare
	if err := uc.Proposals.SaveProposal(ctx, proposal); err != nil {
		return CastBallotResult{}, err
	}
	if err := uc.appendProposalEvent(ctx, "vote.cast", proposal.ID, now, map[string]any{
		"proposal_id":          proposal.ID,
		"voter":                voter,
		"declared_share":       cmd.DeclaredShare,
		"stake_weight":         stake,
		"total_weighted_share": proposal.TotalWeightedShare,
		"total_stake":          proposal.TotalStake,
	}); err != nil {
		return CastBallotResult{}, err
	}
	logger.Info("ballot cast",
		"event", "governance_ballot_cast",
		"module", "governance/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"voter", voter,
		"declared_share", cmd.DeclaredShare,
		"stake_weight", stake,
		"total_stake", proposal.TotalStake,
	)

	if !cmd.ExecuteIfDecided || !proposal.Executable() {
		return CastBallotResult{Proposal: proposal, StakeWeight: stake}, nil
	}
	if err := uc.executeProposal(ctx, proposal, voter); err != nil {
		return CastBallotResult{}, err
	}
	proposal.Executed = true
	return CastBallotResult{Proposal: proposal, StakeWeight: stake, Executed: true}, nil
}

// Execute runs the proposal action exactly once. Callable by anyone once the
// quorum and support thresholds hold. The Executed flag is committed before
// the action runs; if the action then fails, the error is surfaced to the
// caller and the proposal stays executed, since the external effect may have
// partially happened and must never run twice.
func (uc ProposalUseCase) Execute(ctx context.Context, cmd ExecuteProposalCommand) error {
	proposal, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	return uc.executeProposal(ctx, proposal, strings.TrimSpace(cmd.Caller))
}

// CanForward reports whether the caller may forward an action payload into a
// proposal. The payload contents are not consulted.
func (uc ProposalUseCase) CanForward(ctx context.Context, caller string) (bool, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return false, nil
	}
	return uc.Capabilities.HasCapability(ctx, caller, CapabilityCreateProposal)
}

// Forward creates a proposal for the payload and immediately casts a
// full-support ballot from the caller, so an upstream delegation chain can
// express "do this, subject to a vote I support" as one call.
func (uc ProposalUseCase) Forward(ctx context.Context, cmd ForwardCommand) (CreateProposalResult, error) {
	allowed, err := uc.CanForward(ctx, cmd.Caller)
	if err != nil {
		return CreateProposalResult{}, err
	}
	if !allowed {
		return CreateProposalResult{}, domainerrors.ErrUnauthorized
	}
	return uc.CreateProposal(ctx, CreateProposalCommand{
		Creator:        cmd.Caller,
		ActionPayload:  cmd.Payload,
		CastInitialYes: true,
	})
}

// SetMinQuorumPct updates the global minimum quorum. A zero quorum is
// rejected outright: it would make every proposal trivially executable.
// Proposals already created keep their frozen copy.
func (uc ProposalUseCase) SetMinQuorumPct(ctx context.Context, cmd SetMinQuorumCommand) (entities.QuorumConfig, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)
	if caller == "" {
		return entities.QuorumConfig{}, domainerrors.ErrUnauthorized
	}
	if err := uc.requireCapability(ctx, caller, CapabilityUpdateQuorum); err != nil {
		return entities.QuorumConfig{}, err
	}
	if cmd.NewPct == 0 || cmd.NewPct > services.PctBase {
		return entities.QuorumConfig{}, domainerrors.ErrInvalidConfiguration
	}

	now := uc.now()
	config, err := uc.Config.GetQuorumConfig(ctx)
	if err != nil {
		return entities.QuorumConfig{}, err
	}
	config.MinQuorumPct = cmd.NewPct
	config.UpdatedAt = now
	if err := uc.Config.SaveQuorumConfig(ctx, config); err != nil {
		return entities.QuorumConfig{}, err
	}
	if err := uc.appendProposalEvent(ctx, "quorum.changed", 0, now, map[string]any{
		"min_quorum_pct": config.MinQuorumPct,
		"changed_by":     caller,
	}); err != nil {
		return entities.QuorumConfig{}, err
	}
	logger.Info("minimum quorum updated",
		"event", "governance_quorum_changed",
		"module", "governance/voting-engine",
		"layer", "application",
		"min_quorum_pct", config.MinQuorumPct,
		"changed_by", caller,
	)
	return config, nil
}

// SetMinSupportPct updates the global minimum support threshold applied to
// the weighted-share ratio of future proposals.
func (uc ProposalUseCase) SetMinSupportPct(ctx context.Context, cmd SetMinSupportCommand) (entities.QuorumConfig, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)
	if caller == "" {
		return entities.QuorumConfig{}, domainerrors.ErrUnauthorized
	}
	if err := uc.requireCapability(ctx, caller, CapabilityUpdateQuorum); err != nil {
		return entities.QuorumConfig{}, err
	}
	if cmd.NewPct > services.PctBase {
		return entities.QuorumConfig{}, domainerrors.ErrInvalidConfiguration
	}

	now := uc.now()
	config, err := uc.Config.GetQuorumConfig(ctx)
	if err != nil {
		return entities.QuorumConfig{}, err
	}
	config.MinSupportPct = cmd.NewPct
	config.UpdatedAt = now
	if err := uc.Config.SaveQuorumConfig(ctx, config); err != nil {
		return entities.QuorumConfig{}, err
	}
	if err := uc.appendProposalEvent(ctx, "support.changed", 0, now, map[string]any{
		"min_support_pct": config.MinSupportPct,
		"changed_by":      caller,
	}); err != nil {
		return entities.QuorumConfig{}, err
	}
	logger.Info("minimum support updated",
		"event", "governance_support_changed",
		"module", "governance/voting-engine",
		"layer", "application",
		"min_support_pct", config.MinSupportPct,
		"changed_by", caller,
	)
	return config, nil
}

func (uc ProposalUseCase) executeProposal(ctx context.Context, proposal entities.Proposal, caller string) error {
	logger := application.ResolveLogger(uc.Logger)
	if !proposal.Executable() {
		return domainerrors.ErrNotExecutable
	}
	now := uc.now()

	// Terminal flag first: a re-entrant execution attempt from inside the
	// action executor must load an already-executed proposal.
	proposal.Executed = true
	if err := uc.Proposals.SaveProposal(ctx, proposal); err != nil {
		return err
	}

	if err := uc.Executor.Run(ctx, proposal.ID, proposal.ActionPayload); err != nil {
		logger.Error("proposal action failed",
			"event", "governance_action_failed",
			"module", "governance/voting-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrActionFailed, err)
	}
	if err := uc.appendProposalEvent(ctx, "proposal.executed", proposal.ID, now, map[string]any{
		"proposal_id": proposal.ID,
		"executed_by": caller,
	}); err != nil {
		return err
	}
	logger.Info("proposal executed",
		"event", "governance_proposal_executed",
		"module", "governance/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"executed_by", caller,
	)
	return nil
}

func (uc ProposalUseCase) requireCapability(ctx context.Context, actor string, capability string) error {
	logger := application.ResolveLogger(uc.Logger)
	allowed, err := uc.Capabilities.HasCapability(ctx, actor, capability)
	if err != nil {
		// Deny by default when the authorization collaborator is unreachable.
		logger.Error("capability lookup failed, deny by default",
			"event", "governance_capability_lookup_failed",
			"module", "governance/voting-engine",
			"layer", "application",
			"actor", actor,
			"capability", capability,
			"error", err.Error(),
		)
		return domainerrors.ErrUnauthorized
	}
	if !allowed {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (uc ProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func mulWeight(a uint64, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, domainerrors.ErrWeightOverflow
	}
	return lo, nil
}

func addWeight(a uint64, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domainerrors.ErrWeightOverflow
	}
	return sum, nil
}

func subWeight(a uint64, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, domainerrors.ErrWeightOverflow
	}
	return diff, nil
}
