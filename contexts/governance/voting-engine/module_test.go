package votingengine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"agora/contexts/governance/voting-engine/adapters/memory"
	"agora/contexts/governance/voting-engine/application/commands"
	"agora/contexts/governance/voting-engine/application/workers"
	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/domain/services"
	"agora/contexts/governance/voting-engine/ports"
	capabilityservice "agora/contexts/identity-access/capability-service"
)

// Snapshot fixture: total weight 1000 with alice holding 600 and bob 400 as
// of ledger point 0. The cursor sits at 5, so proposals freeze point 4.
func newGovernanceModule(t *testing.T) Module {
	t.Helper()
	module := NewInMemoryModule(entities.QuorumConfig{
		MinQuorumPct:  500_000,
		MinSupportPct: 500_000,
		VoteDuration:  time.Hour,
	}, nil)
	store := module.Store
	store.SetNow(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	store.SetCurrentPoint(5)
	store.SetTotalWeightCheckpoint(0, 1_000)
	store.SetWeightCheckpoint("alice", 0, 600)
	store.SetWeightCheckpoint("bob", 0, 400)
	store.Grant("alice", commands.CapabilityCreateProposal)
	store.Grant("admin", commands.CapabilityUpdateQuorum)
	return module
}

func mustCreateProposal(t *testing.T, module Module, creator string) entities.Proposal {
	t.Helper()
	result, err := module.Proposals.CreateProposal(context.Background(), commands.CreateProposalCommand{
		Creator:  creator,
		Metadata: "raise treasury cap",
	})
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return result.Proposal
}

func TestCreateProposalFreezesSnapshotAndConfig(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)

	proposal := mustCreateProposal(t, module, "alice")
	if proposal.ID != 1 {
		t.Fatalf("expected first arena slot 1, got %d", proposal.ID)
	}
	if proposal.SnapshotPoint != 4 {
		t.Fatalf("expected snapshot at cursor-1 = 4, got %d", proposal.SnapshotPoint)
	}
	if proposal.QuorumPct != 500_000 || proposal.SupportPct != 500_000 {
		t.Fatalf("expected frozen thresholds 500000/500000, got %d/%d", proposal.QuorumPct, proposal.SupportPct)
	}
	if proposal.VoteDuration != time.Hour {
		t.Fatalf("expected frozen vote duration 1h, got %s", proposal.VoteDuration)
	}
	if proposal.TotalEligibleWeight != 1_000 {
		t.Fatalf("expected total eligible weight 1000, got %d", proposal.TotalEligibleWeight)
	}
	if proposal.Executed {
		t.Fatalf("new proposal must not be executed")
	}

	if _, err := module.Proposals.SetMinQuorumPct(ctx, commands.SetMinQuorumCommand{
		Caller: "admin",
		NewPct: 700_000,
	}); err != nil {
		t.Fatalf("set min quorum: %v", err)
	}

	view, err := module.Queries.GetProposal(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if view.QuorumPct != 500_000 {
		t.Fatalf("in-flight proposal must keep frozen quorum, got %d", view.QuorumPct)
	}

	later := mustCreateProposal(t, module, "alice")
	if later.ID != 2 {
		t.Fatalf("expected second arena slot 2, got %d", later.ID)
	}
	if later.QuorumPct != 700_000 {
		t.Fatalf("new proposal must see updated quorum, got %d", later.QuorumPct)
	}
}

func TestCreateProposalRequiresCapability(t *testing.T) {
	module := newGovernanceModule(t)
	_, err := module.Proposals.CreateProposal(context.Background(), commands.CreateProposalCommand{
		Creator: "mallory",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateProposalSnapshotPointClampedAtZero(t *testing.T) {
	module := newGovernanceModule(t)
	module.Store.SetCurrentPoint(0)
	proposal := mustCreateProposal(t, module, "alice")
	if proposal.SnapshotPoint != 0 {
		t.Fatalf("expected snapshot point clamped to 0, got %d", proposal.SnapshotPoint)
	}
}

func TestCreateProposalInitialYesRequiresWeight(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	module.Store.Grant("dave", commands.CapabilityCreateProposal)

	_, err := module.Proposals.CreateProposal(ctx, commands.CreateProposalCommand{
		Creator:        "dave",
		CastInitialYes: true,
	})
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for zero-weight creator, got %v", err)
	}
	views, err := module.Queries.ListProposals(ctx)
	if err != nil {
		t.Fatalf("list proposals: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("failed creation must not leave a proposal behind, got %d", len(views))
	}
}

func TestCastBallotTallyAndRevote(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	first, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	})
	if err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	if first.StakeWeight != 400 {
		t.Fatalf("expected snapshot stake 400, got %d", first.StakeWeight)
	}
	if first.Proposal.TotalStake != 400 {
		t.Fatalf("expected total stake 400, got %d", first.Proposal.TotalStake)
	}
	if first.Proposal.TotalWeightedShare != 400*services.PctBase {
		t.Fatalf("expected weighted share %d, got %d", 400*services.PctBase, first.Proposal.TotalWeightedShare)
	}

	// Re-voting replaces the prior contribution, it never stacks.
	second, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: 250_000,
	})
	if err != nil {
		t.Fatalf("re-cast ballot: %v", err)
	}
	if second.Proposal.TotalStake != 400 {
		t.Fatalf("re-vote must keep total stake 400, got %d", second.Proposal.TotalStake)
	}
	if second.Proposal.TotalWeightedShare != 400*250_000 {
		t.Fatalf("expected weighted share %d, got %d", uint64(400*250_000), second.Proposal.TotalWeightedShare)
	}

	third, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "alice",
		DeclaredShare: 500_000,
	})
	if err != nil {
		t.Fatalf("second voter ballot: %v", err)
	}
	if third.Proposal.TotalStake != 1_000 {
		t.Fatalf("expected combined stake 1000, got %d", third.Proposal.TotalStake)
	}
	wantWeighted := uint64(400*250_000 + 600*500_000)
	if third.Proposal.TotalWeightedShare != wantWeighted {
		t.Fatalf("expected weighted share %d, got %d", wantWeighted, third.Proposal.TotalWeightedShare)
	}

	view, err := module.Queries.GetProposal(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if view.BallotCount != 2 {
		t.Fatalf("expected 2 distinct ballots, got %d", view.BallotCount)
	}
}

func TestCastBallotUsesFrozenSnapshotWeight(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	// Bob sells everything after the snapshot point; the frozen weight must
	// still count.
	module.Store.SetWeightCheckpoint("bob", 5, 0)

	result, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	})
	if err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	if result.StakeWeight != 400 {
		t.Fatalf("expected frozen snapshot weight 400, got %d", result.StakeWeight)
	}
}

func TestCastBallotRejections(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	_, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "carol",
		DeclaredShare: services.PctBase,
	})
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for zero snapshot weight, got %v", err)
	}

	_, err = module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase + 1,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBallot) {
		t.Fatalf("expected ErrInvalidBallot for share above base, got %v", err)
	}

	module.Store.AdvanceTime(2 * time.Hour)
	_, err = module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	})
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after window close, got %v", err)
	}
}

func TestProposalIDZeroIsNeverFound(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	mustCreateProposal(t, module, "alice")

	if _, err := module.Queries.GetProposal(ctx, 0); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound for id 0, got %v", err)
	}
	_, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    0,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound for ballot on id 0, got %v", err)
	}
	err = module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: 0, Caller: "bob"})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound for execute on id 0, got %v", err)
	}
	if _, err := module.Queries.GetProposal(ctx, 99); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound beyond arena, got %v", err)
	}
}

func TestExecuteRunsActionExactlyOnce(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	// 600 of 1000 stake at full support clears both 50% thresholds.
	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "alice",
		DeclaredShare: services.PctBase,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}

	executable, err := module.Queries.CanExecute(ctx, proposal.ID)
	if err != nil || !executable {
		t.Fatalf("expected proposal executable, got %v %v", executable, err)
	}

	// Execution is permissionless once the thresholds hold.
	if err := module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposal.ID,
		Caller:     "random-keeper",
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	executions := module.Store.Executions()
	if len(executions) != 1 || executions[0].ProposalID != proposal.ID {
		t.Fatalf("expected exactly one action run for proposal %d, got %+v", proposal.ID, executions)
	}

	err = module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: proposal.ID, Caller: "bob"})
	if !errors.Is(err, domainerrors.ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable on second execute, got %v", err)
	}
	if len(module.Store.Executions()) != 1 {
		t.Fatalf("second execute must not run the action again")
	}

	// An executed proposal accepts no further ballots.
	_, err = module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	})
	if !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after execution, got %v", err)
	}
}

func TestExecuteRequiresQuorumAndSupport(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)

	underQuorum := mustCreateProposal(t, module, "alice")
	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    underQuorum.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	err := module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: underQuorum.ID, Caller: "bob"})
	if !errors.Is(err, domainerrors.ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable at 40%% quorum, got %v", err)
	}

	underSupport := mustCreateProposal(t, module, "alice")
	for voter, share := range map[string]uint64{"alice": 300_000, "bob": 400_000} {
		if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
			ProposalID:    underSupport.ID,
			Voter:         voter,
			DeclaredShare: share,
		}); err != nil {
			t.Fatalf("cast ballot for %s: %v", voter, err)
		}
	}
	// Full quorum, but weighted support lands at 34%.
	err = module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: underSupport.ID, Caller: "bob"})
	if !errors.Is(err, domainerrors.ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable at 34%% support, got %v", err)
	}
}

func TestBallotWithExecuteIfDecidedClosesEarly(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	result, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:       proposal.ID,
		Voter:            "alice",
		DeclaredShare:    services.PctBase,
		ExecuteIfDecided: true,
	})
	if err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	if !result.Executed {
		t.Fatalf("decisive ballot with execute flag must trigger execution")
	}
	if len(module.Store.Executions()) != 1 {
		t.Fatalf("expected one action run, got %d", len(module.Store.Executions()))
	}

	view, err := module.Queries.GetProposal(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if !view.Executed || view.Open {
		t.Fatalf("executed proposal must be closed, got executed=%v open=%v", view.Executed, view.Open)
	}
}

func TestReentrantExecuteSeesExecutedProposal(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")
	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "alice",
		DeclaredShare: services.PctBase,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}

	var innerErr error
	module.Store.SetRunFunc(func(ctx context.Context, proposalID uint64, _ []byte) error {
		innerErr = module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{
			ProposalID: proposalID,
			Caller:     "reentrant-payload",
		})
		return nil
	})

	if err := module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposal.ID,
		Caller:     "alice",
	}); err != nil {
		t.Fatalf("outer execute: %v", err)
	}
	if !errors.Is(innerErr, domainerrors.ErrNotExecutable) {
		t.Fatalf("re-entrant execute must observe executed proposal, got %v", innerErr)
	}
	if len(module.Store.Executions()) != 1 {
		t.Fatalf("expected a single action run despite re-entrancy, got %d", len(module.Store.Executions()))
	}
}

func TestExecutorFailureKeepsProposalExecuted(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")
	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "alice",
		DeclaredShare: services.PctBase,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}

	module.Store.SetRunFunc(func(context.Context, uint64, []byte) error {
		return errors.New("downstream call reverted")
	})

	err := module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: proposal.ID, Caller: "alice"})
	if !errors.Is(err, domainerrors.ErrActionFailed) {
		t.Fatalf("expected ErrActionFailed, got %v", err)
	}

	// The action may have partially happened downstream, so the proposal
	// stays terminally executed and never runs twice.
	view, viewErr := module.Queries.GetProposal(ctx, proposal.ID)
	if viewErr != nil {
		t.Fatalf("get proposal: %v", viewErr)
	}
	if !view.Executed {
		t.Fatalf("failed action must leave the proposal executed")
	}
	err = module.Proposals.Execute(ctx, commands.ExecuteProposalCommand{ProposalID: proposal.ID, Caller: "alice"})
	if !errors.Is(err, domainerrors.ErrNotExecutable) {
		t.Fatalf("expected ErrNotExecutable after failed action, got %v", err)
	}
}

func TestForwardCreatesAndVotesInOneCall(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)

	allowed, err := module.Proposals.CanForward(ctx, "alice")
	if err != nil || !allowed {
		t.Fatalf("expected alice forwardable, got %v %v", allowed, err)
	}
	allowed, err = module.Proposals.CanForward(ctx, "mallory")
	if err != nil || allowed {
		t.Fatalf("expected mallory not forwardable, got %v %v", allowed, err)
	}

	result, err := module.Proposals.Forward(ctx, commands.ForwardCommand{
		Caller:  "alice",
		Payload: []byte(`{"op":"transfer"}`),
	})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if result.Proposal.TotalStake != 600 {
		t.Fatalf("forward must cast the caller's full-support ballot, got stake %d", result.Proposal.TotalStake)
	}
	if share, voted := result.Proposal.DeclaredShare("alice"); !voted || share != services.PctBase {
		t.Fatalf("expected full-support ballot from caller, got %d %v", share, voted)
	}
	// Alice's 60% at full support is already decisive.
	if !result.Executed {
		t.Fatalf("decisive forward must execute immediately")
	}

	if _, err := module.Proposals.Forward(ctx, commands.ForwardCommand{Caller: "mallory"}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for mallory, got %v", err)
	}
}

func TestQuorumConfigValidation(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)

	_, err := module.Proposals.SetMinQuorumPct(ctx, commands.SetMinQuorumCommand{Caller: "admin", NewPct: 0})
	if !errors.Is(err, domainerrors.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for zero quorum, got %v", err)
	}
	_, err = module.Proposals.SetMinQuorumPct(ctx, commands.SetMinQuorumCommand{Caller: "admin", NewPct: services.PctBase + 1})
	if !errors.Is(err, domainerrors.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration above base, got %v", err)
	}
	_, err = module.Proposals.SetMinQuorumPct(ctx, commands.SetMinQuorumCommand{Caller: "alice", NewPct: 600_000})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without update capability, got %v", err)
	}

	_, err = module.Proposals.SetMinSupportPct(ctx, commands.SetMinSupportCommand{Caller: "admin", NewPct: services.PctBase + 1})
	if !errors.Is(err, domainerrors.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration above base, got %v", err)
	}
	// A zero support floor is legal; quorum still gates execution.
	config, err := module.Proposals.SetMinSupportPct(ctx, commands.SetMinSupportCommand{Caller: "admin", NewPct: 0})
	if err != nil {
		t.Fatalf("set zero support: %v", err)
	}
	if config.MinSupportPct != 0 {
		t.Fatalf("expected support floor 0, got %d", config.MinSupportPct)
	}
}

func TestBallotOverflowLeavesTallyUntouched(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	module.Store.SetWeightCheckpoint("whale", 0, math.MaxUint64)
	proposal := mustCreateProposal(t, module, "alice")

	_, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "whale",
		DeclaredShare: 2,
	})
	if !errors.Is(err, domainerrors.ErrWeightOverflow) {
		t.Fatalf("expected ErrWeightOverflow, got %v", err)
	}

	view, err := module.Queries.GetProposal(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("get proposal: %v", err)
	}
	if view.TotalStake != 0 || view.TotalWeightedShare != 0 || view.BallotCount != 0 {
		t.Fatalf("overflowing ballot must leave no partial state, got %+v", view)
	}
}

func TestVoterBallotAndCanVoteQueries(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")

	ballot, err := module.Queries.VoterBallot(ctx, proposal.ID, "bob")
	if err != nil {
		t.Fatalf("voter ballot: %v", err)
	}
	if ballot.HasVoted || ballot.DeclaredShare != 0 {
		t.Fatalf("expected no recorded ballot, got %+v", ballot)
	}

	canVote, err := module.Queries.CanVote(ctx, proposal.ID, "bob")
	if err != nil || !canVote {
		t.Fatalf("expected bob can vote, got %v %v", canVote, err)
	}
	canVote, err = module.Queries.CanVote(ctx, proposal.ID, "carol")
	if err != nil || canVote {
		t.Fatalf("expected carol cannot vote, got %v %v", canVote, err)
	}

	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: 750_000,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	ballot, err = module.Queries.VoterBallot(ctx, proposal.ID, "bob")
	if err != nil {
		t.Fatalf("voter ballot: %v", err)
	}
	if !ballot.HasVoted || ballot.DeclaredShare != 750_000 {
		t.Fatalf("expected recorded share 750000, got %+v", ballot)
	}

	module.Store.AdvanceTime(2 * time.Hour)
	open, err := module.Queries.IsOpen(ctx, proposal.ID)
	if err != nil || open {
		t.Fatalf("expected closed window, got %v %v", open, err)
	}
	canVote, err = module.Queries.CanVote(ctx, proposal.ID, "bob")
	if err != nil || canVote {
		t.Fatalf("expected no voting after close, got %v %v", canVote, err)
	}
}

// The capability service module satisfies the checker port directly, which
// is exactly how bootstrap wires the two contexts together.
func TestCapabilityModuleBacksProposalAuthorization(t *testing.T) {
	ctx := context.Background()
	capabilities := capabilityservice.NewInMemoryModule(nil)
	capabilities.Store.Seed("alice", commands.CapabilityCreateProposal)

	store := memory.NewStore(entities.QuorumConfig{
		MinQuorumPct:  500_000,
		MinSupportPct: 500_000,
		VoteDuration:  time.Hour,
	})
	store.SetCurrentPoint(1)
	store.SetTotalWeightCheckpoint(0, 100)
	store.SetWeightCheckpoint("alice", 0, 100)

	module := NewModule(Dependencies{
		Proposals:    store,
		Snapshots:    store,
		Cursor:       store,
		Executor:     store,
		Capabilities: capabilities,
		Config:       store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
	})

	if _, err := module.Proposals.CreateProposal(ctx, commands.CreateProposalCommand{Creator: "alice"}); err != nil {
		t.Fatalf("create with capability module: %v", err)
	}
	_, err := module.Proposals.CreateProposal(ctx, commands.CreateProposalCommand{Creator: "bob"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized from capability module, got %v", err)
	}
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

func TestOutboxRelayPublishesGovernanceEvents(t *testing.T) {
	ctx := context.Background()
	module := newGovernanceModule(t)
	proposal := mustCreateProposal(t, module, "alice")
	if _, err := module.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:    proposal.ID,
		Voter:         "bob",
		DeclaredShare: services.PctBase,
	}); err != nil {
		t.Fatalf("cast ballot: %v", err)
	}
	if module.Store.PendingOutboxCount() != 2 {
		t.Fatalf("expected 2 pending outbox rows, got %d", module.Store.PendingOutboxCount())
	}

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
		Clock:     module.Store,
		BatchSize: 100,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run: %v", err)
	}
	if module.Store.PendingOutboxCount() != 0 {
		t.Fatalf("expected drained outbox, got %d pending", module.Store.PendingOutboxCount())
	}
	want := []string{"proposal.created", "vote.cast"}
	if len(publisher.topics) != len(want) {
		t.Fatalf("expected %d published events, got %v", len(want), publisher.topics)
	}
	for i, topic := range want {
		if publisher.topics[i] != topic {
			t.Fatalf("expected event %d to be %q, got %q", i, topic, publisher.topics[i])
		}
	}
}
