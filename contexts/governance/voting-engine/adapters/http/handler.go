package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance/voting-engine/application/commands"
	"agora/contexts/governance/voting-engine/application/queries"
	httptransport "agora/contexts/governance/voting-engine/transport/http"
)

type Handler struct {
	Proposals commands.ProposalUseCase
	Queries   queries.ProposalQueryUseCase
	Logger    *slog.Logger
}

func (h Handler) CreateProposalHandler(
	ctx context.Context,
	creator string,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	result, err := h.Proposals.CreateProposal(ctx, commands.CreateProposalCommand{
		Creator:        creator,
		Metadata:       req.Metadata,
		ActionPayload:  req.ActionPayload,
		CastInitialYes: req.CastInitialYes,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	view, err := h.Queries.GetProposal(ctx, result.Proposal.ID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(view), nil
}

func (h Handler) ForwardHandler(
	ctx context.Context,
	caller string,
	req httptransport.ForwardRequest,
) (httptransport.ProposalResponse, error) {
	result, err := h.Proposals.Forward(ctx, commands.ForwardCommand{
		Caller:  caller,
		Payload: req.Payload,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	view, err := h.Queries.GetProposal(ctx, result.Proposal.ID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(view), nil
}

func (h Handler) CastBallotHandler(
	ctx context.Context,
	proposalID uint64,
	voter string,
	req httptransport.CastBallotRequest,
) (httptransport.CastBallotResponse, error) {
	result, err := h.Proposals.CastBallot(ctx, commands.CastBallotCommand{
		ProposalID:       proposalID,
		Voter:            voter,
		DeclaredShare:    req.DeclaredShare,
		ExecuteIfDecided: req.ExecuteIfDecided,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	view, err := h.Queries.GetProposal(ctx, result.Proposal.ID)
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	return httptransport.CastBallotResponse{
		Proposal:    mapProposal(view),
		StakeWeight: result.StakeWeight,
		Executed:    result.Executed,
	}, nil
}

func (h Handler) ExecuteProposalHandler(ctx context.Context, proposalID uint64, caller string) (httptransport.ProposalResponse, error) {
	if err := h.Proposals.Execute(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposalID,
		Caller:     caller,
	}); err != nil {
		return httptransport.ProposalResponse{}, err
	}
	view, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(view), nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	view, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(view), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	views, err := h.Queries.ListProposals(ctx)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(views))
	for _, view := range views {
		items = append(items, mapProposal(view))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func (h Handler) GetVoterBallotHandler(ctx context.Context, proposalID uint64, voter string) (httptransport.VoterBallotResponse, error) {
	ballot, err := h.Queries.VoterBallot(ctx, proposalID, voter)
	if err != nil {
		return httptransport.VoterBallotResponse{}, err
	}
	return httptransport.VoterBallotResponse{
		ProposalID:    ballot.ProposalID,
		Voter:         ballot.Voter,
		DeclaredShare: ballot.DeclaredShare,
		HasVoted:      ballot.HasVoted,
	}, nil
}

func (h Handler) GetQuorumConfigHandler(ctx context.Context) (httptransport.QuorumConfigResponse, error) {
	config, err := h.Queries.QuorumConfig(ctx)
	if err != nil {
		return httptransport.QuorumConfigResponse{}, err
	}
	return httptransport.QuorumConfigResponse{
		MinQuorumPct:        config.MinQuorumPct,
		MinSupportPct:       config.MinSupportPct,
		VoteDurationSeconds: int64(config.VoteDuration / time.Second),
	}, nil
}

func (h Handler) SetMinQuorumHandler(ctx context.Context, caller string, req httptransport.SetQuorumRequest) (httptransport.QuorumConfigResponse, error) {
	config, err := h.Proposals.SetMinQuorumPct(ctx, commands.SetMinQuorumCommand{
		Caller: caller,
		NewPct: req.NewPct,
	})
	if err != nil {
		return httptransport.QuorumConfigResponse{}, err
	}
	return httptransport.QuorumConfigResponse{
		MinQuorumPct:        config.MinQuorumPct,
		MinSupportPct:       config.MinSupportPct,
		VoteDurationSeconds: int64(config.VoteDuration / time.Second),
	}, nil
}

func (h Handler) SetMinSupportHandler(ctx context.Context, caller string, req httptransport.SetQuorumRequest) (httptransport.QuorumConfigResponse, error) {
	config, err := h.Proposals.SetMinSupportPct(ctx, commands.SetMinSupportCommand{
		Caller: caller,
		NewPct: req.NewPct,
	})
	if err != nil {
		return httptransport.QuorumConfigResponse{}, err
	}
	return httptransport.QuorumConfigResponse{
		MinQuorumPct:        config.MinQuorumPct,
		MinSupportPct:       config.MinSupportPct,
		VoteDurationSeconds: int64(config.VoteDuration / time.Second),
	}, nil
}

func mapProposal(view queries.ProposalView) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ProposalID:          view.ID,
		Creator:             view.Creator,
		StartTime:           view.StartTime,
		Deadline:            view.Deadline,
		SnapshotPoint:       view.SnapshotPoint,
		QuorumPct:           view.QuorumPct,
		SupportPct:          view.SupportPct,
		TotalWeightedShare:  view.TotalWeightedShare,
		TotalStake:          view.TotalStake,
		TotalEligibleWeight: view.TotalEligibleWeight,
		Metadata:            view.Metadata,
		ActionPayload:       view.ActionPayload,
		Executed:            view.Executed,
		Open:                view.Open,
		Executable:          view.Executable,
		BallotCount:         view.BallotCount,
	}
}
