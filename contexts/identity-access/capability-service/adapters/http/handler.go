package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/identity-access/capability-service/application/commands"
	"agora/contexts/identity-access/capability-service/application/queries"
	"agora/contexts/identity-access/capability-service/ports"
	httptransport "agora/contexts/identity-access/capability-service/transport/http"
)

type Handler struct {
	Grants commands.GrantUseCase
	Checks queries.CheckCapabilityUseCase
	Repo   ports.GrantRepository
	Logger *slog.Logger
}

func (h Handler) GrantCapabilityHandler(
	ctx context.Context,
	grantedBy string,
	req httptransport.GrantCapabilityRequest,
) (httptransport.GrantResponse, error) {
	grant, err := h.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:      req.Actor,
		Capability: req.Capability,
		GrantedBy:  grantedBy,
	})
	if err != nil {
		return httptransport.GrantResponse{}, err
	}
	return httptransport.GrantResponse{
		Actor:      grant.Actor,
		Capability: grant.Capability,
		GrantedBy:  grant.GrantedBy,
		GrantedAt:  grant.GrantedAt,
	}, nil
}

func (h Handler) RevokeCapabilityHandler(
	ctx context.Context,
	revokedBy string,
	req httptransport.RevokeCapabilityRequest,
) error {
	return h.Grants.RevokeCapability(ctx, commands.RevokeCapabilityCommand{
		Actor:      req.Actor,
		Capability: req.Capability,
		RevokedBy:  revokedBy,
	})
}

func (h Handler) CheckCapabilityHandler(
	ctx context.Context,
	req httptransport.CheckCapabilityRequest,
) (httptransport.CheckCapabilityResponse, error) {
	decision, err := h.Checks.Execute(ctx, queries.CheckCapabilityQuery{
		Actor:      req.Actor,
		Capability: req.Capability,
	})
	if err != nil {
		return httptransport.CheckCapabilityResponse{}, err
	}
	return httptransport.CheckCapabilityResponse{
		Actor:      decision.Actor,
		Capability: decision.Capability,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
	}, nil
}

func (h Handler) ListCapabilitiesHandler(ctx context.Context, actor string) (httptransport.CapabilityListResponse, error) {
	capabilities, err := h.Repo.ListCapabilities(ctx, actor)
	if err != nil {
		return httptransport.CapabilityListResponse{}, err
	}
	return httptransport.CapabilityListResponse{
		Actor:        actor,
		Capabilities: capabilities,
	}, nil
}
