package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/identity-access/capability-service/application"
	"agora/contexts/identity-access/capability-service/domain/entities"
	"agora/contexts/identity-access/capability-service/ports"
)

// CheckCapabilityQuery is the request model for a single capability check.
type CheckCapabilityQuery struct {
	Actor      string
	Capability string
}

// CheckCapabilityUseCase evaluates capability checks with deny-by-default on
// lookup failures.
type CheckCapabilityUseCase struct {
	Grants ports.GrantRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc CheckCapabilityUseCase) Execute(ctx context.Context, query CheckCapabilityQuery) (entities.CapabilityDecision, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor := strings.TrimSpace(query.Actor)
	capability := strings.TrimSpace(query.Capability)
	now := uc.now()
	if actor == "" || capability == "" {
		return entities.CapabilityDecision{
			Actor:      actor,
			Capability: capability,
			Allowed:    false,
			Reason:     "invalid_request",
			CheckedAt:  now,
		}, nil
	}

	capabilities, err := uc.Grants.ListCapabilities(ctx, actor)
	if err != nil {
		logger.Error("capability lookup failed, deny by default",
			"event", "capability_lookup_failed",
			"module", "identity-access/capability-service",
			"layer", "application",
			"actor", actor,
			"capability", capability,
			"error", err.Error(),
		)
		return entities.CapabilityDecision{
			Actor:      actor,
			Capability: capability,
			Allowed:    false,
			Reason:     "deny_by_default",
			CheckedAt:  now,
		}, nil
	}

	for _, held := range capabilities {
		if held == capability {
			return entities.CapabilityDecision{
				Actor:      actor,
				Capability: capability,
				Allowed:    true,
				Reason:     "capability_granted",
				CheckedAt:  now,
			}, nil
		}
	}
	return entities.CapabilityDecision{
		Actor:      actor,
		Capability: capability,
		Allowed:    false,
		Reason:     "capability_missing",
		CheckedAt:  now,
	}, nil
}

func (uc CheckCapabilityUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
