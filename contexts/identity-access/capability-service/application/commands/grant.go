package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/identity-access/capability-service/application"
	"agora/contexts/identity-access/capability-service/domain/entities"
	domainerrors "agora/contexts/identity-access/capability-service/domain/errors"
	"agora/contexts/identity-access/capability-service/ports"
)

// CapabilityManage gates grant/revoke operations themselves.
const CapabilityManage = "capability.manage"

type GrantCapabilityCommand struct {
	Actor      string
	Capability string
	GrantedBy  string
}

type RevokeCapabilityCommand struct {
	Actor      string
	Capability string
	RevokedBy  string
}

// GrantUseCase manages capability grants. Only holders of capability.manage
// may change grants; bootstrap seeds the first manager directly through the
// repository.
type GrantUseCase struct {
	Grants ports.GrantRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc GrantUseCase) GrantCapability(ctx context.Context, cmd GrantCapabilityCommand) (entities.CapabilityGrant, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor := strings.TrimSpace(cmd.Actor)
	capability := strings.TrimSpace(cmd.Capability)
	grantedBy := strings.TrimSpace(cmd.GrantedBy)
	if actor == "" {
		return entities.CapabilityGrant{}, domainerrors.ErrInvalidActor
	}
	if capability == "" {
		return entities.CapabilityGrant{}, domainerrors.ErrInvalidCapability
	}
	if err := uc.requireManager(ctx, grantedBy); err != nil {
		return entities.CapabilityGrant{}, err
	}

	grant := entities.CapabilityGrant{
		Actor:      actor,
		Capability: capability,
		GrantedBy:  grantedBy,
		GrantedAt:  uc.now(),
	}
	if err := uc.Grants.SaveGrant(ctx, grant); err != nil {
		return entities.CapabilityGrant{}, err
	}
	logger.Info("capability granted",
		"event", "capability_granted",
		"module", "identity-access/capability-service",
		"layer", "application",
		"actor", actor,
		"capability", capability,
		"granted_by", grantedBy,
	)
	return grant, nil
}

func (uc GrantUseCase) RevokeCapability(ctx context.Context, cmd RevokeCapabilityCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	actor := strings.TrimSpace(cmd.Actor)
	capability := strings.TrimSpace(cmd.Capability)
	if actor == "" {
		return domainerrors.ErrInvalidActor
	}
	if capability == "" {
		return domainerrors.ErrInvalidCapability
	}
	if err := uc.requireManager(ctx, strings.TrimSpace(cmd.RevokedBy)); err != nil {
		return err
	}
	if err := uc.Grants.DeleteGrant(ctx, actor, capability); err != nil {
		return err
	}
	logger.Info("capability revoked",
		"event", "capability_revoked",
		"module", "identity-access/capability-service",
		"layer", "application",
		"actor", actor,
		"capability", capability,
		"revoked_by", strings.TrimSpace(cmd.RevokedBy),
	)
	return nil
}

func (uc GrantUseCase) requireManager(ctx context.Context, manager string) error {
	if manager == "" {
		return domainerrors.ErrForbidden
	}
	capabilities, err := uc.Grants.ListCapabilities(ctx, manager)
	if err != nil {
		return domainerrors.ErrForbidden
	}
	for _, capability := range capabilities {
		if capability == CapabilityManage {
			return nil
		}
	}
	return domainerrors.ErrForbidden
}

func (uc GrantUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
