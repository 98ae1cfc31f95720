package capabilityservice

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/identity-access/capability-service/application/commands"
	"agora/contexts/identity-access/capability-service/application/queries"
	domainerrors "agora/contexts/identity-access/capability-service/domain/errors"
)

func newCapabilityModule(t *testing.T) Module {
	t.Helper()
	module := NewInMemoryModule(nil)
	module.Store.Seed("root", commands.CapabilityManage)
	return module
}

func TestGrantAndCheckCapability(t *testing.T) {
	ctx := context.Background()
	module := newCapabilityModule(t)

	grant, err := module.Handler.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:      "alice",
		Capability: "governance.proposal.create",
		GrantedBy:  "root",
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if grant.Actor != "alice" || grant.GrantedBy != "root" {
		t.Fatalf("unexpected grant record %+v", grant)
	}

	allowed, err := module.HasCapability(ctx, "alice", "governance.proposal.create")
	if err != nil || !allowed {
		t.Fatalf("expected alice allowed, got %v %v", allowed, err)
	}
	allowed, err = module.HasCapability(ctx, "alice", "governance.quorum.update")
	if err != nil || allowed {
		t.Fatalf("expected ungranted capability denied, got %v %v", allowed, err)
	}
	allowed, err = module.HasCapability(ctx, "nobody", "governance.proposal.create")
	if err != nil || allowed {
		t.Fatalf("expected unknown actor denied, got %v %v", allowed, err)
	}
}

func TestGrantRequiresManager(t *testing.T) {
	ctx := context.Background()
	module := newCapabilityModule(t)

	_, err := module.Handler.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:      "bob",
		Capability: "governance.proposal.create",
		GrantedBy:  "alice",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-manager, got %v", err)
	}
	_, err = module.Handler.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:      "bob",
		Capability: "governance.proposal.create",
	})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for empty grantor, got %v", err)
	}
	_, err = module.Handler.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:     "",
		GrantedBy: "root",
	})
	if !errors.Is(err, domainerrors.ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}

func TestRevokeCapability(t *testing.T) {
	ctx := context.Background()
	module := newCapabilityModule(t)

	if _, err := module.Handler.Grants.GrantCapability(ctx, commands.GrantCapabilityCommand{
		Actor:      "alice",
		Capability: "governance.quorum.update",
		GrantedBy:  "root",
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := module.Handler.Grants.RevokeCapability(ctx, commands.RevokeCapabilityCommand{
		Actor:      "alice",
		Capability: "governance.quorum.update",
		RevokedBy:  "root",
	}); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	allowed, err := module.HasCapability(ctx, "alice", "governance.quorum.update")
	if err != nil || allowed {
		t.Fatalf("expected revoked capability denied, got %v %v", allowed, err)
	}

	err = module.Handler.Grants.RevokeCapability(ctx, commands.RevokeCapabilityCommand{
		Actor:      "alice",
		Capability: "governance.quorum.update",
		RevokedBy:  "root",
	})
	if !errors.Is(err, domainerrors.ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound on double revoke, got %v", err)
	}
}

func TestCheckDecisionReasons(t *testing.T) {
	ctx := context.Background()
	module := newCapabilityModule(t)

	decision, err := module.Checks.Execute(ctx, queries.CheckCapabilityQuery{
		Actor:      "root",
		Capability: commands.CapabilityManage,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !decision.Allowed || decision.Reason != "capability_granted" {
		t.Fatalf("unexpected decision %+v", decision)
	}

	decision, err = module.Checks.Execute(ctx, queries.CheckCapabilityQuery{
		Actor:      "root",
		Capability: "something.else",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if decision.Allowed || decision.Reason != "capability_missing" {
		t.Fatalf("unexpected decision %+v", decision)
	}

	decision, err = module.Checks.Execute(ctx, queries.CheckCapabilityQuery{Actor: "", Capability: ""})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if decision.Allowed || decision.Reason != "invalid_request" {
		t.Fatalf("blank check must be denied, got %+v", decision)
	}
}
