package capabilityservice

import (
	"context"
	"log/slog"

	httpadapter "agora/contexts/identity-access/capability-service/adapters/http"
	"agora/contexts/identity-access/capability-service/adapters/memory"
	"agora/contexts/identity-access/capability-service/application/commands"
	"agora/contexts/identity-access/capability-service/application/queries"
	"agora/contexts/identity-access/capability-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Checks  queries.CheckCapabilityUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Grants ports.GrantRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	grantUseCase := commands.GrantUseCase{
		Grants: deps.Grants,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	checkUseCase := queries.CheckCapabilityUseCase{
		Grants: deps.Grants,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Grants: grantUseCase,
			Checks: checkUseCase,
			Repo:   deps.Grants,
			Logger: deps.Logger,
		},
		Checks: checkUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Grants: store,
		Logger: logger,
	})
	module.Store = store
	return module
}

// HasCapability adapts the module to the voting engine's CapabilityChecker
// port.
func (m Module) HasCapability(ctx context.Context, actor string, capability string) (bool, error) {
	decision, err := m.Checks.Execute(ctx, queries.CheckCapabilityQuery{
		Actor:      actor,
		Capability: capability,
	})
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}
