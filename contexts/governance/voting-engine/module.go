package votingengine

import (
	"log/slog"

	httpadapter "agora/contexts/governance/voting-engine/adapters/http"
	"agora/contexts/governance/voting-engine/adapters/memory"
	"agora/contexts/governance/voting-engine/application/commands"
	"agora/contexts/governance/voting-engine/application/queries"
	"agora/contexts/governance/voting-engine/domain/entities"
	"agora/contexts/governance/voting-engine/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Proposals commands.ProposalUseCase
	Queries   queries.ProposalQueryUseCase
	Store     *memory.Store
}

type Dependencies struct {
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

func NewModule(deps Dependencies) Module {
	proposalUseCase := commands.ProposalUseCase{
		Proposals:    deps.Proposals,
		Snapshots:    deps.Snapshots,
		Cursor:       deps.Cursor,
		Executor:     deps.Executor,
		Capabilities: deps.Capabilities,
		Config:       deps.Config,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	queryUseCase := queries.ProposalQueryUseCase{
		Proposals: deps.Proposals,
		Snapshots: deps.Snapshots,
		Config:    deps.Config,
		Clock:     deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Proposals: proposalUseCase,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
		Proposals: proposalUseCase,
		Queries:   queryUseCase,
	}
}

// NewInMemoryModule wires every port to a single in-memory store, the
// configuration the tests and local runs build on.
func NewInMemoryModule(config entities.QuorumConfig, logger *slog.Logger) Module {
	store := memory.NewStore(config)
	module := NewModule(Dependencies{
		Proposals:    store,
		Snapshots:    store,
		Cursor:       store,
		Executor:     store,
		Capabilities: store,
		Config:       store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	return module
}
