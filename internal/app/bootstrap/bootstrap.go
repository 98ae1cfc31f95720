package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	votingengine "agora/contexts/governance/voting-engine"
	busadapter "agora/contexts/governance/voting-engine/adapters/bus"
	govpostgres "agora/contexts/governance/voting-engine/adapters/postgres"
	workerapp "agora/contexts/governance/voting-engine/application/workers"
	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	capabilityservice "agora/contexts/identity-access/capability-service"
	cappostgres "agora/contexts/identity-access/capability-service/adapters/postgres"
	capentities "agora/contexts/identity-access/capability-service/domain/entities"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	capRepo := cappostgres.NewRepository(pg.DB, logger)
	capModule := capabilityservice.NewModule(capabilityservice.Dependencies{
		Grants: capRepo,
		Clock:  cappostgres.SystemClock{},
		Logger: logger,
	})
	if err := seedAdminGrants(context.Background(), cfg, capRepo); err != nil {
		return nil, err
	}

	govRepo := govpostgres.NewRepository(pg.DB, logger)
	if err := seedQuorumConfig(context.Background(), cfg, govRepo); err != nil {
		return nil, err
	}

	govModule := votingengine.NewModule(votingengine.Dependencies{
		Proposals: govRepo,
		Snapshots: govRepo,
		Cursor:    govRepo,
		Executor: busadapter.ActionBusExecutor{
			Publisher: bus,
			Clock:     govpostgres.SystemClock{},
			IDGen:     govpostgres.UUIDGenerator{},
			Logger:    logger,
		},
		Capabilities: capModule,
		Config:       govRepo,
		Outbox:       govRepo,
		Clock:        govpostgres.SystemClock{},
		IDGen:        govpostgres.UUIDGenerator{},
		Logger:       logger,
	})

	server := httpserver.New(govModule, capModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := govpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     govpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

// seedAdminGrants makes the configured admin able to manage capabilities and
// operate governance without a manual grant step on a fresh database. The
// upserts are idempotent across restarts.
func seedAdminGrants(ctx context.Context, cfg config.Config, repo *cappostgres.Repository) error {
	admin := strings.TrimSpace(cfg.GovernanceAdmin)
	if admin == "" {
		return nil
	}
	now := time.Now().UTC()
	for _, capability := range []string{
		"capability.manage",
		"governance.proposal.create",
		"governance.quorum.update",
	} {
		err := repo.SaveGrant(ctx, capentities.CapabilityGrant{
			Actor:      admin,
			Capability: capability,
			GrantedBy:  "bootstrap",
			GrantedAt:  now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// seedQuorumConfig writes the env-derived governance configuration when the
// database has none yet. An existing row wins over the environment.
func seedQuorumConfig(ctx context.Context, cfg config.Config, repo *govpostgres.Repository) error {
	_, err := repo.GetQuorumConfig(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainerrors.ErrInvalidConfiguration) {
		return err
	}
	return repo.SaveQuorumConfig(ctx, entities.QuorumConfig{
		MinQuorumPct:  cfg.MinQuorumPct,
		MinSupportPct: cfg.MinSupportPct,
		VoteDuration:  cfg.VoteDuration,
		UpdatedAt:     time.Now().UTC(),
	})
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if !w.relayEnabled {
		w.logger.Info("outbox relay disabled",
			"event", "bootstrap_worker_relay_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
