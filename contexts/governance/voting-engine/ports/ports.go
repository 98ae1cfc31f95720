package ports

import (
	"context"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
)

// ProposalRepository is the append-only 1-indexed proposal arena. Slot ids
// start at 1; id 0 is a reserved sentinel that must always resolve to
// not-found. Records are never deleted.
type ProposalRepository interface {
	CreateSlot(ctx context.Context) (uint64, error)
	GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error)
	SaveProposal(ctx context.Context, proposal entities.Proposal) error
	ListProposals(ctx context.Context) ([]entities.Proposal, error)
}

// WeightSnapshotProvider resolves historical voting weight. Both methods are
// pure functions of the requested point and must stay deterministic across
// repeated calls with the same arguments.
type WeightSnapshotProvider interface {
	WeightOf(ctx context.Context, account string, point uint64) (uint64, error)
	TotalWeightAt(ctx context.Context, point uint64) (uint64, error)
}

// LedgerCursor exposes the current block-height-like ordinal. Proposals
// snapshot eligibility at CurrentPoint()-1 so the creating transaction can
// never influence its own eligibility set.
type LedgerCursor interface {
	CurrentPoint(ctx context.Context) (uint64, error)
}

// ActionExecutor runs the opaque action payload of a passed proposal. It is
// not fully trusted: it may call back into the voting engine before
// returning, so callers must commit terminal state before invoking it.
type ActionExecutor interface {
	Run(ctx context.Context, proposalID uint64, payload []byte) error
}

// CapabilityChecker is the authorization collaborator boundary.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actor string, capability string) (bool, error)
}

// QuorumConfigStore holds the process-wide governance configuration.
type QuorumConfigStore interface {
	GetQuorumConfig(ctx context.Context) (entities.QuorumConfig, error)
	SaveQuorumConfig(ctx context.Context, config entities.QuorumConfig) error
}

// EventEnvelope is the canonical event shape relayed from the outbox to the
// bus.
type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             []byte          `json:"data"`
}

// OutboxRecord is a persisted, not-yet-published event.
type OutboxRecord struct {
	OutboxID    string
	EventType   string
	Payload     []byte
	Status      string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxWriter appends events alongside the state mutation that produced
// them.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}

// OutboxRepository is the relay-side view of the outbox.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher delivers envelopes to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
