package busadapter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	application "agora/contexts/governance/voting-engine/application"
	"agora/contexts/governance/voting-engine/ports"
)

// TopicActionRequested carries approved action payloads to downstream
// executors.
const TopicActionRequested = "governance.action.requested"

// ActionBusExecutor hands an approved payload to the message bus instead of
// running it in-process. Downstream consumers own the actual side effects,
// so a slow or failing action never blocks the voting engine.
type ActionBusExecutor struct {
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (e ActionBusExecutor) Run(ctx context.Context, proposalID uint64, payload []byte) error {
	logger := application.ResolveLogger(e.Logger)

	eventID := ""
	if e.IDGen != nil {
		id, err := e.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		eventID = id
	}

	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	event := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        TopicActionRequested,
		OccurredAt:       now,
		SourceService:    "voting-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     strconv.FormatUint(proposalID, 10),
		Data:             payload,
	}
	if err := e.Publisher.Publish(ctx, TopicActionRequested, event); err != nil {
		logger.Error("governance action publish failed",
			"event", "governance_action_publish_failed",
			"module", "governance/voting-engine",
			"layer", "adapter",
			"proposal_id", proposalID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("governance action requested",
		"event", "governance_action_requested",
		"module", "governance/voting-engine",
		"layer", "adapter",
		"proposal_id", proposalID,
	)
	return nil
}
