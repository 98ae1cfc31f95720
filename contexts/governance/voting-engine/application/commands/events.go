package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance/voting-engine/ports"
)

// appendProposalEvent writes one envelope to the outbox. Events are
// partitioned by proposal id so per-proposal consumers observe them in the
// order the operations occurred; configuration events (proposal id 0, the
// arena sentinel) share a single config partition.
func (uc ProposalUseCase) appendProposalEvent(
	ctx context.Context,
	eventType string,
	proposalID uint64,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	partitionKey := "governance-config"
	if proposalID != 0 {
		partitionKey = strconv.FormatUint(proposalID, 10)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}
