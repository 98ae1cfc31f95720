package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"

	"github.com/google/uuid"
)

type checkpoint struct {
	point  uint64
	weight uint64
}

// ExecutionRecord is one recorded action-executor invocation.
type ExecutionRecord struct {
	ProposalID uint64
	Payload    []byte
}

// Store is the in-memory adapter behind every voting-engine port: the
// 1-indexed proposal arena, checkpointed weight snapshots, the ledger cursor,
// capability grants, quorum configuration, the outbox, and a recording action
// executor. It doubles as the test seam for the whole module.
type Store struct {
	mu sync.RWMutex

	arena  []entities.Proposal
	config entities.QuorumConfig

	weights      map[string][]checkpoint
	totalWeights []checkpoint
	currentPoint uint64

	capabilities map[string]map[string]bool

	outbox []outboxRow

	executions []ExecutionRecord
	runFunc    func(ctx context.Context, proposalID uint64, payload []byte) error

	now time.Time
}

type outboxRow struct {
	record    ports.OutboxRecord
	published bool
}

func NewStore(config entities.QuorumConfig) *Store {
	return &Store{
		config:       config,
		weights:      make(map[string][]checkpoint),
		capabilities: make(map[string]map[string]bool),
	}
}

// --- test seams -------------------------------------------------------------

// SetWeightCheckpoint records an account's weight as of a ledger point.
// Checkpoints must be appended in ascending point order.
func (s *Store) SetWeightCheckpoint(account string, point uint64, weight uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account = strings.TrimSpace(account)
	s.weights[account] = append(s.weights[account], checkpoint{point: point, weight: weight})
}

// SetTotalWeightCheckpoint records the total eligible weight as of a point.
func (s *Store) SetTotalWeightCheckpoint(point uint64, total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalWeights = append(s.totalWeights, checkpoint{point: point, weight: total})
}

// SetCurrentPoint positions the ledger cursor.
func (s *Store) SetCurrentPoint(point uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPoint = point
}

// Grant adds a capability for an actor.
func (s *Store) Grant(actor string, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor = strings.TrimSpace(actor)
	if s.capabilities[actor] == nil {
		s.capabilities[actor] = make(map[string]bool)
	}
	s.capabilities[actor][capability] = true
}

// Revoke removes a capability from an actor.
func (s *Store) Revoke(actor string, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.capabilities[strings.TrimSpace(actor)], capability)
}

// SetNow pins the clock; a zero time falls back to wall-clock UTC.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AdvanceTime moves a pinned clock forward.
func (s *Store) AdvanceTime(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.now.IsZero() {
		s.now = s.now.Add(delta)
	}
}

// SetRunFunc installs a callback invoked by the action executor, used to
// simulate failing or re-entrant action payloads.
func (s *Store) SetRunFunc(run func(ctx context.Context, proposalID uint64, payload []byte) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runFunc = run
}

// Executions returns the recorded action-executor invocations in order.
func (s *Store) Executions() []ExecutionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ExecutionRecord(nil), s.executions...)
}

// PendingOutboxCount reports how many outbox rows await publishing.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, row := range s.outbox {
		if !row.published {
			count++
		}
	}
	return count
}

// --- ports.ProposalRepository ----------------------------------------------

func (s *Store) CreateSlot(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint64(len(s.arena)) + 1
	s.arena = append(s.arena, entities.Proposal{
		ID:      id,
		Ballots: make(map[string]uint64),
	})
	return id, nil
}

func (s *Store) GetProposal(_ context.Context, proposalID uint64) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if proposalID == 0 || proposalID > uint64(len(s.arena)) {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return s.arena[proposalID-1].Clone(), nil
}

func (s *Store) SaveProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proposal.ID == 0 || proposal.ID > uint64(len(s.arena)) {
		return domainerrors.ErrProposalNotFound
	}
	s.arena[proposal.ID-1] = proposal.Clone()
	return nil
}

func (s *Store) ListProposals(_ context.Context) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0, len(s.arena))
	for _, proposal := range s.arena {
		items = append(items, proposal.Clone())
	}
	return items, nil
}

// --- ports.WeightSnapshotProvider ------------------------------------------

func (s *Store) WeightOf(_ context.Context, account string, point uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveCheckpoint(s.weights[strings.TrimSpace(account)], point), nil
}

func (s *Store) TotalWeightAt(_ context.Context, point uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveCheckpoint(s.totalWeights, point), nil
}

// resolveCheckpoint returns the weight of the latest checkpoint at or before
// the requested point, 0 when none exists yet.
func resolveCheckpoint(series []checkpoint, point uint64) uint64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].point <= point {
			return series[i].weight
		}
	}
	return 0
}

// --- ports.LedgerCursor -----------------------------------------------------

func (s *Store) CurrentPoint(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPoint, nil
}

// --- ports.ActionExecutor ---------------------------------------------------

// Run records the invocation and then hands the payload to the installed
// callback. The callback runs outside the store lock so it may call back
// into the voting engine, which is exactly what the re-entrancy tests do.
func (s *Store) Run(ctx context.Context, proposalID uint64, payload []byte) error {
	s.mu.Lock()
	s.executions = append(s.executions, ExecutionRecord{
		ProposalID: proposalID,
		Payload:    append([]byte(nil), payload...),
	})
	run := s.runFunc
	s.mu.Unlock()

	if run != nil {
		return run(ctx, proposalID, payload)
	}
	return nil
}

// --- ports.CapabilityChecker ------------------------------------------------

func (s *Store) HasCapability(_ context.Context, actor string, capability string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilities[strings.TrimSpace(actor)][capability], nil
}

// --- ports.QuorumConfigStore ------------------------------------------------

func (s *Store) GetQuorumConfig(_ context.Context) (entities.QuorumConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, nil
}

func (s *Store) SaveQuorumConfig(_ context.Context, config entities.QuorumConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

// --- outbox ------------------------------------------------------------------

func (s *Store) AppendOutbox(_ context.Context, event ports.EventEnvelope) error {
	payload, err := marshalEnvelope(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRow{
		record: ports.OutboxRecord{
			OutboxID:  uuid.NewString(),
			EventType: event.EventType,
			Payload:   payload,
			Status:    "pending",
			CreatedAt: event.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxRecord, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.record)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].record.OutboxID == outboxID {
			s.outbox[i].published = true
			timestamp := publishedAt.UTC()
			s.outbox[i].record.Status = "published"
			s.outbox[i].record.PublishedAt = &timestamp
			return nil
		}
	}
	return nil
}

func marshalEnvelope(event ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(event)
}

// --- ports.Clock / ports.IDGenerator -----------------------------------------

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ProposalRepository = (*Store)(nil)
var _ ports.WeightSnapshotProvider = (*Store)(nil)
var _ ports.LedgerCursor = (*Store)(nil)
var _ ports.ActionExecutor = (*Store)(nil)
var _ ports.CapabilityChecker = (*Store)(nil)
var _ ports.QuorumConfigStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
