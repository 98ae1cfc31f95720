package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	configRowID = int16(1)
	cursorRowID = int16(1)
)

// Repository persists the proposal arena, ballots, quorum configuration,
// weight checkpoints, the ledger cursor and the event outbox. Proposal ids
// come from a bigserial column, so the 1-based arena indexing and the id-0
// sentinel hold by construction.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// --- ports.ProposalRepository ----------------------------------------------

func (r *Repository) CreateSlot(ctx context.Context) (uint64, error) {
	now := time.Now().UTC()
	row := proposalModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, r.logError("governance_repo_create_slot_failed", err)
	}
	return row.ID, nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error) {
	if proposalID == 0 {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("governance_repo_get_proposal_failed", err, "proposal_id", proposalID)
	}

	var ballots []ballotModel
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Find(&ballots).
		Error; err != nil {
		return entities.Proposal{}, r.logError("governance_repo_get_ballots_failed", err, "proposal_id", proposalID)
	}
	return row.toEntity(ballots), nil
}

func (r *Repository) SaveProposal(ctx context.Context, proposal entities.Proposal) error {
	if proposal.ID == 0 {
		return domainerrors.ErrProposalNotFound
	}
	row := proposalModelFromEntity(proposal)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"creator":               row.Creator,
				"start_time":            row.StartTime,
				"snapshot_point":        row.SnapshotPoint,
				"quorum_pct":            row.QuorumPct,
				"support_pct":           row.SupportPct,
				"vote_duration_seconds": row.VoteDurationSeconds,
				"total_weighted_share":  row.TotalWeightedShare,
				"total_stake":           row.TotalStake,
				"total_eligible_weight": row.TotalEligibleWeight,
				"metadata":              row.Metadata,
				"action_payload":        row.ActionPayload,
				"executed":              row.Executed,
				"updated_at":            row.UpdatedAt,
			}),
		}).Create(&row)
		if update.Error != nil {
			return r.logError("governance_repo_save_proposal_failed", update.Error, "proposal_id", proposal.ID)
		}
		for voter, share := range proposal.Ballots {
			ballot := ballotModel{
				ProposalID:    proposal.ID,
				Voter:         strings.TrimSpace(voter),
				DeclaredShare: share,
				UpdatedAt:     row.UpdatedAt,
			}
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "proposal_id"}, {Name: "voter"}},
				DoUpdates: clause.Assignments(map[string]any{
					"declared_share": ballot.DeclaredShare,
					"updated_at":     ballot.UpdatedAt,
				}),
			}).Create(&ballot)
			if result.Error != nil {
				return r.logError("governance_repo_save_ballot_failed", result.Error,
					"proposal_id", proposal.ID,
					"voter", ballot.Voter,
				)
			}
		}
		return nil
	})
}

func (r *Repository) ListProposals(ctx context.Context) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("governance_repo_list_proposals_failed", err)
	}
	var ballots []ballotModel
	if err := r.db.WithContext(ctx).Find(&ballots).Error; err != nil {
		return nil, r.logError("governance_repo_list_ballots_failed", err)
	}
	grouped := make(map[uint64][]ballotModel, len(rows))
	for _, ballot := range ballots {
		grouped[ballot.ProposalID] = append(grouped[ballot.ProposalID], ballot)
	}
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(grouped[row.ID]))
	}
	return items, nil
}

// --- ports.WeightSnapshotProvider ------------------------------------------

func (r *Repository) WeightOf(ctx context.Context, account string, point uint64) (uint64, error) {
	var row weightCheckpointModel
	err := r.db.WithContext(ctx).
		Where("account = ? AND point <= ?", strings.TrimSpace(account), point).
		Order("point desc").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("governance_repo_weight_of_failed", err, "account", account, "point", point)
	}
	return row.Weight, nil
}

func (r *Repository) TotalWeightAt(ctx context.Context, point uint64) (uint64, error) {
	var row totalWeightCheckpointModel
	err := r.db.WithContext(ctx).
		Where("point <= ?", point).
		Order("point desc").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("governance_repo_total_weight_failed", err, "point", point)
	}
	return row.Weight, nil
}

// --- ports.LedgerCursor -----------------------------------------------------

func (r *Repository) CurrentPoint(ctx context.Context) (uint64, error) {
	var row ledgerCursorModel
	err := r.db.WithContext(ctx).
		Where("id = ?", cursorRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("governance_repo_cursor_failed", err)
	}
	return row.Point, nil
}

// --- ports.QuorumConfigStore ------------------------------------------------

func (r *Repository) GetQuorumConfig(ctx context.Context) (entities.QuorumConfig, error) {
	var row quorumConfigModel
	err := r.db.WithContext(ctx).
		Where("id = ?", configRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QuorumConfig{}, domainerrors.ErrInvalidConfiguration
		}
		return entities.QuorumConfig{}, r.logError("governance_repo_get_config_failed", err)
	}
	return entities.QuorumConfig{
		MinQuorumPct:  row.MinQuorumPct,
		MinSupportPct: row.MinSupportPct,
		VoteDuration:  time.Duration(row.VoteDurationSeconds) * time.Second,
		UpdatedAt:     row.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) SaveQuorumConfig(ctx context.Context, config entities.QuorumConfig) error {
	if config.MinQuorumPct == 0 {
		return domainerrors.ErrInvalidConfiguration
	}
	row := quorumConfigModel{
		ID:                  configRowID,
		MinQuorumPct:        config.MinQuorumPct,
		MinSupportPct:       config.MinSupportPct,
		VoteDurationSeconds: int64(config.VoteDuration / time.Second),
		UpdatedAt:           config.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"min_quorum_pct":        row.MinQuorumPct,
			"min_support_pct":       row.MinSupportPct,
			"vote_duration_seconds": row.VoteDurationSeconds,
			"updated_at":            row.UpdatedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("governance_repo_save_config_failed", result.Error)
	}
	return nil
}

// --- outbox ------------------------------------------------------------------

func (r *Repository) AppendOutbox(ctx context.Context, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     uuid.NewString(),
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("governance_repo_append_outbox_failed", err, "event_type", event.EventType)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("governance_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxRecord{
			OutboxID:    row.OutboxID,
			EventType:   row.EventType,
			Payload:     row.Payload,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt.UTC(),
			PublishedAt: row.PublishedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	timestamp := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &timestamp,
		})
	if result.Error != nil {
		return r.logError("governance_repo_mark_outbox_failed", result.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "governance/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.WeightSnapshotProvider = (*Repository)(nil)
var _ ports.LedgerCursor = (*Repository)(nil)
var _ ports.QuorumConfigStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
