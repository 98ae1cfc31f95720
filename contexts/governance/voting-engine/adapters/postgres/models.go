package postgresadapter

import (
	"errors"
	"strings"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

type proposalModel struct {
	ID                  uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Creator             string    `gorm:"column:creator"`
	StartTime           time.Time `gorm:"column:start_time"`
	SnapshotPoint       uint64    `gorm:"column:snapshot_point"`
	QuorumPct           uint64    `gorm:"column:quorum_pct"`
	SupportPct          uint64    `gorm:"column:support_pct"`
	VoteDurationSeconds int64     `gorm:"column:vote_duration_seconds"`
	TotalWeightedShare  uint64    `gorm:"column:total_weighted_share"`
	TotalStake          uint64    `gorm:"column:total_stake"`
	TotalEligibleWeight uint64    `gorm:"column:total_eligible_weight"`
	Metadata            string    `gorm:"column:metadata"`
	ActionPayload       []byte    `gorm:"column:action_payload"`
	Executed            bool      `gorm:"column:executed"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	now := time.Now().UTC()
	return proposalModel{
		ID:                  proposal.ID,
		Creator:             strings.TrimSpace(proposal.Creator),
		StartTime:           proposal.StartTime.UTC(),
		SnapshotPoint:       proposal.SnapshotPoint,
		QuorumPct:           proposal.QuorumPct,
		SupportPct:          proposal.SupportPct,
		VoteDurationSeconds: int64(proposal.VoteDuration / time.Second),
		TotalWeightedShare:  proposal.TotalWeightedShare,
		TotalStake:          proposal.TotalStake,
		TotalEligibleWeight: proposal.TotalEligibleWeight,
		Metadata:            proposal.Metadata,
		ActionPayload:       proposal.ActionPayload,
		Executed:            proposal.Executed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func (m proposalModel) toEntity(ballots []ballotModel) entities.Proposal {
	recorded := make(map[string]uint64, len(ballots))
	for _, ballot := range ballots {
		recorded[ballot.Voter] = ballot.DeclaredShare
	}
	return entities.Proposal{
		ID:                  m.ID,
		Creator:             m.Creator,
		StartTime:           m.StartTime.UTC(),
		SnapshotPoint:       m.SnapshotPoint,
		QuorumPct:           m.QuorumPct,
		SupportPct:          m.SupportPct,
		VoteDuration:        time.Duration(m.VoteDurationSeconds) * time.Second,
		TotalWeightedShare:  m.TotalWeightedShare,
		TotalStake:          m.TotalStake,
		TotalEligibleWeight: m.TotalEligibleWeight,
		Metadata:            m.Metadata,
		ActionPayload:       append([]byte(nil), m.ActionPayload...),
		Executed:            m.Executed,
		Ballots:             recorded,
	}
}

type ballotModel struct {
	ProposalID    uint64    `gorm:"column:proposal_id;primaryKey"`
	Voter         string    `gorm:"column:voter;primaryKey"`
	DeclaredShare uint64    `gorm:"column:declared_share"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "governance_ballots"
}

type quorumConfigModel struct {
	ID                  int16     `gorm:"column:id;primaryKey"`
	MinQuorumPct        uint64    `gorm:"column:min_quorum_pct"`
	MinSupportPct       uint64    `gorm:"column:min_support_pct"`
	VoteDurationSeconds int64     `gorm:"column:vote_duration_seconds"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (quorumConfigModel) TableName() string {
	return "governance_config"
}

type weightCheckpointModel struct {
	Account string `gorm:"column:account;primaryKey"`
	Point   uint64 `gorm:"column:point;primaryKey"`
	Weight  uint64 `gorm:"column:weight"`
}

func (weightCheckpointModel) TableName() string {
	return "weight_checkpoints"
}

type totalWeightCheckpointModel struct {
	Point  uint64 `gorm:"column:point;primaryKey"`
	Weight uint64 `gorm:"column:weight"`
}

func (totalWeightCheckpointModel) TableName() string {
	return "total_weight_checkpoints"
}

type ledgerCursorModel struct {
	ID    int16  `gorm:"column:id;primaryKey"`
	Point uint64 `gorm:"column:point"`
}

func (ledgerCursorModel) TableName() string {
	return "ledger_cursor"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
