package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/identity-access/capability-service/domain/entities"
	domainerrors "agora/contexts/identity-access/capability-service/domain/errors"
	"agora/contexts/identity-access/capability-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

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

func (r *Repository) SaveGrant(ctx context.Context, grant entities.CapabilityGrant) error {
	row := grantModel{
		Actor:      strings.TrimSpace(grant.Actor),
		Capability: strings.TrimSpace(grant.Capability),
		GrantedBy:  strings.TrimSpace(grant.GrantedBy),
		GrantedAt:  grant.GrantedAt.UTC(),
	}
	if row.GrantedAt.IsZero() {
		row.GrantedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "actor"}, {Name: "capability"}},
		DoUpdates: clause.Assignments(map[string]any{
			"granted_by": row.GrantedBy,
			"granted_at": row.GrantedAt,
		}),
	}).Create(&row)
	if result.Error != nil {
		return r.logError("capability_repo_save_grant_failed", result.Error,
			"actor", row.Actor,
			"capability", row.Capability,
		)
	}
	return nil
}

func (r *Repository) DeleteGrant(ctx context.Context, actor string, capability string) error {
	result := r.db.WithContext(ctx).
		Where("actor = ? AND capability = ?", strings.TrimSpace(actor), strings.TrimSpace(capability)).
		Delete(&grantModel{})
	if result.Error != nil {
		return r.logError("capability_repo_delete_grant_failed", result.Error,
			"actor", actor,
			"capability", capability,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrGrantNotFound
	}
	return nil
}

func (r *Repository) ListCapabilities(ctx context.Context, actor string) ([]string, error) {
	var rows []grantModel
	if err := r.db.WithContext(ctx).
		Where("actor = ?", strings.TrimSpace(actor)).
		Order("capability asc").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("capability_repo_list_failed", err, "actor", actor)
	}
	capabilities := make([]string, 0, len(rows))
	for _, row := range rows {
		capabilities = append(capabilities, row.Capability)
	}
	return capabilities, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "identity-access/capability-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("capability repository operation failed", fields...)
	return err
}

type grantModel struct {
	Actor      string    `gorm:"column:actor;primaryKey"`
	Capability string    `gorm:"column:capability;primaryKey"`
	GrantedBy  string    `gorm:"column:granted_by"`
	GrantedAt  time.Time `gorm:"column:granted_at"`
}

func (grantModel) TableName() string {
	return "capability_grants"
}

var _ ports.GrantRepository = (*Repository)(nil)
