package ports

import (
	"context"
	"time"

	"agora/contexts/identity-access/capability-service/domain/entities"
)

type GrantRepository interface {
	SaveGrant(ctx context.Context, grant entities.CapabilityGrant) error
	DeleteGrant(ctx context.Context, actor string, capability string) error
	ListCapabilities(ctx context.Context, actor string) ([]string, error)
}

type Clock interface {
	Now() time.Time
}
