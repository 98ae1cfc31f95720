package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/identity-access/capability-service/domain/entities"
	domainerrors "agora/contexts/identity-access/capability-service/domain/errors"
	"agora/contexts/identity-access/capability-service/ports"
)

// Store is the in-memory grant repository, also usable as a test seam.
type Store struct {
	mu     sync.RWMutex
	grants map[string]map[string]entities.CapabilityGrant
}

func NewStore() *Store {
	return &Store{
		grants: make(map[string]map[string]entities.CapabilityGrant),
	}
}

// Seed installs a grant directly, bypassing the manager check. Bootstrap
// uses it to plant the first capability manager.
func (s *Store) Seed(actor string, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor = strings.TrimSpace(actor)
	if s.grants[actor] == nil {
		s.grants[actor] = make(map[string]entities.CapabilityGrant)
	}
	s.grants[actor][capability] = entities.CapabilityGrant{
		Actor:      actor,
		Capability: capability,
		GrantedBy:  "bootstrap",
		GrantedAt:  time.Now().UTC(),
	}
}

func (s *Store) SaveGrant(_ context.Context, grant entities.CapabilityGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor := strings.TrimSpace(grant.Actor)
	if s.grants[actor] == nil {
		s.grants[actor] = make(map[string]entities.CapabilityGrant)
	}
	s.grants[actor][grant.Capability] = grant
	return nil
}

func (s *Store) DeleteGrant(_ context.Context, actor string, capability string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.grants[strings.TrimSpace(actor)]
	if !ok {
		return domainerrors.ErrGrantNotFound
	}
	if _, ok := held[capability]; !ok {
		return domainerrors.ErrGrantNotFound
	}
	delete(held, capability)
	return nil
}

func (s *Store) ListCapabilities(_ context.Context, actor string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held := s.grants[strings.TrimSpace(actor)]
	capabilities := make([]string, 0, len(held))
	for capability := range held {
		capabilities = append(capabilities, capability)
	}
	sort.Strings(capabilities)
	return capabilities, nil
}

var _ ports.GrantRepository = (*Store)(nil)
