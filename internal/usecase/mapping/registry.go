package mapping

import (
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

// AnyOrganization registers a strategy used when an organization has no override.
const AnyOrganization = "*"

// Registry selects the strategy for an (organization, crm) pair.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	hooks      map[string]Hooks
}

func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		hooks:      make(map[string]Hooks),
	}
}

func (r *Registry) Register(orgID, crm string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[key(orgID, crm)] = s
}

// RegisterHooks attaches organization logic picked up by Build.
func (r *Registry) RegisterHooks(orgID string, h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[orgID] = h
}

func (r *Registry) HooksFor(orgID string) Hooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.hooks[orgID]; ok {
		return h
	}
	return r.hooks[AnyOrganization]
}

// Build constructs a strategy of the given kind with the organization's hooks and
// registers it.
func (r *Registry) Build(orgID, crm, kind string, settings Settings) (Strategy, error) {
	s, err := New(kind, settings, r.HooksFor(orgID))
	if err != nil {
		return nil, fmt.Errorf("crm %s: %w", crm, err)
	}
	r.Register(orgID, crm, s)
	return s, nil
}

func (r *Registry) Lookup(orgID, crm string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.strategies[key(orgID, crm)]; ok {
		return s, nil
	}
	if s, ok := r.strategies[key(AnyOrganization, crm)]; ok {
		return s, nil
	}
	return nil, &domain.ConfigurationGapError{Setting: fmt.Sprintf("mapping strategy for %s/%s", orgID, crm)}
}

func key(orgID, crm string) string {
	return orgID + "/" + crm
}
