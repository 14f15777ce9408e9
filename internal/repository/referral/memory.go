package referral

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps the referral graph in process memory. It backs local
// runs (STORE_DRIVER=memory) and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	edges map[string]Referral // keyed by customer
}

// NewMemoryRepository returns an empty in-memory referral graph.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{edges: make(map[string]Referral)}
}

// AddReferral stores ref unless the customer already has a referrer.
func (m *MemoryRepository) AddReferral(_ context.Context, ref Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.edges[ref.CustomerID]; ok {
		return fmt.Errorf("customer %q: %w", ref.CustomerID, ErrReferralExists)
	}
	m.edges[ref.CustomerID] = ref
	return nil
}

// FindByReferrerID returns the edges whose referrer is referrerID, ordered by customer.
func (m *MemoryRepository) FindByReferrerID(_ context.Context, referrerID string) ([]Referral, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refs := make([]Referral, 0)
	for _, ref := range m.edges {
		if ref.ReferrerID == referrerID {
			refs = append(refs, ref)
		}
	}
	sortByCustomer(refs)
	return refs, nil
}

// FindAll returns a copy of every edge, ordered by customer.
func (m *MemoryRepository) FindAll(_ context.Context) ([]Referral, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refs := make([]Referral, 0, len(m.edges))
	for _, ref := range m.edges {
		refs = append(refs, ref)
	}
	sortByCustomer(refs)
	return refs, nil
}

// Name identifies the store in health reports.
func (m *MemoryRepository) Name() string { return "memory" }

// Check implements health.HealthCheck; memory is always reachable.
func (m *MemoryRepository) Check(context.Context) error { return nil }

func sortByCustomer(refs []Referral) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].CustomerID < refs[j].CustomerID })
}
