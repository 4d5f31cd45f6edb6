package rulestore

import (
	"context"
	"sync"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// StaticStore serves snapshots from memory. Used in simulator mode and in
// tests; Replace swaps the whole snapshot, mirroring an operator edit.
type StaticStore struct {
	mu    sync.RWMutex
	rules map[string]map[string]models.ScaleSpec // clusterID -> skuID -> spec
	err   error
}

func NewStaticStore() *StaticStore {
	return &StaticStore{
		rules: make(map[string]map[string]models.ScaleSpec),
	}
}

func (s *StaticStore) Replace(clusterID string, rules map[string]models.ScaleSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[string]models.ScaleSpec, len(rules))
	for skuID, spec := range rules {
		copied[skuID] = spec
	}
	s.rules[clusterID] = copied
}

// SetError makes subsequent fetches fail, for store-outage tests.
func (s *StaticStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *StaticStore) GetScaleRules(ctx context.Context, clusterID string) (*models.RuleSetSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	snapshot := &models.RuleSetSnapshot{
		ClusterID: clusterID,
		Rules:     make(map[string]models.ScaleSpec),
	}
	for skuID, spec := range s.rules[clusterID] {
		snapshot.Rules[skuID] = spec
	}
	return snapshot, nil
}
