package rulestore

import (
	"context"
	"fmt"

	"github.com/OldStager01/resource-autoscaler/pkg/database"
	"github.com/OldStager01/resource-autoscaler/pkg/database/queries"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// PostgresStore loads scale rules from the scale_rules table.
type PostgresStore struct {
	repo *queries.ScaleRuleRepository
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		repo: queries.NewScaleRuleRepository(db.DB),
	}
}

func (s *PostgresStore) GetScaleRules(ctx context.Context, clusterID string) (*models.RuleSetSnapshot, error) {
	specs, err := s.repo.ListByCluster(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	snapshot := &models.RuleSetSnapshot{
		ClusterID: clusterID,
		Rules:     make(map[string]models.ScaleSpec, len(specs)),
	}
	for _, spec := range specs {
		snapshot.Rules[spec.SkuID] = spec
	}
	return snapshot, nil
}
