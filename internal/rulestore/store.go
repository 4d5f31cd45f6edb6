package rulestore

import (
	"context"
	"errors"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

var ErrStoreUnavailable = errors.New("rule store unavailable")

// Store serves per-cluster scale rule snapshots. A snapshot with no rules
// is valid; the controller idles on it. Store failures never invalidate a
// previously loaded rule set.
type Store interface {
	GetScaleRules(ctx context.Context, clusterID string) (*models.RuleSetSnapshot, error)
}
