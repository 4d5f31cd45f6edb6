package rule

import (
	"sort"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// RuleSet is an immutable mapping of SKU id to availability rule for one
// cluster. Reloads build a fresh RuleSet from a store snapshot; the
// controller swaps the whole set, never mutates one in place. Cooldown
// state does not survive a rebuild.
type RuleSet struct {
	clusterID string
	rules     map[string]*AvailabilityRule
}

// EmptyRuleSet returns a set with no rules; the controller idles on it.
func EmptyRuleSet(clusterID string) *RuleSet {
	return &RuleSet{
		clusterID: clusterID,
		rules:     make(map[string]*AvailabilityRule),
	}
}

// FromSnapshot builds a rule set from a store snapshot. Specs that fail
// validation or that name a different cluster are skipped with a warning;
// the remaining rules are installed.
func FromSnapshot(clusterID string, snapshot *models.RuleSetSnapshot, clock Clock) *RuleSet {
	set := EmptyRuleSet(clusterID)
	if snapshot == nil {
		return set
	}

	for skuID, spec := range snapshot.Rules {
		if err := spec.Validate(); err != nil {
			logger.WithSku(clusterID, skuID).Warnf("Dropping invalid scale spec: %v", err)
			continue
		}
		if spec.ClusterID != clusterID {
			logger.WithSku(clusterID, skuID).Warnf(
				"Dropping scale spec for foreign cluster %q", spec.ClusterID,
			)
			continue
		}
		set.rules[skuID] = NewAvailabilityRule(spec, clock)
	}
	return set
}

func (s *RuleSet) ClusterID() string {
	return s.clusterID
}

func (s *RuleSet) Get(skuID string) (*AvailabilityRule, bool) {
	r, ok := s.rules[skuID]
	return r, ok
}

func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Keys returns the managed SKU ids in ascending order.
func (s *RuleSet) Keys() []string {
	keys := make([]string, 0, len(s.rules))
	for skuID := range s.rules {
		keys = append(keys, skuID)
	}
	sort.Strings(keys)
	return keys
}

// Specs returns a copy of the installed specs, for introspection.
func (s *RuleSet) Specs() map[string]models.ScaleSpec {
	specs := make(map[string]models.ScaleSpec, len(s.rules))
	for skuID, r := range s.rules {
		specs[skuID] = r.Spec()
	}
	return specs
}
