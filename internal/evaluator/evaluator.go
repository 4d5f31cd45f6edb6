package evaluator

import (
	"sort"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/rule"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// Evaluator turns one cluster usage sample into scaling decisions by
// applying the current rule set. SKUs without a rule are unmanaged and
// skipped; usage entries that fail validation are dropped with a warning
// and do not affect the other SKUs.
type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns decisions in ascending SKU order. Rule cooldown state
// is the only side effect.
func (e *Evaluator) Evaluate(rules *rule.RuleSet, usage models.ClusterUsage) []models.ScaleDecision {
	usages := make([]models.UsageByMachineDefinition, len(usage.Usages))
	copy(usages, usage.Usages)
	sort.Slice(usages, func(i, j int) bool {
		return usages[i].Def.SkuID < usages[j].Def.SkuID
	})

	var decisions []models.ScaleDecision
	for _, u := range usages {
		skuID := u.Def.SkuID

		if err := u.Validate(); err != nil {
			logger.WithSku(usage.ClusterID, skuID).Warnf("Dropping usage entry: %v", err)
			continue
		}

		r, ok := rules.Get(skuID)
		if !ok {
			logger.WithSku(usage.ClusterID, skuID).Debug("No rule for SKU, skipping")
			continue
		}

		if d := r.Apply(u); d != nil {
			decisions = append(decisions, *d)
		}
	}
	return decisions
}
