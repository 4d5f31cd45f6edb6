package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/resource-autoscaler/internal/rule"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

const clusterID = "clusterId"

func spec(skuID string, maxIdle int) models.ScaleSpec {
	return models.ScaleSpec{
		ClusterID:     clusterID,
		SkuID:         skuID,
		MinSize:       11,
		MaxSize:       15,
		MinIdleToKeep: 5,
		MaxIdleToKeep: maxIdle,
		CoolDownSecs:  10,
	}
}

func usageFor(skuID string, idle, total int) models.UsageByMachineDefinition {
	return models.UsageByMachineDefinition{
		Def:        models.SkuDefinition{SkuID: skuID, Machine: models.MachineDefinition{CPUCores: 2, MemoryMB: 2048}},
		IdleCount:  idle,
		TotalCount: total,
	}
}

func ruleSet(t *testing.T, specs ...models.ScaleSpec) *rule.RuleSet {
	t.Helper()
	rules := make(map[string]models.ScaleSpec, len(specs))
	for _, s := range specs {
		rules[s.SkuID] = s
	}
	return rule.FromSnapshot(clusterID, &models.RuleSetSnapshot{ClusterID: clusterID, Rules: rules}, rule.SystemClock())
}

func TestEvaluate_DecisionsInSkuOrder(t *testing.T) {
	rules := ruleSet(t, spec("small", 10), spec("large", 15))

	usage := models.ClusterUsage{
		ClusterID: clusterID,
		Usages: []models.UsageByMachineDefinition{
			usageFor("small", 4, 10),
			usageFor("large", 16, 16),
		},
	}

	decisions := New().Evaluate(rules, usage)
	require.Len(t, decisions, 2)

	assert.Equal(t, "large", decisions[0].SkuID)
	assert.Equal(t, models.ScaleDown, decisions[0].Type)
	assert.Equal(t, 15, decisions[0].DesireSize)

	assert.Equal(t, "small", decisions[1].SkuID)
	assert.Equal(t, models.ScaleUp, decisions[1].Type)
	assert.Equal(t, 11, decisions[1].DesireSize)
}

func TestEvaluate_SkipsUnmanagedSku(t *testing.T) {
	rules := ruleSet(t, spec("small", 10))

	usage := models.ClusterUsage{
		ClusterID: clusterID,
		Usages: []models.UsageByMachineDefinition{
			usageFor("small", 4, 10),
			usageFor("medium", 0, 15),
		},
	}

	decisions := New().Evaluate(rules, usage)
	require.Len(t, decisions, 1)
	assert.Equal(t, "small", decisions[0].SkuID)
}

func TestEvaluate_DropsInvalidUsage(t *testing.T) {
	rules := ruleSet(t, spec("small", 10), spec("large", 10))

	usage := models.ClusterUsage{
		ClusterID: clusterID,
		Usages: []models.UsageByMachineDefinition{
			usageFor("large", 20, 10), // idle exceeds total
			usageFor("small", 4, 10),
		},
	}

	decisions := New().Evaluate(rules, usage)
	require.Len(t, decisions, 1)
	assert.Equal(t, "small", decisions[0].SkuID)
}

func TestEvaluate_EmptyWithinBand(t *testing.T) {
	rules := ruleSet(t, spec("small", 10))

	usage := models.ClusterUsage{
		ClusterID: clusterID,
		Usages:    []models.UsageByMachineDefinition{usageFor("small", 9, 11)},
	}

	assert.Empty(t, New().Evaluate(rules, usage))
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	rules := ruleSet(t, spec("a", 10), spec("b", 10))

	usages := []models.UsageByMachineDefinition{
		usageFor("b", 4, 10),
		usageFor("a", 4, 10),
	}
	usage := models.ClusterUsage{ClusterID: clusterID, Usages: usages}

	New().Evaluate(rules, usage)
	assert.Equal(t, "b", usages[0].Def.SkuID)
}
