package controller

import "github.com/OldStager01/resource-autoscaler/pkg/models"

// Mailbox messages. Timer fires, query completions and introspection
// requests all funnel through the same FIFO channel so every state
// mutation happens on the controller goroutine.

type message interface{}

type sampleTick struct{}

type refreshTick struct{}

type usageResult struct {
	resp *models.GetClusterUsageResponse
	err  error
}

type idleResult struct {
	resp *models.GetClusterIdleInstancesResponse
	err  error
}

type rulesResult struct {
	snapshot *models.RuleSetSnapshot
	err      error
}

type ruleSetQuery struct {
	reply chan map[string]models.ScaleSpec
}

type pendingQuery struct {
	reply chan []models.PendingScaleDown
}

// pendingKey matches a late idle-instance reply back to its decision.
type pendingKey struct {
	skuID      string
	desireSize int
}
