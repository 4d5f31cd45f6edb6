package models

import "time"

// Request/response messages exchanged with the resource cluster and the
// rule store. Responses carry the cluster id so replies that do not match
// the controller's cluster can be ignored.

type GetClusterUsageRequest struct {
	ClusterID string `json:"cluster_id"`
}

type GetClusterUsageResponse struct {
	ClusterID string                     `json:"cluster_id"`
	Usages    []UsageByMachineDefinition `json:"usages"`
}

func (r *GetClusterUsageResponse) Usage() ClusterUsage {
	return ClusterUsage{ClusterID: r.ClusterID, Usages: r.Usages}
}

type GetClusterIdleInstancesRequest struct {
	ClusterID        string        `json:"cluster_id"`
	SkuID            string        `json:"sku_id"`
	Def              SkuDefinition `json:"def"`
	DesireSize       int           `json:"desire_size"`
	MaxInstanceCount int           `json:"max_instance_count"`
}

type GetClusterIdleInstancesResponse struct {
	ClusterID   string   `json:"cluster_id"`
	SkuID       string   `json:"sku_id"`
	DesireSize  int      `json:"desire_size"`
	InstanceIDs []string `json:"instance_ids"`
}

// RuleSetSnapshot is one consistent view of a cluster's scale rules as
// fetched from the rule store. An empty rule map is valid.
type RuleSetSnapshot struct {
	ClusterID string               `json:"cluster_id"`
	Rules     map[string]ScaleSpec `json:"rules"`
}

// PendingScaleDown is a scale-down decision waiting for the idle-instance
// lookup to come back.
type PendingScaleDown struct {
	SkuID      string    `json:"sku_id"`
	DesireSize int       `json:"desire_size"`
	CreatedAt  time.Time `json:"created_at"`
}
