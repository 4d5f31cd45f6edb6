package models

import "fmt"

// UsageByMachineDefinition is the usage snapshot for a single SKU at
// sample time.
type UsageByMachineDefinition struct {
	Def        SkuDefinition `json:"def"`
	IdleCount  int           `json:"idle_count"`
	TotalCount int           `json:"total_count"`
}

func (u UsageByMachineDefinition) Validate() error {
	if u.IdleCount < 0 || u.TotalCount < 0 {
		return fmt.Errorf("usage for sku %q: negative counts (idle=%d, total=%d)", u.Def.SkuID, u.IdleCount, u.TotalCount)
	}
	if u.IdleCount > u.TotalCount {
		return fmt.Errorf("usage for sku %q: idle count %d exceeds total %d", u.Def.SkuID, u.IdleCount, u.TotalCount)
	}
	return nil
}

// ClusterUsage is one usage sample across all active SKUs of a cluster.
// No ordering is implied.
type ClusterUsage struct {
	ClusterID string                     `json:"cluster_id"`
	Usages    []UsageByMachineDefinition `json:"usages"`
}
