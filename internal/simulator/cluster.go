package simulator

import (
	"fmt"
	"sync"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// ClusterSim is one simulated resource cluster: a set of SKUs with
// executor pools whose idle/busy split the simulator mutates.
type ClusterSim struct {
	clusterID string
	mu        sync.RWMutex
	skus      map[string]*SkuSim
	nextID    int
}

type SkuSim struct {
	Def  models.SkuDefinition
	Idle []string // executor ids currently idle
	Busy []string // executor ids running tasks
}

func NewClusterSim(clusterID string) *ClusterSim {
	return &ClusterSim{
		clusterID: clusterID,
		skus:      make(map[string]*SkuSim),
	}
}

// SeedSku installs a SKU with the given pool sizes, replacing any
// previous state for it.
func (c *ClusterSim) SeedSku(def models.SkuDefinition, idle, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idle > total {
		idle = total
	}

	sku := &SkuSim{Def: def}
	for i := 0; i < total; i++ {
		id := c.newExecutorID(def.SkuID)
		if i < idle {
			sku.Idle = append(sku.Idle, id)
		} else {
			sku.Busy = append(sku.Busy, id)
		}
	}
	c.skus[def.SkuID] = sku
}

func (c *ClusterSim) Usage() []models.UsageByMachineDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	usages := make([]models.UsageByMachineDefinition, 0, len(c.skus))
	for _, sku := range c.skus {
		usages = append(usages, models.UsageByMachineDefinition{
			Def:        sku.Def,
			IdleCount:  len(sku.Idle),
			TotalCount: len(sku.Idle) + len(sku.Busy),
		})
	}
	return usages
}

// IdleInstances returns up to max idle executor ids for the SKU.
func (c *ClusterSim) IdleInstances(skuID string, max int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sku, ok := c.skus[skuID]
	if !ok {
		return nil
	}

	if max > len(sku.Idle) {
		max = len(sku.Idle)
	}
	ids := make([]string, max)
	copy(ids, sku.Idle[:max])
	return ids
}

// ApplyScale actuates a scale request: grows the idle pool up to the
// desired total, or terminates the named idle executors on the way down.
func (c *ClusterSim) ApplyScale(req models.ScaleResourceRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sku, ok := c.skus[req.SkuID]
	if !ok {
		return fmt.Errorf("unknown sku %q", req.SkuID)
	}

	total := len(sku.Idle) + len(sku.Busy)
	switch {
	case req.DesireSize > total:
		for i := total; i < req.DesireSize; i++ {
			sku.Idle = append(sku.Idle, c.newExecutorID(req.SkuID))
		}
	case req.DesireSize < total:
		remove := make(map[string]bool, len(req.IdleInstances))
		for _, id := range req.IdleInstances {
			remove[id] = true
		}
		kept := sku.Idle[:0]
		for _, id := range sku.Idle {
			if !remove[id] {
				kept = append(kept, id)
			}
		}
		sku.Idle = kept
	}
	return nil
}

func (c *ClusterSim) newExecutorID(skuID string) string {
	c.nextID++
	return fmt.Sprintf("executor-%s-%d", skuID, c.nextID)
}
