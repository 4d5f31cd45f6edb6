package rule

import (
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// AvailabilityRule decides, for a single SKU, whether the cluster should
// grow or shrink to keep the idle executor count inside
// [MinIdleToKeep, MaxIdleToKeep]. The only mutable state is the time of
// the last emitted decision, used for the cooldown gate. Rules are owned
// by a single controller goroutine and are not safe for concurrent use.
type AvailabilityRule struct {
	spec         models.ScaleSpec
	clock        Clock
	lastActionAt *time.Time
}

func NewAvailabilityRule(spec models.ScaleSpec, clock Clock) *AvailabilityRule {
	if clock == nil {
		clock = SystemClock()
	}
	return &AvailabilityRule{
		spec:  spec,
		clock: clock,
	}
}

func (r *AvailabilityRule) Spec() models.ScaleSpec {
	return r.spec
}

// Apply evaluates one usage sample. It returns nil when no action is
// needed: inside the cooldown window, inside the idle band, or when
// clamping turned the adjustment into a no-op. A no-op result does not
// consume the cooldown window.
func (r *AvailabilityRule) Apply(usage models.UsageByMachineDefinition) *models.ScaleDecision {
	if r.inCoolDown() {
		logger.WithSku(r.spec.ClusterID, r.spec.SkuID).Debug("Rule in cooldown, skipping")
		return nil
	}

	idle, total := usage.IdleCount, usage.TotalCount

	var target int
	var scaleType models.ScaleType
	switch {
	case idle < r.spec.MinIdleToKeep:
		target = total + (r.spec.MinIdleToKeep - idle)
		scaleType = models.ScaleUp
	case idle > r.spec.MaxIdleToKeep:
		target = total - (idle - r.spec.MaxIdleToKeep)
		scaleType = models.ScaleDown
	default:
		return nil
	}

	if target < r.spec.MinSize {
		target = r.spec.MinSize
	}
	if target > r.spec.MaxSize {
		target = r.spec.MaxSize
	}

	if target == total {
		return nil
	}

	now := r.clock.Now()
	r.lastActionAt = &now

	logger.WithSku(r.spec.ClusterID, r.spec.SkuID).Infof(
		"Rule decision: %s %d -> %d (idle=%d)", scaleType, total, target, idle,
	)

	return &models.ScaleDecision{
		ClusterID:  r.spec.ClusterID,
		SkuID:      r.spec.SkuID,
		Type:       scaleType,
		DesireSize: target,
		MinSize:    target,
		MaxSize:    target,
	}
}

func (r *AvailabilityRule) inCoolDown() bool {
	if r.lastActionAt == nil {
		return false
	}
	coolDown := time.Duration(r.spec.CoolDownSecs) * time.Second
	return r.clock.Now().Sub(*r.lastActionAt) < coolDown
}
