package dispatch

import (
	"context"
	"fmt"

	"github.com/OldStager01/resource-autoscaler/internal/events"
	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/metrics"
	"github.com/OldStager01/resource-autoscaler/internal/provisioner"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// Dispatcher converts ready scale decisions into requests to the host
// provisioner. Dispatch is fire-and-forget from the controller's point
// of view: failures are logged and published, never propagated back, and
// the rule's cooldown has already been recorded.
type Dispatcher struct {
	provisioner provisioner.HostProvisioner
	publisher   *events.Publisher
}

func New(p provisioner.HostProvisioner, publisher *events.Publisher) *Dispatcher {
	return &Dispatcher{
		provisioner: p,
		publisher:   publisher,
	}
}

// Dispatch sends one scale request. Scale-down decisions must carry the
// resolved idle instance list; idleInstances is normalized to an empty
// (non-nil) slice so the provisioner can always distinguish directions.
func (d *Dispatcher) Dispatch(ctx context.Context, decision models.ScaleDecision, idleInstances []string) error {
	req := models.ScaleResourceRequest{
		ClusterID:  decision.ClusterID,
		SkuID:      decision.SkuID,
		DesireSize: decision.DesireSize,
	}

	switch decision.Type {
	case models.ScaleUp:
		// no idle list on the way up
	case models.ScaleDown:
		if idleInstances == nil {
			idleInstances = []string{}
		}
		req.IdleInstances = idleInstances
	default:
		return fmt.Errorf("refusing to dispatch %s decision for sku %q", decision.Type, decision.SkuID)
	}

	if err := d.provisioner.ScaleResource(ctx, req); err != nil {
		logger.WithSku(decision.ClusterID, decision.SkuID).Errorf("Scale request failed: %v", err)
		metrics.Get().IncDispatchErrors(decision.ClusterID)
		d.publisher.ScalingFailed(decision.ClusterID, decision.SkuID, err)
		return err
	}

	logger.WithSku(decision.ClusterID, decision.SkuID).Infof(
		"Scale request dispatched: %s desire=%d", decision.Type, req.DesireSize,
	)
	metrics.Get().IncDispatches(decision.ClusterID)
	d.publisher.ScaleRequested(decision.ClusterID, req)
	return nil
}
