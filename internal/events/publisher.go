package events

import (
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.bus == nil {
		return
	}
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) UsageSampled(clusterID string, usage models.ClusterUsage) {
	event := models.NewEvent(models.EventTypeUsageSampled, clusterID, "Usage sampled").
		WithData(usage)
	p.publish(event)
}

func (p *Publisher) DecisionMade(clusterID string, decision models.ScaleDecision) {
	msg := "Scale decision: " + string(decision.Type)
	event := models.NewEvent(models.EventTypeDecisionMade, clusterID, msg).
		WithSku(decision.SkuID).
		WithData(decision)
	p.publish(event)
}

func (p *Publisher) IdleQuerySent(clusterID string, req models.GetClusterIdleInstancesRequest) {
	event := models.NewEvent(models.EventTypeIdleQuerySent, clusterID, "Idle instance query sent").
		WithSku(req.SkuID).
		WithData(req)
	p.publish(event)
}

func (p *Publisher) ScaleRequested(clusterID string, req models.ScaleResourceRequest) {
	event := models.NewEvent(models.EventTypeScaleRequested, clusterID, "Scale request dispatched").
		WithSku(req.SkuID).
		WithData(req)
	p.publish(event)
}

func (p *Publisher) ScalingFailed(clusterID, skuID string, err error) {
	event := models.NewEvent(models.EventTypeScalingFailed, clusterID, "Scale request failed").
		WithSku(skuID).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) RulesReloaded(clusterID string, skuIDs []string) {
	event := models.NewEvent(models.EventTypeRulesReloaded, clusterID, "Rule set reloaded").
		WithData(map[string]interface{}{
			"skus": skuIDs,
		})
	p.publish(event)
}

func (p *Publisher) PendingExpired(clusterID string, pending models.PendingScaleDown) {
	event := models.NewEvent(models.EventTypePendingExpired, clusterID, "Pending scale-down expired").
		WithSku(pending.SkuID).
		WithSeverity(models.SeverityWarning).
		WithData(pending)
	p.publish(event)
}

func (p *Publisher) Alert(clusterID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, clusterID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(clusterID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, clusterID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
