package events

import (
	"context"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/database"
	"github.com/OldStager01/resource-autoscaler/pkg/database/queries"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// EventLogger drains the bus, writes every event to the structured log
// and persists scale requests and usage samples. A nil DB disables
// persistence (simulator mode).
type EventLogger struct {
	requests  *queries.ScaleRequestRepository
	samples   *queries.UsageSampleRepository
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEventLogger(db *database.DB, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	l := &EventLogger{
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
	if db != nil {
		l.requests = queries.NewScaleRequestRepository(db.DB)
		l.samples = queries.NewUsageSampleRepository(db.DB)
	}
	return l
}

func (l *EventLogger) Start() {
	go l.run()
}

func (l *EventLogger) Stop() {
	l.cancel()
}

func (l *EventLogger) run() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"cluster_id": event.ClusterID,
		"sku_id":     event.SkuID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	switch event.Type {
	case models.EventTypeScaleRequested:
		l.persistScaleRequest(event)
	case models.EventTypeUsageSampled:
		l.persistUsage(event)
	}
}

func (l *EventLogger) persistScaleRequest(event *models.Event) {
	if l.requests == nil {
		return
	}
	req, ok := event.Data.(models.ScaleResourceRequest)
	if !ok {
		return
	}

	if err := l.requests.Insert(l.ctx, req, event.Timestamp); err != nil {
		logger.WithCluster(event.ClusterID).Errorf("Failed to persist scale request: %v", err)
	}
}

func (l *EventLogger) persistUsage(event *models.Event) {
	if l.samples == nil {
		return
	}
	usage, ok := event.Data.(models.ClusterUsage)
	if !ok {
		return
	}

	if err := l.samples.Insert(l.ctx, usage, event.Timestamp); err != nil {
		logger.WithCluster(event.ClusterID).Errorf("Failed to persist usage sample: %v", err)
	}
}
