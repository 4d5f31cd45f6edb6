package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// EventBridge forwards scaler events to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

// WebSocketEvent is the message format sent to WebSocket clients
type WebSocketEvent struct {
	Type      string      `json:"type"`
	ClusterID string      `json:"cluster_id"`
	SkuID     string      `json:"sku_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return
	}

	data, err := json.Marshal(&WebSocketEvent{
		Type:      wsType,
		ClusterID: event.ClusterID,
		SkuID:     event.SkuID,
		Timestamp: event.Timestamp,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      event.Data,
	})
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastToCluster(event.ClusterID, data)
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeDecisionMade:
		return "decision"
	case models.EventTypeScaleRequested:
		return "scale_request"
	case models.EventTypeScalingFailed:
		return "scaling_failed"
	case models.EventTypeRulesReloaded:
		return "rules_reloaded"
	case models.EventTypePendingExpired:
		return "pending_expired"
	case models.EventTypeAlert:
		return "alert"
	case models.EventTypeError:
		return "error"
	default:
		// Skip usage_sampled and other chatty internal events
		return ""
	}
}
