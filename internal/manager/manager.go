package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/OldStager01/resource-autoscaler/internal/controller"
	"github.com/OldStager01/resource-autoscaler/internal/events"
	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/database"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// Manager owns one scaler controller per cluster and the shared event
// plumbing. Controllers are independent; there is no shared mutable
// state between them.
type Manager struct {
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	controllers map[string]*controller.Controller
	mu          sync.RWMutex
}

func New(db *database.DB, eventBufferSize int) *Manager {
	eventBus := events.NewEventBus(eventBufferSize)
	eventLogger := events.NewEventLogger(db, eventBus.SubscribeAll())

	return &Manager{
		eventBus:    eventBus,
		eventLogger: eventLogger,
		controllers: make(map[string]*controller.Controller),
	}
}

func (m *Manager) Start() error {
	logger.Info("Scaler manager starting")
	m.eventLogger.Start()
	return nil
}

func (m *Manager) Stop() {
	logger.Info("Scaler manager stopping")

	m.mu.Lock()
	for clusterID, ctrl := range m.controllers {
		logger.WithCluster(clusterID).Info("Stopping scaler controller")
		ctrl.Stop()
	}
	m.controllers = make(map[string]*controller.Controller)
	m.mu.Unlock()

	m.eventLogger.Stop()
	m.eventBus.Close()

	logger.Info("Scaler manager stopped")
}

// Publisher returns a publisher bound to the shared event bus, for
// wiring into controller configs.
func (m *Manager) Publisher() *events.Publisher {
	return events.NewPublisher(m.eventBus)
}

// StartCluster builds and starts a controller for cfg.ClusterID. The
// config's Publisher is replaced with one bound to the shared bus.
func (m *Manager) StartCluster(cfg controller.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.controllers[cfg.ClusterID]; exists {
		return fmt.Errorf("controller already exists for cluster %s", cfg.ClusterID)
	}

	cfg.Publisher = events.NewPublisher(m.eventBus)
	ctrl := controller.New(cfg)
	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}

	m.controllers[cfg.ClusterID] = ctrl
	logger.WithCluster(cfg.ClusterID).Info("Cluster controller started")
	return nil
}

func (m *Manager) StopCluster(clusterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctrl, exists := m.controllers[clusterID]
	if !exists {
		return fmt.Errorf("no controller found for cluster %s", clusterID)
	}

	ctrl.Stop()
	delete(m.controllers, clusterID)
	logger.WithCluster(clusterID).Info("Cluster controller stopped")
	return nil
}

func (m *Manager) ClusterStatus(clusterID string) (bool, error) {
	ctrl, err := m.get(clusterID)
	if err != nil {
		return false, err
	}
	return ctrl.IsRunning(), nil
}

func (m *Manager) RuleSnapshot(ctx context.Context, clusterID string) (map[string]models.ScaleSpec, error) {
	ctrl, err := m.get(clusterID)
	if err != nil {
		return nil, err
	}
	return ctrl.RuleSnapshot(ctx)
}

func (m *Manager) PendingScaleDowns(ctx context.Context, clusterID string) ([]models.PendingScaleDown, error) {
	ctrl, err := m.get(clusterID)
	if err != nil {
		return nil, err
	}
	return ctrl.PendingScaleDowns(ctx)
}

func (m *Manager) ListRunningClusters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clusters := make([]string, 0, len(m.controllers))
	for clusterID, ctrl := range m.controllers {
		if ctrl.IsRunning() {
			clusters = append(clusters, clusterID)
		}
	}
	return clusters
}

func (m *Manager) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return m.eventBus.Subscribe(eventType)
}

func (m *Manager) SubscribeAllEvents() <-chan *models.Event {
	return m.eventBus.SubscribeAll()
}

func (m *Manager) get(clusterID string) (*controller.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctrl, exists := m.controllers[clusterID]
	if !exists {
		return nil, fmt.Errorf("no controller found for cluster %s", clusterID)
	}
	return ctrl, nil
}
