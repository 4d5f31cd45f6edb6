package provisioner

import (
	"context"
	"sync"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// MockProvisioner records dispatched scale requests for tests.
type MockProvisioner struct {
	mu  sync.Mutex
	err error

	Requests chan models.ScaleResourceRequest
}

func NewMockProvisioner() *MockProvisioner {
	return &MockProvisioner{
		Requests: make(chan models.ScaleResourceRequest, 16),
	}
}

func (m *MockProvisioner) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockProvisioner) ScaleResource(ctx context.Context, req models.ScaleResourceRequest) error {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case m.Requests <- req:
	default:
	}
	return nil
}

func (m *MockProvisioner) Close() error {
	return nil
}
