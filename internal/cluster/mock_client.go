package cluster

import (
	"context"
	"sync"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// MockClient is an in-memory Client for tests. Requests are recorded on
// buffered channels so tests can observe them in order; responses are
// programmed per call type.
type MockClient struct {
	mu sync.Mutex

	UsageRequests chan models.GetClusterUsageRequest
	IdleRequests  chan models.GetClusterIdleInstancesRequest

	usageResponse *models.GetClusterUsageResponse
	usageErr      error
	idleResponse  *models.GetClusterIdleInstancesResponse
	idleErr       error
}

func NewMockClient() *MockClient {
	return &MockClient{
		UsageRequests: make(chan models.GetClusterUsageRequest, 16),
		IdleRequests:  make(chan models.GetClusterIdleInstancesRequest, 16),
	}
}

func (m *MockClient) SetUsageResponse(resp *models.GetClusterUsageResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usageResponse = resp
	m.usageErr = err
}

func (m *MockClient) SetIdleResponse(resp *models.GetClusterIdleInstancesResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleResponse = resp
	m.idleErr = err
}

func (m *MockClient) GetClusterUsage(ctx context.Context, req models.GetClusterUsageRequest) (*models.GetClusterUsageResponse, error) {
	select {
	case m.UsageRequests <- req:
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usageErr != nil {
		return nil, m.usageErr
	}
	if m.usageResponse == nil {
		return &models.GetClusterUsageResponse{ClusterID: req.ClusterID}, nil
	}
	return m.usageResponse, nil
}

func (m *MockClient) GetClusterIdleInstances(ctx context.Context, req models.GetClusterIdleInstancesRequest) (*models.GetClusterIdleInstancesResponse, error) {
	select {
	case m.IdleRequests <- req:
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleErr != nil {
		return nil, m.idleErr
	}
	if m.idleResponse == nil {
		return &models.GetClusterIdleInstancesResponse{
			ClusterID:  req.ClusterID,
			SkuID:      req.SkuID,
			DesireSize: req.DesireSize,
		}, nil
	}
	return m.idleResponse, nil
}

func (m *MockClient) Close() error {
	return nil
}
