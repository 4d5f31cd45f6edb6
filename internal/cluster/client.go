package cluster

import (
	"context"
	"errors"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

var (
	ErrQueryFailed     = errors.New("cluster query failed")
	ErrTimeout         = errors.New("cluster query timeout")
	ErrClusterNotFound = errors.New("cluster not found")
	ErrInvalidResponse = errors.New("invalid response from resource cluster")
)

// Client talks to the resource cluster that owns the executor registry.
// Both calls are idempotent request/reply queries.
type Client interface {
	// GetClusterUsage fetches the per-SKU usage snapshot for a cluster.
	GetClusterUsage(ctx context.Context, req models.GetClusterUsageRequest) (*models.GetClusterUsageResponse, error)

	// GetClusterIdleInstances resolves which concrete executors are idle
	// and may be shut down, bounded by MaxInstanceCount.
	GetClusterIdleInstances(ctx context.Context, req models.GetClusterIdleInstancesRequest) (*models.GetClusterIdleInstancesResponse, error)

	// Close releases any resources held by the client
	Close() error
}
