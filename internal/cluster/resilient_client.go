package cluster

import (
	"context"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/resilience"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// ResilientClient wraps a Client with retries and a circuit breaker so a
// flapping resource cluster fails fast instead of stalling every tick.
type ResilientClient struct {
	client         Client
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientClientConfig struct {
	Client        Client
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientClient(cfg ResilientClientConfig) *ResilientClient {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "cluster",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientClient{
		client:         cfg.Client,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (c *ResilientClient) GetClusterUsage(ctx context.Context, req models.GetClusterUsageRequest) (*models.GetClusterUsageResponse, error) {
	var resp *models.GetClusterUsageResponse
	err := c.execute(ctx, req.ClusterID, "usage", func() error {
		var err error
		resp, err = c.client.GetClusterUsage(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ResilientClient) GetClusterIdleInstances(ctx context.Context, req models.GetClusterIdleInstancesRequest) (*models.GetClusterIdleInstancesResponse, error) {
	var resp *models.GetClusterIdleInstancesResponse
	err := c.execute(ctx, req.ClusterID, "idle-instances", func() error {
		var err error
		resp, err = c.client.GetClusterIdleInstances(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ResilientClient) execute(ctx context.Context, clusterID, op string, fn func() error) error {
	var lastErr error

	return c.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= c.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if lastErr = fn(); lastErr == nil {
				return nil
			}

			logger.WithCluster(clusterID).Warnf(
				"Cluster %s query attempt %d/%d failed: %v",
				op, attempt, c.retryAttempts, lastErr,
			)

			if attempt < c.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
		return lastErr
	})
}

func (c *ResilientClient) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientClient) Close() error {
	return c.client.Close()
}
