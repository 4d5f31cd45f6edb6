package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// HTTPClient queries a resource cluster over its JSON HTTP API.
type HTTPClient struct {
	client   *http.Client
	endpoint string
}

type HTTPClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
	}
}

func (c *HTTPClient) GetClusterUsage(ctx context.Context, req models.GetClusterUsageRequest) (*models.GetClusterUsageResponse, error) {
	url := fmt.Sprintf("%s/clusters/%s/usage", c.endpoint, req.ClusterID)

	logger.WithCluster(req.ClusterID).Debugf("Fetching usage from %s", url)

	body, err := c.get(ctx, req.ClusterID, url)
	if err != nil {
		return nil, err
	}

	var resp models.GetClusterUsageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	logger.WithCluster(req.ClusterID).Debugf("Usage snapshot covers %d SKUs", len(resp.Usages))
	return &resp, nil
}

func (c *HTTPClient) GetClusterIdleInstances(ctx context.Context, req models.GetClusterIdleInstancesRequest) (*models.GetClusterIdleInstancesResponse, error) {
	url := fmt.Sprintf("%s/clusters/%s/idle-instances", c.endpoint, req.ClusterID)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrQueryFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrQueryFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	logger.WithSku(req.ClusterID, req.SkuID).Debugf(
		"Querying idle instances (desire=%d, max=%d)", req.DesireSize, req.MaxInstanceCount,
	)

	body, err := c.do(httpReq, req.ClusterID)
	if err != nil {
		return nil, err
	}

	var resp models.GetClusterIdleInstancesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}

func (c *HTTPClient) get(ctx context.Context, clusterID, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrQueryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, clusterID)
}

func (c *HTTPClient) do(req *http.Request, clusterID string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if req.Context().Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrClusterNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrQueryFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrQueryFailed, err)
	}
	return body, nil
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
