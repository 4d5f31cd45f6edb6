package provisioner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// HTTPProvisioner posts scale requests to a host provisioner service.
type HTTPProvisioner struct {
	client   *http.Client
	endpoint string
}

type HTTPProvisionerConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPProvisioner(cfg HTTPProvisionerConfig) *HTTPProvisioner {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPProvisioner{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.Endpoint,
	}
}

func (p *HTTPProvisioner) ScaleResource(ctx context.Context, req models.ScaleResourceRequest) error {
	url := fmt.Sprintf("%s/clusters/%s/scale", p.endpoint, req.ClusterID)

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", ErrDispatchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrDispatchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.WithSku(req.ClusterID, req.SkuID).Debugf(
		"Dispatching scale request (desire=%d, idle_instances=%d)",
		req.DesireSize, len(req.IdleInstances),
	)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected status code %d", ErrDispatchFailed, resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvisioner) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
