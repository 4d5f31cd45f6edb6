package provisioner

import (
	"context"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/resilience"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// ResilientProvisioner guards the host provisioner with a circuit
// breaker. No retries: dispatch is fire-and-forget and the rule resends
// after cooldown from a fresh usage snapshot anyway.
type ResilientProvisioner struct {
	provisioner    HostProvisioner
	circuitBreaker *resilience.CircuitBreaker
}

type ResilientProvisionerConfig struct {
	Provisioner   HostProvisioner
	MaxFailures   int
	Timeout       time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientProvisioner(cfg ResilientProvisionerConfig) *ResilientProvisioner {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "provisioner",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientProvisioner{
		provisioner:    cfg.Provisioner,
		circuitBreaker: cb,
	}
}

func (p *ResilientProvisioner) ScaleResource(ctx context.Context, req models.ScaleResourceRequest) error {
	return p.circuitBreaker.Execute(func() error {
		return p.provisioner.ScaleResource(ctx, req)
	})
}

func (p *ResilientProvisioner) CircuitState() resilience.State {
	return p.circuitBreaker.State()
}

func (p *ResilientProvisioner) Close() error {
	return p.provisioner.Close()
}
