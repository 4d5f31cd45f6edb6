package provisioner

import (
	"context"
	"errors"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

var (
	ErrDispatchFailed = errors.New("scale request dispatch failed")
	ErrTimeout        = errors.New("scale request timeout")
)

// HostProvisioner actuates scale requests on the underlying fleet. The
// provisioner is expected to be idempotent; the controller may resend an
// equivalent request after cooldown.
type HostProvisioner interface {
	ScaleResource(ctx context.Context, req models.ScaleResourceRequest) error

	// Close releases any resources held by the provisioner
	Close() error
}
