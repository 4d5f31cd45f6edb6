package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/resource-autoscaler/internal/events"
	"github.com/OldStager01/resource-autoscaler/internal/provisioner"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

func decision(scaleType models.ScaleType, desire int) models.ScaleDecision {
	return models.ScaleDecision{
		ClusterID:  "clusterId",
		SkuID:      "small",
		Type:       scaleType,
		DesireSize: desire,
		MinSize:    desire,
		MaxSize:    desire,
	}
}

func receive(t *testing.T, ch chan models.ScaleResourceRequest) models.ScaleResourceRequest {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scale request")
		return models.ScaleResourceRequest{}
	}
}

func TestDispatch_ScaleUpOmitsIdleList(t *testing.T) {
	prov := provisioner.NewMockProvisioner()
	d := New(prov, events.NewPublisher(nil))

	err := d.Dispatch(context.Background(), decision(models.ScaleUp, 11), nil)
	require.NoError(t, err)

	req := receive(t, prov.Requests)
	assert.Equal(t, "small", req.SkuID)
	assert.Equal(t, 11, req.DesireSize)
	assert.Nil(t, req.IdleInstances)
}

func TestDispatch_ScaleDownCarriesIdleList(t *testing.T) {
	prov := provisioner.NewMockProvisioner()
	d := New(prov, events.NewPublisher(nil))

	err := d.Dispatch(context.Background(), decision(models.ScaleDown, 15), []string{"agent1"})
	require.NoError(t, err)

	req := receive(t, prov.Requests)
	assert.Equal(t, 15, req.DesireSize)
	assert.Equal(t, []string{"agent1"}, req.IdleInstances)
}

func TestDispatch_ScaleDownNormalizesNilIdleList(t *testing.T) {
	prov := provisioner.NewMockProvisioner()
	d := New(prov, events.NewPublisher(nil))

	err := d.Dispatch(context.Background(), decision(models.ScaleDown, 15), nil)
	require.NoError(t, err)

	req := receive(t, prov.Requests)
	require.NotNil(t, req.IdleInstances)
	assert.Empty(t, req.IdleInstances)
}

func TestDispatch_RefusesNoOp(t *testing.T) {
	prov := provisioner.NewMockProvisioner()
	d := New(prov, events.NewPublisher(nil))

	err := d.Dispatch(context.Background(), decision(models.NoOp, 10), nil)
	assert.Error(t, err)
}

func TestDispatch_ProvisionerErrorIsReturned(t *testing.T) {
	prov := provisioner.NewMockProvisioner()
	prov.SetError(errors.New("provisioner down"))
	d := New(prov, events.NewPublisher(nil))

	err := d.Dispatch(context.Background(), decision(models.ScaleUp, 11), nil)
	assert.Error(t, err)
}
