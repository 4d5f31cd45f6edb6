package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/resource-autoscaler/internal/cluster"
	"github.com/OldStager01/resource-autoscaler/internal/dispatch"
	"github.com/OldStager01/resource-autoscaler/internal/events"
	"github.com/OldStager01/resource-autoscaler/internal/provisioner"
	"github.com/OldStager01/resource-autoscaler/internal/rulestore"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

const clusterID = "clusterId"

var (
	machineS = models.SkuDefinition{
		SkuID:   "small",
		Machine: models.MachineDefinition{CPUCores: 2, MemoryMB: 2048, NetworkMbps: 700, DiskMB: 10240, NumPorts: 5},
	}
	machineL = models.SkuDefinition{
		SkuID:   "large",
		Machine: models.MachineDefinition{CPUCores: 4, MemoryMB: 16384, NetworkMbps: 1400, DiskMB: 81920, NumPorts: 5},
	}
	machineM = models.SkuDefinition{
		SkuID:   "medium",
		Machine: models.MachineDefinition{CPUCores: 3, MemoryMB: 4096, NetworkMbps: 700, DiskMB: 10240, NumPorts: 5},
	}
)

func spec(skuID string, minIdle, maxIdle int) models.ScaleSpec {
	return models.ScaleSpec{
		ClusterID:     clusterID,
		SkuID:         skuID,
		MinSize:       11,
		MaxSize:       15,
		MinIdleToKeep: minIdle,
		MaxIdleToKeep: maxIdle,
		CoolDownSecs:  10,
	}
}

func usage(def models.SkuDefinition, idle, total int) models.UsageByMachineDefinition {
	return models.UsageByMachineDefinition{Def: def, IdleCount: idle, TotalCount: total}
}

type fixture struct {
	store  *rulestore.StaticStore
	client *cluster.MockClient
	prov   *provisioner.MockProvisioner
	ctrl   *Controller
}

func newFixture(t *testing.T, sampleInterval, refreshInterval time.Duration) *fixture {
	t.Helper()

	store := rulestore.NewStaticStore()
	store.Replace(clusterID, map[string]models.ScaleSpec{
		"small": spec("small", 5, 10),
		"large": spec("large", 5, 15),
	})

	client := cluster.NewMockClient()
	prov := provisioner.NewMockProvisioner()
	bus := events.NewEventBus(100)
	t.Cleanup(bus.Close)

	ctrl := New(Config{
		ClusterID:       clusterID,
		SampleInterval:  sampleInterval,
		RefreshInterval: refreshInterval,
		Store:           store,
		Cluster:         client,
		Dispatcher:      dispatch.New(prov, events.NewPublisher(bus)),
		Publisher:       events.NewPublisher(bus),
	})

	return &fixture{store: store, client: client, prov: prov, ctrl: ctrl}
}

func waitUsageRequest(t *testing.T, ch chan models.GetClusterUsageRequest) models.GetClusterUsageRequest {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for usage request")
		return models.GetClusterUsageRequest{}
	}
}

func waitIdleRequest(t *testing.T, ch chan models.GetClusterIdleInstancesRequest) models.GetClusterIdleInstancesRequest {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for idle instance request")
		return models.GetClusterIdleInstancesRequest{}
	}
}

func waitScaleRequest(t *testing.T, ch chan models.ScaleResourceRequest) models.ScaleResourceRequest {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scale request")
		return models.ScaleResourceRequest{}
	}
}

func TestController_ScaleFlow(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond, time.Hour)

	f.client.SetUsageResponse(&models.GetClusterUsageResponse{
		ClusterID: clusterID,
		Usages: []models.UsageByMachineDefinition{
			usage(machineS, 4, 10),
			usage(machineL, 16, 16),
			usage(machineM, 8, 15), // unmanaged
		},
	}, nil)
	f.client.SetIdleResponse(&models.GetClusterIdleInstancesResponse{
		ClusterID:   clusterID,
		SkuID:       "large",
		DesireSize:  15,
		InstanceIDs: []string{"agent1"},
	}, nil)

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	// Usage is requested immediately on boot
	req := waitUsageRequest(t, f.client.UsageRequests)
	assert.Equal(t, clusterID, req.ClusterID)

	// Scale-down for large resolves idle instances first
	idleReq := waitIdleRequest(t, f.client.IdleRequests)
	assert.Equal(t, models.GetClusterIdleInstancesRequest{
		ClusterID:        clusterID,
		SkuID:            "large",
		Def:              machineL,
		DesireSize:       15,
		MaxInstanceCount: 1,
	}, idleReq)

	// Both SKUs produce a scale request; dispatch order is not fixed
	requests := make(map[string]models.ScaleResourceRequest)
	for i := 0; i < 2; i++ {
		r := waitScaleRequest(t, f.prov.Requests)
		requests[r.SkuID] = r
	}

	small, ok := requests["small"]
	require.True(t, ok)
	assert.Equal(t, 11, small.DesireSize)
	assert.Nil(t, small.IdleInstances)

	large, ok := requests["large"]
	require.True(t, ok)
	assert.Equal(t, 15, large.DesireSize)
	assert.Equal(t, []string{"agent1"}, large.IdleInstances)

	// Resolved entry leaves the pending table
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pending, err := f.ctrl.PendingScaleDowns(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The next sample tick asks for usage again
	req2 := waitUsageRequest(t, f.client.UsageRequests)
	assert.Equal(t, clusterID, req2.ClusterID)
}

func TestController_RuleSetRefresh(t *testing.T) {
	f := newFixture(t, time.Hour, 50*time.Millisecond)

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rules, err := f.ctrl.RuleSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	assert.Contains(t, rules, "small")
	assert.Contains(t, rules, "large")

	f.store.Replace(clusterID, map[string]models.ScaleSpec{
		"medium": spec("medium", 5, 20),
	})

	assert.Eventually(t, func() bool {
		rules, err := f.ctrl.RuleSnapshot(ctx)
		if err != nil {
			return false
		}
		_, hasMedium := rules["medium"]
		return len(rules) == 1 && hasMedium
	}, 2*time.Second, 25*time.Millisecond)
}

func TestController_StoreFailureKeepsRules(t *testing.T) {
	f := newFixture(t, time.Hour, 50*time.Millisecond)

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	f.store.SetError(errors.New("store down"))
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rules, err := f.ctrl.RuleSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestController_SkipsIdleQueryWhenDesireCoversTotal(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond, time.Hour)

	// Shedding idle above the band clamps up to minSize past the current
	// total, so there is nothing to terminate.
	f.store.Replace(clusterID, map[string]models.ScaleSpec{
		"small": {
			ClusterID:     clusterID,
			SkuID:         "small",
			MinSize:       20,
			MaxSize:       30,
			MinIdleToKeep: 0,
			MaxIdleToKeep: 1,
			CoolDownSecs:  10,
		},
	})
	f.client.SetUsageResponse(&models.GetClusterUsageResponse{
		ClusterID: clusterID,
		Usages:    []models.UsageByMachineDefinition{usage(machineS, 5, 10)},
	}, nil)

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	waitUsageRequest(t, f.client.UsageRequests)

	select {
	case req := <-f.client.IdleRequests:
		t.Fatalf("unexpected idle query: %+v", req)
	case <-time.After(300 * time.Millisecond):
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pending, err := f.ctrl.PendingScaleDowns(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestController_DropsForeignUsageResponse(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond, time.Hour)

	f.client.SetUsageResponse(&models.GetClusterUsageResponse{
		ClusterID: "someOtherCluster",
		Usages:    []models.UsageByMachineDefinition{usage(machineS, 4, 10)},
	}, nil)

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	waitUsageRequest(t, f.client.UsageRequests)

	select {
	case req := <-f.prov.Requests:
		t.Fatalf("unexpected scale request: %+v", req)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestController_UsageErrorSkipsTick(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond, time.Hour)

	f.client.SetUsageResponse(nil, errors.New("cluster unreachable"))

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	waitUsageRequest(t, f.client.UsageRequests)

	select {
	case req := <-f.prov.Requests:
		t.Fatalf("unexpected scale request: %+v", req)
	case <-time.After(300 * time.Millisecond):
	}

	// Ticks keep coming after the failure
	waitUsageRequest(t, f.client.UsageRequests)
}

func TestController_StopDiscardsPending(t *testing.T) {
	f := newFixture(t, time.Hour, time.Hour)

	require.NoError(t, f.ctrl.Start())
	f.ctrl.Stop()

	assert.False(t, f.ctrl.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := f.ctrl.PendingScaleDowns(ctx)
	assert.Error(t, err)
}

func TestController_StartupWithFailingStore(t *testing.T) {
	f := newFixture(t, time.Hour, time.Hour)
	f.store.SetError(errors.New("store down"))

	require.NoError(t, f.ctrl.Start())
	defer f.ctrl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rules, err := f.ctrl.RuleSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
