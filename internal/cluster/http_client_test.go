package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

func TestHTTPClient_GetClusterUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/clusters/clusterId/usage", r.URL.Path)

		json.NewEncoder(w).Encode(models.GetClusterUsageResponse{
			ClusterID: "clusterId",
			Usages: []models.UsageByMachineDefinition{
				{
					Def:        models.SkuDefinition{SkuID: "small"},
					IdleCount:  4,
					TotalCount: 10,
				},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Endpoint: srv.URL})
	defer c.Close()

	resp, err := c.GetClusterUsage(context.Background(), models.GetClusterUsageRequest{ClusterID: "clusterId"})
	require.NoError(t, err)
	assert.Equal(t, "clusterId", resp.ClusterID)
	require.Len(t, resp.Usages, 1)
	assert.Equal(t, "small", resp.Usages[0].Def.SkuID)
	assert.Equal(t, 4, resp.Usages[0].IdleCount)
}

func TestHTTPClient_GetClusterIdleInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clusters/clusterId/idle-instances", r.URL.Path)

		var req models.GetClusterIdleInstancesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "large", req.SkuID)
		assert.Equal(t, 1, req.MaxInstanceCount)

		json.NewEncoder(w).Encode(models.GetClusterIdleInstancesResponse{
			ClusterID:   req.ClusterID,
			SkuID:       req.SkuID,
			DesireSize:  req.DesireSize,
			InstanceIDs: []string{"agent1"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Endpoint: srv.URL})
	defer c.Close()

	resp, err := c.GetClusterIdleInstances(context.Background(), models.GetClusterIdleInstancesRequest{
		ClusterID:        "clusterId",
		SkuID:            "large",
		DesireSize:       15,
		MaxInstanceCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"agent1"}, resp.InstanceIDs)
	assert.Equal(t, 15, resp.DesireSize)
}

func TestHTTPClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Endpoint: srv.URL})
	defer c.Close()

	_, err := c.GetClusterUsage(context.Background(), models.GetClusterUsageRequest{ClusterID: "missing"})
	assert.ErrorIs(t, err, ErrClusterNotFound)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Endpoint: srv.URL})
	defer c.Close()

	_, err := c.GetClusterUsage(context.Background(), models.GetClusterUsageRequest{ClusterID: "clusterId"})
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestHTTPClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Endpoint: srv.URL})
	defer c.Close()

	_, err := c.GetClusterUsage(context.Background(), models.GetClusterUsageRequest{ClusterID: "clusterId"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
