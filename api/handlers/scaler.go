package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/OldStager01/resource-autoscaler/pkg/database/queries"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
	"github.com/OldStager01/resource-autoscaler/pkg/validation"
	"github.com/gin-gonic/gin"
)

// ScalerManager is what the handlers need from the controller manager.
type ScalerManager interface {
	RuleSnapshot(ctx context.Context, clusterID string) (map[string]models.ScaleSpec, error)
	PendingScaleDowns(ctx context.Context, clusterID string) ([]models.PendingScaleDown, error)
	ClusterStatus(clusterID string) (bool, error)
	ListRunningClusters() []string
	SubscribeAllEvents() <-chan *models.Event
}

type ScalerHandler struct {
	manager  ScalerManager
	requests *queries.ScaleRequestRepository
	samples  *queries.UsageSampleRepository
}

func NewScalerHandler(manager ScalerManager, requests *queries.ScaleRequestRepository, samples *queries.UsageSampleRepository) *ScalerHandler {
	return &ScalerHandler{
		manager:  manager,
		requests: requests,
		samples:  samples,
	}
}

func (h *ScalerHandler) ListClusters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"clusters": h.manager.ListRunningClusters(),
	})
}

func (h *ScalerHandler) GetStatus(c *gin.Context) {
	clusterID, ok := clusterIDParam(c)
	if !ok {
		return
	}

	running, err := h.manager.ClusterStatus(clusterID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster_id": clusterID,
		"running":    running,
	})
}

// GetRules returns the rule set the controller is currently acting on.
func (h *ScalerHandler) GetRules(c *gin.Context) {
	clusterID, ok := clusterIDParam(c)
	if !ok {
		return
	}

	rules, err := h.manager.RuleSnapshot(c.Request.Context(), clusterID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster_id": clusterID,
		"rules":      rules,
	})
}

func (h *ScalerHandler) GetPending(c *gin.Context) {
	clusterID, ok := clusterIDParam(c)
	if !ok {
		return
	}

	pending, err := h.manager.PendingScaleDowns(c.Request.Context(), clusterID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster_id": clusterID,
		"pending":    pending,
	})
}

func (h *ScalerHandler) GetScaleRequests(c *gin.Context) {
	if h.requests == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}

	clusterID, ok := clusterIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.requests.ListRecent(c.Request.Context(), clusterID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster_id": clusterID,
		"requests":   records,
	})
}

func (h *ScalerHandler) GetUsageSamples(c *gin.Context) {
	if h.samples == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}

	clusterID, ok := clusterIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	records, err := h.samples.ListRecent(c.Request.Context(), clusterID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster_id": clusterID,
		"samples":    records,
	})
}

func clusterIDParam(c *gin.Context) (string, bool) {
	clusterID := c.Param("id")
	if err := validation.ValidateClusterID(clusterID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return clusterID, true
}
