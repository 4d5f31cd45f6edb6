package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

// Simulator plays both external collaborators at once: the resource
// cluster (usage and idle-instance queries) and the host provisioner
// (scale requests mutate the simulated pools). Point both endpoints of
// the autoscaler at it for local end-to-end runs.
type Simulator struct {
	config     Config
	clusters   map[string]*ClusterSim
	mu         sync.RWMutex
	httpServer *http.Server
}

type Config struct {
	Port int
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9470
	}

	return &Simulator{
		config:   cfg,
		clusters: make(map[string]*ClusterSim),
	}
}

func (s *Simulator) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/clusters/", s.clusterHandler)

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) GetOrCreateCluster(clusterID string) *ClusterSim {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cluster, exists := s.clusters[clusterID]; exists {
		return cluster
	}

	cluster := NewClusterSim(clusterID)
	s.clusters[clusterID] = cluster

	logger.Infof("Created new simulated cluster: %s", clusterID)
	return cluster
}

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "resource-cluster-simulator",
	})
}

// clusterHandler routes /clusters/{clusterID}/{action}
func (s *Simulator) clusterHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/clusters/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "cluster ID and action required", http.StatusBadRequest)
		return
	}
	clusterID, action := parts[0], parts[1]
	cluster := s.GetOrCreateCluster(clusterID)

	switch {
	case action == "usage" && r.Method == http.MethodGet:
		s.usageHandler(w, cluster, clusterID)
	case action == "idle-instances" && r.Method == http.MethodPost:
		s.idleInstancesHandler(w, r, cluster, clusterID)
	case action == "scale" && r.Method == http.MethodPost:
		s.scaleHandler(w, r, cluster, clusterID)
	case action == "skus" && r.Method == http.MethodPost:
		s.seedSkuHandler(w, r, cluster)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Simulator) usageHandler(w http.ResponseWriter, cluster *ClusterSim, clusterID string) {
	resp := models.GetClusterUsageResponse{
		ClusterID: clusterID,
		Usages:    cluster.Usage(),
	}
	writeJSON(w, resp)
}

func (s *Simulator) idleInstancesHandler(w http.ResponseWriter, r *http.Request, cluster *ClusterSim, clusterID string) {
	var req models.GetClusterIdleInstancesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := models.GetClusterIdleInstancesResponse{
		ClusterID:   clusterID,
		SkuID:       req.SkuID,
		DesireSize:  req.DesireSize,
		InstanceIDs: cluster.IdleInstances(req.SkuID, req.MaxInstanceCount),
	}
	writeJSON(w, resp)
}

func (s *Simulator) scaleHandler(w http.ResponseWriter, r *http.Request, cluster *ClusterSim, clusterID string) {
	var req models.ScaleResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := cluster.ApplyScale(req); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	logger.WithSku(clusterID, req.SkuID).Infof(
		"Simulator applied scale request: desire=%d, terminated=%d",
		req.DesireSize, len(req.IdleInstances),
	)
	writeJSON(w, map[string]string{"status": "accepted"})
}

type seedSkuRequest struct {
	Def   models.SkuDefinition `json:"def"`
	Idle  int                  `json:"idle"`
	Total int                  `json:"total"`
}

func (s *Simulator) seedSkuHandler(w http.ResponseWriter, r *http.Request, cluster *ClusterSim) {
	var req seedSkuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cluster.SeedSku(req.Def, req.Idle, req.Total)
	writeJSON(w, map[string]string{"status": "seeded"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
