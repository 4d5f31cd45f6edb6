package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/OldStager01/resource-autoscaler/internal/logger"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	samplesTotal    map[string]int64
	sampleErrors    map[string]int64
	decisionsTotal  map[string]map[string]int64 // cluster -> scale type -> count
	dispatchesTotal map[string]int64
	dispatchErrors  map[string]int64
	ruleReloads     map[string]int64
	pendingExpired  map[string]int64
	droppedReplies  map[string]int64

	// Gauges
	ruleCount           map[string]int
	pendingCount        map[string]int
	circuitBreakerState map[string]int // 0=closed, 1=open, 2=half-open
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			samplesTotal:        make(map[string]int64),
			sampleErrors:        make(map[string]int64),
			decisionsTotal:      make(map[string]map[string]int64),
			dispatchesTotal:     make(map[string]int64),
			dispatchErrors:      make(map[string]int64),
			ruleReloads:         make(map[string]int64),
			pendingExpired:      make(map[string]int64),
			droppedReplies:      make(map[string]int64),
			ruleCount:           make(map[string]int),
			pendingCount:        make(map[string]int),
			circuitBreakerState: make(map[string]int),
		}
	})
	return instance
}

func (m *Metrics) IncSamples(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samplesTotal[clusterID]++
}

func (m *Metrics) IncSampleErrors(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleErrors[clusterID]++
}

func (m *Metrics) IncDecision(clusterID, scaleType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decisionsTotal[clusterID] == nil {
		m.decisionsTotal[clusterID] = make(map[string]int64)
	}
	m.decisionsTotal[clusterID][scaleType]++
}

func (m *Metrics) IncDispatches(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchesTotal[clusterID]++
}

func (m *Metrics) IncDispatchErrors(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchErrors[clusterID]++
}

func (m *Metrics) IncRuleReloads(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleReloads[clusterID]++
}

func (m *Metrics) IncPendingExpired(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingExpired[clusterID]++
}

func (m *Metrics) IncDroppedReplies(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedReplies[clusterID]++
}

func (m *Metrics) SetRuleCount(clusterID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleCount[clusterID] = count
}

func (m *Metrics) SetPendingCount(clusterID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingCount[clusterID] = count
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerState[name] = state
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		for cluster, count := range m.samplesTotal {
			writeMetric(w, "autoscaler_usage_samples_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.sampleErrors {
			writeMetric(w, "autoscaler_usage_sample_errors_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, types := range m.decisionsTotal {
			for scaleType, count := range types {
				writeMetric(w, "autoscaler_decisions_total", map[string]string{"cluster_id": cluster, "type": scaleType}, float64(count))
			}
		}
		for cluster, count := range m.dispatchesTotal {
			writeMetric(w, "autoscaler_scale_requests_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.dispatchErrors {
			writeMetric(w, "autoscaler_scale_request_errors_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.ruleReloads {
			writeMetric(w, "autoscaler_rule_reloads_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.pendingExpired {
			writeMetric(w, "autoscaler_pending_expired_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.droppedReplies {
			writeMetric(w, "autoscaler_dropped_replies_total", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.ruleCount {
			writeMetric(w, "autoscaler_rules", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for cluster, count := range m.pendingCount {
			writeMetric(w, "autoscaler_pending_scale_downs", map[string]string{"cluster_id": cluster}, float64(count))
		}
		for name, state := range m.circuitBreakerState {
			writeMetric(w, "autoscaler_circuit_breaker_state", map[string]string{"name": name}, float64(state))
		}
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}

func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Get().Handler())

	addr := ":" + strconv.Itoa(port)
	logger.Infof("Metrics server listening on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()
}
