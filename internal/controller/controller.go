package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/resource-autoscaler/internal/cluster"
	"github.com/OldStager01/resource-autoscaler/internal/dispatch"
	"github.com/OldStager01/resource-autoscaler/internal/evaluator"
	"github.com/OldStager01/resource-autoscaler/internal/events"
	"github.com/OldStager01/resource-autoscaler/internal/logger"
	"github.com/OldStager01/resource-autoscaler/internal/metrics"
	"github.com/OldStager01/resource-autoscaler/internal/rule"
	"github.com/OldStager01/resource-autoscaler/internal/rulestore"
	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

var ErrStopped = errors.New("controller stopped")

const mailboxSize = 64

type Config struct {
	ClusterID       string
	SampleInterval  time.Duration
	RefreshInterval time.Duration
	// RequestTimeout bounds usage, idle and dispatch calls. Defaults to
	// SampleInterval: a query slower than the tick is already useless.
	RequestTimeout time.Duration
	Clock          rule.Clock
	Store          rulestore.Store
	Cluster        cluster.Client
	Dispatcher     *dispatch.Dispatcher
	Publisher      *events.Publisher
}

// Controller is the per-cluster scaling loop. All mutable state (the
// rule set, the pending scale-down table, rule cooldown clocks) is owned
// by a single goroutine draining a FIFO mailbox; external queries run on
// short-lived goroutines that post their completions back as messages.
type Controller struct {
	cfg       Config
	clock     rule.Clock
	evaluator *evaluator.Evaluator
	mailbox   chan message

	// Actor-owned state, touched only from the run goroutine after Start.
	ruleSet         *rule.RuleSet
	pending         map[pendingKey]pendingEntry
	usageInFlightAt *time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type pendingEntry struct {
	decision  models.ScaleDecision
	createdAt time.Time
}

func New(cfg Config) *Controller {
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = 30 * time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = cfg.SampleInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = rule.SystemClock()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NewPublisher(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		cfg:       cfg,
		clock:     cfg.Clock,
		evaluator: evaluator.New(),
		mailbox:   make(chan message, mailboxSize),
		ruleSet:   rule.EmptyRuleSet(cfg.ClusterID),
		pending:   make(map[pendingKey]pendingEntry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start performs the initial blocking rule fetch and launches the loop.
// A failed first fetch leaves an empty rule set; the next refresh tick
// retries.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
	defer cancel()

	snapshot, err := c.cfg.Store.GetScaleRules(ctx, c.cfg.ClusterID)
	if err != nil {
		logger.WithCluster(c.cfg.ClusterID).Warnf("Initial rule fetch failed, starting empty: %v", err)
	} else {
		c.installRuleSet(snapshot)
	}

	c.running = true
	c.wg.Add(1)
	go c.run()

	logger.WithCluster(c.cfg.ClusterID).Infof(
		"Scaler controller started (%d rules, sample=%s, refresh=%s)",
		c.ruleSet.Len(), c.cfg.SampleInterval, c.cfg.RefreshInterval,
	)
	return nil
}

// Stop cancels the timers and discards pending state. Replies arriving
// afterwards are dropped.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	logger.WithCluster(c.cfg.ClusterID).Info("Scaler controller stopped")
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) ClusterID() string {
	return c.cfg.ClusterID
}

// RuleSnapshot returns the currently installed specs, keyed by SKU.
func (c *Controller) RuleSnapshot(ctx context.Context) (map[string]models.ScaleSpec, error) {
	q := ruleSetQuery{reply: make(chan map[string]models.ScaleSpec, 1)}
	if !c.post(q) {
		return nil, ErrStopped
	}
	select {
	case specs := <-q.reply:
		return specs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrStopped
	}
}

// PendingScaleDowns returns the live pending table, for diagnostics.
func (c *Controller) PendingScaleDowns(ctx context.Context) ([]models.PendingScaleDown, error) {
	q := pendingQuery{reply: make(chan []models.PendingScaleDown, 1)}
	if !c.post(q) {
		return nil, ErrStopped
	}
	select {
	case pending := <-q.reply:
		return pending, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrStopped
	}
}

func (c *Controller) post(m message) bool {
	select {
	case c.mailbox <- m:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Controller) run() {
	defer c.wg.Done()

	sample := time.NewTicker(c.cfg.SampleInterval)
	defer sample.Stop()
	refresh := time.NewTicker(c.cfg.RefreshInterval)
	defer refresh.Stop()

	// Sample immediately on boot
	c.handle(sampleTick{})

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-sample.C:
			c.handle(sampleTick{})
		case <-refresh.C:
			c.handle(refreshTick{})
		case m := <-c.mailbox:
			c.handle(m)
		}
	}
}

func (c *Controller) handle(m message) {
	switch msg := m.(type) {
	case sampleTick:
		c.handleSampleTick()
	case refreshTick:
		c.handleRefreshTick()
	case usageResult:
		c.handleUsageResult(msg)
	case idleResult:
		c.handleIdleResult(msg)
	case rulesResult:
		c.handleRulesResult(msg)
	case ruleSetQuery:
		msg.reply <- c.ruleSet.Specs()
	case pendingQuery:
		msg.reply <- c.pendingSnapshot()
	}
}

func (c *Controller) handleSampleTick() {
	c.sweepPending()

	if c.usageInFlightAt != nil && c.clock.Now().Sub(*c.usageInFlightAt) < c.cfg.RequestTimeout {
		logger.WithCluster(c.cfg.ClusterID).Debug("Usage query still in flight, skipping tick")
		return
	}

	now := c.clock.Now()
	c.usageInFlightAt = &now

	req := models.GetClusterUsageRequest{ClusterID: c.cfg.ClusterID}
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
		defer cancel()
		resp, err := c.cfg.Cluster.GetClusterUsage(ctx, req)
		c.post(usageResult{resp: resp, err: err})
	}()
}

func (c *Controller) handleUsageResult(msg usageResult) {
	c.usageInFlightAt = nil

	if msg.err != nil {
		logger.WithCluster(c.cfg.ClusterID).Warnf("Usage query failed: %v", msg.err)
		metrics.Get().IncSampleErrors(c.cfg.ClusterID)
		return
	}
	if msg.resp.ClusterID != c.cfg.ClusterID {
		logger.WithCluster(c.cfg.ClusterID).Debugf(
			"Dropping usage response for cluster %q", msg.resp.ClusterID,
		)
		metrics.Get().IncDroppedReplies(c.cfg.ClusterID)
		return
	}

	usage := msg.resp.Usage()
	metrics.Get().IncSamples(c.cfg.ClusterID)
	c.cfg.Publisher.UsageSampled(c.cfg.ClusterID, usage)

	usageBySku := make(map[string]models.UsageByMachineDefinition, len(usage.Usages))
	for _, u := range usage.Usages {
		usageBySku[u.Def.SkuID] = u
	}

	for _, decision := range c.evaluator.Evaluate(c.ruleSet, usage) {
		metrics.Get().IncDecision(c.cfg.ClusterID, string(decision.Type))
		c.cfg.Publisher.DecisionMade(c.cfg.ClusterID, decision)

		switch decision.Type {
		case models.ScaleUp:
			c.dispatchAsync(decision, nil)
		case models.ScaleDown:
			c.resolveIdle(decision, usageBySku[decision.SkuID])
		}
	}
}

// resolveIdle starts the second stage of a scale-down: ask the cluster
// which executors may be shut down and park the decision until the reply
// arrives.
func (c *Controller) resolveIdle(decision models.ScaleDecision, usage models.UsageByMachineDefinition) {
	maxCount := usage.TotalCount - decision.DesireSize
	if maxCount <= 0 {
		logger.WithSku(c.cfg.ClusterID, decision.SkuID).Warnf(
			"Skipping idle query: desire %d >= total %d", decision.DesireSize, usage.TotalCount,
		)
		return
	}

	key := pendingKey{skuID: decision.SkuID, desireSize: decision.DesireSize}
	c.pending[key] = pendingEntry{decision: decision, createdAt: c.clock.Now()}
	metrics.Get().SetPendingCount(c.cfg.ClusterID, len(c.pending))

	req := models.GetClusterIdleInstancesRequest{
		ClusterID:        c.cfg.ClusterID,
		SkuID:            decision.SkuID,
		Def:              usage.Def,
		DesireSize:       decision.DesireSize,
		MaxInstanceCount: maxCount,
	}
	c.cfg.Publisher.IdleQuerySent(c.cfg.ClusterID, req)

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
		defer cancel()
		resp, err := c.cfg.Cluster.GetClusterIdleInstances(ctx, req)
		c.post(idleResult{resp: resp, err: err})
	}()
}

func (c *Controller) handleIdleResult(msg idleResult) {
	if msg.err != nil {
		// The pending entry stays; it is swept once it outlives the window.
		logger.WithCluster(c.cfg.ClusterID).Warnf("Idle instance query failed: %v", msg.err)
		return
	}
	if msg.resp.ClusterID != c.cfg.ClusterID {
		logger.WithCluster(c.cfg.ClusterID).Debugf(
			"Dropping idle reply for cluster %q", msg.resp.ClusterID,
		)
		metrics.Get().IncDroppedReplies(c.cfg.ClusterID)
		return
	}

	key := pendingKey{skuID: msg.resp.SkuID, desireSize: msg.resp.DesireSize}
	entry, ok := c.pending[key]
	if !ok {
		logger.WithSku(c.cfg.ClusterID, msg.resp.SkuID).Debugf(
			"No pending scale-down for desire %d, dropping reply", msg.resp.DesireSize,
		)
		metrics.Get().IncDroppedReplies(c.cfg.ClusterID)
		return
	}

	delete(c.pending, key)
	metrics.Get().SetPendingCount(c.cfg.ClusterID, len(c.pending))
	c.dispatchAsync(entry.decision, msg.resp.InstanceIDs)
}

func (c *Controller) handleRefreshTick() {
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
		defer cancel()
		snapshot, err := c.cfg.Store.GetScaleRules(ctx, c.cfg.ClusterID)
		c.post(rulesResult{snapshot: snapshot, err: err})
	}()
}

func (c *Controller) handleRulesResult(msg rulesResult) {
	if msg.err != nil {
		logger.WithCluster(c.cfg.ClusterID).Warnf(
			"Rule refresh failed, keeping previous rule set: %v", msg.err,
		)
		return
	}
	c.installRuleSet(msg.snapshot)
}

func (c *Controller) installRuleSet(snapshot *models.RuleSetSnapshot) {
	c.ruleSet = rule.FromSnapshot(c.cfg.ClusterID, snapshot, c.clock)
	metrics.Get().SetRuleCount(c.cfg.ClusterID, c.ruleSet.Len())
	metrics.Get().IncRuleReloads(c.cfg.ClusterID)
	c.cfg.Publisher.RulesReloaded(c.cfg.ClusterID, c.ruleSet.Keys())

	logger.WithCluster(c.cfg.ClusterID).Infof("Rule set installed: %d rules", c.ruleSet.Len())
}

func (c *Controller) dispatchAsync(decision models.ScaleDecision, idleInstances []string) {
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
		defer cancel()
		// Errors are handled inside the dispatcher; cooldown is already
		// recorded, so the rule re-fires from a fresh snapshot after it.
		_ = c.cfg.Dispatcher.Dispatch(ctx, decision, idleInstances)
	}()
}

// sweepPending drops entries older than twice the sample interval whose
// idle reply never came back.
func (c *Controller) sweepPending() {
	expiry := 2 * c.cfg.SampleInterval
	now := c.clock.Now()

	for key, entry := range c.pending {
		if now.Sub(entry.createdAt) <= expiry {
			continue
		}
		delete(c.pending, key)
		metrics.Get().IncPendingExpired(c.cfg.ClusterID)
		c.cfg.Publisher.PendingExpired(c.cfg.ClusterID, models.PendingScaleDown{
			SkuID:      key.skuID,
			DesireSize: key.desireSize,
			CreatedAt:  entry.createdAt,
		})
	}
	metrics.Get().SetPendingCount(c.cfg.ClusterID, len(c.pending))
}

func (c *Controller) pendingSnapshot() []models.PendingScaleDown {
	pending := make([]models.PendingScaleDown, 0, len(c.pending))
	for key, entry := range c.pending {
		pending = append(pending, models.PendingScaleDown{
			SkuID:      key.skuID,
			DesireSize: key.desireSize,
			CreatedAt:  entry.createdAt,
		})
	}
	return pending
}
