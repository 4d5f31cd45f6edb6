package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

const testClusterID = "clusterId"

func testSpec(coolDownSecs, maxIdle int) models.ScaleSpec {
	return models.ScaleSpec{
		ClusterID:     testClusterID,
		SkuID:         "small",
		MinSize:       11,
		MaxSize:       15,
		MinIdleToKeep: 5,
		MaxIdleToKeep: maxIdle,
		CoolDownSecs:  coolDownSecs,
	}
}

func testUsage(idle, total int) models.UsageByMachineDefinition {
	return models.UsageByMachineDefinition{
		Def: models.SkuDefinition{
			SkuID:   "small",
			Machine: models.MachineDefinition{CPUCores: 2, MemoryMB: 2048, NetworkMbps: 700, DiskMB: 10240, NumPorts: 5},
		},
		IdleCount:  idle,
		TotalCount: total,
	}
}

func pinned(size int, scaleType models.ScaleType) *models.ScaleDecision {
	return &models.ScaleDecision{
		ClusterID:  testClusterID,
		SkuID:      "small",
		Type:       scaleType,
		DesireSize: size,
		MinSize:    size,
		MaxSize:    size,
	}
}

func TestAvailabilityRule_Apply(t *testing.T) {
	tests := []struct {
		name     string
		maxIdle  int
		idle     int
		total    int
		expected *models.ScaleDecision
	}{
		{
			name:     "scale up to cover idle shortfall",
			maxIdle:  10,
			idle:     4,
			total:    10,
			expected: pinned(11, models.ScaleUp),
		},
		{
			name:     "within idle band emits nothing",
			maxIdle:  10,
			idle:     9,
			total:    11,
			expected: nil,
		},
		{
			name:     "scale up clamped to max size",
			maxIdle:  10,
			idle:     0,
			total:    11,
			expected: pinned(15, models.ScaleUp),
		},
		{
			name:     "scale down sheds excess idle",
			maxIdle:  10,
			idle:     15,
			total:    20,
			expected: pinned(15, models.ScaleDown),
		},
		{
			name:     "scale down clamped to min size",
			maxIdle:  10,
			idle:     15,
			total:    15,
			expected: pinned(11, models.ScaleDown),
		},
		{
			name:     "clamp to total becomes a no-op",
			maxIdle:  10,
			idle:     0,
			total:    15,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAvailabilityRule(
				testSpec(0, tt.maxIdle),
				FixedClock{Instant: time.Unix(1700000000, 0)},
			)

			decision := r.Apply(testUsage(tt.idle, tt.total))
			assert.Equal(t, tt.expected, decision)
		})
	}
}

func TestAvailabilityRule_CoolDown(t *testing.T) {
	r := NewAvailabilityRule(
		testSpec(10, 10),
		FixedClock{Instant: time.Unix(1700000000, 0)},
	)

	usage := testUsage(4, 10)

	decision := r.Apply(usage)
	require.Equal(t, pinned(11, models.ScaleUp), decision)

	// Same shortfall inside the cooldown window is suppressed
	assert.Nil(t, r.Apply(usage))
}

func TestAvailabilityRule_FinishCoolDown(t *testing.T) {
	clock := NewManualClock(time.Unix(1700000000, 0))
	r := NewAvailabilityRule(testSpec(2, 10), clock)

	usage := testUsage(4, 10)

	require.Equal(t, pinned(11, models.ScaleUp), r.Apply(usage))
	assert.Nil(t, r.Apply(usage))

	clock.Advance(3 * time.Second)
	assert.Equal(t, pinned(11, models.ScaleUp), r.Apply(usage))
}

func TestAvailabilityRule_ZeroCoolDownReemits(t *testing.T) {
	r := NewAvailabilityRule(
		testSpec(0, 10),
		FixedClock{Instant: time.Unix(1700000000, 0)},
	)

	usage := testUsage(4, 10)

	assert.Equal(t, pinned(11, models.ScaleUp), r.Apply(usage))
	assert.Equal(t, pinned(11, models.ScaleUp), r.Apply(usage))
}

func TestAvailabilityRule_NoOpDoesNotBurnCoolDown(t *testing.T) {
	r := NewAvailabilityRule(
		testSpec(10, 10),
		FixedClock{Instant: time.Unix(1700000000, 0)},
	)

	// Shortfall clamps to total: no decision, cooldown untouched
	assert.Nil(t, r.Apply(testUsage(0, 15)))

	// A real adjustment right after still fires
	assert.Equal(t, pinned(11, models.ScaleUp), r.Apply(testUsage(4, 10)))
}

func TestAvailabilityRule_DecisionWithinSizeBounds(t *testing.T) {
	spec := testSpec(0, 10)
	r := NewAvailabilityRule(spec, FixedClock{Instant: time.Unix(1700000000, 0)})

	for idle := 0; idle <= 30; idle++ {
		for total := idle; total <= 30; total++ {
			if decision := r.Apply(testUsage(idle, total)); decision != nil {
				assert.GreaterOrEqual(t, decision.DesireSize, spec.MinSize)
				assert.LessOrEqual(t, decision.DesireSize, spec.MaxSize)
				assert.NotEqual(t, total, decision.DesireSize)
			}
		}
	}
}
