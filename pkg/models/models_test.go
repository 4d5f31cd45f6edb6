package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSpec() ScaleSpec {
	return ScaleSpec{
		ClusterID:     "clusterId",
		SkuID:         "small",
		MinSize:       11,
		MaxSize:       15,
		MinIdleToKeep: 5,
		MaxIdleToKeep: 10,
		CoolDownSecs:  10,
	}
}

func TestScaleSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScaleSpec)
		wantErr bool
	}{
		{"valid", func(s *ScaleSpec) {}, false},
		{"zero sizes allowed", func(s *ScaleSpec) { s.MinSize = 0; s.MaxSize = 0 }, false},
		{"zero cooldown allowed", func(s *ScaleSpec) { s.CoolDownSecs = 0 }, false},
		{"missing cluster id", func(s *ScaleSpec) { s.ClusterID = "" }, true},
		{"missing sku id", func(s *ScaleSpec) { s.SkuID = "" }, true},
		{"negative min size", func(s *ScaleSpec) { s.MinSize = -1 }, true},
		{"max below min", func(s *ScaleSpec) { s.MinSize = 5; s.MaxSize = 4 }, true},
		{"negative min idle", func(s *ScaleSpec) { s.MinIdleToKeep = -1 }, true},
		{"max idle below min idle", func(s *ScaleSpec) { s.MinIdleToKeep = 6; s.MaxIdleToKeep = 5 }, true},
		{"negative cooldown", func(s *ScaleSpec) { s.CoolDownSecs = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			err := spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsageByMachineDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		idle    int
		total   int
		wantErr bool
	}{
		{"valid", 4, 10, false},
		{"all idle", 10, 10, false},
		{"empty", 0, 0, false},
		{"idle exceeds total", 11, 10, true},
		{"negative idle", -1, 10, true},
		{"negative total", 0, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := UsageByMachineDefinition{
				Def:        SkuDefinition{SkuID: "small"},
				IdleCount:  tt.idle,
				TotalCount: tt.total,
			}

			err := u.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetClusterUsageResponse_Usage(t *testing.T) {
	resp := GetClusterUsageResponse{
		ClusterID: "clusterId",
		Usages: []UsageByMachineDefinition{
			{Def: SkuDefinition{SkuID: "small"}, IdleCount: 4, TotalCount: 10},
		},
	}

	usage := resp.Usage()
	assert.Equal(t, "clusterId", usage.ClusterID)
	assert.Len(t, usage.Usages, 1)
}

func TestNewEvent_Defaults(t *testing.T) {
	event := NewEvent(EventTypeDecisionMade, "clusterId", "decided")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, SeverityInfo, event.Severity)
	assert.False(t, event.Timestamp.IsZero())

	event.WithSeverity(SeverityWarning).WithSku("small").WithTraceID("trace-1")
	assert.Equal(t, SeverityWarning, event.Severity)
	assert.Equal(t, "small", event.SkuID)
	assert.Equal(t, "trace-1", event.TraceID)
}
