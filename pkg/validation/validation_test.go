package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateClusterID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "clusterId", false},
		{"with hyphens", "prod-cluster-1", false},
		{"with underscores", "prod_cluster", false},
		{"single char", "c", false},
		{"empty", "", true},
		{"leading hyphen", "-cluster", true},
		{"spaces", "my cluster", true},
		{"path traversal", "../etc", true},
		{"too long", strings.Repeat("a", 200), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClusterID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "ab", SanitizeString("a\x1bb"))
}
