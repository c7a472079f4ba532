package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"2.39-2", "2.39-1", 1},
		{"1:1.0", "2.0", 1},
		{"6.9.10", "6.9.9", 1},
		{"1.0", "1.0.1", -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CompareVersions(c.a, c.b), "%s vs %s", c.a, c.b)
	}
}

func TestRequirementSatisfied(t *testing.T) {
	assert.True(t, RequirementSatisfied("2.39-1", ""))
	assert.True(t, RequirementSatisfied("2.39-1", ">=2.38"))
	assert.False(t, RequirementSatisfied("2.37", ">=2.38"))
	assert.True(t, RequirementSatisfied("1.0", "=1.0"))
	assert.False(t, RequirementSatisfied("1.1", "<1.1"))
	assert.True(t, RequirementSatisfied("", ">=9.9"), "unknown installed version is treated as satisfying")
}
