package utils

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestJoinFloat64Slice(t *testing.T) {
	assert.Equal(t, "", JoinFloat64Slice(nil))
	assert.Equal(t, "0,1,42.5,-80.9355,1000000,0.000001", JoinFloat64Slice([]float64{0, 1, 42.5, -80.9355, 1e6, 1e-6}))
}
