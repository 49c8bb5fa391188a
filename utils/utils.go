package utils

import (
	// Go Internal Packages
	"strconv"
	"strings"
)

// JoinFloat64Slice renders values as one comma separated line using the
// shortest fixed-point form of each value.
func JoinFloat64Slice(values []float64) string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(strs, ",")
}
