package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func series(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		out[i] = ptr(v)
	}
	return out
}

func TestComputeDirectionImproving(t *testing.T) {
	// firstHalf mean 90.0, secondHalf mean 95.5, diff 5.5
	got := ComputeDirection(series(90, 91, 89, 90, 95, 96, 94, 97))
	assert.Equal(t, TrendImproving, got)
}

func TestComputeDirectionDeclining(t *testing.T) {
	got := ComputeDirection(series(97, 96, 95, 94, 90, 89, 91, 90))
	assert.Equal(t, TrendDeclining, got)
}

func TestComputeDirectionStableWithinDelta(t *testing.T) {
	got := ComputeDirection(series(90, 90, 90.5, 90.5))
	assert.Equal(t, TrendStable, got)
}

func TestComputeDirectionTooFewSamples(t *testing.T) {
	assert.Equal(t, TrendStable, ComputeDirection(series(80, 95, 99)))
	assert.Equal(t, TrendStable, ComputeDirection(nil))
}

func TestComputeDirectionSkipsNilDays(t *testing.T) {
	s := []*float64{ptr(90), nil, ptr(91), ptr(89), nil, ptr(90), ptr(95), ptr(96), ptr(94), ptr(97), nil}
	assert.Equal(t, TrendImproving, ComputeDirection(s))
}

func TestComputeDirectionOddCountMiddleInFirstHalf(t *testing.T) {
	// 5 values: first half is 3, second half is 2
	// first mean 90, second mean 95 => improving
	got := ComputeDirection(series(90, 90, 90, 95, 95))
	assert.Equal(t, TrendImproving, got)
}
