package respool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnboundedStrategyOverflow(t *testing.T) {
	s := NewUnboundedStrategy()

	assert.EqualValues(t, math.MaxInt32, s.TryGetPermits(math.MaxInt32))
	assert.EqualValues(t, math.MaxInt32, s.TryGetPermits(math.MaxInt32))
	assert.EqualValues(t, math.MaxInt32, s.EstimatePermits())
}

func TestBoundedStrategyPartialGrant(t *testing.T) {
	s := NewBoundedStrategy(5)

	assert.EqualValues(t, 3, s.TryGetPermits(3))
	assert.EqualValues(t, 2, s.EstimatePermits())

	assert.EqualValues(t, 2, s.TryGetPermits(4), "should grant only the 2 remaining permits, not refuse outright")
	assert.EqualValues(t, 0, s.EstimatePermits())
	assert.EqualValues(t, 5, s.PermitGranted())

	assert.EqualValues(t, 0, s.TryGetPermits(1))

	s.ReturnPermits(2)
	assert.EqualValues(t, 2, s.EstimatePermits())
	assert.EqualValues(t, 2, s.TryGetPermits(2))
}
