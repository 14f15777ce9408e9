package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantRegistry(t *testing.T) {
	r := newVariantRegistry(2)

	assert.Empty(t, r.touch(10))
	assert.Empty(t, r.touch(5))
	// Re-touching keeps 10 fresh so 5 is the eviction candidate.
	assert.Empty(t, r.touch(10))
	assert.Equal(t, []int{5}, r.touch(3))
	assert.Equal(t, []int{3, 10}, r.all())
}

func TestVariantRegistry_MinimumCapacity(t *testing.T) {
	r := newVariantRegistry(0)
	assert.Empty(t, r.touch(1))
	assert.Equal(t, []int{1}, r.touch(2))
	assert.Equal(t, []int{2}, r.all())
}
