package leaderboard

import (
	"container/list"
	"sort"
)

// variantRegistry remembers the most recently requested leaderboard sizes so
// invalidation knows which keys exist. Not safe for concurrent use.
type variantRegistry struct {
	capacity int
	order    *list.List // front = most recently requested
	index    map[int]*list.Element
}

func newVariantRegistry(capacity int) *variantRegistry {
	if capacity < 1 {
		capacity = 1
	}
	return &variantRegistry{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[int]*list.Element),
	}
}

// touch records topN as requested and returns the variants evicted to make room.
func (r *variantRegistry) touch(topN int) []int {
	if el, ok := r.index[topN]; ok {
		r.order.MoveToFront(el)
		return nil
	}
	r.index[topN] = r.order.PushFront(topN)

	var evicted []int
	for r.order.Len() > r.capacity {
		oldest := r.order.Back()
		n := r.order.Remove(oldest).(int)
		delete(r.index, n)
		evicted = append(evicted, n)
	}
	return evicted
}

// all returns the registered variants in ascending order.
func (r *variantRegistry) all() []int {
	out := make([]int, 0, len(r.index))
	for n := range r.index {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
