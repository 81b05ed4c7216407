// Package dedup tracks already-processed message IDs so redelivered
// messages are acted on at most once.
package dedup

import (
	"container/list"
	"sync"
)

const DefaultCapacity = 4096

// Guard is a bounded set of processed message IDs. When the capacity is
// reached the oldest entry is evicted, so the window must stay larger than
// the transport's redelivery latency.
type Guard struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	seen     map[string]*list.Element
}

func NewGuard(capacity int) *Guard {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Guard{
		capacity: capacity,
		order:    list.New(),
		seen:     make(map[string]*list.Element, capacity),
	}
}

// CheckAndInsert records id and reports whether it was seen for the first
// time. Check and insert happen under one lock so two concurrent deliveries
// of the same ID can never both pass.
func (g *Guard) CheckAndInsert(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[id]; ok {
		return false
	}

	g.seen[id] = g.order.PushBack(id)
	if g.order.Len() > g.capacity {
		oldest := g.order.Front()
		g.order.Remove(oldest)
		delete(g.seen, oldest.Value.(string))
	}
	return true
}

// Contains reports whether id is currently tracked.
func (g *Guard) Contains(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[id]
	return ok
}

// Len returns the number of tracked IDs.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}
