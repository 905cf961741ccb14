package crawler

import "sync"

// VisitedSet records every URL a crawl session has claimed. It only grows.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// MarkIfNotVisited inserts u and reports whether it was absent. Check and insert are atomic.
func (v *VisitedSet) MarkIfNotVisited(u string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[u]; ok {
		return false
	}
	v.seen[u] = struct{}{}
	return true
}

func (v *VisitedSet) Contains(u string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[u]
	return ok
}

func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
