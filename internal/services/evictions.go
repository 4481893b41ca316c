package services

import "sync"

// evictionToken identifies the eviction state of one scope at a point in time.
type evictionToken struct {
	all   uint64
	scope uint64
}

// evictionLog counts evictions so a read that was in flight while a mutation
// evicted its scope does not write its stale response back into the cache.
type evictionLog struct {
	mu     sync.Mutex
	all    uint64
	scopes map[string]uint64
}

func (l *evictionLog) token(scope string) evictionToken {
	l.mu.Lock()
	defer l.mu.Unlock()
	return evictionToken{all: l.all, scope: l.scopes[scope]}
}

func (l *evictionLog) evicted(scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scopes == nil {
		l.scopes = make(map[string]uint64)
	}
	l.scopes[scope]++
}

func (l *evictionLog) cleared() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all++
}
