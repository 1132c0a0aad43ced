// Package runner evaluates shared compiled rules against records.
//
// Compiled rules are immutable, so one rule set serves any number of
// workers without copies. Per record, evaluation fans out across a
// bounded pool and results join back in rule-declaration order, keeping
// downstream reporting deterministic regardless of scheduling.
package runner

import (
	"runtime"
	"sync"

	"github.com/bibkit/pica/internal/types"
)

// Pool evaluates a fixed rule list against one record at a time.
type Pool[R, T any] struct {
	workers int
	rules   []R
	eval    func(R, types.Record) T
}

// New builds a pool over rules. A non-positive worker count defaults to
// GOMAXPROCS.
func New[R, T any](workers int, rules []R, eval func(R, types.Record) T) *Pool[R, T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool[R, T]{workers: workers, rules: rules, eval: eval}
}

// Evaluate runs every rule against rec and returns the results in
// rule-declaration order. Each result slot is written by exactly one
// worker.
func (p *Pool[R, T]) Evaluate(rec types.Record) []T {
	results := make([]T, len(p.rules))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for i := range p.rules {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.eval(p.rules[i], rec)
		}(i)
	}
	wg.Wait()
	return results
}

// Seen is the cross-record uniqueness accumulator used by deduplicating
// callers. Keys are copied on insert, so callers may pass slices that
// alias a reused input buffer. Safe for concurrent use.
type Seen struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewSeen returns an empty accumulator.
func NewSeen() *Seen {
	return &Seen{keys: make(map[string]struct{})}
}

// Add records key and reports whether it was seen for the first time.
func (s *Seen) Add(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

// Len returns the number of distinct keys recorded so far.
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
