// Package query memoises per-node computations keyed by (node, env).
//
// A Table runs each key's computation at most once at a time. Concurrent
// requests for a key that is being computed wait for the result; a request
// from the goroutine that is already computing it is a dependency cycle and
// panics with *CycleError.
package query

import (
	"fmt"
	"sync"
	"sync/atomic"

	"svir/internal/hir"
	"svir/internal/trace"
)

// Key identifies one memoised result.
type Key struct {
	Node hir.NodeID
	Env  hir.ParamEnv
}

func (k Key) String() string {
	return fmt.Sprintf("%d@%d", k.Node, k.Env)
}

// CycleError reports that computing Key required its own result.
type CycleError struct {
	Table string
	Key   Key
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("query %s: cycle while computing %s", e.Table, e.Key)
}

type entry[V any] struct {
	done   chan struct{}
	owner  uint64
	val    V
	failed bool
}

// Table is a memo table for one query.
type Table[V any] struct {
	name    string
	mu      sync.Mutex
	entries map[Key]*entry[V]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewTable creates an empty table; name appears in cycle errors and stats.
func NewTable[V any](name string) *Table[V] {
	return &Table[V]{name: name, entries: make(map[Key]*entry[V])}
}

// Name returns the query name.
func (t *Table[V]) Name() string { return t.name }

// Get returns the memoised value for key, running compute on a miss.
// A panic inside compute drops the entry and propagates.
func (t *Table[V]) Get(key Key, compute func() V) V {
	gid := trace.GoroutineID()
	for {
		t.mu.Lock()
		e, ok := t.entries[key]
		if !ok {
			e = &entry[V]{done: make(chan struct{}), owner: gid}
			t.entries[key] = e
			t.mu.Unlock()
			t.misses.Add(1)
			return t.run(key, e, compute)
		}
		t.mu.Unlock()

		select {
		case <-e.done:
			if !e.failed {
				t.hits.Add(1)
				return e.val
			}
			// the computing goroutine panicked; try again
		default:
			if e.owner == gid {
				panic(&CycleError{Table: t.name, Key: key})
			}
			<-e.done
		}
	}
}

func (t *Table[V]) run(key Key, e *entry[V], compute func() V) (v V) {
	ok := false
	defer func() {
		if !ok {
			t.mu.Lock()
			delete(t.entries, key)
			t.mu.Unlock()
			e.failed = true
		}
		close(e.done)
	}()
	v = compute()
	e.val = v
	ok = true
	return v
}

// Peek returns the stored value without computing it.
func (t *Table[V]) Peek(key Key) (V, bool) {
	t.mu.Lock()
	e, ok := t.entries[key]
	t.mu.Unlock()
	var zero V
	if !ok {
		return zero, false
	}
	select {
	case <-e.done:
		if e.failed {
			return zero, false
		}
		return e.val, true
	default:
		return zero, false
	}
}

// Stats is a snapshot of table counters.
type Stats struct {
	Name    string
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats returns the current counters.
func (t *Table[V]) Stats() Stats {
	t.mu.Lock()
	n := len(t.entries)
	t.mu.Unlock()
	return Stats{Name: t.name, Entries: n, Hits: t.hits.Load(), Misses: t.misses.Load()}
}

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d entries, %d hits, %d misses", s.Name, s.Entries, s.Hits, s.Misses)
}
