// Package session holds the in-memory draft orders keyed by
// conversation session id. The table is the only mutable shared state
// in the service: operations on different sessions proceed
// independently, operations on the same session are serialized by a
// per-entry lock so a commit can never observe a half-mutated draft.
package session

import (
	"sync"
	"time"
)

// Table maps session ids to draft orders
type Table struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	mu      sync.Mutex
	draft   *Draft
	touched time.Time
	removed bool
}

// New creates a session table. Entries untouched for longer than ttl
// are treated as absent and dropped on next access to their key;
// ttl <= 0 keeps entries until commit removes them.
func New(ttl time.Duration) *Table {
	return &Table{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Contains reports whether a live draft exists for the session
func (t *Table) Contains(id string) bool {
	e := t.acquire(id, false)
	if e == nil {
		return false
	}
	e.mu.Unlock()
	return true
}

// Upsert runs fn against the session's draft under the entry lock,
// creating an empty draft first if the session has none.
func (t *Table) Upsert(id string, fn func(*Draft)) {
	e := t.acquire(id, true)
	fn(e.draft)
	e.mu.Unlock()
}

// Modify runs fn against an existing session's draft under the entry
// lock. It returns false without calling fn when the session has no draft.
func (t *Table) Modify(id string, fn func(*Draft)) bool {
	e := t.acquire(id, false)
	if e == nil {
		return false
	}
	fn(e.draft)
	e.mu.Unlock()
	return true
}

// Commit runs fn against an existing session's draft, holding the entry
// lock for fn's entire duration. The entry is removed only when fn
// returns nil, so a failed commit leaves the draft in place and a
// concurrent operation on the same session either sees the draft before
// the commit or finds the session gone, never an in-between state.
// The returned bool reports whether a draft existed.
func (t *Table) Commit(id string, fn func(*Draft) error) (bool, error) {
	e := t.acquire(id, false)
	if e == nil {
		return false, nil
	}
	err := fn(e.draft)
	if err == nil {
		t.remove(id, e)
	}
	e.mu.Unlock()
	return true, err
}

// Remove drops the session's draft, if any, and reports whether one existed
func (t *Table) Remove(id string) bool {
	e := t.acquire(id, false)
	if e == nil {
		return false
	}
	t.remove(id, e)
	e.mu.Unlock()
	return true
}

// Len returns the number of live sessions
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// acquire returns the session's entry with its lock held, or nil when
// the session does not exist (or has expired) and create is false.
// The loop re-checks after the entry lock is taken: a waiter blocked
// behind a successful commit finds removed set and starts over.
func (t *Table) acquire(id string, create bool) *entry {
	for {
		t.mu.Lock()
		e, ok := t.sessions[id]
		if !ok {
			if !create {
				t.mu.Unlock()
				return nil
			}
			e = &entry{draft: NewDraft(), touched: t.now()}
			t.sessions[id] = e
		}
		t.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		if t.ttl > 0 && t.now().Sub(e.touched) > t.ttl {
			t.remove(id, e)
			e.mu.Unlock()
			if !create {
				return nil
			}
			continue
		}
		e.touched = t.now()
		return e
	}
}

// remove deletes the entry from the table. Caller holds e.mu.
func (t *Table) remove(id string, e *entry) {
	e.removed = true
	t.mu.Lock()
	if t.sessions[id] == e {
		delete(t.sessions, id)
	}
	t.mu.Unlock()
}
