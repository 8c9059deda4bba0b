package balance

import (
	"slices"
	"sync"
)

// lockTable hands out one mutex per account id. Entries are reference
// counted and dropped once nobody holds or waits on them.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*accountLock)}
}

// acquire locks every id in ascending order and returns a func that
// releases them. Duplicate ids are locked once.
func (t *lockTable) acquire(ids []string) (release func()) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	held := make([]*accountLock, 0, len(ordered))
	for _, id := range ordered {
		l := t.ref(id)
		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			t.unref(ordered[i])
		}
	}
}

func (t *lockTable) ref(id string) *accountLock {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &accountLock{}
		t.locks[id] = l
	}
	l.refs++
	return l
}

func (t *lockTable) unref(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(t.locks, id)
	}
}

// size reports how many ids currently have a live lock entry.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
