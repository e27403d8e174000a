package ledger

import (
	"slices"
	"sync"
)

type addrLock struct {
	mu   sync.Mutex
	refs int
}

// LockSet provides the implicit write lock on slots. Two holders of
// overlapping address sets never run concurrently. Addresses are always
// locked in ascending order so overlapping acquisitions can not deadlock.
type LockSet struct {
	mu    sync.Mutex
	locks map[Address]*addrLock
}

func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[Address]*addrLock)}
}

// Acquire blocks until every address is held and returns the release func.
// Duplicate addresses are fine.
func (l *LockSet) Acquire(addrs []Address) func() {
	sorted := slices.Clone(addrs)
	slices.SortFunc(sorted, func(a, b Address) int { return a.Compare(b) })
	sorted = slices.Compact(sorted)

	held := make([]*addrLock, 0, len(sorted))
	for _, addr := range sorted {
		l.mu.Lock()
		al, ok := l.locks[addr]
		if !ok {
			al = &addrLock{}
			l.locks[addr] = al
		}
		al.refs++
		l.mu.Unlock()

		al.mu.Lock()
		held = append(held, al)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			al := held[i]
			al.mu.Unlock()

			l.mu.Lock()
			al.refs--
			if al.refs == 0 {
				delete(l.locks, sorted[i])
			}
			l.mu.Unlock()
		}
	}
}

// Held returns the number of addresses currently locked or waited on
func (l *LockSet) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
