package services

import (
	"sort"
	"sync"
)

// roomLocks serializes "check overlap, then commit" per room. Locks are
// always acquired in ascending room-id order so a booking spanning several
// rooms cannot deadlock against another one.
type roomLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{m: make(map[uint]*sync.Mutex)}
}

func (l *roomLocks) get(roomID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	rm, ok := l.m[roomID]
	if !ok {
		rm = &sync.Mutex{}
		l.m[roomID] = rm
	}
	return rm
}

// lockAll locks the given rooms (deduplicated, ascending) and returns the
// matching unlock function.
func (l *roomLocks) lockAll(roomIDs []uint) func() {
	ids := make([]uint, 0, len(roomIDs))
	seen := make(map[uint]bool, len(roomIDs))
	for _, id := range roomIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		rm := l.get(id)
		rm.Lock()
		locked = append(locked, rm)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
