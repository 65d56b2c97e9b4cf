package services

import (
	"sort"
	"sync"

	"hms-backend/domain"
	"hms-backend/models"
)

type indexHold struct {
	stayID    uint
	bookingID uint
	iv        domain.Interval
}

// AvailabilityIndex keeps, per room, the committed (non-cancelled) stay
// intervals ordered by check-in date. It is a read index over the booking
// store: the coordinator updates it under its room locks whenever a stay's
// status-relevant booking state changes, and it never becomes a source of
// truth on its own — CreateBooking re-validates against the store.
type AvailabilityIndex struct {
	mu     sync.RWMutex
	byRoom map[uint][]indexHold
}

func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{byRoom: make(map[uint][]indexHold)}
}

// Rebuild replaces the index contents with the given committed stays.
func (ix *AvailabilityIndex) Rebuild(stays []models.RoomStay) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.byRoom = make(map[uint][]indexHold)
	for i := range stays {
		s := &stays[i]
		ix.insertLocked(s.RoomID, indexHold{stayID: s.ID, bookingID: s.BookingID, iv: s.Interval()})
	}
}

// Reserve inserts a stay interval for a room. It fails with OverlapConflict
// if the interval overlaps an existing hold for that room.
func (ix *AvailabilityIndex) Reserve(roomID, stayID, bookingID uint, iv domain.Interval) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, h := range ix.neighborsLocked(roomID, iv) {
		if h.iv.Overlaps(iv) {
			return &domain.OverlapConflictError{RoomID: roomID, Interval: iv}
		}
	}
	ix.insertLocked(roomID, indexHold{stayID: stayID, bookingID: bookingID, iv: iv})
	return nil
}

// Release removes the hold for a stay, if present.
func (ix *AvailabilityIndex) Release(roomID, stayID uint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	holds := ix.byRoom[roomID]
	for i := range holds {
		if holds[i].stayID == stayID {
			ix.byRoom[roomID] = append(holds[:i], holds[i+1:]...)
			return
		}
	}
}

// Free reports whether the room has no committed hold overlapping iv.
func (ix *AvailabilityIndex) Free(roomID uint, iv domain.Interval) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, h := range ix.neighborsLocked(roomID, iv) {
		if h.iv.Overlaps(iv) {
			return false
		}
	}
	return true
}

// insertLocked keeps holds sorted by check-in so lookups can binary-search.
func (ix *AvailabilityIndex) insertLocked(roomID uint, h indexHold) {
	holds := ix.byRoom[roomID]
	pos := sort.Search(len(holds), func(i int) bool {
		return !holds[i].iv.CheckIn.Before(h.iv.CheckIn)
	})
	holds = append(holds, indexHold{})
	copy(holds[pos+1:], holds[pos:])
	holds[pos] = h
	ix.byRoom[roomID] = holds
}

// neighborsLocked narrows the sorted hold list to the entries that could
// overlap iv: everything starting before iv.CheckOut. The caller still runs
// the exact overlap predicate on the result.
func (ix *AvailabilityIndex) neighborsLocked(roomID uint, iv domain.Interval) []indexHold {
	holds := ix.byRoom[roomID]
	end := sort.Search(len(holds), func(i int) bool {
		return !holds[i].iv.CheckIn.Before(iv.CheckOut)
	})
	return holds[:end]
}
