package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/utils"
)

// LifecycleNotifier receives every booking status change. Implementations
// must not block and must not fail the transition.
type LifecycleNotifier interface {
	BookingStatusChanged(b *models.Booking, from domain.BookingStatus, reason string)
}

type StayInput struct {
	RoomID   uint
	CheckIn  time.Time
	CheckOut time.Time
}

type CreateBookingInput struct {
	CustomerID uint
	Stays      []StayInput
	GuestList  []byte
}

// BookingService is the lifecycle coordinator. It is the single owner of
// booking state: every mutation for a given room runs under that room's lock
// around "check overlap, then commit".
type BookingService struct {
	store   Store
	index   *AvailabilityIndex
	locks   *roomLocks
	holdTTL time.Duration

	// Optional collaborators, wired in main.
	Notifier LifecycleNotifier
	Cache    *AvailabilityCache

	now func() time.Time
}

func NewBookingService(store Store, index *AvailabilityIndex, holdTTL time.Duration) *BookingService {
	if holdTTL <= 0 {
		holdTTL = 15 * time.Minute
	}
	return &BookingService{
		store:   store,
		index:   index,
		locks:   newRoomLocks(),
		holdTTL: holdTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RebuildIndex loads every committed stay from the store into the
// availability index. Called once at startup.
func (s *BookingService) RebuildIndex(ctx context.Context) error {
	stays, err := s.store.ListCommittedStays(ctx)
	if err != nil {
		return fmt.Errorf("rebuild availability index: %w", err)
	}
	s.index.Rebuild(stays)
	return nil
}

// CreateBooking reserves the requested rooms and creates a PENDING booking
// with a hold that expires after the configured TTL. All-or-nothing: one
// overlapping stay rejects the whole request.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if len(in.Stays) == 0 {
		return nil, fmt.Errorf("validation: provide at least one room stay")
	}

	if _, err := s.store.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	type plannedStay struct {
		room *models.Room
		iv   domain.Interval
	}
	planned := make([]plannedStay, 0, len(in.Stays))
	roomIDs := make([]uint, 0, len(in.Stays))

	for _, st := range in.Stays {
		iv, err := domain.NewInterval(st.CheckIn, st.CheckOut)
		if err != nil {
			return nil, err
		}
		room, err := s.store.GetRoom(ctx, st.RoomID)
		if err != nil {
			return nil, err
		}
		if room.HousekeepingStatus == string(domain.RoomOutOfService) ||
			room.HousekeepingStatus == string(domain.RoomMaintenance) {
			return nil, fmt.Errorf("validation: room %d is %s", room.ID, room.HousekeepingStatus)
		}
		planned = append(planned, plannedStay{room: room, iv: iv})
		roomIDs = append(roomIDs, room.ID)
	}

	unlock := s.locks.lockAll(roomIDs)
	defer unlock()

	for _, p := range planned {
		if !s.index.Free(p.room.ID, p.iv) {
			return nil, &domain.OverlapConflictError{RoomID: p.room.ID, Interval: p.iv}
		}
	}

	now := s.now()
	holdExpiry := now.Add(s.holdTTL)

	booking := &models.Booking{
		CustomerID:    in.CustomerID,
		ReferenceCode: utils.GenerateBookingCode(),
		Status:        domain.BookingPending,
		HoldExpiresAt: &holdExpiry,
		GuestList:     datatypes.JSON(in.GuestList),
	}
	for _, p := range planned {
		nights := p.iv.Nights()
		booking.Stays = append(booking.Stays, models.RoomStay{
			RoomID:       p.room.ID,
			CheckInDate:  p.iv.CheckIn,
			CheckOutDate: p.iv.CheckOut,
			Nights:       nights,
			RateCents:    p.room.PriceCents,
			ChargeCents:  p.room.PriceCents * int64(nights),
			Status:       domain.StayReserved,
			Room:         *p.room,
		})
	}
	booking.RecomputeTotal()

	// Commit-time re-validation happens inside the store; the index check
	// above is the fast path, this one closes the race for good.
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	for i := range booking.Stays {
		st := &booking.Stays[i]
		if err := s.index.Reserve(st.RoomID, st.ID, booking.ID, st.Interval()); err != nil {
			// Cannot happen while the room locks are held; the store insert
			// above would have failed first.
			log.Printf("warning: index reserve after commit failed for stay %d: %v", st.ID, err)
		}
	}

	s.notify(booking, "", "")
	s.invalidateAvailability(ctx, booking)
	return booking, nil
}

// WalkInBooking creates, confirms and checks in a booking in one step for a
// guest standing at the front desk. The stay starts today.
func (s *BookingService) WalkInBooking(ctx context.Context, customerID uint, roomIDs []uint, checkOut time.Time, guestList []byte) (*models.Booking, error) {
	today := domain.Midnight(s.now())
	in := CreateBookingInput{CustomerID: customerID, GuestList: guestList}
	for _, roomID := range roomIDs {
		in.Stays = append(in.Stays, StayInput{RoomID: roomID, CheckIn: today, CheckOut: checkOut})
	}

	booking, err := s.CreateBooking(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConfirmBooking(ctx, booking.ID); err != nil {
		return nil, err
	}
	return s.CheckIn(ctx, booking.ID, nil)
}

// GetBooking loads a booking. A PENDING booking past its hold expiry is
// transitioned to CANCELLED(EXPIRED) before it is returned; no reader ever
// observes a lapsed hold as still PENDING.
func (s *BookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.HoldExpired(s.now()) {
		return s.expireBooking(ctx, b.ID)
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	return s.store.ListBookings(ctx, f)
}

// ConfirmBooking moves PENDING -> CONFIRMED and clears the hold.
func (s *BookingService) ConfirmBooking(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.HoldExpired(s.now()) {
		expiredAt := *b.HoldExpiresAt
		if _, err := s.expireBooking(ctx, b.ID); err != nil {
			return nil, err
		}
		return nil, &domain.ExpiredError{BookingID: b.ID, ExpiredAt: expiredAt}
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if b.HoldExpired(now) {
		expiredAt := *b.HoldExpiresAt
		s.cancelLocked(ctx, b, domain.CancelReasonExpired)
		return nil, &domain.ExpiredError{BookingID: b.ID, ExpiredAt: expiredAt}
	}
	if b.Status != domain.BookingPending {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "confirm"}
	}

	from := b.Status
	b.Status = domain.BookingConfirmed
	b.HoldExpiresAt = nil
	b.ConfirmedAt = &now
	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}

	s.notify(b, from, "")
	return b, nil
}

// CancelBooking cancels a PENDING or CONFIRMED booking and releases its
// rooms. Checked-in, checked-out and already-cancelled bookings reject it.
func (s *BookingService) CancelBooking(ctx context.Context, id uint, reason string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.HoldExpired(s.now()) {
		return s.cancelLocked(ctx, b, domain.CancelReasonExpired)
	}
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "cancel"}
	}
	if reason == "" {
		reason = string(domain.CancelReasonRequested)
	}
	return s.cancelLocked(ctx, b, domain.CancelReason(reason))
}

// CheckIn moves a CONFIRMED booking to CHECKED_IN. Empty stayIDs means every
// reserved stay. A CHECKED_IN booking still accepts check-in of its remaining
// reserved stays. The current date must fall inside each stay's window and no
// other active stay may occupy the room.
func (s *BookingService) CheckIn(ctx context.Context, id uint, stayIDs []uint) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingConfirmed && b.Status != domain.BookingCheckedIn {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "check-in"}
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingConfirmed && b.Status != domain.BookingCheckedIn {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "check-in"}
	}

	now := s.now()
	today := domain.Midnight(now)

	stays, err := selectStays(b, stayIDs, domain.StayReserved, "check-in")
	if err != nil {
		return nil, err
	}

	occupied, err := s.store.ListStaysCovering(ctx, today)
	if err != nil {
		return nil, err
	}
	occupiedRooms := make(map[uint]bool)
	for i := range occupied {
		st := &occupied[i]
		if st.Status == domain.StayCheckedIn && st.BookingID != b.ID {
			occupiedRooms[st.RoomID] = true
		}
	}

	for _, st := range stays {
		if !st.Interval().Contains(today) {
			return nil, &domain.OutOfWindowError{RoomStayID: st.ID, Date: today, Stay: st.Interval()}
		}
		if occupiedRooms[st.RoomID] {
			return nil, &domain.OverlapConflictError{RoomID: st.RoomID, Interval: st.Interval()}
		}
	}

	for _, st := range stays {
		st.Status = domain.StayCheckedIn
		t := now
		st.CheckedInAt = &t
	}
	from := b.Status
	b.Status = domain.BookingCheckedIn
	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}

	if b.Status != from {
		s.notify(b, from, "")
	}
	s.invalidateAvailability(ctx, b)
	return b, nil
}

// CheckOut moves a CHECKED_IN booking to CHECKED_OUT once every stay in the
// request has been released and no active service usage is left unbilled.
// The outstanding balance is posted as a final payment transaction.
func (s *BookingService) CheckOut(ctx context.Context, id uint, stayIDs []uint) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCheckedIn {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "check-out"}
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCheckedIn {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "check-out"}
	}
	if unbilled := b.UnbilledUsageIDs(); len(unbilled) > 0 {
		return nil, &domain.UnsettledUsageError{BookingID: b.ID, UsageIDs: unbilled}
	}

	stays, err := selectStays(b, stayIDs, domain.StayCheckedIn, "check-out")
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, st := range stays {
		st.Status = domain.StayCheckedOut
		t := now
		st.CheckedOutAt = &t
	}

	allOut := true
	for i := range b.Stays {
		if st := &b.Stays[i]; st.Status == domain.StayReserved || st.Status == domain.StayCheckedIn {
			allOut = false
		}
	}

	from := b.Status
	if allOut {
		b.Status = domain.BookingCheckedOut
		if outstanding := b.OutstandingCents(); outstanding > 0 {
			txn := &models.Transaction{
				BookingID:   b.ID,
				AmountCents: outstanding,
				Kind:        domain.TransactionPayment,
				Reference:   uuid.NewString(),
				PostedAt:    now,
			}
			if err := s.store.CreateTransaction(ctx, txn); err != nil {
				return nil, err
			}
			b.Transactions = append(b.Transactions, *txn)
		}
	}

	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}

	for _, st := range stays {
		s.index.Release(st.RoomID, st.ID)
	}

	if b.Status != from {
		s.notify(b, from, "")
	}
	s.invalidateAvailability(ctx, b)
	return b, nil
}

// PostTransaction appends a payment or refund to any non-terminal booking. A
// payment settles every currently unbilled active service usage.
func (s *BookingService) PostTransaction(ctx context.Context, bookingID uint, amount domain.Cents, kind domain.TransactionKind) (*models.Transaction, error) {
	if amount < 0 {
		return nil, fmt.Errorf("validation: amount must be non-negative")
	}
	if !domain.ValidTransactionKind(kind) {
		return nil, fmt.Errorf("validation: unknown transaction kind %q", kind)
	}

	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "transaction"}
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "transaction"}
	}

	txn := &models.Transaction{
		BookingID:   b.ID,
		AmountCents: int64(amount),
		Kind:        kind,
		Reference:   uuid.NewString(),
		PostedAt:    s.now(),
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	b.Transactions = append(b.Transactions, *txn)

	if kind == domain.TransactionPayment {
		for i := range b.Stays {
			for j := range b.Stays[i].Usages {
				u := &b.Stays[i].Usages[j]
				if u.Status == domain.UsageActive && u.BilledTransactionID == nil {
					id := txn.ID
					u.BilledTransactionID = &id
				}
			}
		}
	}

	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}
	return txn, nil
}

// FindAvailableRooms returns the rooms of a type with no committed stay
// overlapping [checkIn, checkOut), ordered by floor then room number.
func (s *BookingService) FindAvailableRooms(ctx context.Context, roomTypeID uint, checkIn, checkOut time.Time) ([]models.Room, error) {
	iv, err := domain.NewInterval(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.Cache.Get(ctx, roomTypeID, iv); ok {
		return cached, nil
	}

	rooms, err := s.store.ListRoomsByType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}

	available := make([]models.Room, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if room.HousekeepingStatus == string(domain.RoomOutOfService) ||
			room.HousekeepingStatus == string(domain.RoomMaintenance) {
			continue
		}
		if s.index.Free(room.ID, iv) {
			available = append(available, *room)
		}
	}

	s.Cache.Set(ctx, roomTypeID, iv, available)
	return available, nil
}

// RunExpirySweeper periodically reaps PENDING bookings whose hold has lapsed.
// It runs the same lazy-expiry transition reads would, just proactively, so
// availability stays fresh for rooms nobody touches.
func (s *BookingService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("expiry sweeper started (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *BookingService) sweepExpired(ctx context.Context) {
	ids, err := s.store.ListExpiredPendingIDs(ctx, s.now())
	if err != nil {
		log.Printf("expiry sweep: list expired: %v", err)
		return
	}
	for _, id := range ids {
		if _, err := s.expireBooking(ctx, id); err != nil {
			log.Printf("expiry sweep: booking %d: %v", id, err)
		}
	}
}

// expireBooking forces the EXPIRED->CANCELLED transition if the booking is
// still a lapsed PENDING once the room locks are held.
func (s *BookingService) expireBooking(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.HoldExpired(s.now()) {
		return b, nil
	}
	return s.cancelLocked(ctx, b, domain.CancelReasonExpired)
}

// cancelLocked finishes a cancellation under the caller's room locks:
// cancels the stays, releases the index holds and records the reason.
func (s *BookingService) cancelLocked(ctx context.Context, b *models.Booking, reason domain.CancelReason) (*models.Booking, error) {
	now := s.now()
	from := b.Status

	b.Status = domain.BookingCancelled
	b.CancelReason = string(reason)
	b.CancelledAt = &now
	b.HoldExpiresAt = nil
	for i := range b.Stays {
		st := &b.Stays[i]
		if st.Status == domain.StayReserved || st.Status == domain.StayCheckedIn {
			st.Status = domain.StayCancelled
		}
	}
	b.RecomputeTotal()

	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}

	for i := range b.Stays {
		s.index.Release(b.Stays[i].RoomID, b.Stays[i].ID)
	}

	s.notify(b, from, string(reason))
	s.invalidateAvailability(ctx, b)
	return b, nil
}

func (s *BookingService) notify(b *models.Booking, from domain.BookingStatus, reason string) {
	if s.Notifier != nil {
		s.Notifier.BookingStatusChanged(b, from, reason)
	}
}

func (s *BookingService) invalidateAvailability(ctx context.Context, b *models.Booking) {
	if s.Cache == nil {
		return
	}
	seen := make(map[uint]bool)
	for i := range b.Stays {
		st := &b.Stays[i]
		typeID := st.Room.RoomTypeID
		if typeID == 0 {
			// Stay loaded without its room association.
			room, err := s.store.GetRoom(ctx, st.RoomID)
			if err != nil {
				continue
			}
			typeID = room.RoomTypeID
		}
		if typeID != 0 && !seen[typeID] {
			seen[typeID] = true
			s.Cache.Invalidate(ctx, typeID)
		}
	}
}

func roomIDsOf(b *models.Booking) []uint {
	ids := make([]uint, 0, len(b.Stays))
	for i := range b.Stays {
		ids = append(ids, b.Stays[i].RoomID)
	}
	return ids
}

// selectStays resolves the requested stay IDs against the booking. Empty
// means every stay currently in the wanted status.
func selectStays(b *models.Booking, stayIDs []uint, wanted domain.StayStatus, event string) ([]*models.RoomStay, error) {
	byID := make(map[uint]*models.RoomStay, len(b.Stays))
	for i := range b.Stays {
		byID[b.Stays[i].ID] = &b.Stays[i]
	}

	var stays []*models.RoomStay
	if len(stayIDs) == 0 {
		for i := range b.Stays {
			if b.Stays[i].Status == wanted {
				stays = append(stays, &b.Stays[i])
			}
		}
	} else {
		for _, id := range stayIDs {
			st, ok := byID[id]
			if !ok {
				return nil, &domain.NotFoundError{Entity: "room_stay", ID: id}
			}
			if st.Status != wanted {
				return nil, fmt.Errorf("validation: room stay %d is %s, cannot %s", st.ID, st.Status, event)
			}
			stays = append(stays, st)
		}
	}
	if len(stays) == 0 {
		return nil, fmt.Errorf("validation: no room stays eligible for %s", event)
	}
	return stays, nil
}
