package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/repository/memory"
	"hms-backend/services"
)

type testEnv struct {
	store *memory.Store
	svc   *services.BookingService

	deluxe    models.RoomType
	room101   models.Room
	room102   models.Room
	customer  models.Customer
	breakfast models.HotelService

	today time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	deluxe := store.AddRoomType(models.RoomType{TypeName: "Deluxe", Description: "Deluxe Room", MaxGuests: 4})
	room101 := store.AddRoom(models.Room{RoomTypeID: deluxe.ID, RoomNumber: "101", Floor: 1, PriceCents: 250000, MaxOccupancy: 4})
	room102 := store.AddRoom(models.Room{RoomTypeID: deluxe.ID, RoomNumber: "102", Floor: 1, PriceCents: 250000, MaxOccupancy: 4})
	customer := store.AddCustomer(models.Customer{FullName: "Ada Lovelace", Email: "ada@example.com"})
	breakfast := store.AddService(models.HotelService{Name: "Breakfast", UnitPriceCents: 25000, Active: true})

	svc := services.NewBookingService(store, services.NewAvailabilityIndex(), 15*time.Minute)
	require.NoError(t, svc.RebuildIndex(context.Background()))

	return &testEnv{
		store:     store,
		svc:       svc,
		deluxe:    deluxe,
		room101:   room101,
		room102:   room102,
		customer:  customer,
		breakfast: breakfast,
		today:     domain.Midnight(time.Now()),
	}
}

func (e *testEnv) day(n int) time.Time {
	return e.today.AddDate(0, 0, n)
}

func (e *testEnv) book(t *testing.T, roomID uint, from, to time.Time) *models.Booking {
	t.Helper()
	b, err := e.svc.CreateBooking(context.Background(), services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: roomID, CheckIn: from, CheckOut: to}},
	})
	require.NoError(t, err)
	return b
}

// lapseHold rewrites the booking's hold expiry into the past, simulating a
// hold nobody confirmed in time.
func (e *testEnv) lapseHold(t *testing.T, bookingID uint) {
	t.Helper()
	b, err := e.store.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	b.HoldExpiresAt = &past
	require.NoError(t, e.store.SaveBooking(context.Background(), b))
}

func TestCreateBookingHoldsRoom(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.NotNil(t, b.HoldExpiresAt)
	assert.NotEmpty(t, b.ReferenceCode)
	assert.Equal(t, int64(500000), b.TotalCents)
	require.Len(t, b.Stays, 1)
	assert.Equal(t, 2, b.Stays[0].Nights)
	assert.Equal(t, domain.StayReserved, b.Stays[0].Status)

	_, err := e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: e.room101.ID, CheckIn: e.day(1), CheckOut: e.day(3)}},
	})
	var oc *domain.OverlapConflictError
	require.ErrorAs(t, err, &oc)
	assert.Equal(t, e.room101.ID, oc.RoomID)

	// back-to-back is not a conflict
	e.book(t, e.room101.ID, e.day(2), e.day(4))
}

func TestCreateBookingValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, services.CreateBookingInput{CustomerID: e.customer.ID})
	assert.Error(t, err)

	_, err = e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: 999,
		Stays:      []services.StayInput{{RoomID: e.room101.ID, CheckIn: e.day(0), CheckOut: e.day(1)}},
	})
	assert.True(t, domain.IsNotFound(err))

	_, err = e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: 999, CheckIn: e.day(0), CheckOut: e.day(1)}},
	})
	assert.True(t, domain.IsNotFound(err))

	_, err = e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: e.room101.ID, CheckIn: e.day(2), CheckOut: e.day(2)}},
	})
	var ire *domain.InvalidRangeError
	assert.ErrorAs(t, err, &ire)

	require.NoError(t, e.store.SetHousekeeping(ctx, e.room102.ID, domain.RoomOutOfService))
	_, err = e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: e.room102.ID, CheckIn: e.day(0), CheckOut: e.day(1)}},
	})
	assert.Error(t, err)
}

func TestCreateBookingAllOrNothing(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.book(t, e.room102.ID, e.day(0), e.day(2))

	_, err := e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays: []services.StayInput{
			{RoomID: e.room101.ID, CheckIn: e.day(0), CheckOut: e.day(2)},
			{RoomID: e.room102.ID, CheckIn: e.day(0), CheckOut: e.day(2)},
		},
	})
	assert.True(t, domain.IsOverlapConflict(err))

	// the conflicting request must not have held room 101
	e.book(t, e.room101.ID, e.day(0), e.day(2))
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.CreateBooking(ctx, services.CreateBookingInput{
				CustomerID: e.customer.ID,
				Stays:      []services.StayInput{{RoomID: e.room101.ID, CheckIn: e.day(0), CheckOut: e.day(2)}},
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.True(t, domain.IsOverlapConflict(err), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
}

func TestFindAvailableRooms(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.book(t, e.room101.ID, e.day(0), e.day(2))

	rooms, err := e.svc.FindAvailableRooms(ctx, e.deluxe.ID, e.day(1), e.day(3))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].RoomNumber)

	rooms, err = e.svc.FindAvailableRooms(ctx, e.deluxe.ID, e.day(2), e.day(4))
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	require.NoError(t, e.store.SetHousekeeping(ctx, e.room102.ID, domain.RoomMaintenance))
	rooms, err = e.svc.FindAvailableRooms(ctx, e.deluxe.ID, e.day(2), e.day(4))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "101", rooms[0].RoomNumber)
}

func TestConfirmAndCancelLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))

	b, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Nil(t, b.HoldExpiresAt)
	assert.NotNil(t, b.ConfirmedAt)

	_, err = e.svc.ConfirmBooking(ctx, b.ID)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, "confirm", it.Event)

	b, err = e.svc.CancelBooking(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	assert.Equal(t, string(domain.CancelReasonRequested), b.CancelReason)
	assert.NotNil(t, b.CancelledAt)
	assert.Equal(t, domain.StayCancelled, b.Stays[0].Status)
	assert.Equal(t, int64(0), b.TotalCents)

	_, err = e.svc.CancelBooking(ctx, b.ID, "")
	require.ErrorAs(t, err, &it)

	// cancellation released the room
	e.book(t, e.room101.ID, e.day(0), e.day(2))
}

func TestLazyHoldExpiry(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	e.lapseHold(t, b.ID)

	got, err := e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, string(domain.CancelReasonExpired), got.CancelReason)
	assert.Nil(t, got.HoldExpiresAt)

	// the lapsed hold no longer blocks the room
	e.book(t, e.room101.ID, e.day(0), e.day(2))
}

func TestConfirmExpiredHold(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	e.lapseHold(t, b.ID)

	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	var exp *domain.ExpiredError
	require.ErrorAs(t, err, &exp)
	assert.Equal(t, b.ID, exp.BookingID)

	got, err := e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
}

func TestCheckInGuards(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.CheckIn(ctx, b.ID, nil)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)

	// a stay starting tomorrow cannot check in today
	future := e.book(t, e.room102.ID, e.day(1), e.day(3))
	_, err = e.svc.ConfirmBooking(ctx, future.ID)
	require.NoError(t, err)
	_, err = e.svc.CheckIn(ctx, future.ID, nil)
	var oow *domain.OutOfWindowError
	require.ErrorAs(t, err, &oow)
	assert.Equal(t, future.Stays[0].ID, oow.RoomStayID)
}

func TestCheckOutSettlesBalance(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)
	b, err = e.svc.CheckIn(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.Equal(t, domain.StayCheckedIn, b.Stays[0].Status)

	usage, err := e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), usage.UnitPriceCents)

	b, err = e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(550000), b.TotalCents)

	// unsettled usage blocks the check-out
	_, err = e.svc.CheckOut(ctx, b.ID, nil)
	var uu *domain.UnsettledUsageError
	require.ErrorAs(t, err, &uu)
	assert.Len(t, uu.UsageIDs, 1)

	// paying for the usage unblocks it
	_, err = e.svc.PostTransaction(ctx, b.ID, domain.Cents(50000), domain.TransactionPayment)
	require.NoError(t, err)

	b, err = e.svc.CheckOut(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, b.Status)
	assert.Equal(t, domain.StayCheckedOut, b.Stays[0].Status)

	// the remaining room charge was posted as the final payment
	require.Len(t, b.Transactions, 2)
	assert.Equal(t, int64(500000), b.Transactions[1].AmountCents)
	assert.Equal(t, int64(0), b.OutstandingCents())

	// checked-out rooms are free again
	e.book(t, e.room101.ID, e.day(0), e.day(2))
}

func TestWalkInBooking(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.WalkInBooking(ctx, e.customer.ID, []uint{e.room101.ID}, e.day(1), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.NotNil(t, b.ConfirmedAt)
	require.Len(t, b.Stays, 1)
	assert.Equal(t, domain.StayCheckedIn, b.Stays[0].Status)
	assert.NotNil(t, b.Stays[0].CheckedInAt)
}

func TestPostTransactionValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))

	_, err := e.svc.PostTransaction(ctx, b.ID, domain.Cents(-1), domain.TransactionPayment)
	assert.Error(t, err)

	_, err = e.svc.PostTransaction(ctx, b.ID, domain.Cents(100), domain.TransactionKind("GIFT"))
	assert.Error(t, err)

	_, err = e.svc.CancelBooking(ctx, b.ID, "")
	require.NoError(t, err)
	_, err = e.svc.PostTransaction(ctx, b.ID, domain.Cents(100), domain.TransactionPayment)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)
}

func TestServiceUsageRules(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)

	// usage requires a checked-in stay
	_, err = e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 1)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, "service-usage", it.Event)

	b, err = e.svc.CheckIn(ctx, b.ID, nil)
	require.NoError(t, err)

	_, err = e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 0)
	assert.Error(t, err)

	inactive := e.store.AddService(models.HotelService{Name: "Closed Spa", UnitPriceCents: 100, Active: false})
	_, err = e.svc.AddServiceUsage(ctx, b.Stays[0].ID, inactive.ID, 1)
	assert.Error(t, err)

	usage, err := e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 1)
	require.NoError(t, err)

	three := 3
	updated, err := e.svc.UpdateServiceUsage(ctx, usage.ID, &three, false)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	got, err := e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000+3*25000), got.TotalCents)

	// cancelling removes the charge; a second cancel is a no-op
	cancelled, err := e.svc.UpdateServiceUsage(ctx, usage.ID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, domain.UsageCancelled, cancelled.Status)
	_, err = e.svc.UpdateServiceUsage(ctx, usage.ID, nil, true)
	require.NoError(t, err)

	got, err = e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), got.TotalCents)
}

func TestBilledUsageIsImmutable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)
	b, err = e.svc.CheckIn(ctx, b.ID, nil)
	require.NoError(t, err)

	usage, err := e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 1)
	require.NoError(t, err)

	_, err = e.svc.PostTransaction(ctx, b.ID, domain.Cents(25000), domain.TransactionPayment)
	require.NoError(t, err)

	two := 2
	_, err = e.svc.UpdateServiceUsage(ctx, usage.ID, &two, false)
	assert.Error(t, err)
	_, err = e.svc.UpdateServiceUsage(ctx, usage.ID, nil, true)
	assert.Error(t, err)
}

func TestListBookingsFilter(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b1 := e.book(t, e.room101.ID, e.day(0), e.day(2))
	b2 := e.book(t, e.room102.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b2.ID)
	require.NoError(t, err)

	all, err := e.svc.ListBookings(ctx, services.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := e.svc.ListBookings(ctx, services.BookingFilter{Status: domain.BookingPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b1.ID, pending[0].ID)
}

func TestCheckInRemainingStays(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays: []services.StayInput{
			{RoomID: e.room101.ID, CheckIn: e.day(0), CheckOut: e.day(2)},
			{RoomID: e.room102.ID, CheckIn: e.day(0), CheckOut: e.day(2)},
		},
	})
	require.NoError(t, err)
	_, err = e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)

	// one party arrives ahead of the other
	b, err = e.svc.CheckIn(ctx, b.ID, []uint{b.Stays[0].ID})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.Equal(t, domain.StayCheckedIn, b.Stays[0].Status)
	assert.Equal(t, domain.StayReserved, b.Stays[1].Status)

	b, err = e.svc.CheckIn(ctx, b.ID, []uint{b.Stays[1].ID})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.Equal(t, domain.StayCheckedIn, b.Stays[1].Status)

	// a stay already checked in cannot check in again
	_, err = e.svc.CheckIn(ctx, b.ID, []uint{b.Stays[0].ID})
	assert.Error(t, err)

	b, err = e.svc.CheckOut(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, b.Status)

	// both rooms are free again
	e.book(t, e.room101.ID, e.day(0), e.day(2))
	e.book(t, e.room102.ID, e.day(0), e.day(2))
}

func TestCheckOutExpiresLapsedHold(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	e.lapseHold(t, b.ID)

	_, err := e.svc.CheckOut(ctx, b.ID, nil)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, domain.BookingCancelled, it.From)

	got, err := e.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, string(domain.CancelReasonExpired), got.CancelReason)

	// the failed attempt still released the room
	e.book(t, e.room101.ID, e.day(0), e.day(2))
}

func TestServiceUsageExpiresLapsedHold(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	e.lapseHold(t, b.ID)

	_, err := e.svc.AddServiceUsage(ctx, b.Stays[0].ID, e.breakfast.ID, 1)
	var it *domain.InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, domain.BookingCancelled, it.From)

	got, err := e.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, string(domain.CancelReasonExpired), got.CancelReason)
}

func TestRefundAfterCheckOut(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)
	_, err = e.svc.CheckIn(ctx, b.ID, nil)
	require.NoError(t, err)
	b, err = e.svc.CheckOut(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, b.Status)

	txn, err := e.svc.PostTransaction(ctx, b.ID, domain.Cents(10000), domain.TransactionRefund)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionRefund, txn.Kind)

	got, err := e.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, int64(10000), got.Transactions[1].AmountCents)
}

func TestLifecycleDropsCachedAvailability(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	rdb, mock := redismock.NewClientMock()
	e.svc.Cache = services.NewAvailabilityCache(rdb)
	setKey := fmt.Sprintf("avail:keys:%d", e.deluxe.ID)

	mock.ExpectSMembers(setKey).SetVal([]string{})
	mock.ExpectDel(setKey).SetVal(0)
	b := e.book(t, e.room101.ID, e.day(0), e.day(2))

	mock.ExpectSMembers(setKey).SetVal([]string{})
	mock.ExpectDel(setKey).SetVal(0)
	_, err := e.svc.CancelBooking(ctx, b.ID, "")
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildIndexRestoresHolds(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b := e.book(t, e.room101.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, b.ID)
	require.NoError(t, err)

	// a fresh coordinator over the same store must see the committed stay
	restarted := services.NewBookingService(e.store, services.NewAvailabilityIndex(), 15*time.Minute)
	require.NoError(t, restarted.RebuildIndex(ctx))

	_, err = restarted.CreateBooking(ctx, services.CreateBookingInput{
		CustomerID: e.customer.ID,
		Stays:      []services.StayInput{{RoomID: e.room101.ID, CheckIn: e.day(1), CheckOut: e.day(3)}},
	})
	assert.True(t, domain.IsOverlapConflict(err))
}
