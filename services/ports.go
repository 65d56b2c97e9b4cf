package services

import (
	"context"
	"time"

	"hms-backend/domain"
	"hms-backend/models"
)

// BookingFilter narrows ListBookings. Zero values mean "any".
type BookingFilter struct {
	Status     domain.BookingStatus
	CustomerID uint
}

// CustomerQuery carries the search/pagination parameters of the customer
// directory endpoint.
type CustomerQuery struct {
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// BookingStore is the record store the coordinator drives. CreateBooking must
// re-validate room-stay overlap at commit time so the check-then-act window
// between the availability query and the insert stays closed even if the
// in-memory index and the store ever disagree.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetBookingByStay(ctx context.Context, roomStayID uint) (*models.Booking, error)
	GetBookingByUsage(ctx context.Context, usageID uint) (*models.Booking, error)
	// SaveBooking persists the whole aggregate (status, stays, usages) in
	// one transaction. New usages get IDs assigned.
	SaveBooking(ctx context.Context, b *models.Booking) error
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]uint, error)
}

type RoomStore interface {
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListRoomsByType(ctx context.Context, roomTypeID uint) ([]models.Room, error)
	CreateRoom(ctx context.Context, r *models.Room) error
	SetHousekeeping(ctx context.Context, roomID uint, status domain.RoomStatus) error
	ListRoomTypes(ctx context.Context) ([]models.RoomType, error)
	// ListCommittedStays returns every non-cancelled stay; the availability
	// index is rebuilt from it at startup.
	ListCommittedStays(ctx context.Context) ([]models.RoomStay, error)
	// ListStaysCovering returns non-cancelled stays whose interval contains
	// the given date. Room status derivation reads from it.
	ListStaysCovering(ctx context.Context, date time.Time) ([]models.RoomStay, error)
}

type CatalogStore interface {
	GetService(ctx context.Context, id uint) (*models.HotelService, error)
	ListServices(ctx context.Context) ([]models.HotelService, error)
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
	SearchCustomers(ctx context.Context, q CustomerQuery) ([]models.Customer, int64, error)
}

type EmployeeStore interface {
	GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error)
}

// Store is what a deployment plugs in: MySQL in production, the in-memory
// implementation in tests and dev.
type Store interface {
	BookingStore
	RoomStore
	CatalogStore
	CustomerStore
	EmployeeStore
}
