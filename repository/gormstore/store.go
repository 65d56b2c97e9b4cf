// Package gormstore is the durable BookingStore over MySQL. Overlap
// re-validation runs inside one transaction with the affected room rows
// locked FOR UPDATE, so two concurrent creates for the same room serialize at
// the database even if the process-level room locks are ever bypassed.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/services"
	"hms-backend/utils"
)

type Store struct {
	DB *gorm.DB
}

var _ services.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

// ---------------------------------------------------------------------------
// BookingStore

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	// Reference code collisions regenerate and retry.
	const maxRetries = 3
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.createBookingTx(ctx, b)
		if err == nil || !isDuplicateKey(err) {
			return err
		}
		b.ReferenceCode = utils.GenerateBookingCode()
	}
	return fmt.Errorf("failed to create booking after retries: %w", err)
}

func (s *Store) createBookingTx(ctx context.Context, b *models.Booking) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roomIDs := make([]uint, 0, len(b.Stays))
		for i := range b.Stays {
			roomIDs = append(roomIDs, b.Stays[i].RoomID)
		}

		var rooms []models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", roomIDs).
			Find(&rooms).Error; err != nil {
			return err
		}

		for i := range b.Stays {
			st := &b.Stays[i]
			iv := st.Interval()

			for j := 0; j < i; j++ {
				prev := &b.Stays[j]
				if prev.RoomID == st.RoomID && prev.Interval().Overlaps(iv) {
					return &domain.OverlapConflictError{RoomID: st.RoomID, Interval: iv}
				}
			}

			var conflicts int64
			err := tx.Table("room_stays").
				Joins("JOIN bookings ON bookings.id = room_stays.booking_id").
				Where("room_stays.room_id = ?", st.RoomID).
				Where("room_stays.status <> ?", domain.StayCancelled).
				Where("bookings.status <> ?", domain.BookingCancelled).
				Where("room_stays.deleted_at IS NULL AND bookings.deleted_at IS NULL").
				Where("room_stays.check_in_date < ? AND ? < room_stays.check_out_date",
					iv.CheckOut, iv.CheckIn).
				Count(&conflicts).Error
			if err != nil {
				return err
			}
			if conflicts > 0 {
				return &domain.OverlapConflictError{RoomID: st.RoomID, Interval: iv}
			}
		}

		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return err
		}
		for i := range b.Stays {
			st := &b.Stays[i]
			st.BookingID = b.ID
			if err := tx.Omit(clause.Associations).Create(st).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Customer").
		Preload("Stays").
		Preload("Stays.Room.RoomType").
		Preload("Stays.Usages").
		Preload("Transactions").
		First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "booking", ID: id}
		}
		return nil, fmt.Errorf("failed to retrieve booking %d: %w", id, err)
	}
	return &b, nil
}

func (s *Store) GetBookingByStay(ctx context.Context, roomStayID uint) (*models.Booking, error) {
	var stay models.RoomStay
	if err := s.DB.WithContext(ctx).First(&stay, roomStayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "room_stay", ID: roomStayID}
		}
		return nil, err
	}
	return s.GetBooking(ctx, stay.BookingID)
}

func (s *Store) GetBookingByUsage(ctx context.Context, usageID uint) (*models.Booking, error) {
	var usage models.ServiceUsage
	if err := s.DB.WithContext(ctx).First(&usage, usageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "service_usage", ID: usageID}
		}
		return nil, err
	}
	return s.GetBookingByStay(ctx, usage.RoomStayID)
}

// SaveBooking persists the aggregate: booking columns, every stay, and every
// usage (new usages are inserted). Transactions are written by
// CreateTransaction, never here.
func (s *Store) SaveBooking(ctx context.Context, b *models.Booking) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return err
		}
		for i := range b.Stays {
			st := &b.Stays[i]
			if err := tx.Omit(clause.Associations).Save(st).Error; err != nil {
				return err
			}
			for j := range st.Usages {
				u := &st.Usages[j]
				u.RoomStayID = st.ID
				if u.ID == 0 {
					if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
						return err
					}
				} else if err := tx.Omit(clause.Associations).Save(u).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *Store) ListBookings(ctx context.Context, f services.BookingFilter) ([]models.Booking, error) {
	q := s.DB.WithContext(ctx).
		Preload("Customer").
		Preload("Stays").
		Preload("Stays.Room.RoomType").
		Preload("Stays.Usages").
		Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}

	var list []models.Booking
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	for i := range list {
		if list[i].Stays == nil {
			list[i].Stays = []models.RoomStay{}
		}
	}
	return list, nil
}

func (s *Store) ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?", domain.BookingPending, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// RoomStore

func (s *Store) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "room", ID: id}
		}
		return nil, err
	}
	return &room, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").
		Order("floor, room_number").Find(&rooms).Error
	return rooms, err
}

func (s *Store) ListRoomsByType(ctx context.Context, roomTypeID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").
		Where("room_type_id = ?", roomTypeID).
		Order("floor, room_number").Find(&rooms).Error
	return rooms, err
}

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (s *Store) SetHousekeeping(ctx context.Context, roomID uint, status domain.RoomStatus) error {
	return s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("housekeeping_status", string(status)).Error
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]models.RoomType, error) {
	var types []models.RoomType
	err := s.DB.WithContext(ctx).Order("id").Find(&types).Error
	return types, err
}

func (s *Store) ListCommittedStays(ctx context.Context) ([]models.RoomStay, error) {
	var stays []models.RoomStay
	err := s.DB.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = room_stays.booking_id").
		Where("room_stays.status <> ?", domain.StayCancelled).
		Where("bookings.status <> ?", domain.BookingCancelled).
		Where("bookings.deleted_at IS NULL").
		Find(&stays).Error
	return stays, err
}

func (s *Store) ListStaysCovering(ctx context.Context, date time.Time) ([]models.RoomStay, error) {
	var stays []models.RoomStay
	err := s.DB.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = room_stays.booking_id").
		Where("room_stays.status <> ?", domain.StayCancelled).
		Where("bookings.status <> ?", domain.BookingCancelled).
		Where("bookings.deleted_at IS NULL").
		Where("room_stays.check_in_date <= ? AND ? < room_stays.check_out_date", date, date).
		Find(&stays).Error
	return stays, err
}

// ---------------------------------------------------------------------------
// CatalogStore / CustomerStore / EmployeeStore

func (s *Store) GetService(ctx context.Context, id uint) (*models.HotelService, error) {
	var svc models.HotelService
	if err := s.DB.WithContext(ctx).First(&svc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "service", ID: id}
		}
		return nil, err
	}
	return &svc, nil
}

func (s *Store) ListServices(ctx context.Context) ([]models.HotelService, error) {
	var list []models.HotelService
	err := s.DB.WithContext(ctx).Order("id").Find(&list).Error
	return list, err
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "customer", ID: id}
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SearchCustomers(ctx context.Context, q services.CustomerQuery) ([]models.Customer, int64, error) {
	query := s.DB.WithContext(ctx).Model(&models.Customer{})
	if q.Search != "" {
		needle := "%" + q.Search + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ?", needle, needle)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column := map[string]string{
		"fullName":  "full_name",
		"email":     "email",
		"createdAt": "created_at",
	}[q.SortBy]
	if column == "" {
		column = "created_at"
	}
	order := column + " DESC"
	if q.SortOrder == "asc" {
		order = column + " ASC"
	}

	var list []models.Customer
	err := query.Order(order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&list).Error
	return list, total, err
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	var emp models.Employee
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "employee", ID: 0}
		}
		return nil, err
	}
	return &emp, nil
}
