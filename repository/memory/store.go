// Package memory is the in-memory BookingStore used by tests and dev
// deployments (STORE_DRIVER=memory). Everything lives behind one mutex;
// aggregates are deep-copied on the way in and out so callers never alias
// stored state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/services"
)

type Store struct {
	mu sync.Mutex

	bookings  map[uint]*models.Booking
	rooms     map[uint]*models.Room
	roomTypes map[uint]*models.RoomType
	customers map[uint]*models.Customer
	services  map[uint]*models.HotelService
	employees map[uint]*models.Employee

	nextBookingID     uint
	nextStayID        uint
	nextUsageID       uint
	nextTransactionID uint
	nextRoomID        uint
	nextRoomTypeID    uint
	nextCustomerID    uint
	nextServiceID     uint
	nextEmployeeID    uint
}

var _ services.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bookings:  make(map[uint]*models.Booking),
		rooms:     make(map[uint]*models.Room),
		roomTypes: make(map[uint]*models.RoomType),
		customers: make(map[uint]*models.Customer),
		services:  make(map[uint]*models.HotelService),
		employees: make(map[uint]*models.Employee),
	}
}

// ---------------------------------------------------------------------------
// BookingStore

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Commit-time overlap re-validation, including stays within the same
	// request that target the same room.
	for i := range b.Stays {
		ns := &b.Stays[i]
		iv := ns.Interval()
		for j := 0; j < i; j++ {
			prev := &b.Stays[j]
			if prev.RoomID == ns.RoomID && prev.Interval().Overlaps(iv) {
				return &domain.OverlapConflictError{RoomID: ns.RoomID, Interval: iv}
			}
		}
		for _, existing := range s.bookings {
			if existing.Status == domain.BookingCancelled {
				continue
			}
			for j := range existing.Stays {
				es := &existing.Stays[j]
				if es.Status == domain.StayCancelled || es.RoomID != ns.RoomID {
					continue
				}
				if es.Interval().Overlaps(iv) {
					return &domain.OverlapConflictError{RoomID: ns.RoomID, Interval: iv}
				}
			}
		}
	}

	s.nextBookingID++
	b.ID = s.nextBookingID
	b.CreatedAt = time.Now().UTC()
	for i := range b.Stays {
		s.nextStayID++
		b.Stays[i].ID = s.nextStayID
		b.Stays[i].BookingID = b.ID
	}
	s.bookings[b.ID] = copyBooking(b)
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBookingLocked(id)
}

func (s *Store) getBookingLocked(id uint) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "booking", ID: id}
	}
	out := copyBooking(b)
	s.hydrateLocked(out)
	return out, nil
}

func (s *Store) GetBookingByStay(ctx context.Context, roomStayID uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		for i := range b.Stays {
			if b.Stays[i].ID == roomStayID {
				return s.getBookingLocked(b.ID)
			}
		}
	}
	return nil, &domain.NotFoundError{Entity: "room_stay", ID: roomStayID}
}

func (s *Store) GetBookingByUsage(ctx context.Context, usageID uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		for i := range b.Stays {
			for j := range b.Stays[i].Usages {
				if b.Stays[i].Usages[j].ID == usageID {
					return s.getBookingLocked(b.ID)
				}
			}
		}
	}
	return nil, &domain.NotFoundError{Entity: "service_usage", ID: usageID}
}

func (s *Store) SaveBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; !ok {
		return &domain.NotFoundError{Entity: "booking", ID: b.ID}
	}
	for i := range b.Stays {
		for j := range b.Stays[i].Usages {
			u := &b.Stays[i].Usages[j]
			if u.ID == 0 {
				s.nextUsageID++
				u.ID = s.nextUsageID
			}
		}
	}
	s.bookings[b.ID] = copyBooking(b)
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[t.BookingID]
	if !ok {
		return &domain.NotFoundError{Entity: "booking", ID: t.BookingID}
	}
	s.nextTransactionID++
	t.ID = s.nextTransactionID
	t.CreatedAt = time.Now().UTC()
	b.Transactions = append(b.Transactions, *t)
	return nil
}

func (s *Store) ListBookings(ctx context.Context, f services.BookingFilter) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Booking
	for _, b := range s.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.CustomerID != 0 && b.CustomerID != f.CustomerID {
			continue
		}
		c := copyBooking(b)
		s.hydrateLocked(c)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint
	for _, b := range s.bookings {
		if b.Status == domain.BookingPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt) {
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---------------------------------------------------------------------------
// RoomStore

func (s *Store) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "room", ID: id}
	}
	out := *room
	if rt, ok := s.roomTypes[room.RoomTypeID]; ok {
		out.RoomType = *rt
	}
	return &out, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRoomsLocked(0), nil
}

func (s *Store) ListRoomsByType(ctx context.Context, roomTypeID uint) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRoomsLocked(roomTypeID), nil
}

func (s *Store) listRoomsLocked(roomTypeID uint) []models.Room {
	out := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if roomTypeID != 0 && room.RoomTypeID != roomTypeID {
			continue
		}
		c := *room
		if rt, ok := s.roomTypes[room.RoomTypeID]; ok {
			c.RoomType = *rt
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].RoomNumber < out[j].RoomNumber
	})
	return out
}

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoomID++
	r.ID = s.nextRoomID
	r.CreatedAt = time.Now().UTC()
	c := *r
	s.rooms[r.ID] = &c
	return nil
}

func (s *Store) SetHousekeeping(ctx context.Context, roomID uint, status domain.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return &domain.NotFoundError{Entity: "room", ID: roomID}
	}
	room.HousekeepingStatus = string(status)
	return nil
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]models.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RoomType, 0, len(s.roomTypes))
	for _, rt := range s.roomTypes {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCommittedStays(ctx context.Context) ([]models.RoomStay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.RoomStay
	for _, b := range s.bookings {
		if b.Status == domain.BookingCancelled {
			continue
		}
		for i := range b.Stays {
			st := b.Stays[i]
			if st.Status == domain.StayCancelled {
				continue
			}
			out = append(out, *copyStay(&st))
		}
	}
	return out, nil
}

func (s *Store) ListStaysCovering(ctx context.Context, date time.Time) ([]models.RoomStay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.RoomStay
	for _, b := range s.bookings {
		if b.Status == domain.BookingCancelled {
			continue
		}
		for i := range b.Stays {
			st := b.Stays[i]
			if st.Status == domain.StayCancelled {
				continue
			}
			if st.Interval().Contains(date) {
				out = append(out, *copyStay(&st))
			}
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// CatalogStore / CustomerStore / EmployeeStore

func (s *Store) GetService(ctx context.Context, id uint) (*models.HotelService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "service", ID: id}
	}
	out := *svc
	return &out, nil
}

func (s *Store) ListServices(ctx context.Context) ([]models.HotelService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.HotelService, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, *svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCustomerID++
	c.ID = s.nextCustomerID
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "customer", ID: id}
	}
	out := *c
	return &out, nil
}

func (s *Store) SearchCustomers(ctx context.Context, q services.CustomerQuery) ([]models.Customer, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []models.Customer
	for _, c := range s.customers {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.FullName), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			continue
		}
		matched = append(matched, *c)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case "fullName":
			less = matched[i].FullName < matched[j].FullName
		case "email":
			less = matched[i].Email < matched[j].Email
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if q.SortOrder == "desc" {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return []models.Customer{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.employees {
		if e.Username == username {
			out := *e
			return &out, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "employee", ID: 0}
}

// ---------------------------------------------------------------------------
// Seeding and copies

// AddRoomType, AddRoom, AddCustomer, AddService and AddEmployee exist for
// seeding dev deployments and tests.
func (s *Store) AddRoomType(rt models.RoomType) models.RoomType {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt.ID == 0 {
		s.nextRoomTypeID++
		rt.ID = s.nextRoomTypeID
	} else if rt.ID > s.nextRoomTypeID {
		s.nextRoomTypeID = rt.ID
	}
	c := rt
	s.roomTypes[rt.ID] = &c
	return rt
}

func (s *Store) AddRoom(r models.Room) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == 0 {
		s.nextRoomID++
		r.ID = s.nextRoomID
	} else if r.ID > s.nextRoomID {
		s.nextRoomID = r.ID
	}
	c := r
	s.rooms[r.ID] = &c
	return r
}

func (s *Store) AddCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		s.nextCustomerID++
		c.ID = s.nextCustomerID
	} else if c.ID > s.nextCustomerID {
		s.nextCustomerID = c.ID
	}
	cp := c
	s.customers[c.ID] = &cp
	return c
}

func (s *Store) AddService(svc models.HotelService) models.HotelService {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.ID == 0 {
		s.nextServiceID++
		svc.ID = s.nextServiceID
	} else if svc.ID > s.nextServiceID {
		s.nextServiceID = svc.ID
	}
	c := svc
	s.services[svc.ID] = &c
	return svc
}

func (s *Store) AddEmployee(e models.Employee) models.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		s.nextEmployeeID++
		e.ID = s.nextEmployeeID
	} else if e.ID > s.nextEmployeeID {
		s.nextEmployeeID = e.ID
	}
	c := e
	s.employees[e.ID] = &c
	return e
}

// hydrateLocked fills denormalized relations (room, room type, customer) on
// a copied aggregate.
func (s *Store) hydrateLocked(b *models.Booking) {
	if c, ok := s.customers[b.CustomerID]; ok {
		b.Customer = *c
	}
	for i := range b.Stays {
		st := &b.Stays[i]
		if room, ok := s.rooms[st.RoomID]; ok {
			st.Room = *room
			if rt, ok := s.roomTypes[room.RoomTypeID]; ok {
				st.Room.RoomType = *rt
			}
		}
	}
}

func copyBooking(b *models.Booking) *models.Booking {
	out := *b
	out.Stays = make([]models.RoomStay, len(b.Stays))
	for i := range b.Stays {
		out.Stays[i] = *copyStay(&b.Stays[i])
	}
	out.Transactions = append([]models.Transaction(nil), b.Transactions...)
	if b.HoldExpiresAt != nil {
		t := *b.HoldExpiresAt
		out.HoldExpiresAt = &t
	}
	if b.ConfirmedAt != nil {
		t := *b.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		out.CancelledAt = &t
	}
	out.GuestList = append([]byte(nil), b.GuestList...)
	return &out
}

func copyStay(st *models.RoomStay) *models.RoomStay {
	out := *st
	out.Usages = make([]models.ServiceUsage, len(st.Usages))
	for i := range st.Usages {
		u := st.Usages[i]
		if u.BilledTransactionID != nil {
			id := *u.BilledTransactionID
			u.BilledTransactionID = &id
		}
		out.Usages[i] = u
	}
	if st.CheckedInAt != nil {
		t := *st.CheckedInAt
		out.CheckedInAt = &t
	}
	if st.CheckedOutAt != nil {
		t := *st.CheckedOutAt
		out.CheckedOutAt = &t
	}
	return &out
}
