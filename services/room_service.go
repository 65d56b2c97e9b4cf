package services

import (
	"context"
	"fmt"
	"time"

	"hms-backend/domain"
	"hms-backend/models"
)

// RoomView is a room plus its derived occupancy status.
type RoomView struct {
	models.Room
	Status domain.RoomStatus `json:"status"`
}

type RoomService struct {
	store Store
}

func NewRoomService(store Store) *RoomService {
	return &RoomService{store: store}
}

// ListRooms returns every room with its status derived from the stays
// covering today: OCCUPIED for a checked-in stay, RESERVED for a committed
// reservation, AVAILABLE otherwise. A housekeeping override wins.
func (s *RoomService) ListRooms(ctx context.Context) ([]RoomView, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	today := domain.Midnight(time.Now().UTC())
	stays, err := s.store.ListStaysCovering(ctx, today)
	if err != nil {
		return nil, err
	}

	occupied := make(map[uint]bool)
	reserved := make(map[uint]bool)
	for i := range stays {
		st := &stays[i]
		switch st.Status {
		case domain.StayCheckedIn:
			occupied[st.RoomID] = true
		case domain.StayReserved:
			reserved[st.RoomID] = true
		}
	}

	views := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		status := domain.RoomAvailable
		switch {
		case domain.HousekeepingStatuses[domain.RoomStatus(room.HousekeepingStatus)]:
			status = domain.RoomStatus(room.HousekeepingStatus)
		case occupied[room.ID]:
			status = domain.RoomOccupied
		case reserved[room.ID]:
			status = domain.RoomReserved
		}
		views = append(views, RoomView{Room: *room, Status: status})
	}
	return views, nil
}

func (s *RoomService) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.RoomNumber == "" {
		return fmt.Errorf("validation: roomNumber is required")
	}
	if room.RoomTypeID == 0 {
		return fmt.Errorf("validation: roomTypeId is required")
	}
	return s.store.CreateRoom(ctx, room)
}

// SetHousekeeping sets or clears the operator override. Empty status clears
// it and the room falls back to its derived state.
func (s *RoomService) SetHousekeeping(ctx context.Context, roomID uint, status domain.RoomStatus) error {
	if status != "" && !domain.HousekeepingStatuses[status] {
		return fmt.Errorf("validation: %q is not a housekeeping status", status)
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return err
	}
	return s.store.SetHousekeeping(ctx, roomID, status)
}

func (s *RoomService) ListRoomTypes(ctx context.Context) ([]models.RoomType, error) {
	return s.store.ListRoomTypes(ctx)
}

func (s *RoomService) ListServices(ctx context.Context) ([]models.HotelService, error) {
	return s.store.ListServices(ctx)
}
