package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/services"
)

func TestListRoomsDerivesStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	roomSvc := services.NewRoomService(e.store)

	e.book(t, e.room101.ID, e.day(0), e.day(2))

	checkedIn := e.book(t, e.room102.ID, e.day(0), e.day(2))
	_, err := e.svc.ConfirmBooking(ctx, checkedIn.ID)
	require.NoError(t, err)
	_, err = e.svc.CheckIn(ctx, checkedIn.ID, nil)
	require.NoError(t, err)

	views, err := roomSvc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byNumber := map[string]domain.RoomStatus{}
	for _, v := range views {
		byNumber[v.RoomNumber] = v.Status
	}
	assert.Equal(t, domain.RoomReserved, byNumber["101"])
	assert.Equal(t, domain.RoomOccupied, byNumber["102"])

	// the housekeeping override wins over occupancy
	require.NoError(t, roomSvc.SetHousekeeping(ctx, e.room102.ID, domain.RoomCleaning))
	views, err = roomSvc.ListRooms(ctx)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == e.room102.ID {
			assert.Equal(t, domain.RoomCleaning, v.Status)
		}
	}

	// clearing the override falls back to the derived state
	require.NoError(t, roomSvc.SetHousekeeping(ctx, e.room102.ID, ""))
	views, err = roomSvc.ListRooms(ctx)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == e.room102.ID {
			assert.Equal(t, domain.RoomOccupied, v.Status)
		}
	}
}

func TestSetHousekeepingValidation(t *testing.T) {
	e := newTestEnv(t)
	roomSvc := services.NewRoomService(e.store)

	err := roomSvc.SetHousekeeping(context.Background(), e.room101.ID, domain.RoomStatus("OCCUPIED"))
	assert.Error(t, err)

	err = roomSvc.SetHousekeeping(context.Background(), 999, domain.RoomCleaning)
	assert.True(t, domain.IsNotFound(err))
}

func TestCreateRoomValidation(t *testing.T) {
	e := newTestEnv(t)
	roomSvc := services.NewRoomService(e.store)
	ctx := context.Background()

	err := roomSvc.CreateRoom(ctx, &models.Room{RoomTypeID: e.deluxe.ID})
	assert.Error(t, err)

	err = roomSvc.CreateRoom(ctx, &models.Room{RoomNumber: "303"})
	assert.Error(t, err)

	room := &models.Room{RoomTypeID: e.deluxe.ID, RoomNumber: "303", Floor: 3, PriceCents: 250000}
	require.NoError(t, roomSvc.CreateRoom(ctx, room))
	assert.NotZero(t, room.ID)
}
