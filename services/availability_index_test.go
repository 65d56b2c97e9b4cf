package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-backend/domain"
	"hms-backend/models"
)

func iv(t *testing.T, in, out string) domain.Interval {
	t.Helper()
	ci, err := domain.ParseDate(in)
	require.NoError(t, err)
	co, err := domain.ParseDate(out)
	require.NoError(t, err)
	interval, err := domain.NewInterval(ci, co)
	require.NoError(t, err)
	return interval
}

func TestIndexReserveRejectsOverlap(t *testing.T) {
	ix := NewAvailabilityIndex()

	require.NoError(t, ix.Reserve(1, 10, 100, iv(t, "2024-06-01", "2024-06-03")))

	err := ix.Reserve(1, 11, 101, iv(t, "2024-06-02", "2024-06-04"))
	var oc *domain.OverlapConflictError
	require.ErrorAs(t, err, &oc)
	assert.Equal(t, uint(1), oc.RoomID)

	// same interval on another room is fine
	require.NoError(t, ix.Reserve(2, 12, 101, iv(t, "2024-06-02", "2024-06-04")))
}

func TestIndexBackToBackStays(t *testing.T) {
	ix := NewAvailabilityIndex()

	require.NoError(t, ix.Reserve(1, 10, 100, iv(t, "2024-06-01", "2024-06-03")))
	require.NoError(t, ix.Reserve(1, 11, 101, iv(t, "2024-06-03", "2024-06-05")))

	assert.False(t, ix.Free(1, iv(t, "2024-06-02", "2024-06-04")))
	assert.True(t, ix.Free(1, iv(t, "2024-06-05", "2024-06-07")))
}

func TestIndexReleaseFreesInterval(t *testing.T) {
	ix := NewAvailabilityIndex()

	require.NoError(t, ix.Reserve(1, 10, 100, iv(t, "2024-06-01", "2024-06-03")))
	assert.False(t, ix.Free(1, iv(t, "2024-06-01", "2024-06-03")))

	ix.Release(1, 10)
	assert.True(t, ix.Free(1, iv(t, "2024-06-01", "2024-06-03")))

	// releasing an unknown stay is a no-op
	ix.Release(1, 99)
	ix.Release(42, 10)
}

func TestIndexRebuild(t *testing.T) {
	ix := NewAvailabilityIndex()
	require.NoError(t, ix.Reserve(1, 10, 100, iv(t, "2024-06-01", "2024-06-03")))

	window := iv(t, "2024-07-01", "2024-07-05")
	stays := []models.RoomStay{
		{RoomID: 2, BookingID: 200, CheckInDate: window.CheckIn, CheckOutDate: window.CheckOut, Status: domain.StayReserved},
	}
	stays[0].ID = 20
	ix.Rebuild(stays)

	// rebuild replaces, never merges
	assert.True(t, ix.Free(1, iv(t, "2024-06-01", "2024-06-03")))
	assert.False(t, ix.Free(2, iv(t, "2024-07-02", "2024-07-03")))
}

func TestIndexKeepsHoldsSorted(t *testing.T) {
	ix := NewAvailabilityIndex()

	require.NoError(t, ix.Reserve(1, 12, 100, iv(t, "2024-06-10", "2024-06-12")))
	require.NoError(t, ix.Reserve(1, 10, 100, iv(t, "2024-06-01", "2024-06-03")))
	require.NoError(t, ix.Reserve(1, 11, 100, iv(t, "2024-06-05", "2024-06-07")))

	holds := ix.byRoom[1]
	require.Len(t, holds, 3)
	for i := 1; i < len(holds); i++ {
		assert.False(t, holds[i].iv.CheckIn.Before(holds[i-1].iv.CheckIn))
	}
}
