package models

import (
	"time"

	"gorm.io/gorm"

	"hms-backend/domain"
)

// RoomStay is one room's occupancy interval within a booking, half-open
// [CheckInDate, CheckOutDate).
type RoomStay struct {
	gorm.Model

	BookingID uint `gorm:"index;column:booking_id" json:"bookingId"`
	RoomID    uint `gorm:"index;column:room_id" json:"roomId"`

	CheckInDate  time.Time `gorm:"column:check_in_date" json:"checkInDate"`
	CheckOutDate time.Time `gorm:"column:check_out_date" json:"checkOutDate"`

	Nights      int   `gorm:"column:nights" json:"nights"`
	RateCents   int64 `gorm:"column:rate_cents" json:"-"`
	ChargeCents int64 `gorm:"column:charge_cents" json:"-"`

	Status       domain.StayStatus `gorm:"column:status;size:32" json:"status"`
	CheckedInAt  *time.Time        `gorm:"column:checked_in_at" json:"checkedInAt,omitempty"`
	CheckedOutAt *time.Time        `gorm:"column:checked_out_at" json:"checkedOutAt,omitempty"`

	Room   Room           `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	Usages []ServiceUsage `gorm:"foreignKey:RoomStayID" json:"usages,omitempty"`
}

func (s *RoomStay) Interval() domain.Interval {
	return domain.Interval{CheckIn: s.CheckInDate, CheckOut: s.CheckOutDate}
}
