package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	RoomTypeID uint   `json:"roomTypeId" gorm:"index;column:room_type_id"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	Floor      int    `json:"floor" gorm:"column:floor;index"`

	// HousekeepingStatus holds the operator-set override (CLEANING,
	// MAINTENANCE, OUT_OF_SERVICE). Empty means no override; the occupancy
	// status is derived from the room's stays, never stored here.
	HousekeepingStatus string `json:"housekeepingStatus,omitempty" gorm:"column:housekeeping_status;size:32"`

	PriceCents   int64  `json:"-" gorm:"column:price_cents"`
	MaxOccupancy int    `json:"maxOccupancy" gorm:"column:max_occupancy"`
	Description  string `json:"description" gorm:"type:text"`

	RoomType RoomType `json:"roomType,omitempty" gorm:"foreignKey:RoomTypeID"`
}
