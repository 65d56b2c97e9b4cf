package models

import (
	"gorm.io/gorm"
)

// HotelService is an ancillary service in the catalog (food, laundry, ...).
type HotelService struct {
	gorm.Model

	Name           string `gorm:"column:name;uniqueIndex;size:128" json:"name"`
	UnitPriceCents int64  `gorm:"column:unit_price_cents" json:"-"`
	Active         bool   `gorm:"column:active;default:true" json:"active"`
}
