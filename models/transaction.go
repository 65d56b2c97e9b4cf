package models

import (
	"time"

	"gorm.io/gorm"

	"hms-backend/domain"
)

type Transaction struct {
	gorm.Model

	BookingID uint `gorm:"index;column:booking_id" json:"bookingId"`

	AmountCents int64                  `gorm:"column:amount_cents" json:"-"`
	Kind        domain.TransactionKind `gorm:"column:kind;size:16" json:"kind"`
	Reference   string                 `gorm:"column:reference;uniqueIndex;size:64" json:"reference"`
	PostedAt    time.Time              `gorm:"column:posted_at" json:"postedAt"`
}
