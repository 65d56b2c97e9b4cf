package models

import (
	"gorm.io/gorm"

	"hms-backend/domain"
)

// ServiceUsage is a billable consumption of an ancillary service attached to
// a room stay. UnitPriceCents is snapshotted at creation; later catalog price
// changes never alter recorded usage.
type ServiceUsage struct {
	gorm.Model

	RoomStayID uint `gorm:"index;column:room_stay_id" json:"roomStayId"`
	ServiceID  uint `gorm:"index;column:service_id" json:"serviceId"`

	Quantity       int                `gorm:"column:quantity" json:"quantity"`
	UnitPriceCents int64              `gorm:"column:unit_price_cents" json:"-"`
	Status         domain.UsageStatus `gorm:"column:status;size:32" json:"status"`

	// BilledTransactionID links the usage to the payment that settled it.
	BilledTransactionID *uint `gorm:"column:billed_transaction_id" json:"billedTransactionId,omitempty"`

	Service HotelService `gorm:"foreignKey:ServiceID;references:ID" json:"service,omitempty"`
}
