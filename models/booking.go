package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hms-backend/domain"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID    uint                 `gorm:"index;column:customer_id" json:"customerId"`
	ReferenceCode string               `gorm:"column:reference_code;uniqueIndex;size:64" json:"bookingCode"`
	Status        domain.BookingStatus `gorm:"column:status;size:32;index" json:"status"`

	// HoldExpiresAt is set only while the booking is PENDING.
	HoldExpiresAt *time.Time `gorm:"column:hold_expires_at" json:"holdExpiresAt,omitempty"`
	ConfirmedAt   *time.Time `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancelReason  string     `gorm:"column:cancel_reason;size:32" json:"cancelReason,omitempty"`

	TotalCents int64 `gorm:"column:total_cents" json:"-"`

	// GuestList is the accompanying-guest draft captured at reservation
	// time, before anyone has actually checked in.
	GuestList datatypes.JSON `gorm:"column:guest_list" json:"guestList,omitempty"`

	Customer     Customer      `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Stays        []RoomStay    `gorm:"foreignKey:BookingID" json:"stays"`
	Transactions []Transaction `gorm:"foreignKey:BookingID" json:"transactions,omitempty"`
}

// HoldExpired reports whether a PENDING booking's hold has lapsed at now.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == domain.BookingPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// RecomputeTotal sets TotalCents to the sum of stay charges plus active
// service-usage charges. Cancelled stays and usages contribute nothing.
func (b *Booking) RecomputeTotal() {
	var total int64
	for i := range b.Stays {
		stay := &b.Stays[i]
		if stay.Status == domain.StayCancelled {
			continue
		}
		total += stay.ChargeCents
		for j := range stay.Usages {
			u := &stay.Usages[j]
			if u.Status == domain.UsageActive {
				total += u.UnitPriceCents * int64(u.Quantity)
			}
		}
	}
	b.TotalCents = total
}

// UnbilledUsageIDs returns the ACTIVE usages not yet covered by a posted
// transaction. Check-out is blocked while any remain.
func (b *Booking) UnbilledUsageIDs() []uint {
	var ids []uint
	for i := range b.Stays {
		for j := range b.Stays[i].Usages {
			u := &b.Stays[i].Usages[j]
			if u.Status == domain.UsageActive && u.BilledTransactionID == nil {
				ids = append(ids, u.ID)
			}
		}
	}
	return ids
}

// OutstandingCents is the balance still owed: total minus payments plus
// refunds already posted.
func (b *Booking) OutstandingCents() int64 {
	balance := b.TotalCents
	for i := range b.Transactions {
		t := &b.Transactions[i]
		switch t.Kind {
		case domain.TransactionPayment:
			balance -= t.AmountCents
		case domain.TransactionRefund:
			balance += t.AmountCents
		}
	}
	return balance
}
