package domain

// BookingStatus follows the lifecycle PENDING -> CONFIRMED -> CHECKED_IN ->
// CHECKED_OUT, with CANCELLED as the only terminal side exit.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// Terminal reports whether no further event applies to the booking. A
// CHECKED_OUT booking still accepts transactions, so only CANCELLED counts.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled
}

// CancelReason distinguishes an operator cancellation from a lapsed hold.
// Both end in BookingCancelled.
type CancelReason string

const (
	CancelReasonExpired   CancelReason = "EXPIRED"
	CancelReasonRequested CancelReason = "REQUESTED"
)

type StayStatus string

const (
	StayReserved   StayStatus = "RESERVED"
	StayCheckedIn  StayStatus = "CHECKED_IN"
	StayCheckedOut StayStatus = "CHECKED_OUT"
	StayCancelled  StayStatus = "CANCELLED"
)

// RoomStatus is the derived occupancy state of a room. The housekeeping
// states are stored overrides layered on top of the derived ones.
type RoomStatus string

const (
	RoomAvailable    RoomStatus = "AVAILABLE"
	RoomOccupied     RoomStatus = "OCCUPIED"
	RoomReserved     RoomStatus = "RESERVED"
	RoomCleaning     RoomStatus = "CLEANING"
	RoomMaintenance  RoomStatus = "MAINTENANCE"
	RoomOutOfService RoomStatus = "OUT_OF_SERVICE"
)

// HousekeepingStatuses are the operator-set overrides. Anything else stored on
// a room is ignored and the status is derived from its stays.
var HousekeepingStatuses = map[RoomStatus]bool{
	RoomCleaning:     true,
	RoomMaintenance:  true,
	RoomOutOfService: true,
}

type UsageStatus string

const (
	UsageActive    UsageStatus = "ACTIVE"
	UsageCancelled UsageStatus = "CANCELLED"
)

type TransactionKind string

const (
	TransactionPayment TransactionKind = "PAYMENT"
	TransactionRefund  TransactionKind = "REFUND"
)

func ValidTransactionKind(k TransactionKind) bool {
	return k == TransactionPayment || k == TransactionRefund
}
