package domain

import (
	"errors"
	"fmt"
	"time"
)

// Every coordinator failure carries a stable code plus the offending entity,
// so the API layer can render a specific message instead of a generic banner.

type InvalidRangeError struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: check-in %s must be before check-out %s",
		e.CheckIn.Format(DateLayout), e.CheckOut.Format(DateLayout))
}

type OverlapConflictError struct {
	RoomID   uint
	Interval Interval
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("room %d is already booked within [%s, %s)",
		e.RoomID, e.Interval.CheckIn.Format(DateLayout), e.Interval.CheckOut.Format(DateLayout))
}

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

type InvalidTransitionError struct {
	BookingID uint
	From      BookingStatus
	Event     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: cannot apply %s while %s", e.BookingID, e.Event, e.From)
}

type ExpiredError struct {
	BookingID uint
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("booking %d: hold expired at %s", e.BookingID, e.ExpiredAt.Format(time.RFC3339))
}

type OutOfWindowError struct {
	RoomStayID uint
	Date       time.Time
	Stay       Interval
}

func (e *OutOfWindowError) Error() string {
	return fmt.Sprintf("room stay %d: %s is outside the stay window [%s, %s)",
		e.RoomStayID, e.Date.Format(DateLayout),
		e.Stay.CheckIn.Format(DateLayout), e.Stay.CheckOut.Format(DateLayout))
}

type UnsettledUsageError struct {
	BookingID uint
	UsageIDs  []uint
}

func (e *UnsettledUsageError) Error() string {
	return fmt.Sprintf("booking %d: %d service usages are unbilled", e.BookingID, len(e.UsageIDs))
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsOverlapConflict(err error) bool {
	var oc *OverlapConflictError
	return errors.As(err, &oc)
}
