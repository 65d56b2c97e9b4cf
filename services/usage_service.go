package services

import (
	"context"
	"fmt"

	"hms-backend/domain"
	"hms-backend/models"
)

// AddServiceUsage records a billable service consumption against a checked-in
// stay. The catalog unit price is snapshotted onto the usage; later price
// changes never touch it.
func (s *BookingService) AddServiceUsage(ctx context.Context, roomStayID, serviceID uint, quantity int) (*models.ServiceUsage, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("validation: quantity must be a positive integer")
	}

	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, fmt.Errorf("validation: service %d is not active", svc.ID)
	}

	b, err := s.store.GetBookingByStay(ctx, roomStayID)
	if err != nil {
		return nil, err
	}
	if b.HoldExpired(s.now()) {
		if b, err = s.expireBooking(ctx, b.ID); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBookingByStay(ctx, roomStayID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCheckedIn {
		return nil, &domain.InvalidTransitionError{BookingID: b.ID, From: b.Status, Event: "service-usage"}
	}

	var stay *models.RoomStay
	for i := range b.Stays {
		if b.Stays[i].ID == roomStayID {
			stay = &b.Stays[i]
		}
	}
	if stay == nil {
		return nil, &domain.NotFoundError{Entity: "room_stay", ID: roomStayID}
	}
	if stay.Status != domain.StayCheckedIn {
		return nil, fmt.Errorf("validation: room stay %d is %s, cannot add service usage", stay.ID, stay.Status)
	}

	stay.Usages = append(stay.Usages, models.ServiceUsage{
		RoomStayID:     stay.ID,
		ServiceID:      svc.ID,
		Quantity:       quantity,
		UnitPriceCents: svc.UnitPriceCents,
		Status:         domain.UsageActive,
	})
	b.RecomputeTotal()

	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}

	usage := &stay.Usages[len(stay.Usages)-1]
	return usage, nil
}

// UpdateServiceUsage changes a usage's quantity or cancels it. Cancelling an
// already-cancelled usage is a no-op; a billed usage is immutable.
func (s *BookingService) UpdateServiceUsage(ctx context.Context, usageID uint, quantity *int, cancel bool) (*models.ServiceUsage, error) {
	b, err := s.store.GetBookingByUsage(ctx, usageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lockAll(roomIDsOf(b))
	defer unlock()

	b, err = s.store.GetBookingByUsage(ctx, usageID)
	if err != nil {
		return nil, err
	}

	var usage *models.ServiceUsage
	for i := range b.Stays {
		for j := range b.Stays[i].Usages {
			if b.Stays[i].Usages[j].ID == usageID {
				usage = &b.Stays[i].Usages[j]
			}
		}
	}
	if usage == nil {
		return nil, &domain.NotFoundError{Entity: "service_usage", ID: usageID}
	}

	switch {
	case cancel:
		if usage.Status == domain.UsageCancelled {
			return usage, nil
		}
		if usage.BilledTransactionID != nil {
			return nil, fmt.Errorf("validation: service usage %d is already billed", usage.ID)
		}
		usage.Status = domain.UsageCancelled
	case quantity != nil:
		if *quantity <= 0 {
			return nil, fmt.Errorf("validation: quantity must be a positive integer")
		}
		if usage.Status != domain.UsageActive {
			return nil, fmt.Errorf("validation: service usage %d is %s", usage.ID, usage.Status)
		}
		if usage.BilledTransactionID != nil {
			return nil, fmt.Errorf("validation: service usage %d is already billed", usage.ID)
		}
		usage.Quantity = *quantity
	default:
		return nil, fmt.Errorf("validation: provide a quantity or status=CANCELLED")
	}

	b.RecomputeTotal()
	if err := s.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}
	return usage, nil
}
