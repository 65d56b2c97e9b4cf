package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/services"
	"hms-backend/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type StayItem struct {
	RoomID   uint   `json:"roomId" binding:"required"`
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
}

type CreateBookingRequest struct {
	CustomerID uint            `json:"customerId" binding:"required"`
	Stays      []StayItem      `json:"stays" binding:"required"`
	GuestList  json.RawMessage `json:"guestList,omitempty"`
}

type WalkInBookingRequest struct {
	CustomerID uint            `json:"customerId" binding:"required"`
	RoomIDs    []uint          `json:"roomIds" binding:"required"`
	CheckOut   string          `json:"checkOut" binding:"required"`
	GuestList  json.RawMessage `json:"guestList,omitempty"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type StaySelectionRequest struct {
	BookingID   uint   `json:"bookingId" binding:"required"`
	RoomStayIDs []uint `json:"roomStayIds"`
}

type CreateTransactionRequest struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
}

type usageResponse struct {
	ID         uint   `json:"id"`
	RoomStayID uint   `json:"roomStayId"`
	ServiceID  uint   `json:"serviceId"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	Billed     bool   `json:"billed"`
}

type stayResponse struct {
	ID         uint            `json:"id"`
	RoomID     uint            `json:"roomId"`
	RoomNumber string          `json:"roomNumber,omitempty"`
	CheckIn    string          `json:"checkIn"`
	CheckOut   string          `json:"checkOut"`
	Nights     int             `json:"nights"`
	Charge     string          `json:"charge"`
	Status     string          `json:"status"`
	Usages     []usageResponse `json:"usages,omitempty"`
}

type transactionResponse struct {
	ID        uint   `json:"id"`
	BookingID uint   `json:"bookingId"`
	Amount    string `json:"amount"`
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
	PostedAt  string `json:"postedAt"`
}

type bookingResponse struct {
	ID            uint                  `json:"id"`
	BookingCode   string                `json:"bookingCode"`
	CustomerID    uint                  `json:"customerId"`
	Status        string                `json:"status"`
	HoldExpiresAt *time.Time            `json:"holdExpiresAt,omitempty"`
	ConfirmedAt   *time.Time            `json:"confirmedAt,omitempty"`
	CancelledAt   *time.Time            `json:"cancelledAt,omitempty"`
	CancelReason  string                `json:"cancelReason,omitempty"`
	TotalAmount   string                `json:"totalAmount"`
	Outstanding   string                `json:"outstandingAmount"`
	Stays         []stayResponse        `json:"stays"`
	Transactions  []transactionResponse `json:"transactions,omitempty"`
}

func toUsageResponse(u *models.ServiceUsage) usageResponse {
	return usageResponse{
		ID:         u.ID,
		RoomStayID: u.RoomStayID,
		ServiceID:  u.ServiceID,
		Quantity:   u.Quantity,
		UnitPrice:  domain.Cents(u.UnitPriceCents).String(),
		Amount:     domain.Cents(u.UnitPriceCents * int64(u.Quantity)).String(),
		Status:     string(u.Status),
		Billed:     u.BilledTransactionID != nil,
	}
}

func toStayResponse(st *models.RoomStay) stayResponse {
	out := stayResponse{
		ID:         st.ID,
		RoomID:     st.RoomID,
		RoomNumber: st.Room.RoomNumber,
		CheckIn:    st.CheckInDate.Format(domain.DateLayout),
		CheckOut:   st.CheckOutDate.Format(domain.DateLayout),
		Nights:     st.Nights,
		Charge:     domain.Cents(st.ChargeCents).String(),
		Status:     string(st.Status),
	}
	for i := range st.Usages {
		out.Usages = append(out.Usages, toUsageResponse(&st.Usages[i]))
	}
	return out
}

func toTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		BookingID: t.BookingID,
		Amount:    domain.Cents(t.AmountCents).String(),
		Kind:      string(t.Kind),
		Reference: t.Reference,
		PostedAt:  t.PostedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingResponse(b *models.Booking) bookingResponse {
	out := bookingResponse{
		ID:            b.ID,
		BookingCode:   b.ReferenceCode,
		CustomerID:    b.CustomerID,
		Status:        string(b.Status),
		HoldExpiresAt: b.HoldExpiresAt,
		ConfirmedAt:   b.ConfirmedAt,
		CancelledAt:   b.CancelledAt,
		CancelReason:  b.CancelReason,
		TotalAmount:   domain.Cents(b.TotalCents).String(),
		Outstanding:   domain.Cents(b.OutstandingCents()).String(),
		Stays:         []stayResponse{},
	}
	for i := range b.Stays {
		out.Stays = append(out.Stays, toStayResponse(&b.Stays[i]))
	}
	for i := range b.Transactions {
		out.Transactions = append(out.Transactions, toTransactionResponse(&b.Transactions[i]))
	}
	return out
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidId", "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	in := services.CreateBookingInput{CustomerID: req.CustomerID, GuestList: req.GuestList}
	for _, item := range req.Stays {
		checkIn, err := domain.ParseDate(item.CheckIn)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
			return
		}
		checkOut, err := domain.ParseDate(item.CheckOut)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
			return
		}
		in.Stays = append(in.Stays, services.StayInput{RoomID: item.RoomID, CheckIn: checkIn, CheckOut: checkOut})
	}

	booking, err := ctrl.BookingSvc.CreateBooking(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, toBookingResponse(booking))
}

func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	booking, err := ctrl.BookingSvc.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toBookingResponse(booking))
}

func (ctrl *BookingController) ListBookings(c *gin.Context) {
	filter := services.BookingFilter{Status: domain.BookingStatus(c.Query("status"))}
	if raw := c.Query("customerId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "customerId must be an integer")
			return
		}
		filter.CustomerID = uint(id)
	}

	bookings, err := ctrl.BookingSvc.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *BookingController) ConfirmBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	booking, err := ctrl.BookingSvc.ConfirmBooking(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"status":      booking.Status,
		"confirmedAt": booking.ConfirmedAt,
	})
}

func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
			return
		}
	}

	booking, err := ctrl.BookingSvc.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"status":       booking.Status,
		"cancelledAt":  booking.CancelledAt,
		"cancelReason": booking.CancelReason,
	})
}

func (ctrl *BookingController) CheckIn(c *gin.Context) {
	var req StaySelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	booking, err := ctrl.BookingSvc.CheckIn(c.Request.Context(), req.BookingID, req.RoomStayIDs)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toBookingResponse(booking))
}

func (ctrl *BookingController) CheckOut(c *gin.Context) {
	var req StaySelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	booking, err := ctrl.BookingSvc.CheckOut(c.Request.Context(), req.BookingID, req.RoomStayIDs)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toBookingResponse(booking))
}

func (ctrl *BookingController) WalkInBooking(c *gin.Context) {
	var req WalkInBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.WalkInBooking(c.Request.Context(), req.CustomerID, req.RoomIDs, checkOut, req.GuestList)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, toBookingResponse(booking))
}

func (ctrl *BookingController) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	txn, err := ctrl.BookingSvc.PostTransaction(c.Request.Context(), req.BookingID, amount, domain.TransactionKind(req.Kind))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, toTransactionResponse(txn))
}
