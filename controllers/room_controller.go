package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hms-backend/domain"
	"hms-backend/models"
	"hms-backend/services"
	"hms-backend/utils"
)

type CreateRoomRequest struct {
	RoomTypeID   uint   `json:"roomTypeId" binding:"required"`
	RoomNumber   string `json:"roomNumber" binding:"required"`
	Floor        int    `json:"floor"`
	Price        string `json:"price"`
	MaxOccupancy int    `json:"maxOccupancy"`
	Description  string `json:"description"`
}

type HousekeepingRequest struct {
	Status string `json:"status"`
}

type RoomController struct {
	RoomSvc    *services.RoomService
	BookingSvc *services.BookingService
}

func NewRoomController(roomSvc *services.RoomService, bookingSvc *services.BookingService) *RoomController {
	return &RoomController{RoomSvc: roomSvc, BookingSvc: bookingSvc}
}

func (ctrl *RoomController) GetRooms(c *gin.Context) {
	rooms, err := ctrl.RoomSvc.ListRooms(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	var priceCents domain.Cents
	if req.Price != "" {
		var err error
		priceCents, err = domain.ParseAmount(req.Price)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
			return
		}
	}

	room := &models.Room{
		RoomTypeID:   req.RoomTypeID,
		RoomNumber:   req.RoomNumber,
		Floor:        req.Floor,
		PriceCents:   int64(priceCents),
		MaxOccupancy: req.MaxOccupancy,
		Description:  req.Description,
	}
	if err := ctrl.RoomSvc.CreateRoom(c.Request.Context(), room); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// SetHousekeeping sets or clears a housekeeping override on a room.
func (ctrl *RoomController) SetHousekeeping(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req HousekeepingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	if err := ctrl.RoomSvc.SetHousekeeping(c.Request.Context(), id, domain.RoomStatus(req.Status)); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"roomId": id, "housekeepingStatus": req.Status})
}

// GetAvailableRooms answers ?roomTypeId=&checkIn=&checkOut= from the
// availability index.
func (ctrl *RoomController) GetAvailableRooms(c *gin.Context) {
	typeID, err := strconv.ParseUint(c.Query("roomTypeId"), 10, 32)
	if err != nil || typeID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "roomTypeId must be a positive integer")
		return
	}
	checkIn, err := domain.ParseDate(c.Query("checkIn"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	checkOut, err := domain.ParseDate(c.Query("checkOut"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	rooms, err := ctrl.BookingSvc.FindAvailableRooms(c.Request.Context(), uint(typeID), checkIn, checkOut)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

func (ctrl *RoomController) GetRoomTypes(c *gin.Context) {
	types, err := ctrl.RoomSvc.ListRoomTypes(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

func (ctrl *RoomController) GetServices(c *gin.Context) {
	list, err := ctrl.RoomSvc.ListServices(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	type serviceResponse struct {
		models.HotelService
		UnitPrice string `json:"unitPrice"`
	}
	out := make([]serviceResponse, 0, len(list))
	for _, svc := range list {
		out = append(out, serviceResponse{HotelService: svc, UnitPrice: domain.Cents(svc.UnitPriceCents).String()})
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}
