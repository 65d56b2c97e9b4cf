package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hms-backend/domain"
	"hms-backend/services"
	"hms-backend/utils"
)

type ServiceUsageRequest struct {
	RoomStayID uint `json:"roomStayId" binding:"required"`
	ServiceID  uint `json:"serviceId" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type UpdateServiceUsageRequest struct {
	Quantity *int   `json:"quantity,omitempty"`
	Status   string `json:"status,omitempty"`
}

type ServiceUsageController struct {
	BookingSvc *services.BookingService
}

func NewServiceUsageController(svc *services.BookingService) *ServiceUsageController {
	return &ServiceUsageController{BookingSvc: svc}
}

func (ctrl *ServiceUsageController) AddServiceUsage(c *gin.Context) {
	var req ServiceUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	usage, err := ctrl.BookingSvc.AddServiceUsage(c.Request.Context(), req.RoomStayID, req.ServiceID, req.Quantity)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, toUsageResponse(usage))
}

// UpdateServiceUsage changes quantity or cancels with status=CANCELLED.
func (ctrl *ServiceUsageController) UpdateServiceUsage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateServiceUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}
	if req.Status != "" && req.Status != string(domain.UsageCancelled) {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "status may only be set to CANCELLED")
		return
	}

	usage, err := ctrl.BookingSvc.UpdateServiceUsage(c.Request.Context(), id, req.Quantity, req.Status == string(domain.UsageCancelled))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toUsageResponse(usage))
}
