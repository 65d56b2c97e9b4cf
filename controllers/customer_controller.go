package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hms-backend/models"
	"hms-backend/services"
	"hms-backend/utils"
)

type CreateCustomerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type CustomerController struct {
	CustomerSvc *services.CustomerService
}

func NewCustomerController(svc *services.CustomerService) *CustomerController {
	return &CustomerController{CustomerSvc: svc}
}

func (ctrl *CustomerController) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	customer := &models.Customer{FullName: req.FullName, Email: req.Email, Phone: req.Phone}
	if err := ctrl.CustomerSvc.CreateCustomer(c.Request.Context(), customer); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, customer)
}

func (ctrl *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	customer, err := ctrl.CustomerSvc.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, customer)
}

// GetCustomers supports ?search=&page=&limit=&sortBy=&sortOrder=.
func (ctrl *CustomerController) GetCustomers(c *gin.Context) {
	q := services.CustomerQuery{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("page"); raw != "" {
		q.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("limit"); raw != "" {
		q.Limit, _ = strconv.Atoi(raw)
	}

	customers, total, err := ctrl.CustomerSvc.SearchCustomers(c.Request.Context(), q)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"items": customers,
		"total": total,
	})
}
