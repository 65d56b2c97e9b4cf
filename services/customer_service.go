package services

import (
	"context"
	"fmt"
	"strings"

	"hms-backend/models"
)

type CustomerService struct {
	store Store
}

func NewCustomerService(store Store) *CustomerService {
	return &CustomerService{store: store}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.TrimSpace(c.Email)
	if c.FullName == "" {
		return fmt.Errorf("validation: fullName is required")
	}
	return s.store.CreateCustomer(ctx, c)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// SearchCustomers applies the directory defaults: page 1, 20 per page,
// newest first.
func (s *CustomerService) SearchCustomers(ctx context.Context, q CustomerQuery) ([]models.Customer, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	switch q.SortBy {
	case "fullName", "email", "createdAt":
	default:
		q.SortBy = "createdAt"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return s.store.SearchCustomers(ctx, q)
}
