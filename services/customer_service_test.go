package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-backend/models"
	"hms-backend/services"
)

func TestCreateCustomerTrimsAndValidates(t *testing.T) {
	e := newTestEnv(t)
	svc := services.NewCustomerService(e.store)
	ctx := context.Background()

	err := svc.CreateCustomer(ctx, &models.Customer{FullName: "   "})
	assert.Error(t, err)

	c := &models.Customer{FullName: "  Grace Hopper  ", Email: " grace@example.com "}
	require.NoError(t, svc.CreateCustomer(ctx, c))
	assert.Equal(t, "Grace Hopper", c.FullName)
	assert.Equal(t, "grace@example.com", c.Email)
	assert.NotZero(t, c.ID)
}

func TestSearchCustomersDefaultsAndFilter(t *testing.T) {
	e := newTestEnv(t)
	svc := services.NewCustomerService(e.store)
	ctx := context.Background()

	e.store.AddCustomer(models.Customer{FullName: "Grace Hopper", Email: "grace@example.com"})
	e.store.AddCustomer(models.Customer{FullName: "Alan Turing", Email: "alan@example.com"})

	// env already seeds one customer; all three come back unfiltered
	all, total, err := svc.SearchCustomers(ctx, services.CustomerQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	matched, total, err := svc.SearchCustomers(ctx, services.CustomerQuery{Search: "grace"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, matched, 1)
	assert.Equal(t, "Grace Hopper", matched[0].FullName)

	// pagination clamps to the matched window
	page2, total, err := svc.SearchCustomers(ctx, services.CustomerQuery{Page: 2, Limit: 2, SortBy: "fullName", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page2, 1)
}
