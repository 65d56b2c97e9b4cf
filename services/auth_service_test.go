package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hms-backend/models"
	"hms-backend/services"
)

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	e.store.AddEmployee(models.Employee{FullName: "Front Desk", Username: "desk@hotel.local", Password: string(hash)})

	authSvc := services.NewAuthService(e.store)

	emp, err := authSvc.Login(ctx, "desk@hotel.local", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", emp.FullName)

	_, err = authSvc.Login(ctx, "desk@hotel.local", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "nobody@hotel.local", "secret")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}
