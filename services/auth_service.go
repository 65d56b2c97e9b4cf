package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"hms-backend/models"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

type AuthService struct {
	store Store
}

func NewAuthService(store Store) *AuthService {
	return &AuthService{store: store}
}

// Login verifies an employee's credentials against the stored bcrypt hash.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Employee, error) {
	emp, err := s.store.GetEmployeeByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(emp.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return emp, nil
}
