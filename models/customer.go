package models

import (
	"gorm.io/gorm"
)

type Customer struct {
	gorm.Model

	FullName string `json:"fullName" gorm:"column:full_name;size:128"`
	Email    string `json:"email" gorm:"column:email;index;size:128"`
	Phone    string `json:"phone,omitempty" gorm:"column:phone;size:32"`
}
