package models

import (
	"gorm.io/gorm"
)

type Employee struct {
	gorm.Model

	FullName string `json:"fullName" gorm:"column:full_name;size:128"`
	Username string `json:"username" gorm:"column:username;uniqueIndex;size:128"`
	Password string `json:"-" gorm:"column:password;size:128"`
}
