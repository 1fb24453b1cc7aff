package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleWarehouse UserRole = "warehouse"
	RoleViewer    UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWarehouse, RoleViewer:
		return true
	}
	return false
}

type User struct {
	UUIDModel
	Username     string     `gorm:"size:100;uniqueIndex;not null"`
	Email        string     `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string     `gorm:"size:255;not null"`
	FullName     *string    `gorm:"size:255"`
	Role         UserRole   `gorm:"size:20;not null;default:warehouse"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLogin    *time.Time
}
