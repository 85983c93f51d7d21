package models

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleLandlord UserRole = "landlord"
	RoleTenant   UserRole = "tenant"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusPending  UserStatus = "pending"
)

type User struct {
	ID           uint       `gorm:"primaryKey"`
	FirstName    string     `gorm:"size:100;not null"`
	LastName     string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:100;uniqueIndex;not null"`
	Phone        string     `gorm:"size:30"`
	PasswordHash string     `gorm:"size:255;not null"`
	Role         UserRole   `gorm:"size:20;not null;index"`
	Status       UserStatus `gorm:"size:20;not null;default:active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
