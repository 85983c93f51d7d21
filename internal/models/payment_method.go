package models

import "time"

type PaymentMethod struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Type      string `gorm:"size:50;not null"` // cash, bank_transfer, mobile_money, card
	Details   string `gorm:"size:500"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
