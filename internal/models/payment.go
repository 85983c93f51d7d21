package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether no further transition is defined out of the status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled || s == PaymentStatusFailed
}

type PaymentType string

const (
	PaymentTypeRent        PaymentType = "rent"
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeMaintenance PaymentType = "maintenance"
	PaymentTypeUtilities   PaymentType = "utilities"
	PaymentTypeLateFee     PaymentType = "late_fee"
	PaymentTypeOther       PaymentType = "other"
)

type Payment struct {
	ID                   uint `gorm:"primaryKey"`
	TenantID             uint `gorm:"index;not null"`
	Tenant               User `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	PropertyID           uint `gorm:"index;not null"`
	Property             Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	PaymentMethodID      *uint
	PaymentMethod        *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
	Amount               float64        `gorm:"not null"`
	Currency             string         `gorm:"size:10;default:XAF"`
	PaymentType          PaymentType    `gorm:"size:20;not null;index"`
	PaymentPeriod        string         `gorm:"size:20"` // e.g. "2026-09"
	DueDate              time.Time      `gorm:"index;not null"`
	PaidDate             *time.Time
	Status               PaymentStatus `gorm:"size:20;not null;default:pending;index"`
	TransactionReference string        `gorm:"size:255"`
	ReceiptNumber        *string       `gorm:"size:40;uniqueIndex"`
	Notes                string        `gorm:"size:1000"`
	LateFee              float64       `gorm:"not null;default:0"`
	ProcessedByID        *uint         `gorm:"column:processed_by"`
	ProcessedBy          *User         `gorm:"foreignKey:ProcessedByID"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TotalAmount is the amount owed including any assessed late fee.
func (p *Payment) TotalAmount() float64 {
	return p.Amount + p.LateFee
}

func (p *Payment) IsOverdue(now time.Time) bool {
	return p.DueDate.Before(now) && p.Status == PaymentStatusPending
}

// DaysOverdue is 0 for completed payments and payments not yet due.
func (p *Payment) DaysOverdue(now time.Time) int {
	if p.Status == PaymentStatusCompleted || !p.DueDate.Before(now) {
		return 0
	}
	return int(now.Sub(p.DueDate).Hours() / 24)
}

// CalculateLateFee derives the penalty for an overdue payment: rate of the
// amount per started 30-day block, rounded half-up to two decimals. Pure;
// persisting the fee is a separate, explicit write.
func (p *Payment) CalculateLateFee(now time.Time, rate float64) float64 {
	if !p.IsOverdue(now) {
		return 0
	}
	blocks := math.Ceil(float64(p.DaysOverdue(now)) / 30)
	fee := decimal.NewFromFloat(p.Amount).
		Mul(decimal.NewFromFloat(rate)).
		Mul(decimal.NewFromFloat(blocks))
	f, _ := fee.Round(2).Float64()
	return f
}

// IsDeletable: completed payments are part of the financial record and may
// never be removed.
func (p *Payment) IsDeletable() bool {
	return p.Status != PaymentStatusCompleted
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
