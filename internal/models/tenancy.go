package models

import "time"

type TenancyStatus string

const (
	TenancyStatusPending    TenancyStatus = "pending"
	TenancyStatusActive     TenancyStatus = "active"
	TenancyStatusInactive   TenancyStatus = "inactive"
	TenancyStatusTerminated TenancyStatus = "terminated"
)

type LeaseStatus string

const (
	LeaseExpired      LeaseStatus = "expired"
	LeaseExpiringSoon LeaseStatus = "expiring_soon"
	LeaseCurrent      LeaseStatus = "current"
	LeaseFuture       LeaseStatus = "future"
)

// Tenancy binds a tenant user to a property for a lease period.
type Tenancy struct {
	ID            uint     `gorm:"primaryKey"`
	UserID        uint     `gorm:"index;not null"`
	User          User     `gorm:"foreignKey:UserID"`
	PropertyID    uint     `gorm:"index;not null"`
	Property      Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	UnitNumber    string   `gorm:"size:20"`
	LeaseStart    time.Time
	LeaseEnd      time.Time
	RentAmount    float64
	DepositAmount float64
	Status        TenancyStatus `gorm:"size:20;not null;default:pending;index"`
	MoveInDate    *time.Time
	MoveOutDate   *time.Time
	Notes         string `gorm:"size:1000"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Tenancy) IsLeaseActive(now time.Time) bool {
	return !t.LeaseStart.After(now) && !t.LeaseEnd.Before(now)
}

// IsLeaseExpiringSoon is a forward window: a lease that already expired
// is not "expiring soon".
func (t *Tenancy) IsLeaseExpiringSoon(now time.Time, days int) bool {
	return !t.LeaseEnd.After(now.AddDate(0, 0, days)) && !t.LeaseEnd.Before(now)
}

// LeaseStatus evaluates in priority order; expired wins over the 30-day window.
func (t *Tenancy) LeaseStatus(now time.Time) LeaseStatus {
	switch {
	case t.LeaseEnd.Before(now):
		return LeaseExpired
	case !t.LeaseEnd.After(now.AddDate(0, 0, 30)):
		return LeaseExpiringSoon
	case !t.LeaseStart.After(now):
		return LeaseCurrent
	default:
		return LeaseFuture
	}
}

func (t *Tenancy) DaysUntilLeaseExpiry(now time.Time) int {
	return int(t.LeaseEnd.Sub(now).Hours() / 24)
}
