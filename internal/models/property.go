package models

import "time"

type PropertyStatus string

const (
	PropertyStatusActive      PropertyStatus = "active"
	PropertyStatusInactive    PropertyStatus = "inactive"
	PropertyStatusMaintenance PropertyStatus = "maintenance"
)

// Property owns the available_units counter. Nothing mutates it directly;
// all changes go through the ledger availability operations.
type Property struct {
	ID             uint   `gorm:"primaryKey"`
	LandlordID     uint   `gorm:"index;not null"`
	Landlord       User   `gorm:"foreignKey:LandlordID"`
	Name           string `gorm:"size:200;not null"`
	Type           string `gorm:"size:50"`
	Address        string `gorm:"size:500"`
	TotalUnits     int    `gorm:"not null"`
	AvailableUnits int    `gorm:"not null"`
	RentAmount     float64
	DepositAmount  float64
	Currency       string         `gorm:"size:10;default:XAF"`
	Status         PropertyStatus `gorm:"size:20;not null;default:active;index"`
	Description    string         `gorm:"size:1000"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Property) HasAvailableUnits() bool {
	return p.AvailableUnits > 0
}

// OccupancyRate is the occupied share of units as a percentage, two decimals.
func (p *Property) OccupancyRate() float64 {
	if p.TotalUnits == 0 {
		return 0
	}
	occupied := p.TotalUnits - p.AvailableUnits
	return roundTo(float64(occupied)/float64(p.TotalUnits)*100, 2)
}
