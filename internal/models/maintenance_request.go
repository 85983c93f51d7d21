package models

import "time"

type MaintenancePriority string

const (
	MaintenancePriorityLow    MaintenancePriority = "low"
	MaintenancePriorityMedium MaintenancePriority = "medium"
	MaintenancePriorityHigh   MaintenancePriority = "high"
	MaintenancePriorityUrgent MaintenancePriority = "urgent"
)

type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "pending"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
	MaintenanceStatusCancelled  MaintenanceStatus = "cancelled"
)

type MaintenanceRequest struct {
	ID            uint     `gorm:"primaryKey"`
	TenantID      uint     `gorm:"index;not null"`
	Tenant        User     `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	PropertyID    uint     `gorm:"index;not null"`
	Property      Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Title         string   `gorm:"size:200;not null"`
	Description   string   `gorm:"size:2000"`
	Category      string   `gorm:"size:50"`
	Priority      MaintenancePriority `gorm:"size:20;not null;default:medium;index"`
	Status        MaintenanceStatus   `gorm:"size:20;not null;default:pending;index"`
	AssignedToID  *uint               `gorm:"column:assigned_to"`
	AssignedTo    *User               `gorm:"foreignKey:AssignedToID"`
	ScheduledDate *time.Time
	CompletedDate *time.Time
	EstimatedCost *float64
	ActualCost    *float64
	TenantNotes   string `gorm:"size:1000"`
	AdminNotes    string `gorm:"size:1000"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m *MaintenanceRequest) IsUrgent() bool {
	return m.Priority == MaintenancePriorityUrgent
}

func (m *MaintenanceRequest) IsOverdue(now time.Time) bool {
	return m.ScheduledDate != nil &&
		m.ScheduledDate.Before(now) &&
		m.Status != MaintenanceStatusCompleted &&
		m.Status != MaintenanceStatusCancelled
}

func (m *MaintenanceRequest) DaysOpen(now time.Time) int {
	return int(now.Sub(m.CreatedAt).Hours() / 24)
}
