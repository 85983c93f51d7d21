package models

import "time"

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

const (
	NotificationTypePaymentReminder    = "payment_reminder"
	NotificationTypePaymentCompleted   = "payment_completed"
	NotificationTypeMaintenanceUpdate  = "maintenance_update"
	NotificationTypeMaintenanceRequest = "maintenance_request"
	NotificationTypeLeaseExpiry        = "lease_expiry"
)

// Notification rows are written by the emitter and read by the external
// delivery collaborator. Only read_at is ever toggled after insert;
// expiry is a query-time predicate, not a state change.
type Notification struct {
	ID          uint  `gorm:"primaryKey"`
	RecipientID uint  `gorm:"index;not null"`
	Recipient   User  `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	SenderID    *uint
	Sender      *User  `gorm:"foreignKey:SenderID"`
	Type        string `gorm:"size:50;not null;index"`
	Title       string `gorm:"size:200;not null"`
	Message     string `gorm:"size:1000;not null"`
	Data        string `gorm:"type:jsonb"`
	Priority    NotificationPriority `gorm:"size:10;not null;default:medium"`
	ActionURL   string               `gorm:"size:255"`
	ReadAt      *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}
