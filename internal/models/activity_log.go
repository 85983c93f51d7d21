package models

import "time"

type ActivityAction string

const (
	ActivityActionCreate ActivityAction = "create"
	ActivityActionUpdate ActivityAction = "update"
	ActivityActionDelete ActivityAction = "delete"
)

// ActivityLog feeds the dashboard recent-activities feed.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ActorID    uint      `json:"actor_id"`
	ActorName  string    `gorm:"size:200" json:"actor_name"` // denormalized
	EntityType string    `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Action     ActivityAction `gorm:"size:20" json:"action"`
	Description string        `gorm:"size:255" json:"description"`
}
