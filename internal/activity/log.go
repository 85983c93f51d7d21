// Package activity records who did what, feeding the dashboard
// recent-activities feed. Best effort: a failed write is logged by the
// caller and never fails the request.
package activity

import (
	"fmt"

	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"
)

type Entry struct {
	ActorID     uint
	ActorName   string
	EntityType  string
	EntityID    uint
	Action      models.ActivityAction
	Description string
}

func Record(e Entry) error {
	row := models.ActivityLog{
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("activity log write failed: %w", err)
	}
	return nil
}

func Recent(limit int) ([]models.ActivityLog, error) {
	var rows []models.ActivityLog
	err := database.DB.Order("created_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}
