package notify

import (
	"time"

	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationResponse struct {
	ID        uint                        `json:"id"`
	Type      string                      `json:"type"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Priority  models.NotificationPriority `json:"priority"`
	ActionURL string                      `json:"action_url,omitempty"`
	IsRead    bool                        `json:"is_read"`
	ReadAt    *time.Time                  `json:"read_at,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

func toResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		ActionURL: n.ActionURL,
		IsRead:    n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// GET /api/notifications
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q := database.DB.
			Where("recipient_id = ?", userID).
			Where("expires_at IS NULL OR expires_at > ?", time.Now())

		if t := c.Query("type"); t != "" {
			q = q.Where("type = ?", t)
		}
		if p := c.Query("priority"); p != "" {
			q = q.Where("priority = ?", p)
		}

		var rows []models.Notification
		if err := q.Order("created_at desc").Limit(100).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list notifications")
		}

		resp := make([]NotificationResponse, 0, len(rows))
		for _, n := range rows {
			resp = append(resp, toResponse(n))
		}
		return c.JSON(resp)
	}
}

// GET /api/notifications/unread
func UnreadNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var rows []models.Notification
		if err := database.DB.
			Where("recipient_id = ? AND read_at IS NULL", userID).
			Where("expires_at IS NULL OR expires_at > ?", time.Now()).
			Order("created_at desc").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list notifications")
		}

		resp := make([]NotificationResponse, 0, len(rows))
		for _, n := range rows {
			resp = append(resp, toResponse(n))
		}
		return c.JSON(fiber.Map{"count": len(resp), "notifications": resp})
	}
}

// POST /api/notifications/:id/read
func MarkNotificationReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var n models.Notification
		if err := database.DB.First(&n, "id = ? AND recipient_id = ?", c.Params("id"), userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}

		if n.ReadAt == nil {
			now := time.Now()
			if err := database.DB.Model(&n).Update("read_at", now).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not mark as read")
			}
			n.ReadAt = &now
		}

		return c.JSON(toResponse(n))
	}
}

// POST /api/notifications/mark-all-read
func MarkAllNotificationsReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		res := database.DB.Model(&models.Notification{}).
			Where("recipient_id = ? AND read_at IS NULL", userID).
			Update("read_at", time.Now())
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not mark notifications as read")
		}

		return c.JSON(fiber.Map{"marked": res.RowsAffected})
	}
}

// DELETE /api/notifications/:id
func DeleteNotificationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		res := database.DB.Delete(&models.Notification{}, "id = ? AND recipient_id = ?", c.Params("id"), userID)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete notification")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "notification not found")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
