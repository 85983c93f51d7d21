package settings

import (
	"strings"

	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type PaymentMethodRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Details  string `json:"details"`
	IsActive *bool  `json:"is_active"`
}

// GET /api/settings
func GetUserSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var rows []models.UserSetting
		if err := database.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load settings")
		}

		out := make(map[string]string, len(rows))
		for _, s := range rows {
			out[s.Key] = s.Value
		}
		return c.JSON(fiber.Map{"settings": out})
	}
}

// PUT /api/settings upserts the provided keys, leaving others untouched.
func UpdateUserSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.Settings) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "settings must not be empty")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for key, value := range body.Settings {
				key = strings.TrimSpace(key)
				if key == "" {
					continue
				}
				row := models.UserSetting{UserID: userID, Key: key, Value: value}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
				}).Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not save settings")
		}

		return GetUserSettingsHandler()(c)
	}
}

// POST /api/settings/change-password
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.NewPassword) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "new password must be at least 8 characters")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "current password is incorrect")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		if err := database.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not change password")
		}

		return c.JSON(fiber.Map{"message": "password changed"})
	}
}

// GET /api/admin/settings (admin only)
func GetSystemSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.SystemSetting
		if err := database.DB.Order("key asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load settings")
		}

		out := make(map[string]string, len(rows))
		for _, s := range rows {
			out[s.Key] = s.Value
		}
		return c.JSON(fiber.Map{"settings": out})
	}
}

// PUT /api/admin/settings (admin only)
func UpdateSystemSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if len(body.Settings) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "settings must not be empty")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			for key, value := range body.Settings {
				key = strings.TrimSpace(key)
				if key == "" {
					continue
				}
				row := models.SystemSetting{Key: key, Value: value}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "key"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
				}).Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not save settings")
		}

		return GetSystemSettingsHandler()(c)
	}
}

// GET /api/payment-methods
func ListPaymentMethodsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.PaymentMethod{})
		if c.Query("all") != "true" {
			q = q.Where("is_active = ?", true)
		}

		var rows []models.PaymentMethod
		if err := q.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list payment methods")
		}
		return c.JSON(rows)
	}
}

// POST /api/payment-methods (admin only)
func CreatePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PaymentMethodRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || body.Type == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and type are required")
		}

		m := models.PaymentMethod{
			Name:     body.Name,
			Type:     body.Type,
			Details:  body.Details,
			IsActive: true,
		}
		if body.IsActive != nil {
			m.IsActive = *body.IsActive
		}

		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create payment method")
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// PUT /api/payment-methods/:id (admin only)
func UpdatePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.PaymentMethod
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}

		var body PaymentMethodRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if name := strings.TrimSpace(body.Name); name != "" {
			m.Name = name
		}
		if body.Type != "" {
			m.Type = body.Type
		}
		if body.Details != "" {
			m.Details = body.Details
		}
		if body.IsActive != nil {
			m.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update payment method")
		}
		return c.JSON(m)
	}
}

// DELETE /api/payment-methods/:id (admin only). Methods referenced by
// payments are deactivated instead of removed so history keeps resolving.
func DeletePaymentMethodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.PaymentMethod
		if err := database.DB.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}

		var refs int64
		database.DB.Model(&models.Payment{}).Where("payment_method_id = ?", m.ID).Count(&refs)
		if refs > 0 {
			if err := database.DB.Model(&m).Update("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not deactivate payment method")
			}
			return c.JSON(fiber.Map{"message": "payment method deactivated", "deactivated": true})
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete payment method")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
