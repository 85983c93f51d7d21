package report

import (
	"time"

	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/reports/revenue?months=12
func RevenueReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		months := c.QueryInt("months", 12)
		if months < 1 || months > 60 {
			return fiber.NewError(fiber.StatusBadRequest, "months must be between 1 and 60")
		}

		now := time.Now()
		since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

		q, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		rows, err := MonthlyRevenue(q, since)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build revenue report")
		}

		var total float64
		for _, r := range rows {
			total += r.Revenue
		}

		oq, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		overdue, err := Overdue(oq, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build revenue report")
		}

		return c.JSON(fiber.Map{
			"since":         since.Format("2006-01-02"),
			"monthly":       rows,
			"total_revenue": total,
			"overdue":       overdue,
		})
	}
}

// GET /api/reports/occupancy
func OccupancyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.Properties(database.DB.Model(&models.Property{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		rows, err := Occupancy(q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build occupancy report")
		}

		var totalUnits, availableUnits int
		for _, r := range rows {
			totalUnits += r.TotalUnits
			availableUnits += r.AvailableUnits
		}
		overall := 0.0
		if totalUnits > 0 {
			overall = float64(totalUnits-availableUnits) / float64(totalUnits) * 100
		}

		return c.JSON(fiber.Map{
			"properties":       rows,
			"total_units":      totalUnits,
			"available_units":  availableUnits,
			"overall_occupied": overall,
		})
	}
}

// GET /api/reports/maintenance
func MaintenanceReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		summary, err := Maintenance(func() *gorm.DB {
			q, qerr := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), role, userID)
			if qerr != nil {
				return database.DB.Model(&models.MaintenanceRequest{}).Where("1 = 0")
			}
			return q
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build maintenance report")
		}

		return c.JSON(summary)
	}
}

// GET /api/reports/users (admin only)
func UsersReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countRole := func(role models.UserRole) int64 {
			var v int64
			database.DB.Model(&models.User{}).Where("role = ?", role).Count(&v)
			return v
		}

		var active, pending int64
		database.DB.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&active)
		database.DB.Model(&models.User{}).Where("status = ?", models.UserStatusPending).Count(&pending)

		var total int64
		database.DB.Model(&models.User{}).Count(&total)

		return c.JSON(fiber.Map{
			"total":     total,
			"admins":    countRole(models.RoleAdmin),
			"landlords": countRole(models.RoleLandlord),
			"tenants":   countRole(models.RoleTenant),
			"active":    active,
			"pending":   pending,
		})
	}
}
