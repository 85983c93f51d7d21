package dashboard

import (
	"time"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/ledger"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/dashboard/stats
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		switch role {
		case models.RoleAdmin:
			return c.JSON(adminStats())
		case models.RoleLandlord:
			return c.JSON(landlordStats(userID))
		case models.RoleTenant:
			return c.JSON(tenantStats(userID))
		default:
			return fiber.NewError(fiber.StatusForbidden, "unknown role")
		}
	}
}

func adminStats() fiber.Map {
	now := time.Now()

	var users, properties, tenancies int64
	database.DB.Model(&models.User{}).Count(&users)
	database.DB.Model(&models.Property{}).Count(&properties)
	database.DB.Model(&models.Tenancy{}).Where("status = ?", models.TenancyStatusActive).Count(&tenancies)

	var totalRevenue float64
	database.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount + late_fee), 0)").
		Scan(&totalRevenue)

	var pendingPayments, overduePayments int64
	database.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPending).Count(&pendingPayments)
	database.DB.Model(&models.Payment{}).
		Where("status = ? AND due_date < ?", models.PaymentStatusPending, now).Count(&overduePayments)

	var openMaintenance int64
	database.DB.Model(&models.MaintenanceRequest{}).
		Where("status IN ?", []models.MaintenanceStatus{models.MaintenanceStatusPending, models.MaintenanceStatusInProgress}).
		Count(&openMaintenance)

	return fiber.Map{
		"total_users":      users,
		"total_properties": properties,
		"active_tenancies": tenancies,
		"total_revenue":    totalRevenue,
		"pending_payments": pendingPayments,
		"overdue_payments": overduePayments,
		"open_maintenance": openMaintenance,
	}
}

func landlordStats(landlordID uint) fiber.Map {
	now := time.Now()

	var props []models.Property
	database.DB.Where("landlord_id = ?", landlordID).Find(&props)

	var totalUnits, availableUnits int
	for _, p := range props {
		totalUnits += p.TotalUnits
		availableUnits += p.AvailableUnits
	}
	occupancy := 0.0
	if totalUnits > 0 {
		occupancy = float64(totalUnits-availableUnits) / float64(totalUnits) * 100
	}

	paymentQ := func() *gorm.DB {
		q, _ := scope.Payments(database.DB.Model(&models.Payment{}), models.RoleLandlord, landlordID)
		return q
	}

	var monthlyRevenue float64
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	paymentQ().
		Where("payments.status = ? AND payments.paid_date >= ?", models.PaymentStatusCompleted, monthStart).
		Select("COALESCE(SUM(payments.amount + payments.late_fee), 0)").
		Scan(&monthlyRevenue)

	var overduePayments int64
	paymentQ().
		Where("payments.status = ? AND payments.due_date < ?", models.PaymentStatusPending, now).
		Count(&overduePayments)

	var activeTenancies int64
	if tq, err := scope.Tenancies(database.DB.Model(&models.Tenancy{}), models.RoleLandlord, landlordID); err == nil {
		tq.Where("tenancies.status = ?", models.TenancyStatusActive).Count(&activeTenancies)
	}

	var openMaintenance int64
	if mq, err := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), models.RoleLandlord, landlordID); err == nil {
		mq.Where("maintenance_requests.status IN ?",
			[]models.MaintenanceStatus{models.MaintenanceStatusPending, models.MaintenanceStatusInProgress}).
			Count(&openMaintenance)
	}

	return fiber.Map{
		"total_properties": len(props),
		"total_units":      totalUnits,
		"available_units":  availableUnits,
		"occupancy_rate":   occupancy,
		"monthly_revenue":  monthlyRevenue,
		"active_tenancies": activeTenancies,
		"overdue_payments": overduePayments,
		"open_maintenance": openMaintenance,
	}
}

func tenantStats(tenantID uint) fiber.Map {
	now := time.Now()

	summary, _ := ledger.SummarizePayments(database.DB, tenantID, now)
	outstanding, _ := ledger.OutstandingBalance(database.DB, tenantID)

	var tenancy models.Tenancy
	leaseStatus := "none"
	var daysToExpiry *int
	if err := database.DB.
		Where("user_id = ? AND status = ?", tenantID, models.TenancyStatusActive).
		Order("lease_end desc").
		First(&tenancy).Error; err == nil {
		leaseStatus = string(tenancy.LeaseStatus(now))
		d := tenancy.DaysUntilLeaseExpiry(now)
		daysToExpiry = &d
	}

	var openMaintenance int64
	database.DB.Model(&models.MaintenanceRequest{}).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.MaintenanceStatus{models.MaintenanceStatusPending, models.MaintenanceStatusInProgress}).
		Count(&openMaintenance)

	return fiber.Map{
		"outstanding_balance":  outstanding,
		"total_payments":       summary.TotalPayments,
		"completed_payments":   summary.CompletedPayments,
		"pending_payments":     summary.PendingPayments,
		"overdue_payments":     summary.OverduePayments,
		"lease_status":         leaseStatus,
		"days_to_lease_expiry": daysToExpiry,
		"open_maintenance":     openMaintenance,
	}
}

// GET /api/dashboard/recent-activities
//
// Admins read the platform activity log; landlords and tenants get their own
// recent payments and maintenance requests.
func RecentActivitiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}

		switch role {
		case models.RoleAdmin:
			rows, err := activity.Recent(limit)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not load activities")
			}
			return c.JSON(fiber.Map{"activities": rows})
		case models.RoleLandlord, models.RoleTenant:
			payments, maintenanceRequests, err := recentRecordsFor(role, userID, limit)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not load activities")
			}
			return c.JSON(fiber.Map{
				"recent_payments":             payments,
				"recent_maintenance_requests": maintenanceRequests,
			})
		default:
			return fiber.NewError(fiber.StatusForbidden, "unknown role")
		}
	}
}

func recentRecordsFor(role models.UserRole, userID uint, limit int) ([]models.Payment, []models.MaintenanceRequest, error) {
	pq, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
	if err != nil {
		return nil, nil, err
	}
	var payments []models.Payment
	if err := pq.Order("payments.created_at desc").Limit(limit).Find(&payments).Error; err != nil {
		return nil, nil, err
	}

	mq, err := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), role, userID)
	if err != nil {
		return nil, nil, err
	}
	var requests []models.MaintenanceRequest
	if err := mq.Order("maintenance_requests.created_at desc").Limit(limit).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	return payments, requests, nil
}

// GET /api/dashboard/analytics?months=6
func AnalyticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		months := c.QueryInt("months", 6)
		if months < 1 || months > 24 {
			months = 6
		}

		now := time.Now()
		since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

		switch role {
		case models.RoleAdmin, models.RoleLandlord:
			q, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
			if err != nil {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			trend, err := revenueTrend(q, since)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not build analytics")
			}
			return c.JSON(fiber.Map{"since": since.Format("2006-01-02"), "revenue_trend": trend})
		case models.RoleTenant:
			// tenants see their own spend, not platform revenue
			q := database.DB.Model(&models.Payment{}).Where("payments.tenant_id = ?", userID)
			trend, err := revenueTrend(q, since)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not build analytics")
			}
			return c.JSON(fiber.Map{"since": since.Format("2006-01-02"), "spend_trend": trend})
		default:
			return fiber.NewError(fiber.StatusForbidden, "unknown role")
		}
	}
}

type trendPoint struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

func revenueTrend(q *gorm.DB, since time.Time) ([]trendPoint, error) {
	var payments []models.Payment
	err := q.
		Where("payments.status = ? AND payments.paid_date >= ?", models.PaymentStatusCompleted, since).
		Order("payments.paid_date asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	points := make([]trendPoint, 0)
	for _, p := range payments {
		if p.PaidDate == nil {
			continue
		}
		y, m := p.PaidDate.Year(), int(p.PaidDate.Month())
		if len(points) > 0 && points[len(points)-1].Year == y && points[len(points)-1].Month == m {
			points[len(points)-1].Amount += p.TotalAmount()
		} else {
			points = append(points, trendPoint{Year: y, Month: m, Amount: p.TotalAmount()})
		}
	}
	return points, nil
}
