package tenancy

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/ledger"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/notify"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateTenancyRequest struct {
	UserID        *uint   `json:"user_id"`
	FirstName     string  `json:"first_name"` // used when user_id is absent
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Password      string  `json:"password"`
	PropertyID    uint    `json:"property_id"`
	UnitNumber    string  `json:"unit_number"`
	LeaseStart    string  `json:"lease_start"` // "2026-09-01"
	LeaseEnd      string  `json:"lease_end"`
	RentAmount    float64 `json:"rent_amount"`
	DepositAmount float64 `json:"deposit_amount"`
	Notes         string  `json:"notes"`
}

type UpdateTenancyRequest struct {
	UnitNumber    *string  `json:"unit_number"`
	LeaseStart    *string  `json:"lease_start"`
	LeaseEnd      *string  `json:"lease_end"`
	RentAmount    *float64 `json:"rent_amount"`
	DepositAmount *float64 `json:"deposit_amount"`
	Status        *string  `json:"status"`
	Notes         *string  `json:"notes"`
}

type TenancyResponse struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	TenantName    string  `json:"tenant_name,omitempty"`
	PropertyID    uint    `json:"property_id"`
	PropertyName  string  `json:"property_name,omitempty"`
	UnitNumber    string  `json:"unit_number"`
	LeaseStart    string  `json:"lease_start"`
	LeaseEnd      string  `json:"lease_end"`
	RentAmount    float64 `json:"rent_amount"`
	DepositAmount float64 `json:"deposit_amount"`
	Status        string  `json:"status"`
	LeaseStatus   string  `json:"lease_status"`
	Notes         string  `json:"notes,omitempty"`
}

func toResponse(t models.Tenancy) TenancyResponse {
	r := TenancyResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		PropertyID:    t.PropertyID,
		UnitNumber:    t.UnitNumber,
		LeaseStart:    t.LeaseStart.Format("2006-01-02"),
		LeaseEnd:      t.LeaseEnd.Format("2006-01-02"),
		RentAmount:    t.RentAmount,
		DepositAmount: t.DepositAmount,
		Status:        string(t.Status),
		LeaseStatus:   string(t.LeaseStatus(time.Now())),
		Notes:         t.Notes,
	}
	if t.User.ID != 0 {
		r.TenantName = t.User.FullName()
	}
	if t.Property.ID != 0 {
		r.PropertyName = t.Property.Name
	}
	return r
}

func loadScoped(c *fiber.Ctx, id string) (*models.Tenancy, error) {
	userID, role, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	var t models.Tenancy
	if err := database.DB.Preload("User").Preload("Property").First(&t, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "tenancy not found")
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleLandlord:
		if t.Property.LandlordID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not a tenancy under your properties")
		}
	case models.RoleTenant:
		if t.UserID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not your tenancy")
		}
	default:
		return nil, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}

	return &t, nil
}

// resolveTenantUser returns an existing tenant user or creates one from the
// request fields.
func resolveTenantUser(body *CreateTenancyRequest) (uint, error) {
	if body.UserID != nil {
		var user models.User
		if err := database.DB.First(&user, "id = ? AND role = ?", *body.UserID, models.RoleTenant).Error; err != nil {
			return 0, fiber.NewError(fiber.StatusBadRequest, "tenant user not found")
		}
		return user.ID, nil
	}

	email := strings.TrimSpace(strings.ToLower(body.Email))
	if email == "" || body.Password == "" || body.FirstName == "" || body.LastName == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "user_id or full tenant details are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
	}

	user := models.User{
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		Email:        email,
		Phone:        body.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleTenant,
		Status:       models.UserStatusActive,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return 0, fiber.NewError(fiber.StatusConflict, "could not create tenant user (email taken?)")
	}
	return user.ID, nil
}

// POST /api/tenancies (admin, landlord)
//
// Creating an active tenancy claims a unit. The claim is a conditional
// decrement inside the same transaction as the insert: when the property is
// full the whole creation fails, it is never silently allowed.
func CreateTenancyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateTenancyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.PropertyID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "property_id is required")
		}

		leaseStart, err := time.Parse("2006-01-02", body.LeaseStart)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lease_start must be YYYY-MM-DD")
		}
		leaseEnd, err := time.Parse("2006-01-02", body.LeaseEnd)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lease_end must be YYYY-MM-DD")
		}
		if leaseEnd.Before(leaseStart) {
			return fiber.NewError(fiber.StatusBadRequest, "lease_end must not be before lease_start")
		}

		var property models.Property
		if err := database.DB.First(&property, body.PropertyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "property not found")
		}
		if role == models.RoleLandlord && property.LandlordID != actorID {
			return fiber.NewError(fiber.StatusForbidden, "not your property")
		}
		if err := ledger.CheckPropertyInvariant(&property); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "property unit counters are corrupt")
		}

		tenantUserID, err := resolveTenantUser(&body)
		if err != nil {
			return err
		}

		rentAmount := body.RentAmount
		if rentAmount == 0 {
			rentAmount = property.RentAmount
		}

		t := models.Tenancy{
			UserID:        tenantUserID,
			PropertyID:    body.PropertyID,
			UnitNumber:    body.UnitNumber,
			LeaseStart:    leaseStart,
			LeaseEnd:      leaseEnd,
			RentAmount:    rentAmount,
			DepositAmount: body.DepositAmount,
			Status:        models.TenancyStatusActive,
			Notes:         body.Notes,
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.TenancyCreated(tx, body.PropertyID, t.Status); err != nil {
				return err
			}
			return tx.Create(&t).Error
		})
		if txErr != nil {
			if errors.Is(txErr, ledger.ErrCapacityExceeded) {
				return fiber.NewError(fiber.StatusConflict, "property has no available units")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create tenancy")
		}

		// lease expiry heads-up is evaluated once, at creation time
		now := time.Now()
		if t.IsLeaseExpiringSoon(now, 30) {
			if err := notify.Emit(database.DB, notify.LeaseExpiry(t.UserID, t.LeaseEnd)); err != nil {
				log.Printf("lease expiry notification: %v", err)
			}
		}

		var actor models.User
		database.DB.First(&actor, actorID)
		if logErr := activity.Record(activity.Entry{
			ActorID:     actorID,
			ActorName:   actor.FullName(),
			EntityType:  "tenancy",
			EntityID:    t.ID,
			Action:      models.ActivityActionCreate,
			Description: fmt.Sprintf("Tenancy created on %s, lease until %s", property.Name, t.LeaseEnd.Format("2006-01-02")),
		}); logErr != nil {
			log.Printf("activity log: %v", logErr)
		}

		database.DB.Preload("User").Preload("Property").First(&t, t.ID)
		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// GET /api/tenancies?status=&property_id=&expiring=true&days=30
func ListTenanciesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.Tenancies(database.DB.Model(&models.Tenancy{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		if s := c.Query("status"); s != "" {
			q = q.Where("tenancies.status = ?", s)
		}
		if pid := c.QueryInt("property_id"); pid > 0 {
			q = q.Where("tenancies.property_id = ?", pid)
		}
		if c.Query("expiring") == "true" {
			days := c.QueryInt("days", 30)
			now := time.Now()
			q = q.Where("tenancies.lease_end >= ? AND tenancies.lease_end <= ?", now, now.AddDate(0, 0, days))
		}

		var rows []models.Tenancy
		if err := q.Preload("User").Preload("Property").
			Order("tenancies.created_at desc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list tenancies")
		}

		resp := make([]TenancyResponse, 0, len(rows))
		for _, t := range rows {
			resp = append(resp, toResponse(t))
		}
		return c.JSON(resp)
	}
}

// GET /api/tenancies/expiring-leases?days=30
func ExpiringLeasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		days := c.QueryInt("days", 30)
		now := time.Now()

		q, err := scope.Tenancies(database.DB.Model(&models.Tenancy{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		var rows []models.Tenancy
		if err := q.
			Where("tenancies.lease_end >= ? AND tenancies.lease_end <= ?", now, now.AddDate(0, 0, days)).
			Preload("User").Preload("Property").
			Order("tenancies.lease_end asc").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list expiring leases")
		}

		resp := make([]TenancyResponse, 0, len(rows))
		for _, t := range rows {
			resp = append(resp, toResponse(t))
		}
		return c.JSON(resp)
	}
}

// GET /api/tenancies/:id
func GetTenancyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*t))
	}
}

// PUT /api/tenancies/:id (admin, landlord)
//
// A status change moves the unit counter in the same transaction as the
// tenancy row, per the transition table in the ledger.
func UpdateTenancyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateTenancyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.UnitNumber != nil {
			t.UnitNumber = *body.UnitNumber
		}
		if body.LeaseStart != nil {
			d, err := time.Parse("2006-01-02", *body.LeaseStart)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "lease_start must be YYYY-MM-DD")
			}
			t.LeaseStart = d
		}
		if body.LeaseEnd != nil {
			d, err := time.Parse("2006-01-02", *body.LeaseEnd)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "lease_end must be YYYY-MM-DD")
			}
			t.LeaseEnd = d
		}
		if t.LeaseEnd.Before(t.LeaseStart) {
			return fiber.NewError(fiber.StatusBadRequest, "lease_end must not be before lease_start")
		}
		if body.RentAmount != nil {
			t.RentAmount = *body.RentAmount
		}
		if body.DepositAmount != nil {
			t.DepositAmount = *body.DepositAmount
		}
		if body.Notes != nil {
			t.Notes = *body.Notes
		}

		oldStatus := t.Status
		if body.Status != nil {
			newStatus := models.TenancyStatus(*body.Status)
			switch newStatus {
			case models.TenancyStatusPending, models.TenancyStatusActive,
				models.TenancyStatusInactive, models.TenancyStatusTerminated:
				t.Status = newStatus
			default:
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.TenancyTransition(tx, t.PropertyID, oldStatus, t.Status); err != nil {
				return err
			}
			return tx.Save(t).Error
		})
		if txErr != nil {
			if errors.Is(txErr, ledger.ErrCapacityExceeded) {
				return fiber.NewError(fiber.StatusConflict, "property unit counters do not allow this transition")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not update tenancy")
		}

		return c.JSON(toResponse(*t))
	}
}

// DELETE /api/tenancies/:id (admin, landlord)
func DeleteTenancyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		outstanding, err := ledger.OutstandingBalance(database.DB, t.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check balance")
		}
		if outstanding > 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, ledger.ErrOutstandingBalance.Error())
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			// deleting an active tenancy releases its unit
			if t.Status == models.TenancyStatusActive {
				if err := ledger.TenancyTransition(tx, t.PropertyID, t.Status, models.TenancyStatusTerminated); err != nil {
					return err
				}
			}
			return tx.Delete(&models.Tenancy{}, t.ID).Error
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete tenancy")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/tenancies/:id/payments
func TenancyPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		var rows []models.Payment
		if err := database.DB.
			Where("tenant_id = ? AND property_id = ?", t.UserID, t.PropertyID).
			Order("due_date desc").
			Limit(100).
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
		}

		type paymentRow struct {
			ID            uint    `json:"id"`
			Amount        float64 `json:"amount"`
			LateFee       float64 `json:"late_fee"`
			TotalAmount   float64 `json:"total_amount"`
			PaymentType   string  `json:"payment_type"`
			DueDate       string  `json:"due_date"`
			Status        string  `json:"status"`
			ReceiptNumber *string `json:"receipt_number,omitempty"`
		}

		resp := make([]paymentRow, 0, len(rows))
		for _, p := range rows {
			resp = append(resp, paymentRow{
				ID:            p.ID,
				Amount:        p.Amount,
				LateFee:       p.LateFee,
				TotalAmount:   p.TotalAmount(),
				PaymentType:   string(p.PaymentType),
				DueDate:       p.DueDate.Format("2006-01-02"),
				Status:        string(p.Status),
				ReceiptNumber: p.ReceiptNumber,
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/tenancies/:id/statistics
func TenancyStatisticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		now := time.Now()

		totalPaid, err := ledger.TotalPaid(database.DB, t.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute totals")
		}
		outstanding, err := ledger.OutstandingBalance(database.DB, t.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute totals")
		}
		summary, err := ledger.SummarizePayments(database.DB, t.UserID, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute payment summary")
		}

		var maintenanceTotal, maintenanceOpen int64
		database.DB.Model(&models.MaintenanceRequest{}).
			Where("tenant_id = ?", t.UserID).Count(&maintenanceTotal)
		database.DB.Model(&models.MaintenanceRequest{}).
			Where("tenant_id = ? AND status IN ?", t.UserID,
				[]models.MaintenanceStatus{models.MaintenanceStatusPending, models.MaintenanceStatusInProgress}).
			Count(&maintenanceOpen)

		return c.JSON(fiber.Map{
			"lease_status":         t.LeaseStatus(now),
			"days_until_expiry":    t.DaysUntilLeaseExpiry(now),
			"total_paid":           totalPaid,
			"outstanding_balance":  outstanding,
			"payment_history":      summary,
			"maintenance_requests": fiber.Map{"total": maintenanceTotal, "open": maintenanceOpen},
		})
	}
}
