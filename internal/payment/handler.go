package payment

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/ledger"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/notify"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultLateFeeRate = 0.05

type CreatePaymentRequest struct {
	TenantID             uint    `json:"tenant_id"`
	PropertyID           uint    `json:"property_id"`
	PaymentMethodID      *uint   `json:"payment_method_id"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	PaymentType          string  `json:"payment_type"`
	PaymentPeriod        string  `json:"payment_period"`
	DueDate              string  `json:"due_date"` // "2026-09-30"
	TransactionReference string  `json:"transaction_reference"`
	Notes                string  `json:"notes"`
}

type UpdatePaymentRequest struct {
	Amount        *float64 `json:"amount"`
	TenantID      *uint    `json:"tenant_id"`
	PropertyID    *uint    `json:"property_id"`
	PaymentType   *string  `json:"payment_type"`
	PaymentPeriod *string  `json:"payment_period"`
	DueDate       *string  `json:"due_date"`
	Notes         *string  `json:"notes"`
}

type MarkPaidRequest struct {
	PaymentMethodID      *uint  `json:"payment_method_id"`
	TransactionReference string `json:"transaction_reference"`
}

type PaymentResponse struct {
	ID                   uint       `json:"id"`
	TenantID             uint       `json:"tenant_id"`
	PropertyID           uint       `json:"property_id"`
	PaymentMethodID      *uint      `json:"payment_method_id,omitempty"`
	Amount               float64    `json:"amount"`
	LateFee              float64    `json:"late_fee"`
	TotalAmount          float64    `json:"total_amount"`
	Currency             string     `json:"currency"`
	PaymentType          string     `json:"payment_type"`
	PaymentPeriod        string     `json:"payment_period,omitempty"`
	DueDate              string     `json:"due_date"`
	PaidDate             *time.Time `json:"paid_date,omitempty"`
	Status               string     `json:"status"`
	TransactionReference string     `json:"transaction_reference,omitempty"`
	ReceiptNumber        *string    `json:"receipt_number,omitempty"`
	DaysOverdue          int        `json:"days_overdue"`
	Notes                string     `json:"notes,omitempty"`
}

func toResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                   p.ID,
		TenantID:             p.TenantID,
		PropertyID:           p.PropertyID,
		PaymentMethodID:      p.PaymentMethodID,
		Amount:               p.Amount,
		LateFee:              p.LateFee,
		TotalAmount:          p.TotalAmount(),
		Currency:             p.Currency,
		PaymentType:          string(p.PaymentType),
		PaymentPeriod:        p.PaymentPeriod,
		DueDate:              p.DueDate.Format("2006-01-02"),
		PaidDate:             p.PaidDate,
		Status:               string(p.Status),
		TransactionReference: p.TransactionReference,
		ReceiptNumber:        p.ReceiptNumber,
		DaysOverdue:          p.DaysOverdue(time.Now()),
		Notes:                p.Notes,
	}
}

func validPaymentType(t string) bool {
	switch models.PaymentType(t) {
	case models.PaymentTypeRent, models.PaymentTypeDeposit, models.PaymentTypeMaintenance,
		models.PaymentTypeUtilities, models.PaymentTypeLateFee, models.PaymentTypeOther:
		return true
	}
	return false
}

func loadScoped(c *fiber.Ctx, id string) (*models.Payment, error) {
	userID, role, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	var p models.Payment
	if err := database.DB.Preload("Property").First(&p, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "payment not found")
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleLandlord:
		if p.Property.LandlordID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not a payment under your properties")
		}
	case models.RoleTenant:
		if p.TenantID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not your payment")
		}
	default:
		return nil, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}

	return &p, nil
}

// lateFeeRate reads the platform override, falling back to 5% per block.
func lateFeeRate() float64 {
	var s models.SystemSetting
	if err := database.DB.First(&s, "key = ?", models.SettingLateFeeRate).Error; err != nil {
		return defaultLateFeeRate
	}
	rate, err := strconv.ParseFloat(s.Value, 64)
	if err != nil || rate <= 0 || rate >= 1 {
		return defaultLateFeeRate
	}
	return rate
}

// POST /api/payments (admin, landlord)
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.TenantID == 0 || body.PropertyID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "tenant_id and property_id are required")
		}
		if body.Amount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
		}
		if !validPaymentType(body.PaymentType) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment_type")
		}

		dueDate, err := time.Parse("2006-01-02", body.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
		}

		var property models.Property
		if err := database.DB.First(&property, body.PropertyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "property not found")
		}
		if role == models.RoleLandlord && property.LandlordID != actorID {
			return fiber.NewError(fiber.StatusForbidden, "not your property")
		}

		var tenant models.User
		if err := database.DB.First(&tenant, "id = ? AND role = ?", body.TenantID, models.RoleTenant).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "tenant not found")
		}

		txRef := body.TransactionReference
		if txRef == "" {
			txRef = uuid.NewString()
		}
		currency := body.Currency
		if currency == "" {
			currency = property.Currency
		}

		p := models.Payment{
			TenantID:             body.TenantID,
			PropertyID:           body.PropertyID,
			PaymentMethodID:      body.PaymentMethodID,
			Amount:               body.Amount,
			Currency:             currency,
			PaymentType:          models.PaymentType(body.PaymentType),
			PaymentPeriod:        body.PaymentPeriod,
			DueDate:              dueDate,
			Status:               models.PaymentStatusPending,
			TransactionReference: txRef,
			Notes:                body.Notes,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create payment")
		}

		// best-effort reminder; a lost notification never fails the payment
		if err := notify.Emit(database.DB, notify.PaymentReminder(p.TenantID, p.ID, p.DueDate)); err != nil {
			log.Printf("payment reminder notification: %v", err)
		}

		var actor models.User
		database.DB.First(&actor, actorID)
		if logErr := activity.Record(activity.Entry{
			ActorID:     actorID,
			ActorName:   actor.FullName(),
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.ActivityActionCreate,
			Description: fmt.Sprintf("Payment of %.2f %s due %s", p.Amount, p.Currency, p.DueDate.Format("2006-01-02")),
		}); logErr != nil {
			log.Printf("activity log: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}

// GET /api/payments?status=&property_id=&tenant_id=&payment_type=&overdue=true&from=&to=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		if s := c.Query("status"); s != "" {
			q = q.Where("payments.status = ?", s)
		}
		if pid := c.QueryInt("property_id"); pid > 0 {
			q = q.Where("payments.property_id = ?", pid)
		}
		if tid := c.QueryInt("tenant_id"); tid > 0 {
			q = q.Where("payments.tenant_id = ?", tid)
		}
		if t := c.Query("payment_type"); t != "" {
			q = q.Where("payments.payment_type = ?", t)
		}
		if c.Query("overdue") == "true" {
			q = q.Where("payments.due_date < ? AND payments.status = ?", time.Now(), models.PaymentStatusPending)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
			}
			q = q.Where("payments.due_date >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
			}
			q = q.Where("payments.due_date <= ?", d)
		}

		var rows []models.Payment
		if err := q.Order("payments.due_date desc, payments.id desc").Limit(200).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
		}

		resp := make([]PaymentResponse, 0, len(rows))
		for _, p := range rows {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/payments/pending and /api/payments/overdue
func PendingPaymentsHandler() fiber.Handler {
	return statusListHandler(func(q *gorm.DB) *gorm.DB {
		return q.Where("payments.status = ?", models.PaymentStatusPending)
	})
}

func OverduePaymentsHandler() fiber.Handler {
	return statusListHandler(func(q *gorm.DB) *gorm.DB {
		return q.Where("payments.status = ? AND payments.due_date < ?", models.PaymentStatusPending, time.Now())
	})
}

func statusListHandler(filter func(*gorm.DB) *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		var rows []models.Payment
		if err := filter(q).Order("payments.due_date asc").Limit(200).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
		}

		resp := make([]PaymentResponse, 0, len(rows))
		for _, p := range rows {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/payments/:id
func GetPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*p))
	}
}

// PUT /api/payments/:id (admin, landlord)
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		// reassignment targets get the same checks as creation; loadScoped
		// only vouches for the row as it stands
		if body.PropertyID != nil && *body.PropertyID != p.PropertyID {
			var target models.Property
			if err := database.DB.First(&target, *body.PropertyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "property not found")
			}
			if role == models.RoleLandlord && target.LandlordID != userID {
				return fiber.NewError(fiber.StatusForbidden, "not your property")
			}
		}
		if body.TenantID != nil && *body.TenantID != p.TenantID {
			var tenant models.User
			if err := database.DB.First(&tenant, "id = ? AND role = ?", *body.TenantID, models.RoleTenant).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "tenant not found")
			}
		}

		var ptype *models.PaymentType
		if body.PaymentType != nil {
			if !validPaymentType(*body.PaymentType) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payment_type")
			}
			t := models.PaymentType(*body.PaymentType)
			ptype = &t
		}

		// financial identity of a completed payment is frozen
		if err := ledger.ValidateUpdate(p, body.Amount, body.TenantID, body.PropertyID, ptype); err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "completed payments cannot be modified")
		}

		if body.Amount != nil {
			if *body.Amount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
			}
			p.Amount = *body.Amount
		}
		if body.TenantID != nil {
			p.TenantID = *body.TenantID
		}
		if body.PropertyID != nil {
			p.PropertyID = *body.PropertyID
		}
		if ptype != nil {
			p.PaymentType = *ptype
		}
		if body.PaymentPeriod != nil {
			p.PaymentPeriod = *body.PaymentPeriod
		}
		if body.DueDate != nil {
			d, err := time.Parse("2006-01-02", *body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
			}
			p.DueDate = d
		}
		if body.Notes != nil {
			p.Notes = *body.Notes
		}

		if err := database.DB.Save(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update payment")
		}

		return c.JSON(toResponse(*p))
	}
}

// DELETE /api/payments/:id (admin, landlord)
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		if !p.IsDeletable() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "cannot delete completed payment")
		}

		if err := database.DB.Delete(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete payment")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/payments/:id/mark-paid (admin, landlord)
func MarkPaidHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		var body MarkPaidRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.PaymentMethodID != nil {
			var method models.PaymentMethod
			if err := database.DB.First(&method, "id = ? AND is_active = ?", *body.PaymentMethodID, true).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "payment method not found")
			}
		}

		updated, err := ledger.MarkPaid(database.DB, p.ID, ledger.MarkPaidInput{
			PaymentMethodID:      body.PaymentMethodID,
			TransactionReference: body.TransactionReference,
			ProcessedBy:          actorID,
		})
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrAlreadyCompleted):
				return fiber.NewError(fiber.StatusConflict, "payment is already completed")
			case errors.Is(err, ledger.ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, "payment is in a terminal state")
			case errors.Is(err, ledger.ErrConcurrencyConflict):
				return fiber.NewError(fiber.StatusConflict, "payment changed concurrently, retry")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "could not mark payment as paid")
			}
		}

		// completion notice is best effort, never rolled into the transition
		if updated.ReceiptNumber != nil {
			if err := notify.Emit(database.DB, notify.PaymentCompleted(updated.TenantID, updated.ID, *updated.ReceiptNumber)); err != nil {
				log.Printf("payment completed notification: %v", err)
			}
		}

		var actor models.User
		database.DB.First(&actor, actorID)
		if logErr := activity.Record(activity.Entry{
			ActorID:     actorID,
			ActorName:   actor.FullName(),
			EntityType:  "payment",
			EntityID:    updated.ID,
			Action:      models.ActivityActionUpdate,
			Description: fmt.Sprintf("Payment %d marked as paid", updated.ID),
		}); logErr != nil {
			log.Printf("activity log: %v", logErr)
		}

		return c.JSON(toResponse(*updated))
	}
}

// POST /api/payments/:id/apply-late-fee (admin, landlord)
//
// The fee itself is a pure derivation; this endpoint is the explicit write
// that persists it.
func ApplyLateFeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		updated, err := ledger.ApplyLateFee(database.DB, p.ID, lateFeeRate(), time.Now())
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, "late fees apply to pending payments only")
			case errors.Is(err, ledger.ErrConcurrencyConflict):
				return fiber.NewError(fiber.StatusConflict, "payment changed concurrently, retry")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "could not apply late fee")
			}
		}

		return c.JSON(toResponse(*updated))
	}
}

// POST /api/payments/:id/cancel (admin, landlord)
func CancelPaymentHandler() fiber.Handler {
	return terminalHandler(ledger.Cancel)
}

// POST /api/payments/:id/mark-failed (admin, landlord)
func MarkFailedHandler() fiber.Handler {
	return terminalHandler(ledger.MarkFailed)
}

func terminalHandler(op func(*gorm.DB, uint) (*models.Payment, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		updated, err := op(database.DB, p.ID)
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrAlreadyCompleted), errors.Is(err, ledger.ErrInvalidTransition):
				return fiber.NewError(fiber.StatusConflict, "payment is in a terminal state")
			case errors.Is(err, ledger.ErrConcurrencyConflict):
				return fiber.NewError(fiber.StatusConflict, "payment changed concurrently, retry")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "could not update payment")
			}
		}

		return c.JSON(toResponse(*updated))
	}
}

// GET /api/payments/statistics
func PaymentStatisticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		scoped := func() (*gorm.DB, error) {
			return scope.Payments(database.DB.Model(&models.Payment{}), role, userID)
		}

		sum := func(build func(*gorm.DB) *gorm.DB) (float64, error) {
			q, err := scoped()
			if err != nil {
				return 0, err
			}
			var v float64
			err = build(q).Select("COALESCE(SUM(payments.amount + payments.late_fee), 0)").Scan(&v).Error
			return v, err
		}
		count := func(build func(*gorm.DB) *gorm.DB) (int64, error) {
			q, err := scoped()
			if err != nil {
				return 0, err
			}
			var v int64
			err = build(q).Count(&v).Error
			return v, err
		}

		totalRevenue, err := sum(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ?", models.PaymentStatusCompleted)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute statistics")
		}
		monthlyRevenue, _ := sum(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ? AND payments.paid_date >= ?", models.PaymentStatusCompleted, monthStart)
		})
		pendingAmount, _ := sum(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ?", models.PaymentStatusPending)
		})
		overdueAmount, _ := sum(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ? AND payments.due_date < ?", models.PaymentStatusPending, now)
		})
		totalCount, _ := count(func(q *gorm.DB) *gorm.DB { return q })
		completedCount, _ := count(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ?", models.PaymentStatusCompleted)
		})
		pendingCount, _ := count(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ?", models.PaymentStatusPending)
		})
		overdueCount, _ := count(func(q *gorm.DB) *gorm.DB {
			return q.Where("payments.status = ? AND payments.due_date < ?", models.PaymentStatusPending, now)
		})

		return c.JSON(fiber.Map{
			"total_revenue":      totalRevenue,
			"monthly_revenue":    monthlyRevenue,
			"pending_amount":     pendingAmount,
			"overdue_amount":     overdueAmount,
			"total_payments":     totalCount,
			"completed_payments": completedCount,
			"pending_payments":   pendingCount,
			"overdue_payments":   overdueCount,
		})
	}
}
