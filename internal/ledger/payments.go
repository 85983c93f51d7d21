package ledger

import (
	"errors"
	"strings"
	"time"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

const receiptRetries = 3

type MarkPaidInput struct {
	PaymentMethodID      *uint
	TransactionReference string
	ProcessedBy          uint
}

// MarkPaid moves a payment from pending to completed. The write is a single
// conditional UPDATE guarded on status='pending', so of two concurrent calls
// exactly one wins; the loser learns which terminal state it lost to.
// Receipt numbers are generated fresh and retried on the unique index.
func MarkPaid(db *gorm.DB, paymentID uint, in MarkPaidInput) (*models.Payment, error) {
	var payment models.Payment
	if err := db.First(&payment, paymentID).Error; err != nil {
		return nil, err
	}

	if err := transitionGuard(payment.Status); err != nil {
		return nil, err
	}

	now := time.Now()

	methodID := payment.PaymentMethodID
	if in.PaymentMethodID != nil {
		methodID = in.PaymentMethodID
	}
	txRef := payment.TransactionReference
	if in.TransactionReference != "" {
		txRef = in.TransactionReference
	}

	var lastErr error
	for attempt := 0; attempt < receiptRetries; attempt++ {
		receipt := GenerateReceiptNumber(now)

		res := db.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":                models.PaymentStatusCompleted,
				"paid_date":             now,
				"payment_method_id":     methodID,
				"transaction_reference": txRef,
				"processed_by":          in.ProcessedBy,
				"receipt_number":        receipt,
			})
		if res.Error != nil {
			if isDuplicateKey(res.Error) {
				lastErr = res.Error
				continue
			}
			return nil, res.Error
		}

		if res.RowsAffected == 0 {
			return nil, loseReason(db, paymentID)
		}

		if err := db.First(&payment, paymentID).Error; err != nil {
			return nil, err
		}
		return &payment, nil
	}

	return nil, errors.Join(ErrConcurrencyConflict, lastErr)
}

// Cancel and MarkFailed share the pending->terminal compare-and-swap.
func Cancel(db *gorm.DB, paymentID uint) (*models.Payment, error) {
	return terminate(db, paymentID, models.PaymentStatusCancelled)
}

func MarkFailed(db *gorm.DB, paymentID uint) (*models.Payment, error) {
	return terminate(db, paymentID, models.PaymentStatusFailed)
}

func terminate(db *gorm.DB, paymentID uint, target models.PaymentStatus) (*models.Payment, error) {
	var payment models.Payment
	if err := db.First(&payment, paymentID).Error; err != nil {
		return nil, err
	}
	if err := transitionGuard(payment.Status); err != nil {
		return nil, err
	}

	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Update("status", target)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, loseReason(db, paymentID)
	}

	if err := db.First(&payment, paymentID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ApplyLateFee persists the derived late fee onto a still-pending payment.
// CalculateLateFee itself stays pure; this is the explicit write.
func ApplyLateFee(db *gorm.DB, paymentID uint, rate float64, now time.Time) (*models.Payment, error) {
	var payment models.Payment
	if err := db.First(&payment, paymentID).Error; err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrInvalidTransition
	}

	fee := payment.CalculateLateFee(now, rate)

	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Update("late_fee", fee)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrencyConflict
	}

	payment.LateFee = fee
	return &payment, nil
}

// ValidateUpdate enforces field immutability at the boundary: once a payment
// is completed its financial identity (amount, tenant, property, type) is
// frozen. Nil arguments mean "not being changed".
func ValidateUpdate(p *models.Payment, amount *float64, tenantID, propertyID *uint, paymentType *models.PaymentType) error {
	if p.Status != models.PaymentStatusCompleted {
		return nil
	}
	if amount != nil && *amount != p.Amount {
		return ErrImmutableField
	}
	if tenantID != nil && *tenantID != p.TenantID {
		return ErrImmutableField
	}
	if propertyID != nil && *propertyID != p.PropertyID {
		return ErrImmutableField
	}
	if paymentType != nil && *paymentType != p.PaymentType {
		return ErrImmutableField
	}
	return nil
}

// CheckPaymentInvariant: paid_date and receipt_number set iff completed.
func CheckPaymentInvariant(p *models.Payment) error {
	completed := p.Status == models.PaymentStatusCompleted
	if completed != (p.PaidDate != nil) || completed != (p.ReceiptNumber != nil) {
		return ErrInvariantViolation
	}
	return nil
}

func transitionGuard(status models.PaymentStatus) error {
	switch status {
	case models.PaymentStatusPending:
		return nil
	case models.PaymentStatusCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrInvalidTransition
	}
}

// loseReason distinguishes "someone else completed it" from "the row moved
// under us in some other way" after a zero-row CAS.
func loseReason(db *gorm.DB, paymentID uint) error {
	var current models.Payment
	if err := db.First(&current, paymentID).Error; err != nil {
		return err
	}
	if current.Status == models.PaymentStatusCompleted {
		return ErrAlreadyCompleted
	}
	if current.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	return ErrConcurrencyConflict
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
