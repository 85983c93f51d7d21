package ledger

import (
	"time"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

// Amount owed is canonically amount + late_fee. Both sums use it so the
// balance a tenant sees and the total they eventually pay agree.

func TotalPaid(db *gorm.DB, tenantID uint) (float64, error) {
	return sumByStatus(db, tenantID, models.PaymentStatusCompleted)
}

func OutstandingBalance(db *gorm.DB, tenantID uint) (float64, error) {
	return sumByStatus(db, tenantID, models.PaymentStatusPending)
}

func sumByStatus(db *gorm.DB, tenantID uint, status models.PaymentStatus) (float64, error) {
	var total float64
	err := db.Model(&models.Payment{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Select("COALESCE(SUM(amount + late_fee), 0)").
		Scan(&total).Error
	return total, err
}

type PaymentSummary struct {
	TotalPayments     int64 `json:"total_payments"`
	CompletedPayments int64 `json:"completed_payments"`
	PendingPayments   int64 `json:"pending_payments"`
	OverduePayments   int64 `json:"overdue_payments"`
}

func SummarizePayments(db *gorm.DB, tenantID uint, now time.Time) (PaymentSummary, error) {
	var s PaymentSummary

	base := func() *gorm.DB {
		return db.Model(&models.Payment{}).Where("tenant_id = ?", tenantID)
	}

	if err := base().Count(&s.TotalPayments).Error; err != nil {
		return s, err
	}
	if err := base().Where("status = ?", models.PaymentStatusCompleted).Count(&s.CompletedPayments).Error; err != nil {
		return s, err
	}
	if err := base().Where("status = ?", models.PaymentStatusPending).Count(&s.PendingPayments).Error; err != nil {
		return s, err
	}
	err := base().Where("status = ? AND due_date < ?", models.PaymentStatusPending, now).Count(&s.OverduePayments).Error
	return s, err
}
