package report

import (
	"testing"
	"time"

	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedCompleted(t *testing.T, db *gorm.DB, amount, lateFee float64, paid time.Time) {
	t.Helper()
	receipt := "RCP" + paid.Format("20060102150405") + paid.Format(".000000")
	require.NoError(t, db.Create(&models.Payment{
		TenantID: 1, PropertyID: 1,
		Amount: amount, LateFee: lateFee,
		PaymentType: models.PaymentTypeRent,
		DueDate:     paid, PaidDate: &paid,
		ReceiptNumber: &receipt,
		Status:        models.PaymentStatusCompleted,
	}).Error)
}

func TestMonthlyRevenueGroupsByPaidMonth(t *testing.T) {
	db := newTestDB(t)

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 5, 0, 0, 0, 1000, time.UTC)
	feb2 := time.Date(2026, 2, 20, 0, 0, 0, 2000, time.UTC)
	seedCompleted(t, db, 1000, 0, jan)
	seedCompleted(t, db, 500, 25, feb1)
	seedCompleted(t, db, 300, 0, feb2)

	// pending rows never count
	require.NoError(t, db.Create(&models.Payment{
		TenantID: 1, PropertyID: 1, Amount: 9999,
		PaymentType: models.PaymentTypeRent,
		DueDate:     feb1, Status: models.PaymentStatusPending,
	}).Error)

	rows, err := MonthlyRevenue(db.Model(&models.Payment{}), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, MonthlyRevenueRow{Year: 2026, Month: 1, Revenue: 1000, Count: 1}, rows[0])
	assert.Equal(t, MonthlyRevenueRow{Year: 2026, Month: 2, Revenue: 825, Count: 2}, rows[1])
}

func TestMonthlyRevenueRespectsSince(t *testing.T) {
	db := newTestDB(t)

	seedCompleted(t, db, 1000, 0, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC))
	seedCompleted(t, db, 700, 0, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	rows, err := MonthlyRevenue(db.Model(&models.Payment{}), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 700.0, rows[0].Revenue)
}

func TestOverdueSummary(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mk := func(amount, lateFee float64, due time.Time, status models.PaymentStatus) {
		require.NoError(t, db.Create(&models.Payment{
			TenantID: 1, PropertyID: 1, Amount: amount, LateFee: lateFee,
			PaymentType: models.PaymentTypeRent, DueDate: due, Status: status,
		}).Error)
	}

	mk(100, 5, now.AddDate(0, 0, -10), models.PaymentStatusPending)
	mk(200, 0, now.AddDate(0, 0, -1), models.PaymentStatusPending)
	mk(300, 0, now.AddDate(0, 0, 5), models.PaymentStatusPending)
	mk(400, 0, now.AddDate(0, 0, -10), models.PaymentStatusCancelled)

	s, err := Overdue(db.Model(&models.Payment{}), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Count)
	assert.Equal(t, 305.0, s.TotalAmount)
}

func TestOccupancy(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.Property{
		LandlordID: 1, Name: "A", TotalUnits: 4, AvailableUnits: 1,
		Status: models.PropertyStatusActive, Currency: "XAF",
	}).Error)
	require.NoError(t, db.Create(&models.Property{
		LandlordID: 1, Name: "B", TotalUnits: 2, AvailableUnits: 2,
		Status: models.PropertyStatusActive, Currency: "XAF",
	}).Error)

	rows, err := Occupancy(db.Model(&models.Property{}))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, 75.0, rows[0].OccupancyRate)
	assert.Equal(t, 0.0, rows[1].OccupancyRate)
}

func TestMaintenanceSummary(t *testing.T) {
	db := newTestDB(t)

	cost := 120.50
	mk := func(status models.MaintenanceStatus, actual *float64) {
		require.NoError(t, db.Create(&models.MaintenanceRequest{
			TenantID: 1, PropertyID: 1, Title: "t",
			Priority: models.MaintenancePriorityMedium,
			Status:   status, ActualCost: actual,
		}).Error)
	}

	mk(models.MaintenanceStatusPending, nil)
	mk(models.MaintenanceStatusPending, nil)
	mk(models.MaintenanceStatusInProgress, nil)
	mk(models.MaintenanceStatusCompleted, &cost)
	mk(models.MaintenanceStatusCancelled, nil)

	s, err := Maintenance(func() *gorm.DB {
		return db.Model(&models.MaintenanceRequest{})
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), s.Total)
	assert.Equal(t, int64(2), s.Pending)
	assert.Equal(t, int64(1), s.InProgress)
	assert.Equal(t, int64(1), s.Completed)
	assert.Equal(t, int64(1), s.Cancelled)
	assert.Equal(t, 120.50, s.TotalCost)
}
