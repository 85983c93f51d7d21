// Package report builds the admin-facing aggregate views. Aggregators take a
// pre-scoped query so the same shapes serve admin-wide and landlord-wide
// reporting.
package report

import (
	"time"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

type MonthlyRevenueRow struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Count   int64   `json:"count"`
}

// MonthlyRevenue groups completed payments by the month they were paid.
// Bucketing happens in Go so the query stays portable across the postgres
// production driver and the sqlite test driver.
func MonthlyRevenue(q *gorm.DB, since time.Time) ([]MonthlyRevenueRow, error) {
	var payments []models.Payment
	err := q.
		Where("payments.status = ? AND payments.paid_date >= ?", models.PaymentStatusCompleted, since).
		Order("payments.paid_date asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		year  int
		month int
	}
	buckets := make(map[key]*MonthlyRevenueRow)
	order := make([]key, 0)
	for _, p := range payments {
		if p.PaidDate == nil {
			continue
		}
		k := key{p.PaidDate.Year(), int(p.PaidDate.Month())}
		row, ok := buckets[k]
		if !ok {
			row = &MonthlyRevenueRow{Year: k.year, Month: k.month}
			buckets[k] = row
			order = append(order, k)
		}
		row.Revenue += p.TotalAmount()
		row.Count++
	}

	rows := make([]MonthlyRevenueRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *buckets[k])
	}
	return rows, nil
}

type OccupancyRow struct {
	PropertyID     uint    `json:"property_id"`
	Name           string  `json:"name"`
	TotalUnits     int     `json:"total_units"`
	AvailableUnits int     `json:"available_units"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

func Occupancy(q *gorm.DB) ([]OccupancyRow, error) {
	var props []models.Property
	if err := q.Order("properties.name asc").Find(&props).Error; err != nil {
		return nil, err
	}

	rows := make([]OccupancyRow, 0, len(props))
	for _, p := range props {
		rows = append(rows, OccupancyRow{
			PropertyID:     p.ID,
			Name:           p.Name,
			TotalUnits:     p.TotalUnits,
			AvailableUnits: p.AvailableUnits,
			OccupancyRate:  p.OccupancyRate(),
		})
	}
	return rows, nil
}

type OverdueSummary struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

func Overdue(q *gorm.DB, now time.Time) (OverdueSummary, error) {
	var s OverdueSummary
	err := q.
		Where("payments.status = ? AND payments.due_date < ?", models.PaymentStatusPending, now).
		Select("COUNT(*) AS count, COALESCE(SUM(payments.amount + payments.late_fee), 0) AS total_amount").
		Scan(&s).Error
	return s, err
}

type MaintenanceSummary struct {
	Total      int64   `json:"total"`
	Pending    int64   `json:"pending"`
	InProgress int64   `json:"in_progress"`
	Completed  int64   `json:"completed"`
	Cancelled  int64   `json:"cancelled"`
	TotalCost  float64 `json:"total_cost"`
}

// Maintenance aggregates request counts by status. The builder is invoked per
// aggregate because gorm sessions are consumed by a single terminal call.
func Maintenance(newQuery func() *gorm.DB) (MaintenanceSummary, error) {
	var s MaintenanceSummary

	if err := newQuery().Count(&s.Total).Error; err != nil {
		return s, err
	}

	byStatus := map[models.MaintenanceStatus]*int64{
		models.MaintenanceStatusPending:    &s.Pending,
		models.MaintenanceStatusInProgress: &s.InProgress,
		models.MaintenanceStatusCompleted:  &s.Completed,
		models.MaintenanceStatusCancelled:  &s.Cancelled,
	}
	for status, dst := range byStatus {
		if err := newQuery().Where("maintenance_requests.status = ?", status).Count(dst).Error; err != nil {
			return s, err
		}
	}

	err := newQuery().
		Where("maintenance_requests.status = ?", models.MaintenanceStatusCompleted).
		Select("COALESCE(SUM(maintenance_requests.actual_cost), 0)").
		Scan(&s.TotalCost).Error
	return s, err
}
