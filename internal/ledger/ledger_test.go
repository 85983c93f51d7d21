package ledger

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

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

var emailSeq atomic.Uint64

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s%d@example.com", prefix, emailSeq.Add(1))
}

func seedProperty(t *testing.T, db *gorm.DB, total, available int) models.Property {
	t.Helper()

	landlord := models.User{
		FirstName:    "Lea",
		LastName:     "Owner",
		Email:        uniqueEmail("lea"),
		PasswordHash: "x",
		Role:         models.RoleLandlord,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(&landlord).Error)

	p := models.Property{
		LandlordID:     landlord.ID,
		Name:           "Sunrise Apartments",
		TotalUnits:     total,
		AvailableUnits: available,
		RentAmount:     150000,
		Currency:       "XAF",
		Status:         models.PropertyStatusActive,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedPayment(t *testing.T, db *gorm.DB, amount float64, due time.Time) models.Payment {
	t.Helper()

	tenant := models.User{
		FirstName:    "Tom",
		LastName:     "Renter",
		Email:        uniqueEmail("tom"),
		PasswordHash: "x",
		Role:         models.RoleTenant,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(&tenant).Error)

	prop := seedProperty(t, db, 4, 4)

	p := models.Payment{
		TenantID:    tenant.ID,
		PropertyID:  prop.ID,
		Amount:      amount,
		Currency:    "XAF",
		PaymentType: models.PaymentTypeRent,
		DueDate:     due,
		Status:      models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
