package scope

import (
	"testing"

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

// seed two landlords with one property, one tenancy, one payment and one
// maintenance request each
func seedTwoLandlords(t *testing.T, db *gorm.DB) (landlordA, landlordB, tenantA, tenantB models.User) {
	t.Helper()

	mkUser := func(email string, role models.UserRole) models.User {
		u := models.User{
			FirstName: "U", LastName: "Ser", Email: email,
			PasswordHash: "x", Role: role, Status: models.UserStatusActive,
		}
		require.NoError(t, db.Create(&u).Error)
		return u
	}

	landlordA = mkUser("a@example.com", models.RoleLandlord)
	landlordB = mkUser("b@example.com", models.RoleLandlord)
	tenantA = mkUser("ta@example.com", models.RoleTenant)
	tenantB = mkUser("tb@example.com", models.RoleTenant)

	for _, pair := range []struct {
		landlord models.User
		tenant   models.User
	}{{landlordA, tenantA}, {landlordB, tenantB}} {
		prop := models.Property{
			LandlordID: pair.landlord.ID, Name: "P-" + pair.landlord.Email,
			TotalUnits: 2, AvailableUnits: 1,
			Status: models.PropertyStatusActive, Currency: "XAF",
		}
		require.NoError(t, db.Create(&prop).Error)

		require.NoError(t, db.Create(&models.Tenancy{
			UserID: pair.tenant.ID, PropertyID: prop.ID,
			Status: models.TenancyStatusActive,
		}).Error)
		require.NoError(t, db.Create(&models.Payment{
			TenantID: pair.tenant.ID, PropertyID: prop.ID,
			Amount: 100, PaymentType: models.PaymentTypeRent,
			Status: models.PaymentStatusPending,
		}).Error)
		require.NoError(t, db.Create(&models.MaintenanceRequest{
			TenantID: pair.tenant.ID, PropertyID: prop.ID,
			Title: "leak", Priority: models.MaintenancePriorityMedium,
			Status: models.MaintenanceStatusPending,
		}).Error)
	}
	return
}

func TestPaymentsScopePerRole(t *testing.T) {
	db := newTestDB(t)
	landlordA, _, tenantA, _ := seedTwoLandlords(t, db)

	count := func(role models.UserRole, userID uint) int64 {
		q, err := Payments(db.Model(&models.Payment{}), role, userID)
		require.NoError(t, err)
		var n int64
		require.NoError(t, q.Count(&n).Error)
		return n
	}

	assert.Equal(t, int64(2), count(models.RoleAdmin, 0))
	assert.Equal(t, int64(1), count(models.RoleLandlord, landlordA.ID))
	assert.Equal(t, int64(1), count(models.RoleTenant, tenantA.ID))
}

func TestTenanciesScopePerRole(t *testing.T) {
	db := newTestDB(t)
	landlordA, _, tenantA, _ := seedTwoLandlords(t, db)

	count := func(role models.UserRole, userID uint) int64 {
		q, err := Tenancies(db.Model(&models.Tenancy{}), role, userID)
		require.NoError(t, err)
		var n int64
		require.NoError(t, q.Count(&n).Error)
		return n
	}

	assert.Equal(t, int64(2), count(models.RoleAdmin, 0))
	assert.Equal(t, int64(1), count(models.RoleLandlord, landlordA.ID))
	assert.Equal(t, int64(1), count(models.RoleTenant, tenantA.ID))
}

func TestMaintenanceRequestsScopePerRole(t *testing.T) {
	db := newTestDB(t)
	landlordA, _, tenantA, _ := seedTwoLandlords(t, db)

	count := func(role models.UserRole, userID uint) int64 {
		q, err := MaintenanceRequests(db.Model(&models.MaintenanceRequest{}), role, userID)
		require.NoError(t, err)
		var n int64
		require.NoError(t, q.Count(&n).Error)
		return n
	}

	assert.Equal(t, int64(2), count(models.RoleAdmin, 0))
	assert.Equal(t, int64(1), count(models.RoleLandlord, landlordA.ID))
	assert.Equal(t, int64(1), count(models.RoleTenant, tenantA.ID))
}

func TestPropertiesScopeLandlordOnly(t *testing.T) {
	db := newTestDB(t)
	landlordA, _, tenantA, _ := seedTwoLandlords(t, db)

	q, err := Properties(db.Model(&models.Property{}), models.RoleLandlord, landlordA.ID)
	require.NoError(t, err)
	var n int64
	require.NoError(t, q.Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// tenants browse the full listing
	q, err = Properties(db.Model(&models.Property{}), models.RoleTenant, tenantA.ID)
	require.NoError(t, err)
	require.NoError(t, q.Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestUnknownRoleIsError(t *testing.T) {
	db := newTestDB(t)

	_, err := Payments(db, models.UserRole("intruder"), 1)
	assert.Error(t, err)
	_, err = Tenancies(db, models.UserRole(""), 1)
	assert.Error(t, err)
	_, err = Properties(db, models.UserRole("root"), 1)
	assert.Error(t, err)
	_, err = MaintenanceRequests(db, models.UserRole("guest"), 1)
	assert.Error(t, err)
}
