package ledger

import (
	"testing"

	"rentfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func availableUnits(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Property
	require.NoError(t, db.First(&p, id).Error)
	return p.AvailableUnits
}

func TestDecrementIncrementRoundTrip(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 5, 5)

	ok, err := DecrementAvailableUnits(db, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, availableUnits(t, db, p.ID))

	ok, err = IncrementAvailableUnits(db, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, availableUnits(t, db, p.ID))
}

func TestDecrementInsufficientUnitsIsNoOp(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 5, 1)

	ok, err := DecrementAvailableUnits(db, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, availableUnits(t, db, p.ID))
}

func TestIncrementPastTotalIsNoOp(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 5, 5)

	ok, err := IncrementAvailableUnits(db, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, availableUnits(t, db, p.ID))
}

func TestTenancyCreatedActiveConsumesUnit(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 2, 2)

	require.NoError(t, TenancyCreated(db, p.ID, models.TenancyStatusActive))
	assert.Equal(t, 1, availableUnits(t, db, p.ID))

	// non-active creation leaves the counter alone
	require.NoError(t, TenancyCreated(db, p.ID, models.TenancyStatusPending))
	assert.Equal(t, 1, availableUnits(t, db, p.ID))
}

func TestTenancyCreatedAtCapacityFails(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 1, 0)

	err := TenancyCreated(db, p.ID, models.TenancyStatusActive)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, availableUnits(t, db, p.ID))
}

func TestTenancyTransitionTable(t *testing.T) {
	cases := []struct {
		name      string
		old       models.TenancyStatus
		new       models.TenancyStatus
		available int
		want      int
	}{
		{"active to inactive releases", models.TenancyStatusActive, models.TenancyStatusInactive, 1, 2},
		{"active to terminated releases", models.TenancyStatusActive, models.TenancyStatusTerminated, 1, 2},
		{"inactive to active consumes", models.TenancyStatusInactive, models.TenancyStatusActive, 1, 0},
		{"pending to active neutral", models.TenancyStatusPending, models.TenancyStatusActive, 1, 1},
		{"same status neutral", models.TenancyStatusActive, models.TenancyStatusActive, 1, 1},
		{"inactive to terminated neutral", models.TenancyStatusInactive, models.TenancyStatusTerminated, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			p := seedProperty(t, db, 3, tc.available)

			require.NoError(t, TenancyTransition(db, p.ID, tc.old, tc.new))
			assert.Equal(t, tc.want, availableUnits(t, db, p.ID))
		})
	}
}

func TestTenancyTransitionNoUnitsLeft(t *testing.T) {
	db := newTestDB(t)
	p := seedProperty(t, db, 2, 0)

	err := TenancyTransition(db, p.ID, models.TenancyStatusInactive, models.TenancyStatusActive)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestCheckPropertyInvariant(t *testing.T) {
	assert.NoError(t, CheckPropertyInvariant(&models.Property{TotalUnits: 5, AvailableUnits: 0}))
	assert.NoError(t, CheckPropertyInvariant(&models.Property{TotalUnits: 5, AvailableUnits: 5}))
	assert.ErrorIs(t, CheckPropertyInvariant(&models.Property{TotalUnits: 5, AvailableUnits: -1}), ErrInvariantViolation)
	assert.ErrorIs(t, CheckPropertyInvariant(&models.Property{TotalUnits: 5, AvailableUnits: 6}), ErrInvariantViolation)
}
