package ledger

import (
	"fmt"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

// The available_units counter is the one hot shared value in the system.
// Both operations below are single conditional UPDATEs so that concurrent
// tenancy creation/termination on the same property cannot lose updates;
// a false return means the guard did not hold and nothing changed.

func DecrementAvailableUnits(db *gorm.DB, propertyID uint, count int) (bool, error) {
	res := db.Model(&models.Property{}).
		Where("id = ? AND available_units >= ?", propertyID, count).
		UpdateColumn("available_units", gorm.Expr("available_units - ?", count))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func IncrementAvailableUnits(db *gorm.DB, propertyID uint, count int) (bool, error) {
	res := db.Model(&models.Property{}).
		Where("id = ? AND available_units + ? <= total_units", propertyID, count).
		UpdateColumn("available_units", gorm.Expr("available_units + ?", count))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TenancyCreated is the (none)->status transition at tenancy creation time.
func TenancyCreated(db *gorm.DB, propertyID uint, status models.TenancyStatus) error {
	if status != models.TenancyStatusActive {
		return nil
	}
	ok, err := DecrementAvailableUnits(db, propertyID, 1)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("property %d has no available units: %w", propertyID, ErrCapacityExceeded)
	}
	return nil
}

// TenancyTransition applies the unit-counter side effect of a tenancy
// status change. Transitions outside the table are counter-neutral.
//
//	active   -> inactive/terminated  +1
//	inactive -> active               -1
func TenancyTransition(db *gorm.DB, propertyID uint, oldStatus, newStatus models.TenancyStatus) error {
	if oldStatus == newStatus {
		return nil
	}

	switch {
	case oldStatus == models.TenancyStatusActive &&
		(newStatus == models.TenancyStatusInactive || newStatus == models.TenancyStatusTerminated):
		ok, err := IncrementAvailableUnits(db, propertyID, 1)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("property %d counters out of range: %w", propertyID, ErrCapacityExceeded)
		}
	case oldStatus == models.TenancyStatusInactive && newStatus == models.TenancyStatusActive:
		ok, err := DecrementAvailableUnits(db, propertyID, 1)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("property %d has no available units: %w", propertyID, ErrCapacityExceeded)
		}
	}
	return nil
}

// CheckPropertyInvariant guards against corrupt counters at load time.
func CheckPropertyInvariant(p *models.Property) error {
	if p.AvailableUnits < 0 || p.AvailableUnits > p.TotalUnits {
		return fmt.Errorf("property %d: available_units=%d total_units=%d: %w",
			p.ID, p.AvailableUnits, p.TotalUnits, ErrInvariantViolation)
	}
	return nil
}
