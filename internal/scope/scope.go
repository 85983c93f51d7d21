// Package scope narrows queries to what the caller's role may see. Every
// switch is exhaustive: an unknown role is an error, never an unrestricted
// query or a silent empty result.
package scope

import (
	"fmt"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

func Payments(db *gorm.DB, role models.UserRole, userID uint) (*gorm.DB, error) {
	switch role {
	case models.RoleAdmin:
		return db, nil
	case models.RoleLandlord:
		return db.Joins("JOIN properties ON properties.id = payments.property_id").
			Where("properties.landlord_id = ?", userID), nil
	case models.RoleTenant:
		return db.Where("payments.tenant_id = ?", userID), nil
	default:
		return nil, unknownRole(role)
	}
}

func Tenancies(db *gorm.DB, role models.UserRole, userID uint) (*gorm.DB, error) {
	switch role {
	case models.RoleAdmin:
		return db, nil
	case models.RoleLandlord:
		return db.Joins("JOIN properties ON properties.id = tenancies.property_id").
			Where("properties.landlord_id = ?", userID), nil
	case models.RoleTenant:
		return db.Where("tenancies.user_id = ?", userID), nil
	default:
		return nil, unknownRole(role)
	}
}

func Properties(db *gorm.DB, role models.UserRole, userID uint) (*gorm.DB, error) {
	switch role {
	case models.RoleAdmin, models.RoleTenant:
		// tenants browse listings; row-level detail is guarded per handler
		return db, nil
	case models.RoleLandlord:
		return db.Where("properties.landlord_id = ?", userID), nil
	default:
		return nil, unknownRole(role)
	}
}

func MaintenanceRequests(db *gorm.DB, role models.UserRole, userID uint) (*gorm.DB, error) {
	switch role {
	case models.RoleAdmin:
		return db, nil
	case models.RoleLandlord:
		return db.Joins("JOIN properties ON properties.id = maintenance_requests.property_id").
			Where("properties.landlord_id = ?", userID), nil
	case models.RoleTenant:
		return db.Where("maintenance_requests.tenant_id = ?", userID), nil
	default:
		return nil, unknownRole(role)
	}
}

func unknownRole(role models.UserRole) error {
	return fmt.Errorf("unknown role %q", role)
}
