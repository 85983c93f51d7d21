package property

import (
	"fmt"
	"log"
	"strings"
	"time"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/ledger"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

type CreatePropertyRequest struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Address       string  `json:"address"`
	LandlordID    *uint   `json:"landlord_id"` // admin only; landlords create for themselves
	TotalUnits    int     `json:"total_units"`
	RentAmount    float64 `json:"rent_amount"`
	DepositAmount float64 `json:"deposit_amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
}

type UpdatePropertyRequest struct {
	Name          *string  `json:"name"`
	Type          *string  `json:"type"`
	Address       *string  `json:"address"`
	RentAmount    *float64 `json:"rent_amount"`
	DepositAmount *float64 `json:"deposit_amount"`
	Status        *string  `json:"status"`
	Description   *string  `json:"description"`
}

type PropertyResponse struct {
	ID             uint    `json:"id"`
	LandlordID     uint    `json:"landlord_id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Address        string  `json:"address"`
	TotalUnits     int     `json:"total_units"`
	AvailableUnits int     `json:"available_units"`
	RentAmount     float64 `json:"rent_amount"`
	DepositAmount  float64 `json:"deposit_amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

func toResponse(p models.Property) PropertyResponse {
	return PropertyResponse{
		ID:             p.ID,
		LandlordID:     p.LandlordID,
		Name:           p.Name,
		Type:           p.Type,
		Address:        p.Address,
		TotalUnits:     p.TotalUnits,
		AvailableUnits: p.AvailableUnits,
		RentAmount:     p.RentAmount,
		DepositAmount:  p.DepositAmount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		Description:    p.Description,
		OccupancyRate:  p.OccupancyRate(),
	}
}

// loadOwned fetches a property and checks the caller may act on it.
func loadOwned(c *fiber.Ctx, id string) (*models.Property, error) {
	userID, role, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	var p models.Property
	if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "property not found")
	}

	if role == models.RoleLandlord && p.LandlordID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not your property")
	}

	if err := ledger.CheckPropertyInvariant(&p); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "property unit counters are corrupt")
	}

	return &p, nil
}

// POST /api/properties (admin, landlord)
func CreatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.TotalUnits < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "total_units must be at least 1")
		}
		if body.RentAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "rent_amount must not be negative")
		}

		landlordID := userID
		if role == models.RoleAdmin {
			if body.LandlordID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "landlord_id is required")
			}
			landlordID = *body.LandlordID
		}

		var landlord models.User
		if err := database.DB.First(&landlord, "id = ? AND role = ?", landlordID, models.RoleLandlord).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "landlord not found")
		}

		currency := body.Currency
		if currency == "" {
			currency = "XAF"
		}

		p := models.Property{
			LandlordID:     landlordID,
			Name:           body.Name,
			Type:           body.Type,
			Address:        body.Address,
			TotalUnits:     body.TotalUnits,
			AvailableUnits: body.TotalUnits, // all units start vacant
			RentAmount:     body.RentAmount,
			DepositAmount:  body.DepositAmount,
			Currency:       currency,
			Status:         models.PropertyStatusActive,
			Description:    body.Description,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create property")
		}

		var actor models.User
		database.DB.First(&actor, userID)

		if logErr := activity.Record(activity.Entry{
			ActorID:     userID,
			ActorName:   actor.FullName(),
			EntityType:  "property",
			EntityID:    p.ID,
			Action:      models.ActivityActionCreate,
			Description: fmt.Sprintf("Property added: %s (%d units)", p.Name, p.TotalUnits),
		}); logErr != nil {
			log.Printf("activity log: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}

// GET /api/properties?status=&type=&available=true
func ListPropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.Properties(database.DB.Model(&models.Property{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		if s := c.Query("status"); s != "" {
			q = q.Where("properties.status = ?", s)
		}
		if t := c.Query("type"); t != "" {
			q = q.Where("properties.type = ?", t)
		}
		if c.Query("available") == "true" {
			q = q.Where("properties.available_units > 0")
		}

		var rows []models.Property
		if err := q.Order("properties.created_at desc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list properties")
		}

		resp := make([]PropertyResponse, 0, len(rows))
		for _, p := range rows {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/properties/available
func AvailablePropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Property
		if err := database.DB.
			Where("status = ? AND available_units > 0", models.PropertyStatusActive).
			Order("name asc").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list properties")
		}

		resp := make([]PropertyResponse, 0, len(rows))
		for _, p := range rows {
			resp = append(resp, toResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/properties/:id
func GetPropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadOwned(c, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*p))
	}
}

// PUT /api/properties/:id — available_units is deliberately absent here;
// it only moves through tenancy lifecycle transitions.
func UpdatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadOwned(c, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			p.Name = name
		}
		if body.Type != nil {
			p.Type = *body.Type
		}
		if body.Address != nil {
			p.Address = *body.Address
		}
		if body.RentAmount != nil {
			if *body.RentAmount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "rent_amount must not be negative")
			}
			p.RentAmount = *body.RentAmount
		}
		if body.DepositAmount != nil {
			p.DepositAmount = *body.DepositAmount
		}
		if body.Status != nil {
			switch models.PropertyStatus(*body.Status) {
			case models.PropertyStatusActive, models.PropertyStatusInactive, models.PropertyStatusMaintenance:
				p.Status = models.PropertyStatus(*body.Status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
		}
		if body.Description != nil {
			p.Description = *body.Description
		}

		if err := database.DB.Save(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update property")
		}

		return c.JSON(toResponse(*p))
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadOwned(c, c.Params("id"))
		if err != nil {
			return err
		}

		var activeTenancies int64
		database.DB.Model(&models.Tenancy{}).
			Where("property_id = ? AND status = ?", p.ID, models.TenancyStatusActive).
			Count(&activeTenancies)
		if activeTenancies > 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "property still has active tenancies")
		}

		if err := database.DB.Delete(p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete property")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/properties/:id/statistics
func PropertyStatisticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := loadOwned(c, c.Params("id"))
		if err != nil {
			return err
		}

		now := time.Now()

		var totalRevenue float64
		database.DB.Model(&models.Payment{}).
			Where("property_id = ? AND status = ?", p.ID, models.PaymentStatusCompleted).
			Select("COALESCE(SUM(amount + late_fee), 0)").
			Scan(&totalRevenue)

		var pendingAmount float64
		database.DB.Model(&models.Payment{}).
			Where("property_id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Select("COALESCE(SUM(amount + late_fee), 0)").
			Scan(&pendingAmount)

		var activeTenancies int64
		database.DB.Model(&models.Tenancy{}).
			Where("property_id = ? AND status = ?", p.ID, models.TenancyStatusActive).
			Count(&activeTenancies)

		var openMaintenance int64
		database.DB.Model(&models.MaintenanceRequest{}).
			Where("property_id = ? AND status IN ?", p.ID,
				[]models.MaintenanceStatus{models.MaintenanceStatusPending, models.MaintenanceStatusInProgress}).
			Count(&openMaintenance)

		var overduePayments int64
		database.DB.Model(&models.Payment{}).
			Where("property_id = ? AND status = ? AND due_date < ?", p.ID, models.PaymentStatusPending, now).
			Count(&overduePayments)

		return c.JSON(fiber.Map{
			"property_id":      p.ID,
			"occupancy_rate":   p.OccupancyRate(),
			"total_units":      p.TotalUnits,
			"available_units":  p.AvailableUnits,
			"active_tenancies": activeTenancies,
			"total_revenue":    totalRevenue,
			"pending_amount":   pendingAmount,
			"overdue_payments": overduePayments,
			"open_maintenance": openMaintenance,
		})
	}
}
