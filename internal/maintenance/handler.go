package maintenance

import (
	"fmt"
	"log"
	"strings"
	"time"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/notify"
	"rentfolio-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

type CreateRequestRequest struct {
	PropertyID    uint     `json:"property_id"`
	TenantID      *uint    `json:"tenant_id"` // admin/landlord filing on behalf of a tenant
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Priority      string   `json:"priority"`
	EstimatedCost *float64 `json:"estimated_cost"`
	TenantNotes   string   `json:"tenant_notes"`
}

type UpdateRequestRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	Priority      *string  `json:"priority"`
	Status        *string  `json:"status"`
	ScheduledDate *string  `json:"scheduled_date"`
	EstimatedCost *float64 `json:"estimated_cost"`
	AdminNotes    *string  `json:"admin_notes"`
}

type AssignRequest struct {
	AssignedTo    uint    `json:"assigned_to"`
	ScheduledDate *string `json:"scheduled_date"`
}

type CompleteRequest struct {
	ActualCost *float64 `json:"actual_cost"`
	AdminNotes string   `json:"admin_notes"`
}

type RequestResponse struct {
	ID            uint       `json:"id"`
	TenantID      uint       `json:"tenant_id"`
	PropertyID    uint       `json:"property_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	AssignedTo    *uint      `json:"assigned_to,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	EstimatedCost *float64   `json:"estimated_cost,omitempty"`
	ActualCost    *float64   `json:"actual_cost,omitempty"`
	TenantNotes   string     `json:"tenant_notes,omitempty"`
	AdminNotes    string     `json:"admin_notes,omitempty"`
	DaysOpen      int        `json:"days_open"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toResponse(m models.MaintenanceRequest) RequestResponse {
	return RequestResponse{
		ID:            m.ID,
		TenantID:      m.TenantID,
		PropertyID:    m.PropertyID,
		Title:         m.Title,
		Description:   m.Description,
		Category:      m.Category,
		Priority:      string(m.Priority),
		Status:        string(m.Status),
		AssignedTo:    m.AssignedToID,
		ScheduledDate: m.ScheduledDate,
		CompletedDate: m.CompletedDate,
		EstimatedCost: m.EstimatedCost,
		ActualCost:    m.ActualCost,
		TenantNotes:   m.TenantNotes,
		AdminNotes:    m.AdminNotes,
		DaysOpen:      m.DaysOpen(time.Now()),
		CreatedAt:     m.CreatedAt,
	}
}

func validPriority(p string) bool {
	switch models.MaintenancePriority(p) {
	case models.MaintenancePriorityLow, models.MaintenancePriorityMedium,
		models.MaintenancePriorityHigh, models.MaintenancePriorityUrgent:
		return true
	}
	return false
}

func loadScoped(c *fiber.Ctx, id string) (*models.MaintenanceRequest, error) {
	userID, role, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	var m models.MaintenanceRequest
	if err := database.DB.Preload("Property").First(&m, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "maintenance request not found")
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleLandlord:
		if m.Property.LandlordID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not a request under your properties")
		}
	case models.RoleTenant:
		if m.TenantID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "not your request")
		}
	default:
		return nil, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}

	return &m, nil
}

// POST /api/maintenance-requests
func CreateRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Title = strings.TrimSpace(body.Title)
		if body.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title is required")
		}
		if body.PropertyID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "property_id is required")
		}

		priority := models.MaintenancePriorityMedium
		if body.Priority != "" {
			if !validPriority(body.Priority) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid priority")
			}
			priority = models.MaintenancePriority(body.Priority)
		}

		var property models.Property
		if err := database.DB.First(&property, body.PropertyID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "property not found")
		}

		tenantID := userID
		switch role {
		case models.RoleTenant:
			// a tenant can only file against a property they rent
			var count int64
			database.DB.Model(&models.Tenancy{}).
				Where("user_id = ? AND property_id = ? AND status = ?", userID, body.PropertyID, models.TenancyStatusActive).
				Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusForbidden, "no active tenancy on this property")
			}
		case models.RoleLandlord:
			if property.LandlordID != userID {
				return fiber.NewError(fiber.StatusForbidden, "not your property")
			}
			if body.TenantID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "tenant_id is required")
			}
			tenantID = *body.TenantID
		case models.RoleAdmin:
			if body.TenantID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "tenant_id is required")
			}
			tenantID = *body.TenantID
		default:
			return fiber.NewError(fiber.StatusForbidden, "unknown role")
		}

		m := models.MaintenanceRequest{
			TenantID:      tenantID,
			PropertyID:    body.PropertyID,
			Title:         body.Title,
			Description:   body.Description,
			Category:      body.Category,
			Priority:      priority,
			Status:        models.MaintenanceStatusPending,
			EstimatedCost: body.EstimatedCost,
			TenantNotes:   body.TenantNotes,
		}

		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create maintenance request")
		}

		if err := notify.Emit(database.DB, notify.MaintenanceRequestCreated(property.LandlordID, m.ID, property.Name, m.Priority)); err != nil {
			log.Printf("maintenance request notification: %v", err)
		}

		var actor models.User
		database.DB.First(&actor, userID)
		if logErr := activity.Record(activity.Entry{
			ActorID:     userID,
			ActorName:   actor.FullName(),
			EntityType:  "maintenance_request",
			EntityID:    m.ID,
			Action:      models.ActivityActionCreate,
			Description: fmt.Sprintf("Maintenance request: %s (%s)", m.Title, m.Priority),
		}); logErr != nil {
			log.Printf("activity log: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(m))
	}
}

// GET /api/maintenance-requests?status=&priority=&property_id=&overdue=true
func ListRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q, err := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), role, userID)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		if s := c.Query("status"); s != "" {
			q = q.Where("maintenance_requests.status = ?", s)
		}
		if p := c.Query("priority"); p != "" {
			q = q.Where("maintenance_requests.priority = ?", p)
		}
		if pid := c.QueryInt("property_id"); pid > 0 {
			q = q.Where("maintenance_requests.property_id = ?", pid)
		}
		if c.Query("overdue") == "true" {
			q = q.Where("maintenance_requests.scheduled_date < ? AND maintenance_requests.status NOT IN ?",
				time.Now(), []models.MaintenanceStatus{models.MaintenanceStatusCompleted, models.MaintenanceStatusCancelled})
		}

		var rows []models.MaintenanceRequest
		if err := q.Order("maintenance_requests.created_at desc").Limit(200).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list maintenance requests")
		}

		resp := make([]RequestResponse, 0, len(rows))
		for _, m := range rows {
			resp = append(resp, toResponse(m))
		}
		return c.JSON(resp)
	}
}

// GET /api/maintenance-requests/:id
func GetRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*m))
	}
}

// PUT /api/maintenance-requests/:id (admin, landlord)
func UpdateRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		if m.Status == models.MaintenanceStatusCompleted {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "completed requests cannot be modified")
		}

		var body UpdateRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		oldStatus := m.Status

		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return fiber.NewError(fiber.StatusBadRequest, "title must not be empty")
			}
			m.Title = title
		}
		if body.Description != nil {
			m.Description = *body.Description
		}
		if body.Category != nil {
			m.Category = *body.Category
		}
		if body.Priority != nil {
			if !validPriority(*body.Priority) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid priority")
			}
			m.Priority = models.MaintenancePriority(*body.Priority)
		}
		if body.Status != nil {
			switch models.MaintenanceStatus(*body.Status) {
			case models.MaintenanceStatusPending, models.MaintenanceStatusInProgress, models.MaintenanceStatusCancelled:
				m.Status = models.MaintenanceStatus(*body.Status)
			case models.MaintenanceStatusCompleted:
				return fiber.NewError(fiber.StatusBadRequest, "use the complete endpoint to finish a request")
			default:
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
		}
		if body.ScheduledDate != nil {
			d, err := time.Parse("2006-01-02", *body.ScheduledDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "scheduled_date must be YYYY-MM-DD")
			}
			m.ScheduledDate = &d
		}
		if body.EstimatedCost != nil {
			m.EstimatedCost = body.EstimatedCost
		}
		if body.AdminNotes != nil {
			m.AdminNotes = *body.AdminNotes
		}

		if err := database.DB.Save(m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update maintenance request")
		}

		if m.Status != oldStatus {
			if err := notify.Emit(database.DB, notify.MaintenanceUpdate(m.TenantID, m.ID, m.Status)); err != nil {
				log.Printf("maintenance update notification: %v", err)
			}
		}

		return c.JSON(toResponse(*m))
	}
}

// POST /api/maintenance-requests/:id/assign (admin, landlord)
func AssignRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		if m.Status == models.MaintenanceStatusCompleted || m.Status == models.MaintenanceStatusCancelled {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "request is closed")
		}

		var body AssignRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.AssignedTo == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "assigned_to is required")
		}

		var assignee models.User
		if err := database.DB.First(&assignee, body.AssignedTo).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "assignee not found")
		}

		m.AssignedToID = &assignee.ID
		m.Status = models.MaintenanceStatusInProgress
		if body.ScheduledDate != nil {
			d, err := time.Parse("2006-01-02", *body.ScheduledDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "scheduled_date must be YYYY-MM-DD")
			}
			m.ScheduledDate = &d
		}

		if err := database.DB.Save(m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not assign maintenance request")
		}

		if err := notify.Emit(database.DB, notify.MaintenanceUpdate(m.TenantID, m.ID, m.Status)); err != nil {
			log.Printf("maintenance update notification: %v", err)
		}

		return c.JSON(toResponse(*m))
	}
}

// POST /api/maintenance-requests/:id/complete (admin, landlord)
func CompleteRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		if m.Status == models.MaintenanceStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "request is already completed")
		}
		if m.Status == models.MaintenanceStatusCancelled {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "cancelled requests cannot be completed")
		}

		var body CompleteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		now := time.Now()
		m.Status = models.MaintenanceStatusCompleted
		m.CompletedDate = &now
		if body.ActualCost != nil {
			m.ActualCost = body.ActualCost
		}
		if body.AdminNotes != "" {
			m.AdminNotes = body.AdminNotes
		}

		if err := database.DB.Save(m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not complete maintenance request")
		}

		if err := notify.Emit(database.DB, notify.MaintenanceUpdate(m.TenantID, m.ID, m.Status)); err != nil {
			log.Printf("maintenance update notification: %v", err)
		}

		return c.JSON(toResponse(*m))
	}
}

// DELETE /api/maintenance-requests/:id (admin, landlord)
func DeleteRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := loadScoped(c, c.Params("id"))
		if err != nil {
			return err
		}

		if m.Status == models.MaintenanceStatusCompleted {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "completed requests cannot be deleted")
		}

		if err := database.DB.Delete(m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete maintenance request")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/maintenance-requests/statistics
func RequestStatisticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		countWhere := func(cond string, args ...interface{}) (int64, error) {
			q, err := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), role, userID)
			if err != nil {
				return 0, err
			}
			if cond != "" {
				q = q.Where(cond, args...)
			}
			var v int64
			err = q.Count(&v).Error
			return v, err
		}

		total, err := countWhere("")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute statistics")
		}
		pending, _ := countWhere("maintenance_requests.status = ?", models.MaintenanceStatusPending)
		inProgress, _ := countWhere("maintenance_requests.status = ?", models.MaintenanceStatusInProgress)
		completed, _ := countWhere("maintenance_requests.status = ?", models.MaintenanceStatusCompleted)
		urgent, _ := countWhere("maintenance_requests.priority = ? AND maintenance_requests.status NOT IN ?",
			models.MaintenancePriorityUrgent,
			[]models.MaintenanceStatus{models.MaintenanceStatusCompleted, models.MaintenanceStatusCancelled})

		var totalCost float64
		if q, err := scope.MaintenanceRequests(database.DB.Model(&models.MaintenanceRequest{}), role, userID); err == nil {
			q.Where("maintenance_requests.status = ?", models.MaintenanceStatusCompleted).
				Select("COALESCE(SUM(maintenance_requests.actual_cost), 0)").
				Scan(&totalCost)
		}

		return c.JSON(fiber.Map{
			"total_requests": total,
			"pending":        pending,
			"in_progress":    inProgress,
			"completed":      completed,
			"urgent_open":    urgent,
			"total_cost":     totalCost,
		})
	}
}
