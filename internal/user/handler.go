package user

import (
	"fmt"
	"log"
	"strings"

	"rentfolio-backend/internal/activity"
	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
	Status    *string `json:"status"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

func toResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Status:    string(u.Status),
	}
}

func validRole(r string) bool {
	switch models.UserRole(r) {
	case models.RoleAdmin, models.RoleLandlord, models.RoleTenant:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch models.UserStatus(s) {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusPending:
		return true
	}
	return false
}

// GET /api/admin/users?role=&status=&search=&limit=&offset=
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.User{})

		if r := c.Query("role"); r != "" {
			q = q.Where("role = ?", r)
		}
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + search + "%"
			q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?",
				like, like, like, like)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		limit := c.QueryInt("limit", 15)
		if limit < 1 || limit > 100 {
			limit = 15
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		var rows []models.User
		if err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		resp := make([]UserResponse, 0, len(rows))
		for _, u := range rows {
			resp = append(resp, toResponse(u))
		}
		return c.JSON(fiber.Map{"users": resp, "total": total})
	}
}

// POST /api/admin/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" || body.FirstName == "" || body.LastName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "first_name, last_name, email and password are required")
		}
		if !validRole(body.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid role")
		}

		status := models.UserStatusActive
		if body.Status != "" {
			if !validStatus(body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
			status = models.UserStatus(body.Status)
		}

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		u := models.User{
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			Phone:        body.Phone,
			PasswordHash: string(hash),
			Role:         models.UserRole(body.Role),
			Status:       status,
		}
		if err := database.DB.Create(&u).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		recordUserActivity(c, u.ID, models.ActivityActionCreate,
			fmt.Sprintf("User %s created with role %s", u.FullName(), u.Role))

		return c.Status(fiber.StatusCreated).JSON(toResponse(u))
	}
}

// GET /api/admin/users/:id
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u models.User
		if err := database.DB.First(&u, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.JSON(toResponse(u))
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u models.User
		if err := database.DB.First(&u, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.FirstName != nil {
			if strings.TrimSpace(*body.FirstName) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "first_name must not be empty")
			}
			u.FirstName = *body.FirstName
		}
		if body.LastName != nil {
			if strings.TrimSpace(*body.LastName) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "last_name must not be empty")
			}
			u.LastName = *body.LastName
		}
		if body.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*body.Email))
			if email == "" {
				return fiber.NewError(fiber.StatusBadRequest, "email must not be empty")
			}
			var count int64
			database.DB.Model(&models.User{}).
				Where("email = ? AND id <> ?", email, u.ID).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "email already registered")
			}
			u.Email = email
		}
		if body.Phone != nil {
			u.Phone = *body.Phone
		}
		if body.Status != nil {
			if !validStatus(*body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "invalid status")
			}
			u.Status = models.UserStatus(*body.Status)
		}
		if body.Password != nil {
			if len(*body.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
			}
			u.PasswordHash = string(hash)
		}

		if err := database.DB.Save(&u).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update user")
		}

		return c.JSON(toResponse(u))
	}
}

// DELETE /api/admin/users/:id deactivates instead of removing: payments,
// tenancies and activity history keep resolving to a real user row.
func DeactivateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var u models.User
		if err := database.DB.First(&u, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		if u.ID == actorID {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "cannot deactivate your own account")
		}

		if err := database.DB.Model(&u).Update("status", models.UserStatusInactive).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not deactivate user")
		}
		u.Status = models.UserStatusInactive

		recordUserActivity(c, u.ID, models.ActivityActionUpdate,
			fmt.Sprintf("User %s deactivated", u.FullName()))

		return c.JSON(fiber.Map{"message": "user deactivated", "user": toResponse(u)})
	}
}

// POST /api/admin/users/:id/activate
func ActivateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u models.User
		if err := database.DB.First(&u, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		if err := database.DB.Model(&u).Update("status", models.UserStatusActive).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not activate user")
		}
		u.Status = models.UserStatusActive

		recordUserActivity(c, u.ID, models.ActivityActionUpdate,
			fmt.Sprintf("User %s activated", u.FullName()))

		return c.JSON(fiber.Map{"message": "user activated", "user": toResponse(u)})
	}
}

// GET /api/admin/users/landlords/list and /api/admin/users/tenants/list feed
// the pickers on the property and tenancy forms.
func LandlordOptionsHandler() fiber.Handler {
	return roleOptionsHandler(models.RoleLandlord)
}

func TenantOptionsHandler() fiber.Handler {
	return roleOptionsHandler(models.RoleTenant)
}

func roleOptionsHandler(role models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.User
		if err := database.DB.
			Where("role = ? AND status = ?", role, models.UserStatusActive).
			Order("first_name asc, last_name asc").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		resp := make([]UserResponse, 0, len(rows))
		for _, u := range rows {
			resp = append(resp, toResponse(u))
		}
		return c.JSON(resp)
	}
}

func recordUserActivity(c *fiber.Ctx, subjectID uint, action models.ActivityAction, description string) {
	actorID, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	var actor models.User
	database.DB.First(&actor, actorID)

	if logErr := activity.Record(activity.Entry{
		ActorID:     actorID,
		ActorName:   actor.FullName(),
		EntityType:  "user",
		EntityID:    subjectID,
		Action:      action,
		Description: description,
	}); logErr != nil {
		log.Printf("activity log: %v", logErr)
	}
}
