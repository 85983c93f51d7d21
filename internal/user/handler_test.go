package user

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T, actingAdminID uint) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, actingAdminID)
		c.Locals(auth.CtxUserRoleKey, models.RoleAdmin)
		return c.Next()
	})

	app.Get("/users/landlords/list", LandlordOptionsHandler())
	app.Get("/users/tenants/list", TenantOptionsHandler())
	app.Get("/users", ListUsersHandler())
	app.Post("/users", CreateUserHandler())
	app.Get("/users/:id", GetUserHandler())
	app.Put("/users/:id", UpdateUserHandler())
	app.Delete("/users/:id", DeactivateUserHandler())
	app.Post("/users/:id/activate", ActivateUserHandler())

	return app
}

func seedUser(t *testing.T, email string, role models.UserRole, status models.UserStatus) models.User {
	t.Helper()
	u := models.User{
		FirstName: "First", LastName: "Last", Email: email,
		PasswordHash: "x", Role: role, Status: status,
	}
	require.NoError(t, database.DB.Create(&u).Error)
	return u
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body io.Reader) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func TestListUsersFiltersAndSearch(t *testing.T) {
	admin := models.User{FirstName: "Ada", LastName: "Min", Email: "admin@example.com",
		PasswordHash: "x", Role: models.RoleAdmin, Status: models.UserStatusActive}

	app := newTestApp(t, 1)
	require.NoError(t, database.DB.Create(&admin).Error)
	seedUser(t, "lea@example.com", models.RoleLandlord, models.UserStatusActive)
	seedUser(t, "tom@example.com", models.RoleTenant, models.UserStatusActive)
	seedUser(t, "sue@example.com", models.RoleTenant, models.UserStatusInactive)

	resp, body := doJSON(t, app, "GET", "/users?role=tenant", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total"])

	resp, body = doJSON(t, app, "GET", "/users?role=tenant&status=active", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	resp, body = doJSON(t, app, "GET", "/users?search=lea", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
}

func TestDeactivateKeepsUserRow(t *testing.T) {
	app := newTestApp(t, 1)
	seedUser(t, "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	target := seedUser(t, "tom@example.com", models.RoleTenant, models.UserStatusActive)

	resp, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/users/%d", target.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the row survives, only the status flips
	var stored models.User
	require.NoError(t, database.DB.First(&stored, target.ID).Error)
	assert.Equal(t, models.UserStatusInactive, stored.Status)
}

func TestCannotDeactivateOwnAccount(t *testing.T) {
	app := newTestApp(t, 1)
	admin := seedUser(t, "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	require.Equal(t, uint(1), admin.ID)

	resp, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/users/%d", admin.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var stored models.User
	require.NoError(t, database.DB.First(&stored, admin.ID).Error)
	assert.Equal(t, models.UserStatusActive, stored.Status)
}

func TestActivateUser(t *testing.T) {
	app := newTestApp(t, 1)
	seedUser(t, "admin@example.com", models.RoleAdmin, models.UserStatusActive)
	target := seedUser(t, "sue@example.com", models.RoleTenant, models.UserStatusInactive)

	resp, _ := doJSON(t, app, "POST", fmt.Sprintf("/users/%d/activate", target.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, database.DB.First(&stored, target.ID).Error)
	assert.Equal(t, models.UserStatusActive, stored.Status)
}

func TestRoleOptionListsOnlyActiveOfRole(t *testing.T) {
	app := newTestApp(t, 1)
	seedUser(t, "lea@example.com", models.RoleLandlord, models.UserStatusActive)
	seedUser(t, "bob@example.com", models.RoleLandlord, models.UserStatusInactive)
	seedUser(t, "tom@example.com", models.RoleTenant, models.UserStatusActive)

	req := httptest.NewRequest("GET", "/users/landlords/list", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "lea@example.com", rows[0].Email)
	assert.Equal(t, string(models.RoleLandlord), rows[0].Role)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	app := newTestApp(t, 1)
	seedUser(t, "tom@example.com", models.RoleTenant, models.UserStatusActive)

	payload := `{"first_name":"Tom","last_name":"Renter","email":"tom@example.com","password":"longenough","role":"tenant"}`
	resp, _ := doJSON(t, app, "POST", "/users", jsonBody(payload))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	app := newTestApp(t, 1)

	payload := `{"first_name":"Eve","last_name":"Nobody","email":"eve@example.com","password":"longenough","role":"superuser"}`
	resp, _ := doJSON(t, app, "POST", "/users", jsonBody(payload))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
