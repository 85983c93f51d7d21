package main

import (
	"log"
	"strings"

	"rentfolio-backend/internal/auth"
	"rentfolio-backend/internal/config"
	"rentfolio-backend/internal/dashboard"
	"rentfolio-backend/internal/database"
	"rentfolio-backend/internal/maintenance"
	"rentfolio-backend/internal/models"
	"rentfolio-backend/internal/notify"
	"rentfolio-backend/internal/payment"
	"rentfolio-backend/internal/property"
	"rentfolio-backend/internal/report"
	"rentfolio-backend/internal/settings"
	"rentfolio-backend/internal/tenancy"
	"rentfolio-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	manage := auth.RequireRole(models.RoleAdmin, models.RoleLandlord)

	// Properties
	protected.Get("/properties", property.ListPropertiesHandler())
	protected.Get("/properties/available", property.AvailablePropertiesHandler())
	protected.Get("/properties/:id", property.GetPropertyHandler())
	protected.Get("/properties/:id/statistics", property.PropertyStatisticsHandler())
	protected.Post("/properties", manage, property.CreatePropertyHandler())
	protected.Put("/properties/:id", manage, property.UpdatePropertyHandler())
	protected.Delete("/properties/:id", manage, property.DeletePropertyHandler())

	// Tenancies
	protected.Get("/tenancies", tenancy.ListTenanciesHandler())
	protected.Get("/tenancies/expiring-leases", tenancy.ExpiringLeasesHandler())
	protected.Get("/tenancies/:id", tenancy.GetTenancyHandler())
	protected.Get("/tenancies/:id/payments", tenancy.TenancyPaymentsHandler())
	protected.Get("/tenancies/:id/statistics", tenancy.TenancyStatisticsHandler())
	protected.Post("/tenancies", manage, tenancy.CreateTenancyHandler())
	protected.Put("/tenancies/:id", manage, tenancy.UpdateTenancyHandler())
	protected.Delete("/tenancies/:id", manage, tenancy.DeleteTenancyHandler())

	// Payments
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Get("/payments/pending", payment.PendingPaymentsHandler())
	protected.Get("/payments/overdue", payment.OverduePaymentsHandler())
	protected.Get("/payments/statistics", payment.PaymentStatisticsHandler())
	protected.Get("/payments/:id", payment.GetPaymentHandler())
	protected.Post("/payments", manage, payment.CreatePaymentHandler())
	protected.Put("/payments/:id", manage, payment.UpdatePaymentHandler())
	protected.Delete("/payments/:id", manage, payment.DeletePaymentHandler())
	protected.Post("/payments/:id/mark-paid", manage, payment.MarkPaidHandler())
	protected.Post("/payments/:id/apply-late-fee", manage, payment.ApplyLateFeeHandler())
	protected.Post("/payments/:id/cancel", manage, payment.CancelPaymentHandler())
	protected.Post("/payments/:id/mark-failed", manage, payment.MarkFailedHandler())

	// Maintenance requests; tenants file their own
	protected.Get("/maintenance-requests", maintenance.ListRequestsHandler())
	protected.Get("/maintenance-requests/statistics", maintenance.RequestStatisticsHandler())
	protected.Get("/maintenance-requests/:id", maintenance.GetRequestHandler())
	protected.Post("/maintenance-requests", maintenance.CreateRequestHandler())
	protected.Put("/maintenance-requests/:id", manage, maintenance.UpdateRequestHandler())
	protected.Delete("/maintenance-requests/:id", manage, maintenance.DeleteRequestHandler())
	protected.Post("/maintenance-requests/:id/assign", manage, maintenance.AssignRequestHandler())
	protected.Post("/maintenance-requests/:id/complete", manage, maintenance.CompleteRequestHandler())

	// Notifications
	protected.Get("/notifications", notify.ListNotificationsHandler())
	protected.Get("/notifications/unread", notify.UnreadNotificationsHandler())
	protected.Post("/notifications/:id/read", notify.MarkNotificationReadHandler())
	protected.Post("/notifications/mark-all-read", notify.MarkAllNotificationsReadHandler())
	protected.Delete("/notifications/:id", notify.DeleteNotificationHandler())

	// Settings
	protected.Get("/settings", settings.GetUserSettingsHandler())
	protected.Put("/settings", settings.UpdateUserSettingsHandler())
	protected.Post("/settings/change-password", settings.ChangePasswordHandler())

	// Payment methods: everyone reads, admin manages
	protected.Get("/payment-methods", settings.ListPaymentMethodsHandler())

	// Dashboard
	protected.Get("/dashboard/stats", dashboard.StatsHandler())
	protected.Get("/dashboard/recent-activities", dashboard.RecentActivitiesHandler())
	protected.Get("/dashboard/analytics", dashboard.AnalyticsHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// User management; option lists registered before the :id routes
	adminRoutes.Get("/users/landlords/list", user.LandlordOptionsHandler())
	adminRoutes.Get("/users/tenants/list", user.TenantOptionsHandler())
	adminRoutes.Get("/users", user.ListUsersHandler())
	adminRoutes.Post("/users", user.CreateUserHandler())
	adminRoutes.Get("/users/:id", user.GetUserHandler())
	adminRoutes.Put("/users/:id", user.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", user.DeactivateUserHandler())
	adminRoutes.Post("/users/:id/activate", user.ActivateUserHandler())

	adminRoutes.Get("/settings", settings.GetSystemSettingsHandler())
	adminRoutes.Put("/settings", settings.UpdateSystemSettingsHandler())

	adminRoutes.Post("/payment-methods", settings.CreatePaymentMethodHandler())
	adminRoutes.Put("/payment-methods/:id", settings.UpdatePaymentMethodHandler())
	adminRoutes.Delete("/payment-methods/:id", settings.DeletePaymentMethodHandler())

	adminRoutes.Get("/reports/revenue", report.RevenueReportHandler())
	adminRoutes.Get("/reports/occupancy", report.OccupancyReportHandler())
	adminRoutes.Get("/reports/maintenance", report.MaintenanceReportHandler())
	adminRoutes.Get("/reports/users", report.UsersReportHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
