package FiberConfig

import (
	"fmt"

	"K9Ops/Config"
	"K9Ops/Controllers"
	"K9Ops/Models"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	dogController := Controllers.NewDogController(db)
	scheduleController := Controllers.NewScheduleController(db)
	itemController := Controllers.NewScheduleItemController(db)
	reportController := Controllers.NewReportController(db)
	notificationController := Controllers.NewNotificationController(db)

	// Public auth routes
	app.Post("/api/Login", Controllers.Login)
	app.Post("/api/Refresh", Controllers.Refresh)
	app.Post("/api/Logout", Controllers.Logout)

	// Authenticated self-service routes
	app.Get("/api/validate-token", middleware.Protect(), Controllers.ValidateToken)
	app.Get("/api/User", middleware.Protect(), Controllers.User)
	app.Post("/api/mfa/setup", middleware.Protect(), Controllers.SetupMFA)
	app.Post("/api/mfa/enable", middleware.Protect(), Controllers.EnableMFA)
	app.Post("/api/device-tokens", middleware.Protect(), Controllers.RegisterDeviceToken)

	// User administration, admin only
	app.Post("/api/RegisterUser", middleware.Protect(), middleware.RequireRole(Models.RoleAdmin), Controllers.RegisterUser)
	app.Patch("/api/UpdateUser/:id", middleware.Protect(), middleware.RequireRole(Models.RoleAdmin), Controllers.UpdateUser)
	app.Get("/api/FetchUsers", middleware.Protect(), middleware.RequireRole(Models.RoleAdmin), Controllers.FetchUsers)
	app.Delete("/api/DeactivateUser/:id", middleware.Protect(), middleware.RequireRole(Models.RoleAdmin), Controllers.DeactivateUser)

	// API group
	api := app.Group("/api", middleware.Protect())

	// Project routes
	projects := api.Group("/projects", middleware.RequireRole(Models.RoleAdmin))
	projects.Get("/", Controllers.GetProjects)
	projects.Post("/", Controllers.CreateProject)

	// Dog routes
	dogs := api.Group("/dogs")
	dogs.Get("/", dogController.GetDogs)
	dogs.Get("/:id", dogController.GetDog)
	dogs.Post("/", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), dogController.CreateDog)
	dogs.Put("/:id", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), dogController.UpdateDog)

	// Schedule routes
	schedules := api.Group("/schedules")
	schedules.Get("/", scheduleController.GetSchedules)
	schedules.Get("/:id", scheduleController.GetSchedule)
	schedules.Post("/", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), scheduleController.CreateSchedule)
	schedules.Put("/:id", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), scheduleController.UpdateSchedule)
	schedules.Post("/:id/lock", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), scheduleController.LockSchedule)

	// Schedule item routes. Updates are open to handlers so they can flag
	// their own assignment; the policy scopes them to it.
	items := api.Group("/schedule-items")
	items.Post("/", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), itemController.CreateScheduleItem)
	items.Put("/:id", itemController.UpdateScheduleItem)

	// Report routes
	reports := api.Group("/reports")
	reports.Get("/", reportController.GetReports)
	reports.Get("/export", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), reportController.ExportReports)
	reports.Get("/:id", reportController.GetReport)
	reports.Post("/", reportController.CreateReport)
	reports.Put("/:id", reportController.UpdateReport)
	reports.Post("/:id/submit", reportController.SubmitReport)
	reports.Post("/:id/approve", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), reportController.ApproveReport)
	reports.Post("/:id/reject", middleware.RequireRole(Models.RoleAdmin, Models.RoleProjectManager), reportController.RejectReport)
	reports.Post("/:id/reopen", reportController.ReopenReport)

	// Notification routes
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.UnreadCount)
	notifications.Post("/read-all", notificationController.MarkAllRead)
	notifications.Post("/:id/read", notificationController.MarkRead)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	engine := html.New("./Templates", ".html")
	// Html Template engine
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("index", fiber.Map{})
	})

	SetupRoutes(app, Models.DB)
	app.Listen(":" + Config.Port)
}
