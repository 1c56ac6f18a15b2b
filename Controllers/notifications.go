package Controllers

import (
	"K9Ops/Models"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NotificationController serves a user's own notification feed.
type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

func (nc *NotificationController) GetNotifications(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	page, pageSize := parsePagination(ctx)

	query := nc.DB.Model(&Models.Notification{}).Where("user_id = ?", caller.ID)
	if ctx.Query("unread_only") == "true" {
		query = query.Where("read = ?", false)
	}

	var total int64
	query.Count(&total)

	var notifications []Models.Notification
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("id DESC").Find(&notifications).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve notifications"})
	}

	return ctx.JSON(fiber.Map{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

func (nc *NotificationController) MarkRead(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	caller := middleware.CurrentUser(ctx)
	if err := Models.MarkNotificationRead(nc.DB, caller.ID, id); err != nil {
		return ErrorJSON(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (nc *NotificationController) MarkAllRead(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	if err := Models.MarkAllNotificationsRead(nc.DB, caller.ID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}
	return ctx.JSON(fiber.Map{"message": "All notifications marked as read"})
}

func (nc *NotificationController) UnreadCount(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	count, err := Models.UnreadNotificationCount(nc.DB, caller.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}
	return ctx.JSON(fiber.Map{"unread": count})
}
