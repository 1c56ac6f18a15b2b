package Controllers

import (
	"K9Ops/Models"
	"K9Ops/Policy"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScheduleItemController handles handler/dog assignment endpoints.
type ScheduleItemController struct {
	DB *gorm.DB
}

func NewScheduleItemController(db *gorm.DB) *ScheduleItemController {
	return &ScheduleItemController{DB: db}
}

type CreateScheduleItemRequest struct {
	ScheduleID uint `json:"schedule_id" validate:"required"`
	HandlerID  uint `json:"handler_id" validate:"required"`
	DogID      uint `json:"dog_id" validate:"required"`
}

// CreateScheduleItem adds a handler/dog pairing to an open schedule.
func (ic *ScheduleItemController) CreateScheduleItem(ctx *fiber.Ctx) error {
	var req CreateScheduleItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var schedule Models.DailySchedule
	if err := ic.DB.First(&schedule, req.ScheduleID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpCreate, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
		Locked:    schedule.Status == Models.ScheduleLocked,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	item, err := Models.AddScheduleItem(ic.DB, req.ScheduleID, req.HandlerID, req.DogID)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(ic.DB, caller.ID, "create", "SCHEDULE_ITEM", item.ID, "", item.Status)
	return ctx.Status(fiber.StatusCreated).JSON(item)
}

type UpdateScheduleItemRequest struct {
	Status               string `json:"status" validate:"required,oneof=ABSENT REPLACED"`
	ReplacementHandlerID *uint  `json:"replacement_handler_id"`
	Reason               string `json:"reason"`
}

// UpdateScheduleItem marks an assignment absent or replaced while the
// schedule is still open.
func (ic *ScheduleItemController) UpdateScheduleItem(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var item Models.ScheduleItem
	if err := ic.DB.First(&item, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule item not found"})
	}
	schedule, err := Models.ScheduleForItem(ic.DB, &item)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	var req UpdateScheduleItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpUpdate, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
		HandlerID: item.HandlerID,
		Locked:    schedule.Status == Models.ScheduleLocked,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	before := item.Status
	updated, err := Models.UpdateScheduleItem(ic.DB, id, req.Status, req.ReplacementHandlerID, req.Reason)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(ic.DB, caller.ID, "update", "SCHEDULE_ITEM", updated.ID, before, updated.Status)
	return ctx.JSON(updated)
}
