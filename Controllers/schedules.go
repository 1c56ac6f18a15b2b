package Controllers

import (
	"K9Ops/Models"
	"K9Ops/Policy"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScheduleController handles daily schedule endpoints.
type ScheduleController struct {
	DB *gorm.DB
}

func NewScheduleController(db *gorm.DB) *ScheduleController {
	return &ScheduleController{DB: db}
}

type CreateScheduleRequest struct {
	ProjectID uint   `json:"project_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Notes     string `json:"notes"`
}

// CreateSchedule opens a new day's roster. One schedule per (project,
// date); a second create is a conflict.
func (sc *ScheduleController) CreateSchedule(ctx *fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpCreate, Policy.Target{
		Exists:    true,
		ProjectID: &req.ProjectID,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	schedule, err := Models.CreateSchedule(sc.DB, req.ProjectID, req.Date, req.Notes)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(sc.DB, caller.ID, "create", Models.RefTypeSchedule, schedule.ID, "", schedule.Status)
	return ctx.Status(fiber.StatusCreated).JSON(schedule)
}

// GetSchedules lists schedules with date range and project filters.
// Admins see everything, project managers their project, handlers only
// days they are rostered on.
func (sc *ScheduleController) GetSchedules(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	page, pageSize := parsePagination(ctx)

	query := sc.DB.Model(&Models.DailySchedule{})
	switch caller.Role {
	case Models.RoleAdmin:
		if projectID := ctx.Query("project_id"); projectID != "" {
			query = query.Where("project_id = ?", projectID)
		}
	case Models.RoleProjectManager:
		if caller.ProjectID == nil {
			return ctx.JSON(fiber.Map{"schedules": []Models.DailySchedule{}, "total": 0})
		}
		query = query.Where("project_id = ?", *caller.ProjectID)
	default:
		query = query.Where("id IN (?)", sc.DB.Model(&Models.ScheduleItem{}).
			Select("schedule_id").Where("handler_id = ?", caller.ID))
	}

	if dateFrom := ctx.Query("date_from"); dateFrom != "" {
		query = query.Where("date >= ?", dateFrom)
	}
	if dateTo := ctx.Query("date_to"); dateTo != "" {
		query = query.Where("date <= ?", dateTo)
	}

	var total int64
	query.Count(&total)

	var schedules []Models.DailySchedule
	if err := query.Preload("Items").Offset((page - 1) * pageSize).Limit(pageSize).
		Order("date DESC").Find(&schedules).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve schedules"})
	}

	return ctx.JSON(fiber.Map{
		"schedules": schedules,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (sc *ScheduleController) GetSchedule(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.DailySchedule
	if err := sc.DB.Preload("Items").First(&schedule, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpRead, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
		HandlerID: scheduleHandlerID(&schedule, caller.ID),
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	return ctx.JSON(schedule)
}

// scheduleHandlerID returns callerID when the caller is rostered on the
// schedule, so the policy's own-assignment rule can apply.
func scheduleHandlerID(schedule *Models.DailySchedule, callerID uint) uint {
	for _, item := range schedule.Items {
		if item.HandlerID == callerID {
			return callerID
		}
	}
	return 0
}

type UpdateScheduleRequest struct {
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

// UpdateSchedule edits notes and accepts status=LOCKED as an alternative
// lock trigger. Unlocking is not a thing; asking for OPEN on a locked
// schedule is a conflict.
func (sc *ScheduleController) UpdateSchedule(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.DailySchedule
	if err := sc.DB.First(&schedule, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	var req UpdateScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	caller := middleware.CurrentUser(ctx)
	// Note edits on a locked schedule are refused like any other write;
	// a lock request on a locked schedule stays idempotent.
	locked := schedule.Status == Models.ScheduleLocked &&
		!(req.Status != nil && *req.Status == Models.ScheduleLocked)
	decision := Policy.Evaluate(caller, Policy.OpUpdate, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
		Locked:    locked,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	if req.Status != nil {
		switch *req.Status {
		case Models.ScheduleLocked:
			return sc.lockAndRespond(ctx, caller.ID, schedule.ID, schedule.Status)
		case Models.ScheduleOpen:
			if schedule.Status == Models.ScheduleLocked {
				return ErrorJSON(ctx, Models.ErrInvalidState)
			}
		default:
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid status"})
		}
	}

	if req.Notes != nil {
		before := schedule.Status
		schedule.Notes = *req.Notes
		if err := sc.DB.Save(&schedule).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update schedule"})
		}
		Models.WriteAudit(sc.DB, caller.ID, "update", Models.RefTypeSchedule, schedule.ID, before, schedule.Status)
	}

	return ctx.JSON(schedule)
}

// LockSchedule freezes the roster. Safe to call twice.
func (sc *ScheduleController) LockSchedule(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.DailySchedule
	if err := sc.DB.First(&schedule, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	caller := middleware.CurrentUser(ctx)
	// Locking a locked schedule is a no-op, not a locked-state write.
	decision := Policy.Evaluate(caller, Policy.OpUpdate, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	return sc.lockAndRespond(ctx, caller.ID, schedule.ID, schedule.Status)
}

func (sc *ScheduleController) lockAndRespond(ctx *fiber.Ctx, callerID, scheduleID uint, before string) error {
	current, err := Models.LockSchedule(sc.DB, scheduleID)
	if err != nil {
		return ErrorJSON(ctx, err)
	}
	// An idempotent re-lock changes nothing, so it is not audited.
	if before != Models.ScheduleLocked {
		Models.WriteAudit(sc.DB, callerID, "lock", Models.RefTypeSchedule, current.ID, before, current.Status)
	}
	return ctx.JSON(current)
}
