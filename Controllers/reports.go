package Controllers

import (
	"fmt"
	"log"
	"time"

	"K9Ops/Config"
	"K9Ops/Models"
	"K9Ops/Policy"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// ReportController handles the handler daily report workflow.
type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

type CreateReportRequest struct {
	ScheduleItemID uint `json:"schedule_item_id" validate:"required"`
	Models.ReportSections
}

// reportContext loads a report with its schedule item and parent
// schedule, translating lookup misses to NotFound.
func (rc *ReportController) reportContext(reportID uint) (*Models.HandlerReport, *Models.DailySchedule, error) {
	var report Models.HandlerReport
	if err := rc.DB.First(&report, reportID).Error; err != nil {
		return nil, nil, Models.ErrNotFound
	}
	var item Models.ScheduleItem
	if err := rc.DB.First(&item, report.ScheduleItemID).Error; err != nil {
		return nil, nil, Models.ErrNotFound
	}
	schedule, err := Models.ScheduleForItem(rc.DB, &item)
	if err != nil {
		return nil, nil, err
	}
	return &report, schedule, nil
}

// reportTarget reduces a report to the attributes the policy needs. The
// lock flag honors the post-lock grace window for report writes.
func reportTarget(report *Models.HandlerReport, schedule *Models.DailySchedule) Policy.Target {
	return Policy.Target{
		Exists:     true,
		ProjectID:  &schedule.ProjectID,
		HandlerID:  report.HandlerID,
		Locked:     Models.ReportWindowClosed(schedule, time.Now(), Config.ReportGraceMinutes),
		AuthorOnly: true,
	}
}

// CreateReport opens a DRAFT against the caller's own schedule item.
func (rc *ReportController) CreateReport(ctx *fiber.Ctx) error {
	var req CreateReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var item Models.ScheduleItem
	if err := rc.DB.First(&item, req.ScheduleItemID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule item not found"})
	}
	schedule, err := Models.ScheduleForItem(rc.DB, &item)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpCreate, Policy.Target{
		Exists:     true,
		ProjectID:  &schedule.ProjectID,
		HandlerID:  item.HandlerID,
		Locked:     Models.ReportWindowClosed(schedule, time.Now(), Config.ReportGraceMinutes),
		AuthorOnly: true,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	report, err := Models.CreateReport(rc.DB, req.ScheduleItemID, item.HandlerID,
		req.ReportSections, time.Now(), Config.ReportGraceMinutes)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(rc.DB, caller.ID, "create", Models.RefTypeReport, report.ID, "", report.Status)
	return ctx.Status(fiber.StatusCreated).JSON(report)
}

// UpdateReport rewrites sub-sections of a DRAFT.
func (rc *ReportController) UpdateReport(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, schedule, err := rc.reportContext(id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpUpdate, reportTarget(report, schedule))
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	var sections Models.ReportSections
	if err := ctx.BodyParser(&sections); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updated, err := Models.UpdateReport(rc.DB, id, sections, time.Now(), Config.ReportGraceMinutes)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(rc.DB, caller.ID, "update", Models.RefTypeReport, updated.ID, report.Status, updated.Status)
	return ctx.JSON(updated)
}

// SubmitReport moves the caller's DRAFT to SUBMITTED and fans out the
// supervisor notifications.
func (rc *ReportController) SubmitReport(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, schedule, err := rc.reportContext(id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpSubmit, reportTarget(report, schedule))
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	submitted, err := Models.SubmitReport(rc.DB, id, time.Now(), Config.ReportGraceMinutes)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(rc.DB, caller.ID, "submit", Models.RefTypeReport, submitted.ID, report.Status, submitted.Status)
	return ctx.JSON(submitted)
}

type ReviewRequest struct {
	Notes string `json:"notes"`
}

// ApproveReport closes the review with an APPROVED outcome.
func (rc *ReportController) ApproveReport(ctx *fiber.Ctx) error {
	return rc.review(ctx, Models.ReportApproved)
}

// RejectReport closes the review with a REJECTED outcome; notes are
// mandatory.
func (rc *ReportController) RejectReport(ctx *fiber.Ctx) error {
	return rc.review(ctx, Models.ReportRejected)
}

func (rc *ReportController) review(ctx *fiber.Ctx, outcome string) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, schedule, err := rc.reportContext(id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpReview, reportTarget(report, schedule))
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	var req ReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var reviewed *Models.HandlerReport
	if outcome == Models.ReportApproved {
		reviewed, err = Models.ApproveReport(rc.DB, id, caller.ID, req.Notes)
	} else {
		reviewed, err = Models.RejectReport(rc.DB, id, caller.ID, req.Notes)
	}
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(rc.DB, caller.ID, "review", Models.RefTypeReport, reviewed.ID, report.Status, reviewed.Status)
	return ctx.JSON(reviewed)
}

// ReopenReport lets the author take a REJECTED report back to DRAFT for
// resubmission, when the deployment has that enabled.
func (rc *ReportController) ReopenReport(ctx *fiber.Ctx) error {
	if !Config.ResubmissionEnabled {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Resubmission is not enabled"})
	}

	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, schedule, err := rc.reportContext(id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpUpdate, reportTarget(report, schedule))
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	reopened, err := Models.ReopenReport(rc.DB, id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	Models.WriteAudit(rc.DB, caller.ID, "reopen", Models.RefTypeReport, reopened.ID, report.Status, reopened.Status)
	return ctx.JSON(reopened)
}

func (rc *ReportController) GetReport(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, schedule, err := rc.reportContext(id)
	if err != nil {
		return ErrorJSON(ctx, err)
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpRead, Policy.Target{
		Exists:    true,
		ProjectID: &schedule.ProjectID,
		HandlerID: report.HandlerID,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	return ctx.JSON(report)
}

// GetReports lists reports, scoped like every other listing: admins see
// all, project managers their project, handlers their own.
func (rc *ReportController) GetReports(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	page, pageSize := parsePagination(ctx)

	query := rc.DB.Model(&Models.HandlerReport{})
	switch caller.Role {
	case Models.RoleAdmin:
		if projectID := ctx.Query("project_id"); projectID != "" {
			query = query.Where("schedule_item_id IN (?)", itemIDsForProject(rc.DB, projectID))
		}
	case Models.RoleProjectManager:
		if caller.ProjectID == nil {
			return ctx.JSON(fiber.Map{"reports": []Models.HandlerReport{}, "total": 0})
		}
		query = query.Where("schedule_item_id IN (?)",
			itemIDsForProject(rc.DB, fmt.Sprint(*caller.ProjectID)))
	default:
		query = query.Where("handler_id = ?", caller.ID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var reports []Models.HandlerReport
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("id DESC").Find(&reports).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve reports"})
	}

	return ctx.JSON(fiber.Map{
		"reports":   reports,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func itemIDsForProject(db *gorm.DB, projectID string) *gorm.DB {
	return db.Model(&Models.ScheduleItem{}).Select("schedule_items.id").
		Joins("JOIN daily_schedules ON daily_schedules.id = schedule_items.schedule_id").
		Where("daily_schedules.project_id = ?", projectID)
}

type exportRow struct {
	Date        string
	HandlerName string
	DogName     string
	Status      string
	Late        bool
	SubmittedAt string
	ReviewNotes string
}

// ExportReports writes a styled Excel workbook of one project's reports
// over a date range. Admins may export any project; a project manager
// only their own.
func (rc *ReportController) ExportReports(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)

	projectID, err := parseProjectScope(ctx, caller)
	if err != nil {
		return ErrorJSON(ctx, err)
	}
	dateFrom := ctx.Query("date_from", "1970-01-01")
	dateTo := ctx.Query("date_to", time.Now().Format(Models.DateLayout))

	var items []Models.ScheduleItem
	if err := rc.DB.
		Joins("JOIN daily_schedules ON daily_schedules.id = schedule_items.schedule_id").
		Where("daily_schedules.project_id = ? AND daily_schedules.date BETWEEN ? AND ?",
			projectID, dateFrom, dateTo).
		Find(&items).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load schedule items"})
	}

	rows := rc.collectExportRows(items)
	slices.SortFunc(rows, func(a, b exportRow) int {
		if a.Date != b.Date {
			if a.Date < b.Date {
				return -1
			}
			return 1
		}
		if a.HandlerName < b.HandlerName {
			return -1
		}
		if a.HandlerName > b.HandlerName {
			return 1
		}
		return 0
	})

	file := excelize.NewFile()
	sheet := "Reports"
	file.SetSheetName("Sheet1", sheet)

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		log.Println(err)
	}

	headers := []string{"Date", "Handler", "Dog", "Status", "Late", "Submitted At", "Review Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}
	file.SetCellStyle(sheet, "A1", "G1", headerStyle)

	for i, row := range rows {
		values := []interface{}{
			row.Date, row.HandlerName, row.DogName, row.Status, row.Late, row.SubmittedAt, row.ReviewNotes,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			file.SetCellValue(sheet, cell, value)
		}
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="reports_%s_%s.xlsx"`, dateFrom, dateTo))
	if err := file.Write(ctx.Response().BodyWriter()); err != nil {
		log.Println(err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write export"})
	}
	return nil
}

func (rc *ReportController) collectExportRows(items []Models.ScheduleItem) []exportRow {
	rows := make([]exportRow, 0, len(items))
	for _, item := range items {
		var report Models.HandlerReport
		if err := rc.DB.Where("schedule_item_id = ?", item.ID).First(&report).Error; err != nil {
			continue
		}

		var schedule Models.DailySchedule
		rc.DB.First(&schedule, item.ScheduleID)
		var handler Models.User
		rc.DB.First(&handler, item.HandlerID)
		var dog Models.Dog
		rc.DB.First(&dog, item.DogID)

		submittedAt := ""
		if report.SubmittedAt != nil {
			submittedAt = report.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, exportRow{
			Date:        schedule.Date,
			HandlerName: handler.Name,
			DogName:     dog.Name,
			Status:      report.Status,
			Late:        report.Late,
			SubmittedAt: submittedAt,
			ReviewNotes: report.ReviewNotes,
		})
	}
	return rows
}

// parseProjectScope resolves which project the caller may export.
func parseProjectScope(ctx *fiber.Ctx, caller Models.User) (string, error) {
	requested := ctx.Query("project_id")
	switch caller.Role {
	case Models.RoleAdmin:
		if requested == "" {
			return "", Models.ErrValidation
		}
		return requested, nil
	case Models.RoleProjectManager:
		if caller.ProjectID == nil {
			return "", Models.ErrForbidden
		}
		own := fmt.Sprint(*caller.ProjectID)
		if requested != "" && requested != own {
			return "", Models.ErrForbidden
		}
		return own, nil
	default:
		return "", Models.ErrForbidden
	}
}
