package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"K9Ops/Config"
	"K9Ops/FiberConfig"
	"K9Ops/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

type testAPI struct {
	app *fiber.App
	db  *gorm.DB
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	Models.DB = db

	Config.JWTSecret = "test-secret"
	Config.AccessTokenMinutes = 15
	Config.RefreshTokenHours = 168
	Config.ReportGraceMinutes = 30
	Config.ResubmissionEnabled = true

	app := fiber.New()
	FiberConfig.SetupRoutes(app, db)
	return &testAPI{app: app, db: db}
}

func (a *testAPI) seedProject(t *testing.T, code string) *Models.Project {
	t.Helper()
	project := Models.Project{Name: "Project " + code, Code: code, IsActive: true}
	require.NoError(t, a.db.Create(&project).Error)
	return &project
}

func (a *testAPI) seedUser(t *testing.T, username, role string, projectID *uint) *Models.User {
	t.Helper()
	user := Models.User{
		Name:      username,
		Username:  username,
		Role:      role,
		ProjectID: projectID,
		IsActive:  true,
	}
	require.NoError(t, user.SetPassword(testPassword))
	require.NoError(t, a.db.Create(&user).Error)
	return &user
}

func (a *testAPI) seedDog(t *testing.T, serviceNo string, projectID uint) *Models.Dog {
	t.Helper()
	dog := Models.Dog{Name: "Dog " + serviceNo, ServiceNo: serviceNo, ProjectID: projectID, Status: Models.DogActive}
	require.NoError(t, a.db.Create(&dog).Error)
	return &dog
}

func (a *testAPI) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()
	resp := a.request(t, fiber.MethodPost, "/api/Login", "", fiber.Map{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func TestReportLifecycle(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	admin := api.seedUser(t, "admin1", Models.RoleAdmin, nil)
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)

	managerToken := api.login(t, "manager1")
	handlerToken := api.login(t, "handler1")

	// Manager opens the day and rosters the handler.
	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler.ID,
		"dog_id":      dog.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item Models.ScheduleItem
	decodeBody(t, resp, &item)

	// Handler drafts and submits the report.
	resp = api.request(t, fiber.MethodPost, "/api/reports/", handlerToken, fiber.Map{
		"schedule_item_id": item.ID,
		"health_check":     json.RawMessage(`{"temperature":38.2}`),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var report Models.HandlerReport
	decodeBody(t, resp, &report)
	assert.Equal(t, Models.ReportDraft, report.Status)
	assert.Equal(t, handler.ID, report.HandlerID)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var submitted Models.HandlerReport
	decodeBody(t, resp, &submitted)
	assert.Equal(t, Models.ReportSubmitted, submitted.Status)

	// Supervisors got notified, the outsider-free fan-out is covered in
	// the model tests.
	var count int64
	api.db.Model(&Models.Notification{}).
		Where("type = ?", Models.NotificationReportSubmitted).Count(&count)
	assert.EqualValues(t, 2, count)

	// Manager approves; the handler sees the outcome in their feed.
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/approve", report.ID), managerToken,
		fiber.Map{"notes": "solid report"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var approved Models.HandlerReport
	decodeBody(t, resp, &approved)
	assert.Equal(t, Models.ReportApproved, approved.Status)

	resp = api.request(t, fiber.MethodGet, "/api/notifications/unread-count", handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var unread struct {
		Unread int64 `json:"unread"`
	}
	decodeBody(t, resp, &unread)
	assert.EqualValues(t, 1, unread.Unread)

	// Admin sees the report too.
	adminToken := api.login(t, admin.Username)
	resp = api.request(t, fiber.MethodGet,
		fmt.Sprintf("/api/reports/%d", report.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLockedScheduleRejectsAssignments(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)

	managerToken := api.login(t, "manager1")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/schedules/%d/lock", schedule.ID), managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var locked Models.DailySchedule
	decodeBody(t, resp, &locked)
	assert.Equal(t, Models.ScheduleLocked, locked.Status)

	// Locking twice changes nothing.
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/schedules/%d/lock", schedule.ID), managerToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler.ID,
		"dog_id":      dog.ID,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var fresh Models.DailySchedule
	require.NoError(t, api.db.First(&fresh, schedule.ID).Error)
	assert.Equal(t, Models.ScheduleLocked, fresh.Status)

	// Unlocking is not a thing.
	resp = api.request(t, fiber.MethodPut,
		fmt.Sprintf("/api/schedules/%d", schedule.ID), managerToken,
		fiber.Map{"status": Models.ScheduleOpen})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestProjectScoping(t *testing.T) {
	api := setupAPI(t)
	projectA := api.seedProject(t, "P1")
	projectB := api.seedProject(t, "P2")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &projectA.ID)
	api.seedUser(t, "manager2", Models.RoleProjectManager, &projectB.ID)
	api.seedUser(t, "handler1", Models.RoleHandler, &projectA.ID)
	api.seedUser(t, "handler2", Models.RoleHandler, &projectA.ID)

	manager1Token := api.login(t, "manager1")
	manager2Token := api.login(t, "manager2")
	handler1Token := api.login(t, "handler1")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", manager1Token, fiber.Map{
		"project_id": projectA.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	// A manager cannot create in or read from another project.
	resp = api.request(t, fiber.MethodPost, "/api/schedules/", manager2Token, fiber.Map{
		"project_id": projectA.ID,
		"date":       "2025-11-02",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodGet,
		fmt.Sprintf("/api/schedules/%d", schedule.ID), manager2Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// A handler not rostered on the day is denied as well.
	resp = api.request(t, fiber.MethodGet,
		fmt.Sprintf("/api/schedules/%d", schedule.ID), handler1Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Duplicate day for the same project.
	resp = api.request(t, fiber.MethodPost, "/api/schedules/", manager1Token, fiber.Map{
		"project_id": projectA.ID,
		"date":       "2025-11-01",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHandlerPeerReportHidden(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler1 := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	api.seedUser(t, "handler2", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)

	managerToken := api.login(t, "manager1")
	handler1Token := api.login(t, "handler1")
	handler2Token := api.login(t, "handler2")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler1.ID,
		"dog_id":      dog.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item Models.ScheduleItem
	decodeBody(t, resp, &item)

	resp = api.request(t, fiber.MethodPost, "/api/reports/", handler1Token, fiber.Map{
		"schedule_item_id": item.ID,
		"care_log":         json.RawMessage(`{"fed":true}`),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var report Models.HandlerReport
	decodeBody(t, resp, &report)

	// A peer handler cannot read, edit, or submit someone else's report.
	resp = api.request(t, fiber.MethodGet,
		fmt.Sprintf("/api/reports/%d", report.ID), handler2Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), handler2Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Handlers cannot reach the review endpoints at all.
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/approve", report.ID), handler1Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The listing only shows the caller's own reports.
	resp = api.request(t, fiber.MethodGet, "/api/reports/", handler2Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listing struct {
		Reports []Models.HandlerReport `json:"reports"`
		Total   int64                  `json:"total"`
	}
	decodeBody(t, resp, &listing)
	assert.EqualValues(t, 0, listing.Total)
}

func TestManagerCannotMutateHandlerReport(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)

	managerToken := api.login(t, "manager1")
	handlerToken := api.login(t, "handler1")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler.ID,
		"dog_id":      dog.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item Models.ScheduleItem
	decodeBody(t, resp, &item)

	// A manager cannot draft a report on the handler's behalf.
	resp = api.request(t, fiber.MethodPost, "/api/reports/", managerToken, fiber.Map{
		"schedule_item_id": item.ID,
		"health_check":     json.RawMessage(`{"temperature":38.2}`),
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost, "/api/reports/", handlerToken, fiber.Map{
		"schedule_item_id": item.ID,
		"health_check":     json.RawMessage(`{"temperature":38.2}`),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var report Models.HandlerReport
	decodeBody(t, resp, &report)

	// Drafting stays with the author: the same-project manager may not
	// edit or submit it.
	resp = api.request(t, fiber.MethodPut,
		fmt.Sprintf("/api/reports/%d", report.ID), managerToken, fiber.Map{
			"care_log": json.RawMessage(`{"fed":true}`),
		})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), managerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var fresh Models.HandlerReport
	require.NoError(t, api.db.First(&fresh, report.ID).Error)
	assert.Equal(t, Models.ReportDraft, fresh.Status)

	// Reading and reviewing remain the manager's job.
	resp = api.request(t, fiber.MethodGet,
		fmt.Sprintf("/api/reports/%d", report.ID), managerToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reject", report.ID), managerToken,
		fiber.Map{"notes": "please expand"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Reopening the rejected report is the author's call too.
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reopen", report.ID), managerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reopen", report.ID), handlerToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandlerOwnScheduleItem(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler1 := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	handler2 := api.seedUser(t, "handler2", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)
	dog2 := api.seedDog(t, "K-101", project.ID)

	managerToken := api.login(t, "manager1")
	handler1Token := api.login(t, "handler1")
	handler2Token := api.login(t, "handler2")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler1.ID,
		"dog_id":      dog.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item Models.ScheduleItem
	decodeBody(t, resp, &item)

	// Rostering stays with managers.
	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", handler1Token, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler2.ID,
		"dog_id":      dog2.ID,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// A peer cannot touch someone else's assignment.
	resp = api.request(t, fiber.MethodPut,
		fmt.Sprintf("/api/schedule-items/%d", item.ID), handler2Token,
		fiber.Map{"status": Models.ItemAbsent, "reason": "no show"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The assigned handler can flag their own day.
	resp = api.request(t, fiber.MethodPut,
		fmt.Sprintf("/api/schedule-items/%d", item.ID), handler1Token,
		fiber.Map{"status": Models.ItemAbsent, "reason": "medical leave"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated Models.ScheduleItem
	decodeBody(t, resp, &updated)
	assert.Equal(t, Models.ItemAbsent, updated.Status)
}

func TestReportResubmission(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "manager1", Models.RoleProjectManager, &project.ID)
	handler := api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)
	dog := api.seedDog(t, "K-100", project.ID)

	managerToken := api.login(t, "manager1")
	handlerToken := api.login(t, "handler1")

	resp := api.request(t, fiber.MethodPost, "/api/schedules/", managerToken, fiber.Map{
		"project_id": project.ID,
		"date":       "2025-11-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var schedule Models.DailySchedule
	decodeBody(t, resp, &schedule)

	resp = api.request(t, fiber.MethodPost, "/api/schedule-items/", managerToken, fiber.Map{
		"schedule_id": schedule.ID,
		"handler_id":  handler.ID,
		"dog_id":      dog.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var item Models.ScheduleItem
	decodeBody(t, resp, &item)

	resp = api.request(t, fiber.MethodPost, "/api/reports/", handlerToken, fiber.Map{
		"schedule_item_id": item.ID,
		"incident_log":     json.RawMessage(`{"summary":"minor scuffle"}`),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var report Models.HandlerReport
	decodeBody(t, resp, &report)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Rejection without notes is refused.
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reject", report.ID), managerToken, fiber.Map{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reject", report.ID), managerToken,
		fiber.Map{"notes": "needs incident details"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reopen", report.ID), handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var reopened Models.HandlerReport
	decodeBody(t, resp, &reopened)
	assert.Equal(t, Models.ReportDraft, reopened.Status)

	resp = api.request(t, fiber.MethodPut,
		fmt.Sprintf("/api/reports/%d", report.ID), handlerToken, fiber.Map{
			"incident_log": json.RawMessage(`{"summary":"minor scuffle","resolved":true}`),
		})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/submit", report.ID), handlerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// With the flag off, reopen becomes a conflict.
	Config.ResubmissionEnabled = false
	defer func() { Config.ResubmissionEnabled = true }()
	resp = api.request(t, fiber.MethodPost,
		fmt.Sprintf("/api/reports/%d/reopen", report.ID), handlerToken, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAuthTokens(t *testing.T) {
	api := setupAPI(t)
	api.seedUser(t, "admin1", Models.RoleAdmin, nil)

	// No token.
	resp := api.request(t, fiber.MethodGet, "/api/reports/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Garbage token.
	resp = api.request(t, fiber.MethodGet, "/api/reports/", "not-a-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Wrong password.
	resp = api.request(t, fiber.MethodPost, "/api/Login", "", fiber.Map{
		"username": "admin1",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost, "/api/Login", "", fiber.Map{
		"username": "admin1",
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, resp, &tokens)

	// A refresh token is not an access token.
	resp = api.request(t, fiber.MethodGet, "/api/reports/", tokens.RefreshToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Refresh rotates: the new pair works, the old refresh token is dead.
	resp = api.request(t, fiber.MethodPost, "/api/Refresh", "", fiber.Map{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var rotated struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, resp, &rotated)

	resp = api.request(t, fiber.MethodGet, "/api/reports/", rotated.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost, "/api/Refresh", "", fiber.Map{
		"refresh_token": tokens.RefreshToken,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGatedAdminSurface(t *testing.T) {
	api := setupAPI(t)
	project := api.seedProject(t, "P1")
	api.seedUser(t, "admin1", Models.RoleAdmin, nil)
	api.seedUser(t, "handler1", Models.RoleHandler, &project.ID)

	adminToken := api.login(t, "admin1")
	handlerToken := api.login(t, "handler1")

	// Handlers cannot reach user administration.
	resp := api.request(t, fiber.MethodGet, "/api/FetchUsers", handlerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.request(t, fiber.MethodPost, "/api/RegisterUser", adminToken, fiber.Map{
		"name":       "New Manager",
		"username":   "manager9",
		"password":   testPassword,
		"role":       Models.RoleProjectManager,
		"project_id": project.ID,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Non-admin roles need a project.
	resp = api.request(t, fiber.MethodPost, "/api/RegisterUser", adminToken, fiber.Map{
		"name":     "Floating Handler",
		"username": "handler9",
		"password": testPassword,
		"role":     Models.RoleHandler,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// Duplicate usernames are a conflict.
	resp = api.request(t, fiber.MethodPost, "/api/RegisterUser", adminToken, fiber.Map{
		"name":       "Another Manager",
		"username":   "manager9",
		"password":   testPassword,
		"role":       Models.RoleProjectManager,
		"project_id": project.ID,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
