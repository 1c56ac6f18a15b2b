package Controllers

import (
	"time"

	"K9Ops/Models"

	"github.com/gofiber/fiber/v2"
)

type RegisterUserRequest struct {
	Name      string     `json:"name" validate:"required"`
	Username  string     `json:"username" validate:"required,min=3"`
	Password  string     `json:"password" validate:"required,min=6"`
	Role      string     `json:"role" validate:"required,oneof=ADMIN PROJECT_MANAGER HANDLER"`
	ProjectID *uint      `json:"project_id"`
	BadgeNo   string     `json:"badge_no"`
	Rank      string     `json:"rank"`
	HiredAt   *time.Time `json:"hired_at"`
}

// RegisterUser provisions a new account. Admin only.
func RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	// Non-admin roles operate inside a project scope.
	if req.Role != Models.RoleAdmin && req.ProjectID == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "project_id is required for this role",
		})
	}

	user := Models.User{
		Name:      req.Name,
		Username:  req.Username,
		Role:      req.Role,
		ProjectID: req.ProjectID,
		BadgeNo:   req.BadgeNo,
		Rank:      req.Rank,
		HiredAt:   req.HiredAt,
		IsActive:  true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	if err := Models.DB.Create(&user).Error; err != nil {
		if Models.IsDuplicateKey(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already taken"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type UpdateUserRequest struct {
	Name      *string    `json:"name"`
	Password  *string    `json:"password"`
	Role      *string    `json:"role"`
	ProjectID *uint      `json:"project_id"`
	BadgeNo   *string    `json:"badge_no"`
	Rank      *string    `json:"rank"`
	HiredAt   *time.Time `json:"hired_at"`
	IsActive  *bool      `json:"is_active"`
}

// UpdateUser mutates an existing account. Admin only. Accounts are
// deactivated via is_active, never deleted.
func UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := Models.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Role != nil {
		if !Models.ValidRole(*req.Role) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid role"})
		}
		user.Role = *req.Role
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}
	}
	if req.ProjectID != nil {
		user.ProjectID = req.ProjectID
	}
	if req.BadgeNo != nil {
		user.BadgeNo = *req.BadgeNo
	}
	if req.Rank != nil {
		user.Rank = *req.Rank
	}
	if req.HiredAt != nil {
		user.HiredAt = req.HiredAt
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := Models.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}
	return c.JSON(user)
}

// FetchUsers lists accounts with optional role/project filters. Admin
// only.
func FetchUsers(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	query := Models.DB.Model(&Models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if c.Query("active_only") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var users []Models.User
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("username").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}

	return c.JSON(fiber.Map{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeactivateUser flips is_active off; the record itself is kept.
func DeactivateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := Models.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := Models.DB.Model(&user).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate user"})
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}
