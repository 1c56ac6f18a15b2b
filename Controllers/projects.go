package Controllers

import (
	"K9Ops/Models"

	"github.com/gofiber/fiber/v2"
)

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// CreateProject registers a new project. Admin only.
func CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	project := Models.Project{Name: req.Name, Code: req.Code, IsActive: true}
	if err := Models.DB.Create(&project).Error; err != nil {
		if Models.IsDuplicateKey(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A project with this code already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create project"})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProjects lists projects. Admin only; everyone else works inside one
// project and never needs the list.
func GetProjects(c *fiber.Ctx) error {
	var projects []Models.Project
	if err := Models.DB.Order("code").Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve projects"})
	}
	return c.JSON(projects)
}
