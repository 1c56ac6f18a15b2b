package Controllers

import (
	"time"

	"K9Ops/Models"
	"K9Ops/Policy"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DogController handles dog-record endpoints.
type DogController struct {
	DB *gorm.DB
}

func NewDogController(db *gorm.DB) *DogController {
	return &DogController{DB: db}
}

type CreateDogRequest struct {
	Name      string     `json:"name" validate:"required"`
	Breed     string     `json:"breed"`
	ServiceNo string     `json:"service_no" validate:"required"`
	ProjectID uint       `json:"project_id" validate:"required"`
	BirthDate *time.Time `json:"birth_date"`
	Notes     string     `json:"notes"`
}

// GetDogs lists dogs. Admins see everything; project managers and
// handlers see their own project only.
func (dc *DogController) GetDogs(ctx *fiber.Ctx) error {
	caller := middleware.CurrentUser(ctx)
	page, pageSize := parsePagination(ctx)

	query := dc.DB.Model(&Models.Dog{})
	if caller.Role != Models.RoleAdmin {
		if caller.ProjectID == nil {
			return ctx.JSON(fiber.Map{"dogs": []Models.Dog{}, "total": 0})
		}
		query = query.Where("project_id = ?", *caller.ProjectID)
	} else if projectID := ctx.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var dogs []Models.Dog
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("service_no").Find(&dogs).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve dogs"})
	}

	return ctx.JSON(fiber.Map{
		"dogs":      dogs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (dc *DogController) GetDog(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dog ID"})
	}

	var dog Models.Dog
	if err := dc.DB.First(&dog, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Dog not found"})
	}

	caller := middleware.CurrentUser(ctx)
	// Handlers may read any dog inside their own project.
	handlerID := uint(0)
	if caller.ProjectID != nil && *caller.ProjectID == dog.ProjectID {
		handlerID = caller.ID
	}
	decision := Policy.Evaluate(caller, Policy.OpRead, Policy.Target{
		Exists:    true,
		ProjectID: &dog.ProjectID,
		HandlerID: handlerID,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	return ctx.JSON(dog)
}

// CreateDog registers a dog record. Admin or the owning project's
// manager.
func (dc *DogController) CreateDog(ctx *fiber.Ctx) error {
	var req CreateDogRequest
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

	dog := Models.Dog{
		Name:      req.Name,
		Breed:     req.Breed,
		ServiceNo: req.ServiceNo,
		ProjectID: req.ProjectID,
		Status:    Models.DogActive,
		BirthDate: req.BirthDate,
		Notes:     req.Notes,
	}
	if err := dc.DB.Create(&dog).Error; err != nil {
		if Models.IsDuplicateKey(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A dog with this service number already exists in the project",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create dog"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(dog)
}

type UpdateDogRequest struct {
	Name   *string `json:"name"`
	Breed  *string `json:"breed"`
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (dc *DogController) UpdateDog(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dog ID"})
	}

	var dog Models.Dog
	if err := dc.DB.First(&dog, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Dog not found"})
	}

	caller := middleware.CurrentUser(ctx)
	decision := Policy.Evaluate(caller, Policy.OpUpdate, Policy.Target{
		Exists:    true,
		ProjectID: &dog.ProjectID,
	})
	if proceed, err := ApplyDecision(ctx, decision); !proceed {
		return err
	}

	var req UpdateDogRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		dog.Name = *req.Name
	}
	if req.Breed != nil {
		dog.Breed = *req.Breed
	}
	if req.Status != nil {
		if *req.Status != Models.DogActive && *req.Status != Models.DogRetired {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid status"})
		}
		dog.Status = *req.Status
	}
	if req.Notes != nil {
		dog.Notes = *req.Notes
	}

	if err := dc.DB.Save(&dog).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update dog"})
	}
	return ctx.JSON(dog)
}
