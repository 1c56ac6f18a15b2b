package Controllers

import (
	"errors"
	"strconv"

	"K9Ops/Models"
	"K9Ops/Policy"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ErrorJSON maps the Models error taxonomy to HTTP statuses. Anything
// outside the taxonomy is a server error.
func ErrorJSON(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, Models.ErrValidation):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrInvalidState):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrForbidden):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// ApplyDecision writes the HTTP response for a non-allow decision and
// reports whether the request may proceed.
func ApplyDecision(ctx *fiber.Ctx, decision Policy.Decision) (proceed bool, err error) {
	switch decision.Effect {
	case Policy.Allow:
		return true, nil
	case Policy.NotFound:
		return false, ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case Policy.InvalidState:
		return false, ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": decision.Reason})
	default:
		return false, ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": decision.Reason})
	}
}

// parsePagination reads the page/page_size query parameters with the
// usual bounds.
func parsePagination(ctx *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ = strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

func parseID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(ctx.Params(name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
