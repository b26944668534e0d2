package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/service"
	helper "chapelku_backend/internals/helpers"
)

type ClearanceController struct {
	Clearance *service.ClearanceService
}

func NewClearanceController(svc *service.ClearanceService) *ClearanceController {
	return &ClearanceController{Clearance: svc}
}

/* ===================== SINGLE ===================== */
// POST /attendance/clearances
func (ctrl *ClearanceController) ClearStudent(c *fiber.Ctx) error {
	var req dto.ClearStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validator.New().Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	override, err := ctrl.Clearance.ClearStudent(c.UserContext(), req)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Student cleared", override)
}

/* ===================== BATCH ===================== */
// POST /attendance/clearances/batch
func (ctrl *ClearanceController) BatchClear(c *fiber.Ctx) error {
	var req dto.BatchClearRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validator.New().Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	// batch clearance always answers with the structured summary, partial
	// failures included
	res := ctrl.Clearance.BatchClear(c.UserContext(), req)
	return helper.Success(c, "Batch clearance processed", res)
}
