package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chapelku_backend/internals/features/chapel/attendance/service"
	helper "chapelku_backend/internals/helpers"
)

type AbsenteeController struct {
	Aggregator *service.AbsenteeAggregatorService
}

func NewAbsenteeController(agg *service.AbsenteeAggregatorService) *AbsenteeController {
	return &AbsenteeController{Aggregator: agg}
}

/* ===================== SERVICES WITH COUNTS ===================== */
// GET /attendance/services?date=2026-01-18
func (ctrl *AbsenteeController) ServicesWithCounts(c *fiber.Ctx) error {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	out, err := ctrl.Aggregator.ServicesWithCounts(c.UserContext(), date)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.Success(c, "Services with absentee counts", out)
}

/* ===================== CONSOLIDATED LISTING ===================== */
// GET /attendance/services/:id/absentees?page=&per_page=
func (ctrl *AbsenteeController) GetAbsentees(c *fiber.Ctx) error {
	serviceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id is not a valid uuid")
	}
	paging := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)

	out, err := ctrl.Aggregator.ListAbsentees(c.UserContext(), serviceID, paging.Page, paging.PerPage)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.Success(c, "Absentees", out)
}
