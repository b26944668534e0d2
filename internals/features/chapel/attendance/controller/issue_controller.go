package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chapelku_backend/internals/features/chapel/attendance/service"
	helper "chapelku_backend/internals/helpers"
)

type IssueController struct {
	Issues *service.IssueService
}

func NewIssueController(svc *service.IssueService) *IssueController {
	return &IssueController{Issues: svc}
}

type resolveIssueRequest struct {
	AdminID uuid.UUID `json:"admin_id" validate:"required"`
}

/* ===================== RESOLVE ===================== */
// PATCH /attendance/issues/:id/resolve
func (ctrl *IssueController) ResolveIssue(c *fiber.Ctx) error {
	issueID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id is not a valid uuid")
	}
	var req resolveIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validator.New().Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	issue, err := ctrl.Issues.Resolve(c.UserContext(), issueID, req.AdminID)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.Success(c, "Issue resolved", issue)
}
