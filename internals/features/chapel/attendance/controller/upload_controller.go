package controller

import (
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/service"
	helper "chapelku_backend/internals/helpers"
)

type UploadController struct {
	Uploads *service.UploadSessionService
}

func NewUploadController(uploads *service.UploadSessionService) *UploadController {
	return &UploadController{Uploads: uploads}
}

/* ===================== OPEN ===================== */
// POST /attendance/uploads  (multipart: file, service_id, level, uploader_id)
func (ctrl *UploadController) OpenUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return helper.Error(c, fiber.StatusBadRequest, "file is required")
	}

	serviceID, err := uuid.Parse(c.FormValue("service_id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "service_id is not a valid uuid")
	}
	uploaderID, err := uuid.Parse(c.FormValue("uploader_id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "uploader_id is not a valid uuid")
	}
	level, err := strconv.Atoi(c.FormValue("level"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "level is not a number")
	}

	src, err := fh.Open()
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "cannot open uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "cannot read uploaded file")
	}

	session, err := ctrl.Uploads.Open(c.UserContext(), service.OpenUploadInput{
		ServiceID:   serviceID,
		Level:       level,
		UploaderID:  uploaderID,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Upload session opened", sessionResponse(session, true))
}

/* ===================== PREVIEW ===================== */
// GET /attendance/uploads/:id/preview
func (ctrl *UploadController) GetPreview(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id is not a valid uuid")
	}
	preview, err := ctrl.Uploads.Preview(c.UserContext(), sessionID)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.Success(c, "Preview", preview)
}

/* ===================== CONFIRM ===================== */
// POST /attendance/uploads/:id/confirm
func (ctrl *UploadController) ConfirmUpload(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id is not a valid uuid")
	}
	var req dto.ConfirmUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validator.New().Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	version, err := ctrl.Uploads.Confirm(c.UserContext(), sessionID, req.AdminID)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Upload confirmed", versionResponse(version))
}

/* ===================== CANCEL ===================== */
// POST /attendance/uploads/:id/cancel
func (ctrl *UploadController) CancelUpload(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id is not a valid uuid")
	}
	session, err := ctrl.Uploads.Cancel(c.UserContext(), sessionID)
	if err != nil {
		return respondErr(c, err)
	}
	return helper.Success(c, "Upload cancelled", sessionResponse(session, false))
}
