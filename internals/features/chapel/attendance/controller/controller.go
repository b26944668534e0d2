package controller

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/model"
	"chapelku_backend/internals/features/chapel/attendance/service"
	helper "chapelku_backend/internals/helpers"
)

// respondErr maps typed domain errors onto the JSON envelope; anything
// untyped is a 500.
func respondErr(c *fiber.Ctx, err error) error {
	if de, ok := service.AsDomainError(err); ok {
		return helper.ErrorWithKind(c, de.Status, de.Kind, err.Error())
	}
	return helper.Error(c, fiber.StatusInternalServerError, err.Error())
}

func sessionResponse(m *model.UploadSessionModel, includePreview bool) dto.UploadSessionResponse {
	resp := dto.UploadSessionResponse{
		UploadSessionID: m.UploadSessionId,
		ServiceID:       m.UploadSessionServiceId,
		Level:           m.UploadSessionLevel,
		UploaderID:      m.UploadSessionUploaderId,
		ScanArchiveID:   m.UploadSessionScanArchiveId,
		Status:          m.UploadSessionStatus,
		CreatedAt:       m.UploadSessionCreatedAt,
		ConfirmedAt:     m.UploadSessionConfirmedAt,
		CancelledAt:     m.UploadSessionCancelledAt,
	}
	if includePreview {
		var preview dto.UploadPreview
		if err := sonic.Unmarshal(m.UploadSessionPreview, &preview); err == nil {
			resp.Preview = &preview
		}
	}
	return resp
}

func versionResponse(m *model.AttendanceBatchVersionModel) dto.BatchVersionResponse {
	resp := dto.BatchVersionResponse{
		BatchVersionID: m.AttendanceBatchVersionId,
		ServiceID:      m.AttendanceBatchVersionServiceId,
		Level:          m.AttendanceBatchVersionLevel,
		Version:        m.AttendanceBatchVersionNumber,
		AdminID:        m.AttendanceBatchVersionAdminId,
		SupersededBy:   m.AttendanceBatchVersionSupersededBy,
		CreatedAt:      m.AttendanceBatchVersionCreatedAt,
	}
	_ = sonic.Unmarshal(m.AttendanceBatchVersionAttendees, &resp.Attendees)
	_ = sonic.Unmarshal(m.AttendanceBatchVersionAbsentees, &resp.Absentees)
	_ = sonic.Unmarshal(m.AttendanceBatchVersionUnmatched, &resp.Unmatched)
	return resp
}
