package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	attCtrl "chapelku_backend/internals/features/chapel/attendance/controller"
	"chapelku_backend/internals/features/chapel/attendance/service"
	"chapelku_backend/internals/features/chapel/registry"
	osshelper "chapelku_backend/internals/helpers/oss"
)

func AttendanceAdminRoutes(r fiber.Router, db *gorm.DB, store *osshelper.OSSService) {
	reg := registry.New(db)
	gormStore := service.NewGormStore(db)

	uploads := attCtrl.NewUploadController(service.NewUploadSessionService(db, reg, store, store))
	absentees := attCtrl.NewAbsenteeController(service.NewAbsenteeAggregatorService(store, reg))
	clearances := attCtrl.NewClearanceController(service.NewClearanceService(reg, gormStore.Overrides(), store))
	issues := attCtrl.NewIssueController(service.NewIssueService(gormStore.Issues()))

	// =====================
	// Upload ingestion
	// =====================
	uGroup := r.Group("/attendance/uploads")
	uGroup.Post("/", uploads.OpenUpload)
	uGroup.Get("/:id/preview", uploads.GetPreview)
	uGroup.Post("/:id/confirm", uploads.ConfirmUpload)
	uGroup.Post("/:id/cancel", uploads.CancelUpload)

	// =====================
	// Reporting
	// =====================
	sGroup := r.Group("/attendance/services")
	sGroup.Get("/", absentees.ServicesWithCounts)
	sGroup.Get("/:id/absentees", absentees.GetAbsentees)

	// =====================
	// Clearance
	// =====================
	cGroup := r.Group("/attendance/clearances")
	cGroup.Post("/", clearances.ClearStudent)
	cGroup.Post("/batch", clearances.BatchClear)

	// =====================
	// Issues
	// =====================
	r.Patch("/attendance/issues/:id/resolve", issues.ResolveIssue)
}
