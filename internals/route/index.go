package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	attendanceRoute "chapelku_backend/internals/features/chapel/attendance/route"
	osshelper "chapelku_backend/internals/helpers/oss"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, store *osshelper.OSSService) {
	// ===================== ADMIN =====================
	// Authentication/authorization sits in front of this service; the admin
	// group carries no auth middleware of its own.
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a")
	attendanceRoute.AttendanceAdminRoutes(admin, db, store)
}
