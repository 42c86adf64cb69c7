package schedules

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupScheduleRoutes configures schedule browsing and calendar administration routes
func SetupScheduleRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Public routes
	public := rg.Group("/schedules")
	{
		public.GET("", controller.ListSchedules)               // GET /api/v1/schedules
		public.GET("/:id", controller.GetSchedule)             // GET /api/v1/schedules/:id
		public.GET("/:id/dates", controller.ListOperatingDates) // GET /api/v1/schedules/:id/dates
	}

	// Admin routes
	admin := rg.Group("/admin/schedules")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateSchedule)             // POST /api/v1/admin/schedules
		admin.POST("/:id/dates", controller.AddOperatingDate) // POST /api/v1/admin/schedules/:id/dates
	}
}
