package seats

import (
	"github.com/gin-gonic/gin"
)

// SetupSeatRoutes configures the public seat map and availability routes
func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller) {
	seats := rg.Group("/schedules/:id/dates/:date")
	{
		seats.GET("/seats", controller.GetSeatMap)              // GET /api/v1/schedules/:id/dates/:date/seats
		seats.GET("/availability", controller.GetAvailability) // GET /api/v1/schedules/:id/dates/:date/availability
	}
}
