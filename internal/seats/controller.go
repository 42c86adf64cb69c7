package seats

import (
	"net/http"
	"strconv"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	inventory Inventory
}

func NewController(inventory Inventory) *Controller {
	return &Controller{inventory: inventory}
}

// GetSeatMap handles GET /api/v1/schedules/:id/dates/:date/seats
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	scheduleID, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	seatMap, err := c.inventory.ListSeats(ctx.Request.Context(), scheduleID, ctx.Param("date"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved successfully", seatMap, nil)
}

// GetAvailability handles GET /api/v1/schedules/:id/dates/:date/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	scheduleID, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	date := ctx.Param("date")
	count, err := c.inventory.AvailableCount(ctx.Request.Context(), scheduleID, date)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", AvailabilityResponse{
		ScheduleID: scheduleID,
		TravelDate: date,
		Available:  count,
	}, nil)
}

func parseScheduleID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.RespondError(ctx, apperrors.ValidationError{Field: "id", Msg: "invalid schedule ID"})
		return 0, false
	}
	return uint(id), true
}
