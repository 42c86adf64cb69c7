package schedules

import (
	"net/http"
	"strconv"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// ListSchedules handles GET /api/v1/schedules
func (c *Controller) ListSchedules(ctx *gin.Context) {
	var query ScheduleListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListSchedules(ctx.Request.Context(), query.Page, query.Limit)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedules retrieved successfully", result, nil)
}

// GetSchedule handles GET /api/v1/schedules/:id
func (c *Controller) GetSchedule(ctx *gin.Context) {
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	schedule, err := c.service.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedule retrieved successfully", schedule, nil)
}

// CreateSchedule handles POST /api/v1/admin/schedules
func (c *Controller) CreateSchedule(ctx *gin.Context) {
	var req CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	schedule, err := c.service.CreateSchedule(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Schedule created successfully", schedule, nil)
}

// AddOperatingDate handles POST /api/v1/admin/schedules/:id/dates
func (c *Controller) AddOperatingDate(ctx *gin.Context) {
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	var req AddOperatingDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.AddOperatingDate(ctx.Request.Context(), id, req.TravelDate)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	status := http.StatusOK
	if result.DateCreated {
		status = http.StatusCreated
	}
	response.RespondJSON(ctx, "success", status, "Operating date registered", result, nil)
}

// ListOperatingDates handles GET /api/v1/schedules/:id/dates?from=YYYY-MM-DD
func (c *Controller) ListOperatingDates(ctx *gin.Context) {
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	dates, err := c.service.ListOperatingDates(ctx.Request.Context(), id, ctx.Query("from"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Operating dates retrieved successfully", gin.H{
		"schedule_id": id,
		"dates":       dates,
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
