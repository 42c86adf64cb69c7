package bookings

import (
	"net/http"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), CreateBookingInput{
		CustomerID:  actor.ID,
		ScheduleID:  req.ScheduleID,
		TravelDate:  req.TravelDate,
		SeatNumbers: req.SeatNumbers,
		Passengers:  req.Passengers,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", booking.ToResponse(), nil)
}

// GetBooking handles GET /api/v1/bookings/:id. The parameter may also be a booking code.
func (c *Controller) GetBooking(ctx *gin.Context) {
	booking, ok := c.loadOwnedBooking(ctx)
	if !ok {
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking.ToResponse(), nil)
}

// GetUserBookings handles GET /api/v1/users/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListCustomerBookings(ctx.Request.Context(), actor.ID, query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	bookings := make([]BookingResponse, 0, len(result.Bookings))
	for i := range result.Bookings {
		bookings = append(bookings, result.Bookings[i].ToResponse())
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", gin.H{
		"bookings": bookings,
		"pagination": response.Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	}, nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	booking, ok := c.loadOwnedBooking(ctx)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(ctx)

	cancelled, err := c.service.CancelBooking(ctx.Request.Context(), booking.ID, actor.ID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", cancelled.ToResponse(), nil)
}

// CompleteBooking handles POST /api/v1/admin/bookings/:id/complete
func (c *Controller) CompleteBooking(ctx *gin.Context) {
	bookingID, ok := parseBookingID(ctx)
	if !ok {
		return
	}

	booking, err := c.service.CompleteBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking completed successfully", booking.ToResponse(), nil)
}

// loadOwnedBooking resolves the :id parameter and checks the caller may see the booking
func (c *Controller) loadOwnedBooking(ctx *gin.Context) (*Booking, bool) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return nil, false
	}

	var booking *Booking
	if id, parseErr := uuid.Parse(ctx.Param("id")); parseErr == nil {
		booking, err = c.service.GetBooking(ctx.Request.Context(), id)
	} else {
		booking, err = c.service.GetBookingByCode(ctx.Request.Context(), ctx.Param("id"))
	}
	if err != nil {
		response.RespondError(ctx, err)
		return nil, false
	}

	// Non-admin users can only act on their own bookings
	if !actor.CanAccess(booking.CustomerID) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, nil)
		return nil, false
	}
	return booking, true
}

func parseBookingID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.ValidationError{Field: "id", Msg: "invalid booking ID"})
		return uuid.Nil, false
	}
	return id, true
}
