package bookings

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Booking routes
	bookings := rg.Group("/bookings")
	bookings.Use(auth, middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		bookings.POST("", controller.CreateBooking)            // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)            // GET /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}

	// User-specific booking routes
	users := rg.Group("/users")
	users.Use(auth, middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}

	// Admin routes
	admin := rg.Group("/admin/bookings")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.POST("/:id/complete", controller.CompleteBooking) // POST /api/v1/admin/bookings/:id/complete
	}
}

// Route definitions for reference:
//
// BOOKING CREATION
// POST   /api/v1/bookings                              - Reserve seats and create a pending booking
// Request body: { "schedule_id": 5, "travel_date": "2025-01-10", "seat_numbers": ["A1","A2"],
//                 "passengers": [{"name": "..."}, {"name": "..."}], "total_amount": 300000 }
//
// BOOKING RETRIEVAL
// GET    /api/v1/bookings/:id                          - Get a booking by id or booking code
// GET    /api/v1/users/bookings?page=1&limit=10        - Caller's bookings
//
// BOOKING CANCELLATION
// POST   /api/v1/bookings/:id/cancel                   - Cancel and release seats (owner or admin)
//
// Lifecycle:
// 1. Customer creates a booking; seats become reserved, booking is pending
// 2. Customer submits a payment (POST /bookings/:id/payments)
// 3. Admin verifies it; the booking is confirmed and seats become booked
// 4. After travel the booking is completed by the maintenance job or an admin
