package bookings

import "github.com/google/uuid"

type PassengerRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type CreateBookingRequest struct {
	ScheduleID  uint               `json:"schedule_id" validate:"required,gt=0"`
	TravelDate  string             `json:"travel_date" validate:"required,datetime=2006-01-02"`
	SeatNumbers []string           `json:"seat_numbers" validate:"required,min=1,dive,required,max=8"`
	Passengers  []PassengerRequest `json:"passengers" validate:"required,min=1,dive"`
	TotalAmount float64            `json:"total_amount" validate:"gte=0,lte=9999999999.99"`
}

// CreateBookingInput is the ledger's view of a booking request
type CreateBookingInput struct {
	CustomerID  uuid.UUID
	ScheduleID  uint
	TravelDate  string
	SeatNumbers []string
	Passengers  []PassengerRequest
	TotalAmount float64
}

type BookingListQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	Status     string `form:"status"`
	TravelDate string `form:"travel_date"`
}
