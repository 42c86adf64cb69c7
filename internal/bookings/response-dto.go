package bookings

import "time"

// BookingResponse is the client view of a booking
type BookingResponse struct {
	ID          string           `json:"id"`
	BookingCode string           `json:"booking_code"`
	Status      Status           `json:"status"`
	ScheduleID  uint             `json:"schedule_id"`
	TravelDate  string           `json:"travel_date"`
	TotalAmount float64          `json:"total_amount"`
	Seats       []BookedSeatInfo `json:"seats"`
	CreatedAt   time.Time        `json:"created_at"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

type BookedSeatInfo struct {
	SeatNumber     string `json:"seat_number"`
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone,omitempty"`
}

// ToResponse converts a booking into its client view
func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:          b.ID.String(),
		BookingCode: b.BookingCode,
		Status:      b.Status,
		ScheduleID:  b.ScheduleID,
		TravelDate:  b.TravelDate,
		TotalAmount: b.TotalAmount,
		Seats:       make([]BookedSeatInfo, 0, len(b.Seats)),
		CreatedAt:   b.CreatedAt,
		ConfirmedAt: b.ConfirmedAt,
		CancelledAt: b.CancelledAt,
		CompletedAt: b.CompletedAt,
	}
	for _, seat := range b.Seats {
		resp.Seats = append(resp.Seats, BookedSeatInfo{
			SeatNumber:     seat.SeatNumber,
			PassengerName:  seat.PassengerName,
			PassengerPhone: seat.PassengerPhone,
		})
	}
	return resp
}
