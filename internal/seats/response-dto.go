package seats

// SeatView is the public projection of a seat; the owning booking is not exposed.
type SeatView struct {
	SeatNumber string `json:"seat_number"`
	Status     Status `json:"status"`
}

// SeatMap is the seat layout of one schedule on one travel date
type SeatMap struct {
	ScheduleID uint       `json:"schedule_id"`
	TravelDate string     `json:"travel_date"`
	Total      int        `json:"total"`
	Available  int        `json:"available"`
	Seats      []SeatView `json:"seats"`
}

// AvailabilityResponse is returned by the availability endpoint
type AvailabilityResponse struct {
	ScheduleID uint   `json:"schedule_id"`
	TravelDate string `json:"travel_date"`
	Available  int    `json:"available"`
}
