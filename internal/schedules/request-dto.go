package schedules

type CreateScheduleRequest struct {
	RouteCode     string  `json:"route_code" validate:"required,max=32"`
	Origin        string  `json:"origin" validate:"required,max=120"`
	Destination   string  `json:"destination" validate:"required,max=120,nefield=Origin"`
	DepartureTime string  `json:"departure_time" validate:"required,datetime=15:04"`
	ArrivalTime   string  `json:"arrival_time" validate:"required,datetime=15:04"`
	SeatCapacity  int     `json:"seat_capacity" validate:"required,min=1,max=120"`
	SeatsPerRow   int     `json:"seats_per_row" validate:"omitempty,min=1,max=6"`
	BasePrice     float64 `json:"base_price" validate:"gte=0"`
	IsActive      *bool   `json:"is_active"`
}

type AddOperatingDateRequest struct {
	TravelDate string `json:"travel_date" validate:"required,datetime=2006-01-02"`
}

type ScheduleListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
