package schedules

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Schedule is a recurring trip. Seat inventory is materialized per operating date.
type Schedule struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RouteCode     string    `gorm:"size:32;not null;index" json:"route_code"`
	Origin        string    `gorm:"size:120;not null" json:"origin"`
	Destination   string    `gorm:"size:120;not null" json:"destination"`
	DepartureTime string    `gorm:"type:varchar(5);not null" json:"departure_time"`
	ArrivalTime   string    `gorm:"type:varchar(5);not null" json:"arrival_time"`
	SeatCapacity  int       `gorm:"not null" json:"seat_capacity"`
	SeatsPerRow   int       `gorm:"not null" json:"seats_per_row"`
	BasePrice     float64   `gorm:"not null" json:"base_price"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ScheduleDate records that a schedule operates on a travel date.
type ScheduleDate struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ScheduleID uint      `gorm:"not null;uniqueIndex:idx_schedule_dates_schedule_date" json:"schedule_id"`
	TravelDate string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_schedule_dates_schedule_date" json:"travel_date"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Schedule) TableName() string {
	return "schedules"
}

func (ScheduleDate) TableName() string {
	return "schedule_dates"
}

// Migrate creates the calendar tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Schedule{}, &ScheduleDate{})
}

// SeatLabels returns the seat numbers for a layout: row letters then column, A1, A2, ... B1.
func SeatLabels(capacity, perRow int) []string {
	if capacity <= 0 || perRow <= 0 {
		return nil
	}
	labels := make([]string, 0, capacity)
	for i := 0; i < capacity; i++ {
		labels = append(labels, fmt.Sprintf("%s%d", rowName(i/perRow), i%perRow+1))
	}
	return labels
}

// rowName maps 0 to A, 25 to Z, 26 to AA.
func rowName(n int) string {
	name := ""
	for n >= 0 {
		name = string(rune('A'+n%26)) + name
		n = n/26 - 1
	}
	return name
}

// OperatingDateResult is returned when an operating date is registered
type OperatingDateResult struct {
	ScheduleID    uint   `json:"schedule_id"`
	TravelDate    string `json:"travel_date"`
	DateCreated   bool   `json:"date_created"`
	SeatsCreated  int    `json:"seats_created"`
	SeatPoolTotal int    `json:"seat_pool_total"`
}

// PaginatedSchedules is the list payload
type PaginatedSchedules struct {
	Schedules  []Schedule `json:"schedules"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
}
