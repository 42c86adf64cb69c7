package seats

import (
	"context"
	"fmt"
	"time"

	"busline/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Inventory materialization
	CreateMissing(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error)
	CountPool(ctx context.Context, scheduleID uint, travelDate string) (int64, error)

	// Compare-and-swap transitions; they report how many rows moved
	ReserveSeat(ctx context.Context, scheduleID uint, travelDate, seatNumber string, bookingID uuid.UUID) (bool, error)
	MarkBooked(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (int64, error)
	ReleaseOwned(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (int64, error)

	// Reads
	CountOwned(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID, status Status) (int64, error)
	CountAvailable(ctx context.Context, scheduleID uint, travelDate string) (int64, error)
	List(ctx context.Context, scheduleID uint, travelDate string) ([]Seat, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Seat, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) scope(ctx context.Context, scheduleID uint, travelDate string) *gorm.DB {
	return txn.DB(ctx, r.db).Model(&Seat{}).
		Where("schedule_id = ? AND travel_date = ?", scheduleID, travelDate)
}

// CreateMissing inserts the seats that do not exist yet and returns how many were added.
func (r *repository) CreateMissing(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error) {
	if len(seatNumbers) == 0 {
		return 0, nil
	}

	rows := make([]Seat, 0, len(seatNumbers))
	for _, number := range seatNumbers {
		rows = append(rows, Seat{
			ScheduleID: scheduleID,
			TravelDate: travelDate,
			SeatNumber: number,
			Status:     StatusAvailable,
		})
	}

	result := txn.DB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}, {Name: "travel_date"}, {Name: "seat_number"}},
			DoNothing: true,
		}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to materialize seats: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *repository) CountPool(ctx context.Context, scheduleID uint, travelDate string) (int64, error) {
	var count int64
	if err := r.scope(ctx, scheduleID, travelDate).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count seat pool: %w", err)
	}
	return count, nil
}

// ReserveSeat moves one seat from available to reserved only if it is still available.
func (r *repository) ReserveSeat(ctx context.Context, scheduleID uint, travelDate, seatNumber string, bookingID uuid.UUID) (bool, error) {
	result := r.scope(ctx, scheduleID, travelDate).
		Where("seat_number = ? AND status = ?", seatNumber, StatusAvailable).
		Updates(map[string]interface{}{
			"status":     StatusReserved,
			"booking_id": bookingID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reserve seat %s: %w", seatNumber, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkBooked(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (int64, error) {
	result := r.scope(ctx, scheduleID, travelDate).
		Where("seat_number IN ? AND booking_id = ? AND status = ?", seatNumbers, bookingID, StatusReserved).
		Updates(map[string]interface{}{
			"status":     StatusBooked,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark seats booked: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *repository) ReleaseOwned(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (int64, error) {
	result := r.scope(ctx, scheduleID, travelDate).
		Where("seat_number IN ? AND booking_id = ? AND status IN ?", seatNumbers, bookingID,
			[]Status{StatusReserved, StatusBooked}).
		Updates(map[string]interface{}{
			"status":     StatusAvailable,
			"booking_id": nil,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release seats: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *repository) CountOwned(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID, status Status) (int64, error) {
	var count int64
	err := r.scope(ctx, scheduleID, travelDate).
		Where("seat_number IN ? AND booking_id = ? AND status = ?", seatNumbers, bookingID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count owned seats: %w", err)
	}
	return count, nil
}

func (r *repository) CountAvailable(ctx context.Context, scheduleID uint, travelDate string) (int64, error) {
	var count int64
	err := r.scope(ctx, scheduleID, travelDate).
		Where("status = ?", StatusAvailable).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count available seats: %w", err)
	}
	return count, nil
}

func (r *repository) List(ctx context.Context, scheduleID uint, travelDate string) ([]Seat, error) {
	var seats []Seat
	err := txn.DB(ctx, r.db).
		Where("schedule_id = ? AND travel_date = ?", scheduleID, travelDate).
		Order("LENGTH(seat_number) ASC, seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return seats, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := txn.DB(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booking seats: %w", err)
	}
	return seats, nil
}
