package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Core booking operations
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByCode(ctx context.Context, code string) (*Booking, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// Transition moves the booking to target only if its current status is one of
	// the allowed sources. It reports whether a row changed.
	Transition(ctx context.Context, id uuid.UUID, target Status, updates map[string]interface{}) (bool, error)

	// Customer booking operations
	ListByCustomer(ctx context.Context, customerID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Maintenance
	ListConfirmedBefore(ctx context.Context, travelDate string, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := txn.DB(ctx, r.db).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *repository) withSeats(ctx context.Context) *gorm.DB {
	return txn.DB(ctx, r.db).Preload("Seats", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.withSeats(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError{Resource: "booking", ID: id.String(), Err: err}
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Booking, error) {
	var booking Booking
	err := r.withSeats(ctx).Where("booking_code = ?", code).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError{Resource: "booking", ID: code, Err: err}
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := txn.DB(ctx, r.db).Model(&Booking{}).Where("booking_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking code: %w", err)
	}
	return count > 0, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, target Status, updates map[string]interface{}) (bool, error) {
	sources := SourcesFor(target)
	if len(sources) == 0 {
		return false, fmt.Errorf("no transition leads to %s", target)
	}

	values := map[string]interface{}{
		"status":     target,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		values[k] = v
	}

	result := txn.DB(ctx, r.db).
		Model(&Booking{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	// Build base query
	baseQuery := txn.DB(ctx, r.db).
		Model(&Booking{}).
		Where("customer_id = ?", customerID)

	// Apply filters
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}
	if query.TravelDate != "" {
		baseQuery = baseQuery.Where("travel_date = ?", query.TravelDate)
	}

	// Get total count
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	// Get paginated results with seats
	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Seats", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, totalCount, nil
}

// ListConfirmedBefore returns confirmed bookings whose travel date is before travelDate.
func (r *repository) ListConfirmedBefore(ctx context.Context, travelDate string, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := txn.DB(ctx, r.db).
		Model(&Booking{}).
		Where("status = ? AND travel_date < ?", StatusConfirmed, travelDate).
		Order("travel_date ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list departed bookings: %w", err)
	}
	return ids, nil
}
