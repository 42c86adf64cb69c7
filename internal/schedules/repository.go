package schedules

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/txn"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, id uint) (*Schedule, error)
	List(ctx context.Context, offset, limit int) ([]Schedule, int64, error)

	// Operating calendar
	AddDate(ctx context.Context, scheduleID uint, travelDate string) (bool, error)
	HasDate(ctx context.Context, scheduleID uint, travelDate string) (bool, error)
	ListDates(ctx context.Context, scheduleID uint, from string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, schedule *Schedule) error {
	if err := txn.DB(ctx, r.db).Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Schedule, error) {
	var schedule Schedule
	err := txn.DB(ctx, r.db).Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError{Resource: "schedule", ID: fmt.Sprintf("%d", id), Err: err}
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *repository) List(ctx context.Context, offset, limit int) ([]Schedule, int64, error) {
	db := txn.DB(ctx, r.db)

	var total int64
	if err := db.Model(&Schedule{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	var schedules []Schedule
	err := db.Order("route_code ASC, departure_time ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&schedules).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, total, nil
}

// AddDate inserts the operating date if missing and reports whether a row was created.
func (r *repository) AddDate(ctx context.Context, scheduleID uint, travelDate string) (bool, error) {
	date := ScheduleDate{ScheduleID: scheduleID, TravelDate: travelDate}
	result := txn.DB(ctx, r.db).
		Where("schedule_id = ? AND travel_date = ?", scheduleID, travelDate).
		FirstOrCreate(&date)
	if result.Error != nil {
		return false, fmt.Errorf("failed to add operating date: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) HasDate(ctx context.Context, scheduleID uint, travelDate string) (bool, error) {
	var count int64
	err := txn.DB(ctx, r.db).Model(&ScheduleDate{}).
		Where("schedule_id = ? AND travel_date = ?", scheduleID, travelDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check operating date: %w", err)
	}
	return count > 0, nil
}

func (r *repository) ListDates(ctx context.Context, scheduleID uint, from string) ([]string, error) {
	var dates []string
	query := txn.DB(ctx, r.db).Model(&ScheduleDate{}).Where("schedule_id = ?", scheduleID)
	if from != "" {
		query = query.Where("travel_date >= ?", from)
	}
	if err := query.Order("travel_date ASC").Pluck("travel_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("failed to list operating dates: %w", err)
	}
	return dates, nil
}
