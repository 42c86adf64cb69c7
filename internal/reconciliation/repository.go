package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/bookings"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orphanedSeatsQuery = `SELECT s.id AS seat_id, s.schedule_id, s.travel_date, s.seat_number, s.status,
       s.booking_id, b.status AS booking_status
FROM seats s
LEFT JOIN bookings b ON b.id = s.booking_id
WHERE s.status IN (?, ?)
  AND (s.booking_id IS NULL OR b.id IS NULL OR b.status = ?)
ORDER BY s.schedule_id, s.travel_date, s.seat_number
LIMIT ?`

type Repository interface {
	FindOrphanedSeats(ctx context.Context, limit int) ([]OrphanedSeat, error)

	// CreateIssue stores the issue unless an unresolved one with the same
	// fingerprint exists, in which case issue.ID is set to the open one. It
	// reports whether a row was inserted.
	CreateIssue(ctx context.Context, issue *Issue) (bool, error)
	GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error)
	ListIssues(ctx context.Context, query IssueQuery) ([]Issue, int64, error)
	ResolveIssue(ctx context.Context, id uuid.UUID, resolver *uuid.UUID, note string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrphanedSeats(ctx context.Context, limit int) ([]OrphanedSeat, error) {
	var orphans []OrphanedSeat
	err := txn.DB(ctx, r.db).
		Raw(orphanedSeatsQuery, seats.StatusReserved, seats.StatusBooked, bookings.StatusCancelled, limit).
		Scan(&orphans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned seats: %w", err)
	}
	return orphans, nil
}

func (r *repository) CreateIssue(ctx context.Context, issue *Issue) (bool, error) {
	db := txn.DB(ctx, r.db)

	var existing Issue
	err := db.Where("fingerprint = ? AND resolved_at IS NULL", issue.Fingerprint).
		Take(&existing).Error
	switch {
	case err == nil:
		issue.ID = existing.ID
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("failed to check open issues: %w", err)
	}

	if err := db.Create(issue).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create issue: %w", err)
	}
	return true, nil
}

func (r *repository) GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error) {
	var issue Issue
	if err := txn.DB(ctx, r.db).Where("id = ?", id).First(&issue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError{Resource: "reconciliation issue", ID: id.String(), Err: err}
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &issue, nil
}

func (r *repository) ListIssues(ctx context.Context, query IssueQuery) ([]Issue, int64, error) {
	var issues []Issue
	var total int64

	base := txn.DB(ctx, r.db).Model(&Issue{})
	if query.Kind != "" {
		base = base.Where("kind = ?", query.Kind)
	}
	if query.Unresolved {
		base = base.Where("resolved_at IS NULL")
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}
	err := base.
		Order("detected_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&issues).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, total, nil
}

func (r *repository) ResolveIssue(ctx context.Context, id uuid.UUID, resolver *uuid.UUID, note string) (bool, error) {
	result := txn.DB(ctx, r.db).
		Model(&Issue{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolved_at":     time.Now().UTC(),
			"resolved_by":     resolver,
			"resolution_note": note,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to resolve issue: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
