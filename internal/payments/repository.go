package payments

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
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// FindOpenByBooking returns the pending or verified payment of a booking, or nil.
	FindOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)

	// Transition moves the payment to target only from an allowed source status.
	Transition(ctx context.Context, id uuid.UUID, target Status, updates map[string]interface{}) (bool, error)
	FlagForReconciliation(ctx context.Context, id uuid.UUID, note string) error
	ListNeedingReconciliation(ctx context.Context, offset, limit int) ([]Payment, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *Payment) error {
	if err := txn.DB(ctx, r.db).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.DuplicatePaymentError{BookingID: payment.BookingID.String(), Err: err}
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var payment Payment
	if err := txn.DB(ctx, r.db).Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundError{Resource: "payment", ID: id.String(), Err: err}
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := txn.DB(ctx, r.db).Model(&Payment{}).Where("payment_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check payment code: %w", err)
	}
	return count > 0, nil
}

func (r *repository) FindOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := txn.DB(ctx, r.db).
		Where("booking_id = ? AND status IN ?", bookingID, []Status{StatusPending, StatusVerified}).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open payment: %w", err)
	}
	return &payment, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var payments []Payment
	err := txn.DB(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
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
		Model(&Payment{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update payment status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FlagForReconciliation(ctx context.Context, id uuid.UUID, note string) error {
	err := txn.DB(ctx, r.db).
		Model(&Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"needs_reconciliation": true,
			"reconciliation_note":  note,
			"updated_at":           time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to flag payment: %w", err)
	}
	return nil
}

func (r *repository) ListNeedingReconciliation(ctx context.Context, offset, limit int) ([]Payment, int64, error) {
	var payments []Payment
	var total int64

	base := txn.DB(ctx, r.db).Model(&Payment{}).Where("needs_reconciliation = ?", true)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count flagged payments: %w", err)
	}
	err := base.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list flagged payments: %w", err)
	}
	return payments, total, nil
}
