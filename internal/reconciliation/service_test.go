package reconciliation

import (
	"context"
	"sync"
	"testing"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/schedules"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/shared/database/dbtest"
	"busline/internal/shared/txn"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	scheduleID uint = 5
	travelDate      = "2025-01-10"
)

type harness struct {
	db        *gorm.DB
	tx        txn.Transactor
	inventory seats.Inventory
	ledger    bookings.Service

	mu      sync.Mutex
	flagged int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db := dbtest.Open(t, schedules.Migrate, seats.Migrate, bookings.Migrate, Migrate)
	tx := txn.NewTransactor(db)

	inventory := seats.NewInventory(seats.NewRepository(db), tx, nil)
	scheduleRepo := schedules.NewRepository(db)
	calendar := schedules.NewService(scheduleRepo, tx, inventory)
	inventory.SetCalendar(calendar)

	h := &harness{db: db, tx: tx, inventory: inventory}
	h.ledger = bookings.NewService(bookings.NewRepository(db), tx, inventory, calendar, config.BookingConfig{})

	require.NoError(t, scheduleRepo.Create(ctx, &schedules.Schedule{
		ID: scheduleID, RouteCode: "JKT-BDG", Origin: "Jakarta", Destination: "Bandung",
		DepartureTime: "07:30", ArrivalTime: "10:45", SeatCapacity: 8, SeatsPerRow: 4,
		BasePrice: 150000, IsActive: true,
	}))
	_, err := calendar.AddOperatingDate(ctx, scheduleID, travelDate)
	require.NoError(t, err)
	return h
}

func (h *harness) service(autoRelease bool) Service {
	svc := NewService(NewRepository(h.db), h.tx, h.inventory, config.ReconciliationConfig{
		BatchSize:   50,
		AutoRelease: autoRelease,
	})
	svc.SetPublisher(notifications.PublisherFunc(func(ctx context.Context, event notifications.Event) {
		if event.Type == notifications.EventReconciliationFlagged {
			h.mu.Lock()
			h.flagged++
			h.mu.Unlock()
		}
	}))
	return svc
}

// orphan books the seats and then cancels the booking row behind the ledger's
// back, leaving the seats held by a cancelled booking.
func (h *harness) orphan(t *testing.T, seatNumbers ...string) *bookings.Booking {
	t.Helper()
	passengers := make([]bookings.PassengerRequest, len(seatNumbers))
	for i := range passengers {
		passengers[i] = bookings.PassengerRequest{Name: "Passenger"}
	}
	booking, err := h.ledger.CreateBooking(context.Background(), bookings.CreateBookingInput{
		CustomerID:  uuid.New(),
		ScheduleID:  scheduleID,
		TravelDate:  travelDate,
		SeatNumbers: seatNumbers,
		Passengers:  passengers,
		TotalAmount: 150000,
	})
	require.NoError(t, err)
	require.NoError(t, h.db.Model(&bookings.Booking{}).
		Where("id = ?", booking.ID).
		Update("status", bookings.StatusCancelled).Error)
	return booking
}

func (h *harness) seatStatus(t *testing.T, number string) seats.Status {
	t.Helper()
	var seat seats.Seat
	require.NoError(t, h.db.Where("schedule_id = ? AND travel_date = ? AND seat_number = ?",
		scheduleID, travelDate, number).First(&seat).Error)
	return seat.Status
}

func TestSweep_RecordsEachOrphanOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.service(false)

	h.orphan(t, "A1", "A2")
	_, err := h.ledger.CreateBooking(ctx, bookings.CreateBookingInput{
		CustomerID: uuid.New(), ScheduleID: scheduleID, TravelDate: travelDate,
		SeatNumbers: []string{"B1"}, Passengers: []bookings.PassengerRequest{{Name: "Healthy"}},
	})
	require.NoError(t, err)

	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{Scanned: 2, Recorded: 2, Released: 0}, result)

	again, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Scanned)
	assert.Zero(t, again.Recorded)

	// Seats are only reported, not touched.
	assert.Equal(t, seats.StatusReserved, h.seatStatus(t, "A1"))

	issues, err := svc.ListIssues(ctx, IssueQuery{Kind: string(KindOrphanedReservation), Unresolved: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), issues.Total)
	assert.Equal(t, 2, h.flagged)
}

func TestSweep_AutoReleaseFreesSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.orphan(t, "A3")
	_, err := h.service(false).Sweep(ctx)
	require.NoError(t, err)

	result, err := h.service(true).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Released)
	assert.Equal(t, seats.StatusAvailable, h.seatStatus(t, "A3"))

	// The issue opened by the first sweep is closed by the release.
	open, err := h.service(false).ListIssues(ctx, IssueQuery{Unresolved: true})
	require.NoError(t, err)
	assert.Zero(t, open.Total)

	empty, err := h.service(true).Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Scanned)
}

func TestRecordOwnershipMismatch_FromLedgerCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.service(false)
	h.ledger.SetIssueRecorder(svc)

	booking, err := h.ledger.CreateBooking(ctx, bookings.CreateBookingInput{
		CustomerID: uuid.New(), ScheduleID: scheduleID, TravelDate: travelDate,
		SeatNumbers: []string{"A1", "A2"},
		Passengers:  []bookings.PassengerRequest{{Name: "One"}, {Name: "Two"}},
	})
	require.NoError(t, err)
	require.NoError(t, h.db.Model(&seats.Seat{}).
		Where("schedule_id = ? AND travel_date = ? AND seat_number = ?", scheduleID, travelDate, "A2").
		Updates(map[string]interface{}{"status": seats.StatusAvailable, "booking_id": nil}).Error)

	_, err = h.ledger.CancelBooking(ctx, booking.ID, uuid.Nil)
	require.NoError(t, err)

	issues, err := svc.ListIssues(ctx, IssueQuery{Kind: string(KindOwnershipMismatch)})
	require.NoError(t, err)
	require.Len(t, issues.Issues, 1)
	require.NotNil(t, issues.Issues[0].BookingID)
	assert.Equal(t, booking.ID, *issues.Issues[0].BookingID)
	assert.Contains(t, issues.Issues[0].Detail, "owns 1 of 2 seats")
}

func TestRecordRefundDivergence_RollsBackWithTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.service(false)
	paymentID, bookingID := uuid.New(), uuid.New()

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, svc.RecordRefundDivergence(ctx, paymentID, bookingID, "refund without cancel"))
		return apperrors.InternalError{Msg: "abort"}
	})
	require.Error(t, err)

	issues, err := svc.ListIssues(ctx, IssueQuery{})
	require.NoError(t, err)
	assert.Zero(t, issues.Total)
	assert.Zero(t, h.flagged)

	require.NoError(t, svc.RecordRefundDivergence(ctx, paymentID, bookingID, "refund without cancel"))
	require.NoError(t, svc.RecordRefundDivergence(ctx, paymentID, bookingID, "refund without cancel"))
	issues, err = svc.ListIssues(ctx, IssueQuery{Kind: string(KindRefundDivergence)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), issues.Total)
	assert.Equal(t, 1, h.flagged)
}

func TestResolveIssue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.service(false)
	operator := uuid.New()

	require.NoError(t, svc.RecordRefundDivergence(ctx, uuid.New(), uuid.New(), "manual refund"))
	issues, err := svc.ListIssues(ctx, IssueQuery{})
	require.NoError(t, err)
	require.Len(t, issues.Issues, 1)
	id := issues.Issues[0].ID

	resolved, err := svc.ResolveIssue(ctx, id, operator, "booking cancelled by hand")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, operator, *resolved.ResolvedBy)
	assert.Equal(t, "booking cancelled by hand", resolved.ResolutionNote)

	_, err = svc.ResolveIssue(ctx, id, operator, "again")
	assert.True(t, apperrors.IsInvalidTransition(err))

	_, err = svc.ResolveIssue(ctx, uuid.New(), operator, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.ListIssues(ctx, IssueQuery{Kind: "lost_luggage"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDepartedBefore(t *testing.T) {
	now := time.Date(2025, 1, 12, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-11", departedBefore(now, 1))
	assert.Equal(t, "2025-01-12", departedBefore(now, 0))
}
