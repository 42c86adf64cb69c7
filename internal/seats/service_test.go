package seats

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/database/dbtest"
	"busline/internal/shared/txn"
	"busline/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSchedule uint = 5
	testDate          = "2025-01-10"
)

type stubCalendar struct {
	dates map[string]bool
	pools map[string][]string
}

func (c *stubCalendar) OperatesOn(ctx context.Context, scheduleID uint, travelDate string) (bool, error) {
	return c.dates[fmt.Sprintf("%d/%s", scheduleID, travelDate)], nil
}

func (c *stubCalendar) SeatPool(ctx context.Context, scheduleID uint, travelDate string) ([]string, error) {
	key := fmt.Sprintf("%d/%s", scheduleID, travelDate)
	if !c.dates[key] {
		return nil, nil
	}
	return c.pools[key], nil
}

func (c *stubCalendar) operate(scheduleID uint, travelDate string, pool ...string) {
	key := fmt.Sprintf("%d/%s", scheduleID, travelDate)
	c.dates[key] = true
	c.pools[key] = pool
}

type fixture struct {
	db        *gorm.DB
	inventory Inventory
	calendar  *stubCalendar
}

func newFixture(t *testing.T, pool ...string) *fixture {
	t.Helper()
	db := dbtest.Open(t, Migrate)
	calendar := &stubCalendar{dates: map[string]bool{}, pools: map[string][]string{}}
	f := &fixture{
		db:        db,
		inventory: NewInventory(NewRepository(db), txn.NewTransactor(db), calendar),
		calendar:  calendar,
	}
	if len(pool) > 0 {
		calendar.operate(testSchedule, testDate, pool...)
		created, err := f.inventory.Materialize(context.Background(), testSchedule, testDate, pool)
		require.NoError(t, err)
		require.Equal(t, len(pool), created)
	}
	return f
}

func (f *fixture) seat(t *testing.T, number string) Seat {
	t.Helper()
	var seat Seat
	require.NoError(t, f.db.Where("schedule_id = ? AND travel_date = ? AND seat_number = ?",
		testSchedule, testDate, number).First(&seat).Error)
	return seat
}

// countByStatus is the ground truth AvailableCount must agree with.
func (f *fixture) countByStatus(t *testing.T, status Status) int {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&Seat{}).
		Where("schedule_id = ? AND travel_date = ? AND status = ?", testSchedule, testDate, status).
		Count(&n).Error)
	return int(n)
}

func TestMaterialize_Idempotent(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4")

	created, err := f.inventory.Materialize(context.Background(), testSchedule, testDate, []string{"A1", "A2", "A3", "A4", "B1"})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	count, err := f.inventory.AvailableCount(context.Background(), testSchedule, testDate)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestReserve_TakesAllSeats(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4")
	bookingID := uuid.New()

	result, err := f.inventory.Reserve(context.Background(), testSchedule, testDate, []string{"a2", "A1"}, bookingID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A1"}, result.Seats)

	for _, number := range []string{"A1", "A2"} {
		seat := f.seat(t, number)
		assert.Equal(t, StatusReserved, seat.Status)
		assert.True(t, seat.IsOwnedBy(bookingID))
	}
	assert.Equal(t, 2, f.countByStatus(t, StatusAvailable))
}

func TestReserve_AllOrNothing(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4")
	ctx := context.Background()

	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A2"}, uuid.New())
	require.NoError(t, err)

	_, err = f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2", "A3"}, uuid.New())
	require.Error(t, err)

	var unavailable apperrors.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "A2", unavailable.Seat)

	// A1 was taken before A2 failed and must have been rolled back.
	assert.Equal(t, StatusAvailable, f.seat(t, "A1").Status)
	assert.Equal(t, StatusAvailable, f.seat(t, "A3").Status)
	assert.Equal(t, 3, f.countByStatus(t, StatusAvailable))
}

// dbtest runs the callers' transactions one at a time, so this pins the
// outcome (one winner, the rest conflicts) rather than row-level races.
func TestReserve_ConcurrentCallersGetDistinctOutcomes(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4")
	const callers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []uuid.UUID
		conflicts int
		others    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bookingID := uuid.New()
			_, err := f.inventory.Reserve(context.Background(), testSchedule, testDate, []string{"A1"}, bookingID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, bookingID)
			case apperrors.IsSeatUnavailable(err):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	require.Len(t, winners, 1)
	assert.Equal(t, callers-1, conflicts)
	assert.True(t, f.seat(t, "A1").IsOwnedBy(winners[0]))
}

func TestReserve_Errors(t *testing.T) {
	f := newFixture(t, "A1", "A2")
	ctx := context.Background()

	t.Run("date not operated", func(t *testing.T) {
		_, err := f.inventory.Reserve(ctx, testSchedule, "2025-02-01", []string{"A1"}, uuid.New())
		assert.True(t, apperrors.IsCapacityExceeded(err))
	})

	t.Run("operated but not materialized", func(t *testing.T) {
		f.calendar.operate(testSchedule, "2025-02-02", "A1", "A2")
		_, err := f.inventory.Reserve(ctx, testSchedule, "2025-02-02", []string{"A1"}, uuid.New())
		assert.True(t, apperrors.IsCapacityExceeded(err))
	})

	t.Run("more seats than the pool", func(t *testing.T) {
		_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2", "A3"}, uuid.New())
		assert.True(t, apperrors.IsCapacityExceeded(err))
	})

	t.Run("seat outside the pool", func(t *testing.T) {
		_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"Z9"}, uuid.New())
		assert.True(t, apperrors.IsSeatUnavailable(err))
	})

	t.Run("repeated seat", func(t *testing.T) {
		_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "a1"}, uuid.New())
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := f.inventory.Reserve(ctx, testSchedule, "10/01/2025", []string{"A1"}, uuid.New())
		assert.True(t, apperrors.IsValidation(err))
	})

	assert.Equal(t, 2, f.countByStatus(t, StatusAvailable))
}

func TestReserve_OnlySeatsTheCalendarOffers(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4")
	ctx := context.Background()

	// The bus now only has two seats, rows for A3 and A4 are left over
	f.calendar.operate(testSchedule, testDate, "A1", "A2")

	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A4"}, uuid.New())
	var unavailable apperrors.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "A4", unavailable.Seat)
	assert.Equal(t, StatusAvailable, f.seat(t, "A1").Status)

	_, err = f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2", "A3"}, uuid.New())
	assert.True(t, apperrors.IsCapacityExceeded(err))

	result, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2"}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, result.Seats)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3")
	ctx := context.Background()
	owner := uuid.New()

	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner)
	require.NoError(t, err)

	err = f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1", "A2"}, uuid.New())
	assert.True(t, apperrors.IsOwnershipMismatch(err))
	assert.Equal(t, StatusReserved, f.seat(t, "A1").Status)

	require.NoError(t, f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner))
	assert.Equal(t, StatusBooked, f.seat(t, "A1").Status)
	assert.Equal(t, StatusBooked, f.seat(t, "A2").Status)

	// Confirming again is a no-op.
	require.NoError(t, f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner))

	// A seat the booking never held fails the whole confirm.
	err = f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1", "A3"}, owner)
	var mismatch apperrors.OwnershipMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Affected)
}

func TestRelease(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3")
	ctx := context.Background()
	owner := uuid.New()

	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner)
	require.NoError(t, err)
	require.NoError(t, f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1"}, owner))

	err = f.inventory.Release(ctx, testSchedule, testDate, []string{"A1", "A2"}, uuid.New())
	assert.True(t, apperrors.IsOwnershipMismatch(err))
	assert.Equal(t, 1, f.countByStatus(t, StatusAvailable))

	// Booked and reserved seats of the owner are both released.
	require.NoError(t, f.inventory.Release(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner))
	assert.Equal(t, 3, f.countByStatus(t, StatusAvailable))
	assert.Nil(t, f.seat(t, "A1").BookingID)

	// Releasing again finds nothing owned, but the call still completes.
	err = f.inventory.Release(ctx, testSchedule, testDate, []string{"A1"}, owner)
	var mismatch apperrors.OwnershipMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0, mismatch.Affected)
}

func TestRelease_PartialOwnershipKeepsApplied(t *testing.T) {
	f := newFixture(t, "A1", "A2")
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1"}, owner)
	require.NoError(t, err)
	_, err = f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A2"}, other)
	require.NoError(t, err)

	err = f.inventory.Release(ctx, testSchedule, testDate, []string{"A1", "A2"}, owner)
	assert.True(t, apperrors.IsOwnershipMismatch(err))

	assert.Equal(t, StatusAvailable, f.seat(t, "A1").Status)
	assert.True(t, f.seat(t, "A2").IsOwnedBy(other))
}

func TestAvailableCount_MatchesStorage(t *testing.T) {
	f := newFixture(t, "A1", "A2", "A3", "A4", "B1", "B2")
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	_, err := f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A1", "A2"}, first)
	require.NoError(t, err)
	_, err = f.inventory.Reserve(ctx, testSchedule, testDate, []string{"B1"}, second)
	require.NoError(t, err)
	require.NoError(t, f.inventory.Confirm(ctx, testSchedule, testDate, []string{"A1", "A2"}, first))
	require.NoError(t, f.inventory.Release(ctx, testSchedule, testDate, []string{"B1"}, second))

	count, err := f.inventory.AvailableCount(ctx, testSchedule, testDate)
	require.NoError(t, err)
	assert.Equal(t, f.countByStatus(t, StatusAvailable), count)
	assert.Equal(t, 4, count)

	count, err = f.inventory.AvailableCount(ctx, 99, testDate)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListSeats_CacheInvalidatedOnCommit(t *testing.T) {
	f := newFixture(t, "A1", "A2")
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.inventory.SetCacheService(cache.NewService(client))

	seatMap, err := f.inventory.ListSeats(ctx, testSchedule, testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, seatMap.Available)
	assert.Len(t, mr.Keys(), 1)

	_, err = f.inventory.Reserve(ctx, testSchedule, testDate, []string{"A2"}, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())

	seatMap, err = f.inventory.ListSeats(ctx, testSchedule, testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, seatMap.Available)
	assert.Equal(t, []SeatView{
		{SeatNumber: "A1", Status: StatusAvailable},
		{SeatNumber: "A2", Status: StatusReserved},
	}, seatMap.Seats)

	_, err = f.inventory.ListSeats(ctx, testSchedule, "2025-03-01")
	assert.True(t, apperrors.IsNotFound(err))
}
