package schedules

import (
	"context"
	"errors"
	"testing"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/database/dbtest"
	"busline/internal/shared/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMaterializer struct {
	mock.Mock
}

func (m *mockMaterializer) Materialize(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error) {
	args := m.Called(ctx, scheduleID, travelDate, seatNumbers)
	return args.Int(0), args.Error(1)
}

func newTestService(t *testing.T) (Service, *mockMaterializer) {
	t.Helper()
	db := dbtest.Open(t, Migrate)
	materializer := new(mockMaterializer)
	return NewService(NewRepository(db), txn.NewTransactor(db), materializer), materializer
}

func createSchedule(t *testing.T, svc Service, capacity int) *Schedule {
	t.Helper()
	schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		RouteCode:     "jkt-bdg",
		Origin:        "Jakarta",
		Destination:   "Bandung",
		DepartureTime: "07:30",
		ArrivalTime:   "10:45",
		SeatCapacity:  capacity,
		BasePrice:     150000,
	})
	require.NoError(t, err)
	return schedule
}

func TestSeatLabels(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "B1", "B2"}, SeatLabels(6, 4))
	assert.Nil(t, SeatLabels(0, 4))

	labels := SeatLabels(27*2, 2)
	assert.Equal(t, "Z2", labels[51])
	assert.Equal(t, "AA1", labels[52])
}

func TestCreateSchedule_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	schedule := createSchedule(t, svc, 8)

	assert.NotZero(t, schedule.ID)
	assert.Equal(t, "JKT-BDG", schedule.RouteCode)
	assert.Equal(t, 4, schedule.SeatsPerRow)
	assert.True(t, schedule.IsActive)
}

func TestAddOperatingDate_MaterializesPool(t *testing.T) {
	svc, materializer := newTestService(t)
	ctx := context.Background()
	schedule := createSchedule(t, svc, 6)

	materializer.On("Materialize", mock.Anything, schedule.ID, "2025-01-10",
		[]string{"A1", "A2", "A3", "A4", "B1", "B2"}).Return(6, nil).Once()

	result, err := svc.AddOperatingDate(ctx, schedule.ID, "2025-01-10")
	require.NoError(t, err)
	assert.True(t, result.DateCreated)
	assert.Equal(t, 6, result.SeatsCreated)

	operates, err := svc.OperatesOn(ctx, schedule.ID, "2025-01-10")
	require.NoError(t, err)
	assert.True(t, operates)

	pool, err := svc.SeatPool(ctx, schedule.ID, "2025-01-10")
	require.NoError(t, err)
	assert.Len(t, pool, 6)

	materializer.AssertExpectations(t)
}

func TestAddOperatingDate_RollsBackWhenMaterializeFails(t *testing.T) {
	svc, materializer := newTestService(t)
	ctx := context.Background()
	schedule := createSchedule(t, svc, 4)

	materializer.On("Materialize", mock.Anything, schedule.ID, "2025-01-11", mock.Anything).
		Return(0, errors.New("disk full"))

	_, err := svc.AddOperatingDate(ctx, schedule.ID, "2025-01-11")
	require.Error(t, err)

	operates, err := svc.OperatesOn(ctx, schedule.ID, "2025-01-11")
	require.NoError(t, err)
	assert.False(t, operates)
}

func TestAddOperatingDate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddOperatingDate(ctx, 1, "10-01-2025")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.AddOperatingDate(ctx, 99, "2025-01-10")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOperatesOn_UnknownAndInactive(t *testing.T) {
	svc, materializer := newTestService(t)
	ctx := context.Background()

	operates, err := svc.OperatesOn(ctx, 42, "2025-01-10")
	require.NoError(t, err)
	assert.False(t, operates)

	inactive := false
	schedule, err := svc.CreateSchedule(ctx, CreateScheduleRequest{
		RouteCode: "SBY-MLG", Origin: "Surabaya", Destination: "Malang",
		DepartureTime: "06:00", ArrivalTime: "08:00", SeatCapacity: 4, IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, schedule.IsActive)

	_, err = svc.AddOperatingDate(ctx, schedule.ID, "2025-01-10")
	assert.True(t, apperrors.IsValidation(err))
	materializer.AssertNotCalled(t, "Materialize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	pool, err := svc.SeatPool(ctx, schedule.ID, "2025-01-10")
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestListSchedules_Paginates(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		createSchedule(t, svc, 4)
	}

	page, err := svc.ListSchedules(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Schedules, 1)
}
