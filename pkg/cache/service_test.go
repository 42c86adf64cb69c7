package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seatView struct {
	Number string `json:"number"`
	Status string `json:"status"`
}

func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestService_SetGetDelete(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "busline:seats:map:schedule:5:date:2025-01-10", []seatView{{"A1", "available"}}, time.Minute))
	assert.True(t, mr.Exists("busline:seats:map:schedule:5:date:2025-01-10"))

	var got []seatView
	require.NoError(t, svc.Get(ctx, "busline:seats:map:schedule:5:date:2025-01-10", &got))
	assert.Equal(t, []seatView{{"A1", "available"}}, got)

	require.NoError(t, svc.Delete(ctx, "busline:seats:map:schedule:5:date:2025-01-10"))
	err := svc.Get(ctx, "busline:seats:map:schedule:5:date:2025-01-10", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestService_DeletePattern(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("busline:schedules:list:page:1:limit:10", "[]"))
	require.NoError(t, mr.Set("busline:schedules:list:page:2:limit:10", "[]"))
	require.NoError(t, mr.Set("busline:schedules:detail:id:5", "{}"))

	require.NoError(t, svc.DeletePattern(ctx, "busline:schedules:list*"))

	assert.False(t, mr.Exists("busline:schedules:list:page:1:limit:10"))
	assert.False(t, mr.Exists("busline:schedules:list:page:2:limit:10"))
	assert.True(t, mr.Exists("busline:schedules:detail:id:5"))
}

func TestService_GetOrSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []seatView{{"B2", "reserved"}}, nil
	}

	var first, second []seatView
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &first))
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &second))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	failing := func() (interface{}, error) { return nil, errors.New("db down") }
	var none []seatView
	assert.Error(t, svc.GetOrSet(ctx, "other", time.Minute, failing, &none))
}
