package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCents(t *testing.T) {
	assert.Equal(t, int64(30000000), Cents(300000))
	assert.Equal(t, int64(1999), Cents(19.99))
	assert.Equal(t, int64(30), Cents(0.1+0.2))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(0.1+0.2, 0.3))
	assert.True(t, Equal(150000, 150000.004))
	assert.False(t, Equal(150000, 150000.01))
	assert.Equal(t, 10.01, Round(10.006))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(0))
	assert.True(t, Valid(Max))
	assert.Equal(t, int64(999999999999), Cents(Max))

	assert.False(t, Valid(-0.01))
	assert.False(t, Valid(Max+0.01))
	assert.False(t, Valid(1e20))
	assert.False(t, Valid(math.Inf(1)))
	assert.False(t, Valid(math.NaN()))
}
