package refcode

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^BUS-20250110-[A-Z]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := Generate("BUS", now)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
