package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel(""))
}

func TestLogIntegrityError_WritesErrorRecord(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelInfo).WithComponent("seats")

	l.LogIntegrityError(context.Background(), "ownership_mismatch", errors.New("seat A1 not owned"),
		map[string]interface{}{"booking_id": "b1"})

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"kind":"ownership_mismatch"`)
	assert.Contains(t, out, `"component":"seats"`)
	assert.Contains(t, out, `"booking_id":"b1"`)
}

func TestLogBookingTransition_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelWarn)

	l.LogBookingTransition(context.Background(), "b1", "pending", "confirmed")

	assert.Empty(t, buf.String())
}
