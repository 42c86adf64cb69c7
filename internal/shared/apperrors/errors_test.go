package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		class  Class
		status int
		code   string
	}{
		{"seat unavailable", SeatUnavailableError{ScheduleID: 5, TravelDate: "2025-01-10", Seat: "A1"}, ClassContention, http.StatusConflict, "SEAT_UNAVAILABLE"},
		{"duplicate payment", DuplicatePaymentError{BookingID: "b1"}, ClassContention, http.StatusConflict, "DUPLICATE_PAYMENT"},
		{"invalid transition", InvalidTransitionError{Entity: "booking", From: "cancelled", To: "confirmed"}, ClassState, http.StatusConflict, "INVALID_TRANSITION"},
		{"invalid booking state", InvalidBookingStateError{BookingID: "b1", Status: "confirmed"}, ClassState, http.StatusConflict, "INVALID_BOOKING_STATE"},
		{"amount mismatch", AmountMismatchError{Expected: 10, Got: 9}, ClassState, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"},
		{"capacity exceeded", CapacityExceededError{ScheduleID: 5}, ClassState, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED"},
		{"ownership mismatch", OwnershipMismatchError{BookingID: "b1"}, ClassIntegrity, http.StatusInternalServerError, "OWNERSHIP_MISMATCH"},
		{"not found", NotFoundError{Resource: "booking"}, ClassNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"validation", ValidationError{Field: "seat_numbers", Msg: "required"}, ClassValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"plain", errors.New("boom"), ClassInternal, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.class, ClassOf(wrapped))
			assert.Equal(t, tt.status, HTTPStatus(wrapped))
			assert.Equal(t, tt.code, Code(wrapped))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "seat A1 is not available on schedule 5 for 2025-01-10",
		SeatUnavailableError{ScheduleID: 5, TravelDate: "2025-01-10", Seat: "A1"}.Error())
	assert.Equal(t, "booking not found", NotFoundError{Resource: "booking"}.Error())
	assert.Equal(t, "booking b1 not found", NotFoundError{Resource: "booking", ID: "b1"}.Error())
	assert.Equal(t, "payment amount 9.00 does not match booking total 10.00",
		AmountMismatchError{Expected: 10, Got: 9}.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := DuplicatePaymentError{BookingID: "b1", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Class(""), ClassOf(nil))
}
