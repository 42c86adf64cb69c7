package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaNotifier_Notify(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	cfg := DefaultKafkaProducerConfig()
	notifier := NewKafkaNotifierWithProducer(producer, cfg)

	bookingID := uuid.New()
	event := NewEventBuilder(EventBookingConfirmed).
		WithBooking(bookingID, "BUS-20250110-ABCDEF").
		WithTrip(5, "2025-01-10", []string{"A1", "A2"}).
		WithStatus("confirmed").
		Build()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != EventBookingConfirmed || got.BookingID == nil || *got.BookingID != bookingID {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	require.NoError(t, notifier.Notify(context.Background(), event))
	require.NoError(t, notifier.Close())
}

func TestKafkaNotifier_NotifyFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	notifier := NewKafkaNotifierWithProducer(producer, DefaultKafkaProducerConfig())

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := notifier.Notify(context.Background(), NewEventBuilder(EventPaymentVerified).Build())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, notifier.Close())
}

func TestKafkaNotifier_Headers(t *testing.T) {
	notifier := NewKafkaNotifierWithProducer(nil, DefaultKafkaProducerConfig())
	bookingID, paymentID := uuid.New(), uuid.New()

	headers := notifier.createHeaders(NewEventBuilder(EventPaymentRefunded).
		WithBooking(bookingID, "BUS-1").
		WithPayment(paymentID, "PAY-1").
		Build())

	values := map[string]string{}
	for _, h := range headers {
		values[string(h.Key)] = string(h.Value)
	}
	assert.Equal(t, "payment.refunded", values["event_type"])
	assert.Equal(t, "HIGH", values["priority"])
	assert.Equal(t, bookingID.String(), values["booking_id"])
	assert.Equal(t, paymentID.String(), values["payment_id"])
}

func TestEvent_PartitionKey(t *testing.T) {
	bookingID := uuid.New()
	paymentID := uuid.New()

	withBooking := NewEventBuilder(EventPaymentVerified).WithBooking(bookingID, "").WithPayment(paymentID, "").Build()
	assert.Equal(t, bookingID.String(), withBooking.PartitionKey())

	paymentOnly := NewEventBuilder(EventPaymentVerified).WithPayment(paymentID, "").Build()
	assert.Equal(t, paymentID.String(), paymentOnly.PartitionKey())

	bare := NewEventBuilder(EventReconciliationFlagged).Build()
	assert.Equal(t, bare.ID.String(), bare.PartitionKey())
}
