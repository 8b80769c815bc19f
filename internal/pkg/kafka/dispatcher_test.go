package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type stubDeliveries struct {
	delivery.DeliveryService
	err   error
	calls []string
}

func (s *stubDeliveries) CreateDelivery(_ context.Context, orderID string) (delivery.DeliveryResponse, error) {
	s.calls = append(s.calls, orderID)
	if s.err != nil {
		return delivery.DeliveryResponse{}, s.err
	}
	return delivery.DeliveryResponse{OrderID: orderID, Status: "created"}, nil
}

func TestDeliveryDispatcher(t *testing.T) {
	msg := kafka.Message{Key: []byte("o1"), Value: []byte(`{"intent_id":"i1","order_id":"o1"}`)}

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"created", nil, false},
		{"provider down is retried", delivery.ErrProviderUnavailable, true},
		{"unpaid is dropped", order.ErrOrderNotPaid, false},
		{"bad address is dropped", delivery.ErrInvalidAddress, false},
		{"unknown failure is retried", errors.New("db gone"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubDeliveries{err: tt.err}
			err := DeliveryDispatcher(svc)(context.Background(), msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{"o1"}, svc.calls)
		})
	}
}

func TestDeliveryDispatcherSkipsGarbage(t *testing.T) {
	svc := &stubDeliveries{}
	err := DeliveryDispatcher(svc)(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.NoError(t, err)
	assert.Empty(t, svc.calls)
}

func TestInlinePublisher(t *testing.T) {
	svc := &stubDeliveries{}
	p := NewInlinePublisher(DeliveryDispatcher(svc))

	err := p.Publish(context.Background(), delivery.IntentMessage{IntentID: "i1", OrderID: "o1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"o1"}, svc.calls)

	svc.err = delivery.ErrProviderUnavailable
	err = p.Publish(context.Background(), delivery.IntentMessage{IntentID: "i2", OrderID: "o2"})
	assert.ErrorIs(t, err, delivery.ErrProviderUnavailable)
}
