package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/segmentio/kafka-go"
)

// InlinePublisher hands intents straight to a Handler in-process. It stands in for the broker
// when KAFKA_BROKERS is empty, so local setups still dispatch deliveries.
type InlinePublisher struct {
	h      Handler
	offset int64
}

func NewInlinePublisher(h Handler) *InlinePublisher {
	return &InlinePublisher{h: h}
}

func (p *InlinePublisher) Publish(ctx context.Context, msg delivery.IntentMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	p.offset++
	return p.h(ctx, kafka.Message{
		Topic:  "inline",
		Offset: p.offset,
		Key:    []byte(msg.OrderID),
		Value:  value,
		Time:   time.Now(),
	})
}
