package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groupmeal/groupmeal-backend/internal/domain/delivery"
	"github.com/segmentio/kafka-go"
)

// Producer writes delivery intents synchronously so the outbox only marks rows after the broker acked
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

// Publish keys messages by order id so all intents for an order land on one partition
func (p *Producer) Publish(ctx context.Context, msg delivery.IntentMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "intent_id", Value: []byte(msg.IntentID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write intent %s: %w", msg.IntentID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}
