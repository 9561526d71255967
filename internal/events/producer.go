package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaProducer writes JSON events to topic.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return NewKafkaProducerWithWriter(writer, logger)
}

func NewKafkaProducerWithWriter(writer MessageWriter, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: writer,
		logger: logger,
	}
}

// PublishStockChanged keys messages by product key so events for one
// product stay ordered within a partition.
func (p *KafkaProducer) PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error {
	if err := p.publish(ctx, strconv.Itoa(event.ProductKey), string(event.Type), event); err != nil {
		return err
	}

	p.logger.Debug("Stock event published",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.Int("product_key", event.ProductKey))
	return nil
}

func (p *KafkaProducer) PublishStockDeductionFailed(ctx context.Context, orderID, productKey, qty int, reason, message string) error {
	event := StockDeductionFailedEvent{
		EventID:    uuid.New().String(),
		OrderID:    orderID,
		ProductKey: productKey,
		Quantity:   qty,
		Reason:     reason,
		Message:    message,
		Timestamp:  time.Now().UTC(),
	}

	if err := p.publish(ctx, strconv.Itoa(productKey), "stock.deduction_failed", event); err != nil {
		return err
	}

	p.logger.Info("Compensation event published",
		zap.String("event_id", event.EventID),
		zap.Int("order_id", orderID),
		zap.Int("product_key", productKey),
		zap.String("reason", reason))
	return nil
}

func (p *KafkaProducer) publish(ctx context.Context, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
