package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/repository"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 보상(컴펜세이션) 이벤트 발행용 인터페이스
type CompensationProducer interface {
	PublishStockDeductionFailed(ctx context.Context, orderID, productKey, qty int, reason, message string) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer purchases stock for every item of incoming order events.
type KafkaConsumer struct {
	reader               MessageReader
	inventory            service.ShoppingService
	catalog              repository.CatalogRepository
	compensationProducer CompensationProducer
	logger               *zap.Logger
}

func NewKafkaConsumer(brokers []string, groupID, topic string, inventory service.ShoppingService, catalog repository.CatalogRepository, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	return NewKafkaConsumerWithReader(reader, inventory, catalog, logger)
}

func NewKafkaConsumerWithReader(reader MessageReader, inventory service.ShoppingService, catalog repository.CatalogRepository, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:    reader,
		inventory: inventory,
		catalog:   catalog,
		logger:    logger,
	}
}

// 런타임에 보상 프로듀서 주입
func (kc *KafkaConsumer) SetCompensationProducer(p CompensationProducer) {
	kc.compensationProducer = p
}

// Run consumes until ctx is cancelled. Messages are committed after they are
// handled, including ones whose items failed: stock failures are not
// retriable and have already been reported through a compensation event.
func (kc *KafkaConsumer) Run(ctx context.Context) error {
	kc.logger.Info("Kafka consumer started")
	defer kc.logger.Info("Kafka consumer stopped")

	for {
		msg, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := kc.processMessage(ctx, msg); err != nil {
			kc.logger.Error("Error processing message",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
		}

		if err := kc.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			kc.logger.Error("Error committing message", zap.Error(err))
		}
	}
}

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	kc.logger.Info("Processing message",
		zap.String("topic", msg.Topic),
		zap.String("key", string(msg.Key)),
		zap.Int64("offset", msg.Offset))

	var event OrderCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return kc.handleOrderCreatedEvent(ctx, event)
}

// handleOrderCreatedEvent processes items independently; an item that fails
// does not undo items already purchased.
func (kc *KafkaConsumer) handleOrderCreatedEvent(ctx context.Context, event OrderCreatedEvent) error {
	if event.RequestID != "" {
		ctx = domain.ContextWithRequestID(ctx, event.RequestID)
	}

	kc.logger.Info("Processing order created event",
		zap.Int("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.Int("items_count", len(event.Items)))

	var errs []error
	for _, item := range event.Items {
		if err := kc.purchaseItem(ctx, item); err != nil {
			kc.logger.Error("Failed to purchase item",
				zap.Int("product_key", item.ProductKey),
				zap.Int("quantity", item.Quantity),
				zap.Int("order_id", event.OrderID),
				zap.Error(err))

			kc.compensate(ctx, event.OrderID, item, err)
			errs = append(errs, fmt.Errorf("product %d: %w", item.ProductKey, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("order %d: %w", event.OrderID, errors.Join(errs...))
	}

	kc.logger.Info("Order processing completed",
		zap.Int("order_id", event.OrderID),
		zap.String("request_id", event.RequestID))
	return nil
}

func (kc *KafkaConsumer) purchaseItem(ctx context.Context, item OrderItem) error {
	product, err := kc.catalog.GetProduct(ctx, item.ProductKey)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.NotFound(item.ProductKey)
		}
		return err
	}

	return kc.inventory.PurchaseProduct(ctx, product, item.Quantity)
}

func (kc *KafkaConsumer) compensate(ctx context.Context, orderID int, item OrderItem, cause error) {
	if kc.compensationProducer == nil {
		return
	}

	err := kc.compensationProducer.PublishStockDeductionFailed(ctx, orderID, item.ProductKey, item.Quantity, reasonFor(cause), cause.Error())
	if err != nil {
		kc.logger.Error("Failed to publish compensation event", zap.Error(err))
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return ReasonProductNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return ReasonStockInsufficient
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidArgument):
		return ReasonInvalidQuantity
	default:
		return ReasonInternal
	}
}

func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}
