// Package events публикует уведомления об изменениях заказов в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/keystore/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Type обозначает вид уведомления.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderCancelled     Type = "order.cancelled"
	OrderStatusChanged Type = "order.status_changed"
	OrderGameKeyAdded  Type = "order.game_key_added"
)

// Event описывает уведомление о заказе для внешних потребителей
// (рассылка писем, выдача ключей).
type Event struct {
	ID            uuid.UUID           `json:"id"`
	Type          Type                `json:"type"`
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        uuid.UUID           `json:"userId"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Total         decimal.Decimal     `json:"total"`
	Email         string              `json:"email"`
	ProductID     *uuid.UUID          `json:"productId,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

// NewOrderEvent собирает уведомление по текущему состоянию заказа.
func NewOrderEvent(t Type, o *model.Order) Event {
	return Event{
		ID:            uuid.New(),
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		Email:         o.ShippingAddress.Email,
		OccurredAt:    time.Now().UTC(),
	}
}

// Kafka публикует уведомления в топик Kafka, ключ сообщения — идентификатор заказа.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka создаёт издателя для брокеров brokers и топика topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish отправляет уведомление.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close дожидается отправки буфера и закрывает соединения.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Nop отбрасывает уведомления. Используется, когда Kafka не настроена.
type Nop struct{}

// Publish ничего не делает.
func (Nop) Publish(context.Context, Event) error { return nil }
