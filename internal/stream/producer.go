package stream

import (
	"context"
	"encoding/json"
	"time"

	"marketplace/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

// 注文イベントのトピック
const topicOrderPlaced = "marketplace.orders.placed"

// OrderPlacedEvent は注文確定時に発行するイベント。
// 通知・売上集計など下流のコンシューマが使う。
type OrderPlacedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	SellerID    string    `json:"seller_id"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	PlacedAt    time.Time `json:"placed_at"`
}

// KafkaProducer はsegmentio/kafka-goのWriterでイベントを発行する。
type KafkaProducer struct {
	broker string
}

func NewKafkaProducer(broker string) *KafkaProducer {
	return &KafkaProducer{broker: broker}
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// PublishOrderPlaced は注文確定イベントを発行する。
// Keyは販売者IDにして同一販売者の注文の順序を保つ。
func (p *KafkaProducer) PublishOrderPlaced(ctx context.Context, o model.Order) error {
	w := p.writer(topicOrderPlaced)
	defer w.Close()

	evt := OrderPlacedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		SellerID:    o.SellerID,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		PlacedAt:    o.CreatedAt,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(o.SellerID),
		Value: data,
		Time:  time.Now(),
	}
	return w.WriteMessages(ctx, msg)
}
