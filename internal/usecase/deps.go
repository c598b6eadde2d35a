package usecase

import (
	"context"

	"marketplace/internal/domain/model"
)

// IDGenerator はID採番の約束（mainでUUID実装を渡す）。
type IDGenerator interface {
	NewID() string
}

// OrderEventPublisher は注文確定イベント発行の約束。
// 実装はinternal/stream（Kafka）。nilなら発行しない。
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o model.Order) error
}
