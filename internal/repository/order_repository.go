package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

// 販売者側の注文一覧の絞り込み。
type SellerOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByCustomerID(ctx context.Context, customerID string, page int, limit int) ([]model.Order, int64, error)
	ListBySellerID(ctx context.Context, sellerID string, f SellerOrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error

	//同じキーのチェックアウトは同じ結果を返す（販売者分割で複数件になりうる）
	ListByIdempotencyKey(ctx context.Context, customerID string, key string) ([]model.Order, error)
}

type OrderItemRepository interface {
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
}
