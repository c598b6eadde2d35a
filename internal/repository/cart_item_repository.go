package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID string) ([]model.CartItem, error)
	//エンジンの計算結果で明細を丸ごと置き換える（販売者切替でクリアが入るため）
	ReplaceAll(ctx context.Context, cartID string, items []model.CartItem) error
	UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error
	DeleteByID(ctx context.Context, cartItemID string) error
	FindByID(ctx context.Context, cartItemID string) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error)
}
