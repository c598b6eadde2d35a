package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActiveByUserID(ctx context.Context, userID string) (model.Cart, error)
	FindActiveByUserID(ctx context.Context, userID string) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID string, status model.CartStatus) error
	//明細を全削除
	Clear(ctx context.Context, cartID string) error
}
