package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	SellerID string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	//カート内の商品をまとめて引く（カタログスナップショット用）
	ListByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error
}

// バリアントの永続化。
type VariantRepository interface {
	ListByProductID(ctx context.Context, productID string) ([]model.ProductVariant, error)
	FindByID(ctx context.Context, id string) (model.ProductVariant, error)

	Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error)
	Update(ctx context.Context, v model.ProductVariant) error
	DeleteByID(ctx context.Context, id string) error
}

// 在庫の永続化と履歴保存をまとめた約束。
// バリアント商品はバリアント側の在庫を動かす。
type InventoryRepository interface {
	SetStock(ctx context.Context, productID string, newStock int64) error
	DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error)
	IncreaseStock(ctx context.Context, productID string, qty int64) error

	SetVariantStock(ctx context.Context, variantID string, newStock int64) error
	DecreaseVariantStockIfEnough(ctx context.Context, variantID string, qty int64) (bool, error)
	IncreaseVariantStock(ctx context.Context, variantID string, qty int64) error

	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
}
