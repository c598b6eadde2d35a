package model

import "time"

// 商品のバリアント（サイズ・色の組み合わせなど）。
// CombinationsJSONは variant-type → option のmapをJSON文字列で保存する。
type ProductVariant struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductID        string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	SKU              string    `gorm:"type:varchar(100);not null" json:"sku"`
	Price            int64     `gorm:"not null" json:"price"`
	SalePrice        *int64    `json:"sale_price,omitempty"`
	Stock            int64     `gorm:"not null" json:"stock"`
	Weight           *float64  `json:"weight,omitempty"`
	CombinationsJSON string    `gorm:"type:text" json:"combinations_json"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
