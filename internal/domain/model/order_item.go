package model

import "time"

// 注文明細。商品名・価格・バリアントは注文時点のスナップショット。
type OrderItem struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID             string    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID           string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	VariantID           string    `gorm:"type:varchar(36);not null;default:''" json:"variant_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	SKUSnapshot         string    `gorm:"type:varchar(100);not null;default:''" json:"sku_snapshot"`
	DisplaySnapshot     string    `gorm:"type:varchar(255);not null;default:''" json:"display_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	Subtotal            int64     `gorm:"not null" json:"subtotal"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
