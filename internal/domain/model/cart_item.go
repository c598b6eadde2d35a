package model

import "time"

// カートの明細。
// 追加時点の価格・販売者・バリアント表示を必ずスナップショットで保存。
// (ProductID, VariantID) の組につき1行まで。VariantIDはバリアント無しなら空。
type CartItem struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CartID              string    `gorm:"type:varchar(36);not null;index" json:"cart_id"`
	ProductID           string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	VariantID           string    `gorm:"type:varchar(36);not null;default:''" json:"variant_id"`
	SellerID            string    `gorm:"type:varchar(36);not null;index" json:"seller_id"`
	SellerName          string    `gorm:"type:varchar(255);not null" json:"seller_name"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	SKUSnapshot         string    `gorm:"type:varchar(100);not null;default:''" json:"sku_snapshot"`
	DisplaySnapshot     string    `gorm:"type:varchar(255);not null;default:''" json:"display_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot   int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	Weight              *float64  `json:"weight,omitempty"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
