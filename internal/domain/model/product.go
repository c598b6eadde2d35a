package model

import (
	"time"

	"gorm.io/gorm"
)

// マーケットプレイスの商品。
// 価格はサンチーム（1/100 CHF）。SellerNameは表示用に非正規化して持つ。
type Product struct {
	ID               string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SellerID         string   `gorm:"type:varchar(36);not null;index" json:"seller_id"`
	SellerName       string   `gorm:"type:varchar(255);not null" json:"seller_name"`
	Name             string   `gorm:"type:varchar(255);not null" json:"name"`
	Description      string   `gorm:"type:text" json:"description"`
	Price            int64    `gorm:"not null" json:"price"`
	SalePrice        *int64   `json:"sale_price,omitempty"`
	Stock            int64    `gorm:"not null" json:"stock"`
	IsUnlimitedStock bool     `gorm:"not null;default:false" json:"is_unlimited_stock"`
	HasVariants      bool     `gorm:"not null;default:false" json:"has_variants"`
	VATRate          *float64 `gorm:"column:vat_rate" json:"vat_rate,omitempty"`
	CustomVATRate    *float64 `gorm:"column:custom_vat_rate" json:"custom_vat_rate,omitempty"`

	//配送条件
	DeliveryFee           int64  `gorm:"not null;default:0" json:"delivery_fee"`
	FreeDeliveryThreshold *int64 `json:"free_delivery_threshold,omitempty"`

	Weight    *float64       `json:"weight,omitempty"`
	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
