package model

import "time"

//在庫変動の履歴（注文時の減算・キャンセル時の戻し・販売者の手動設定）

type InventoryAdjustment struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductID   string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	VariantID   string    `gorm:"type:varchar(36);not null;default:''" json:"variant_id"`
	ActorUserID string    `gorm:"type:varchar(36);not null;index" json:"actor_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
