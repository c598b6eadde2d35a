package model

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// 販売者1件分の注文。チェックアウトで販売者ごとに分割して作る。
// 金額はすべてサンチーム。IdempotencyKeyは (キー, 販売者) で一意。
type Order struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber string      `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	CustomerID  string      `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	SellerID    string      `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_orders_idem_seller,priority:2" json:"seller_id"`
	SellerName  string      `gorm:"type:varchar(255);not null" json:"seller_name"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CustomerName  string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerPhone string `gorm:"type:varchar(50);not null" json:"customer_phone"`

	Subtotal    int64   `gorm:"not null" json:"subtotal"`
	DeliveryFee int64   `gorm:"not null" json:"delivery_fee"`
	VATAmount   int64   `gorm:"not null;column:vat_amount" json:"vat_amount"`
	VATRate     float64 `gorm:"not null;column:vat_rate" json:"vat_rate"`
	TotalAmount int64   `gorm:"not null" json:"total_amount"`
	Currency    string  `gorm:"type:varchar(3);not null;default:'CHF'" json:"currency"`

	PaymentID     string `gorm:"type:varchar(255);not null" json:"payment_id"`
	PaymentMethod string `gorm:"type:varchar(20);not null" json:"payment_method"`

	DeliveryType    DeliveryType `gorm:"type:varchar(20);not null" json:"delivery_type"`
	DeliveryStreet  string       `gorm:"type:varchar(255)" json:"delivery_street,omitempty"`
	DeliveryCity    string       `gorm:"type:varchar(100)" json:"delivery_city,omitempty"`
	DeliveryPostal  string       `gorm:"type:varchar(20)" json:"delivery_postal,omitempty"`
	DeliveryCountry string       `gorm:"type:varchar(100)" json:"delivery_country,omitempty"`

	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_idem_seller,priority:1" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
