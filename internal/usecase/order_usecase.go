package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// OrderUsecase は購入者の注文照会と販売者の注文管理を担当します。
type OrderUsecase struct {
	tx            repo.TransactionManager
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	auditRepo     repo.AuditLogRepository
	idGen         IDGenerator
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
	idGen IDGenerator,
) *OrderUsecase {
	return &OrderUsecase{
		tx:            tx,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		auditRepo:     auditRepo,
		idGen:         idGen,
	}
}

type OrderItemOutput struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	Name        string `json:"name"`
	SKU         string `json:"sku,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type OrderOutput struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	SellerID    string `json:"seller_id"`
	SellerName  string `json:"seller_name"`
	Status      string `json:"status"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	Subtotal    int64   `json:"subtotal"`
	DeliveryFee int64   `json:"delivery_fee"`
	VATAmount   int64   `json:"vat_amount"`
	VATRate     float64 `json:"vat_rate"`
	TotalAmount int64   `json:"total_amount"`
	Currency    string  `json:"currency"`

	PaymentMethod string `json:"payment_method"`

	DeliveryType    string `json:"delivery_type"`
	DeliveryStreet  string `json:"delivery_street,omitempty"`
	DeliveryCity    string `json:"delivery_city,omitempty"`
	DeliveryPostal  string `json:"delivery_postal,omitempty"`
	DeliveryCountry string `json:"delivery_country,omitempty"`

	Notes     string            `json:"notes,omitempty"`
	Items     []OrderItemOutput `json:"items,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// ListMyOrders は購入者自身の注文一覧（新しい順）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page int, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page, limit = normalizePage(page, limit)

	orders, total, err := u.orderRepo.ListByCustomerID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderListOutput(orders, total, page, limit), nil
}

// GetMyOrderDetail は購入者自身の注文詳細。他人の注文は404。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.CustomerID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o, items), nil
}

// ListSellerOrders は販売者自身の店舗宛て注文の一覧。
func (u *OrderUsecase) ListSellerOrders(ctx context.Context, sellerID string, f repo.SellerOrderListFilter) (OrderListOutput, error) {
	if sellerID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	if f.Status != "" {
		switch model.OrderStatus(f.Status) {
		case model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCanceled:
		default:
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	orders, total, err := u.orderRepo.ListBySellerID(ctx, sellerID, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderListOutput(orders, total, f.Page, f.Limit), nil
}

// GetSellerOrderDetail は販売者側の注文詳細。他店舗宛ては404。
func (u *OrderUsecase) GetSellerOrderDetail(ctx context.Context, sellerID string, orderID string) (OrderOutput, error) {
	if sellerID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.SellerID != sellerID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderOutput(o, items), nil
}

// 許可される遷移だけ通す
func canTransition(from model.OrderStatus, to model.OrderStatus) bool {
	switch from {
	case model.OrderStatusProcessing:
		return to == model.OrderStatusShipped || to == model.OrderStatusCanceled
	case model.OrderStatusShipped:
		return to == model.OrderStatusDelivered
	default:
		return false
	}
}

// UpdateOrderStatus は販売者による注文ステータス更新。
// CANCELEDにしたときは明細分の在庫を戻す。
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, sellerID string, orderID string, status string) (OrderOutput, error) {
	if sellerID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	to := model.OrderStatus(status)
	switch to {
	case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCanceled:
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var updated model.Order
	var items []model.OrderItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if o.SellerID != sellerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if !canTransition(o.Status, to) {
			return NewHTTPError(http.StatusBadRequest, "invalid status transition")
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, to); err != nil {
			return err
		}

		items, err = r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}

		if to == model.OrderStatusCanceled {
			if err := u.restock(ctx, r, o, items, sellerID); err != nil {
				return err
			}
		}

		u.auditStatus(ctx, sellerID, o, to)

		updated = o
		updated.Status = to
		return nil
	})
	if err != nil {
		if httpErr, ok := AsHTTPError(err); ok {
			return OrderOutput{}, httpErr
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(updated, items), nil
}

// キャンセルされた注文の明細分を在庫に戻す。
func (u *OrderUsecase) restock(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem, actorID string) error {
	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			//商品が消えていたら戻し先がないので飛ばす
			continue
		}
		if err != nil {
			return err
		}
		if it.VariantID != "" {
			if err := r.Inventory().IncreaseVariantStock(ctx, it.VariantID, it.Quantity); err != nil {
				return err
			}
		} else {
			if p.IsUnlimitedStock {
				continue
			}
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ID:          u.idGen.NewID(),
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ActorUserID: actorID,
			Delta:       it.Quantity,
			Reason:      "cancel " + o.OrderNumber,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ステータス変更の監査ログを残す（失敗しても更新自体は通す）。
func (u *OrderUsecase) auditStatus(ctx context.Context, actorID string, o model.Order, to model.OrderStatus) {
	if u.auditRepo == nil {
		return
	}
	before, _ := json.Marshal(map[string]string{"status": string(o.Status)})
	after, _ := json.Marshal(map[string]string{"status": string(to)})
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ID:           u.idGen.NewID(),
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
	})
}

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return page, limit
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	out := OrderOutput{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		SellerID:    o.SellerID,
		SellerName:  o.SellerName,
		Status:      string(o.Status),

		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,

		Subtotal:    o.Subtotal,
		DeliveryFee: o.DeliveryFee,
		VATAmount:   o.VATAmount,
		VATRate:     o.VATRate,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,

		PaymentMethod: o.PaymentMethod,

		DeliveryType:    string(o.DeliveryType),
		DeliveryStreet:  o.DeliveryStreet,
		DeliveryCity:    o.DeliveryCity,
		DeliveryPostal:  o.DeliveryPostal,
		DeliveryCountry: o.DeliveryCountry,

		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, OrderItemOutput{
			ID:          it.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			Name:        it.ProductNameSnapshot,
			SKU:         it.SKUSnapshot,
			DisplayText: it.DisplaySnapshot,
			UnitPrice:   it.UnitPriceSnapshot,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}
	return out
}

func toOrderListOutput(orders []model.Order, total int64, page int, limit int) OrderListOutput {
	out := OrderListOutput{
		Orders: make([]OrderOutput, 0, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for _, o := range orders {
		out.Orders = append(out.Orders, toOrderOutput(o, nil))
	}
	return out
}
