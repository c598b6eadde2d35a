package usecase

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/pricing"
	repo "marketplace/internal/repository"
	appvalidator "marketplace/internal/validator"
)

// CheckoutUsecase は見積もりと注文確定を担当します。
// 注文作成・在庫減算・カート確定は1トランザクションで行う。
type CheckoutUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	variantRepo  repo.VariantRepository
	validator    *appvalidator.CheckoutValidator
	publisher    OrderEventPublisher
	idGen        IDGenerator
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
	v *appvalidator.CheckoutValidator,
	publisher OrderEventPublisher,
	idGen IDGenerator,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		validator:    v,
		publisher:    publisher,
		idGen:        idGen,
	}
}

type DraftLineResponse struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	Name        string `json:"name"`
	DisplayText string `json:"display_text,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type OrderDraftResponse struct {
	SellerID    string              `json:"seller_id"`
	SellerName  string              `json:"seller_name"`
	Lines       []DraftLineResponse `json:"lines"`
	Subtotal    int64               `json:"subtotal"`
	DeliveryFee int64               `json:"delivery_fee"`
	VATAmount   int64               `json:"vat_amount"`
	VATRate     float64             `json:"vat_rate"`
	TotalAmount int64               `json:"total_amount"`
}

type QuoteResponse struct {
	Drafts []OrderDraftResponse `json:"drafts"`
	Total  int64                `json:"total"`
}

type PlaceOrderInput struct {
	Form           appvalidator.CheckoutFormInput
	PaymentID      string
	PaymentMethod  string
	IdempotencyKey string
}

type PlacedOrderResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	SellerID    string `json:"seller_id"`
	SellerName  string `json:"seller_name"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
}

type PlaceOrderResponse struct {
	Orders []PlacedOrderResponse `json:"orders"`
	Total  int64                 `json:"total"`
}

// Quote は現在のカートで注文ドラフト（販売者ごとの内訳）を作る。書き込みはしない。
func (u *CheckoutUsecase) Quote(ctx context.Context, userID string, form appvalidator.CheckoutFormInput) (QuoteResponse, error) {
	if userID == "" {
		return QuoteResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validator.ValidateCheckout(form); err != nil {
		return QuoteResponse{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return QuoteResponse{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return QuoteResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return QuoteResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return QuoteResponse{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	engine, snap, err := loadEngineState(ctx, u.productRepo, u.variantRepo, items)
	if err != nil {
		return QuoteResponse{}, err
	}
	if engine.IsEmpty() {
		return QuoteResponse{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	drafts := engine.BuildOrderDrafts(pricing.CheckoutForm{
		DeliveryType: pricing.DeliveryType(form.DeliveryType),
		Country:      form.Country,
	}, snap)

	return toQuoteResponse(drafts), nil
}

// PlaceOrder は注文を確定する。販売者ごとに1件の注文を作り、在庫を減算し、
// カートをCHECKED_OUTにする。同じIdempotencyKeyなら前回の結果をそのまま返す。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (PlaceOrderResponse, error) {
	if userID == "" {
		return PlaceOrderResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validator.ValidateCheckout(in.Form); err != nil {
		return PlaceOrderResponse{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.IdempotencyKey == "" || len(in.IdempotencyKey) > 255 {
		return PlaceOrderResponse{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if in.PaymentID == "" {
		return PlaceOrderResponse{}, NewHTTPError(http.StatusBadRequest, "invalid payment_id")
	}
	switch in.PaymentMethod {
	case "stripe", "paypal", "twint":
	default:
		return PlaceOrderResponse{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var created []model.Order
	replayed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 再送チェック
		existing, err := r.Orders().ListByIdempotencyKey(ctx, userID, in.IdempotencyKey)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			created = existing
			replayed = true
			return nil
		}

		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		engine, snap, err := loadEngineState(ctx, r.Products(), r.Variants(), items)
		if err != nil {
			return err
		}
		if engine.IsEmpty() {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		drafts := engine.BuildOrderDrafts(pricing.CheckoutForm{
			DeliveryType: pricing.DeliveryType(in.Form.DeliveryType),
			Country:      in.Form.Country,
		}, snap)

		now := time.Now()
		for _, d := range drafts {
			orderID := u.idGen.NewID()
			orderNumber := newOrderNumber(now)

			// 在庫減算（無制限在庫の商品は減らさない）
			for _, line := range d.Lines {
				p, ok := snap.Product(line.ProductID)
				if !ok {
					return NewHTTPError(http.StatusBadRequest, "out of stock")
				}
				if err := u.decreaseStock(ctx, r, p, line, orderNumber, userID); err != nil {
					return err
				}
			}

			order := model.Order{
				ID:          orderID,
				OrderNumber: orderNumber,
				CustomerID:  userID,
				SellerID:    d.SellerID,
				SellerName:  d.SellerName,
				Status:      model.OrderStatusProcessing,

				CustomerName:  in.Form.CustomerName,
				CustomerEmail: in.Form.CustomerEmail,
				CustomerPhone: in.Form.CustomerPhone,

				Subtotal:    d.Subtotal,
				DeliveryFee: d.DeliveryFee,
				VATAmount:   d.VATAmount,
				VATRate:     d.VATRate,
				TotalAmount: d.TotalAmount,
				Currency:    "CHF",

				PaymentID:     in.PaymentID,
				PaymentMethod: in.PaymentMethod,

				DeliveryType:    model.DeliveryType(in.Form.DeliveryType),
				DeliveryStreet:  in.Form.Street,
				DeliveryCity:    in.Form.City,
				DeliveryPostal:  in.Form.PostalCode,
				DeliveryCountry: in.Form.Country,

				Notes:          in.Form.SpecialInstructions,
				IdempotencyKey: in.IdempotencyKey,
			}

			if err := r.Orders().Create(ctx, order); err != nil {
				// (キー, 販売者)の一意制約に当たった場合は並行した再送なので前回分を返す
				prior, listErr := r.Orders().ListByIdempotencyKey(ctx, userID, in.IdempotencyKey)
				if listErr == nil && len(prior) > 0 {
					created = prior
					replayed = true
					return nil
				}
				return err
			}

			orderItems := make([]model.OrderItem, 0, len(d.Lines))
			for _, line := range d.Lines {
				orderItems = append(orderItems, model.OrderItem{
					ID:                  u.idGen.NewID(),
					ProductID:           line.ProductID,
					VariantID:           line.VariantID,
					ProductNameSnapshot: line.ProductName,
					SKUSnapshot:         line.SKU,
					DisplaySnapshot:     line.DisplayText,
					UnitPriceSnapshot:   line.UnitPrice,
					Quantity:            line.Quantity,
					Subtotal:            line.Subtotal,
				})
			}
			if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
				return err
			}

			created = append(created, order)
		}

		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return err
		}
		return r.Carts().Clear(ctx, cart.ID)
	})
	if err != nil {
		if httpErr, ok := AsHTTPError(err); ok {
			return PlaceOrderResponse{}, httpErr
		}
		return PlaceOrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// イベント発行はコミット後。失敗しても注文は成立している。
	if u.publisher != nil && !replayed {
		for _, o := range created {
			if err := u.publisher.PublishOrderPlaced(ctx, o); err != nil {
				log.Printf("publish order placed failed: order=%s err=%v", o.ID, err)
			}
		}
	}

	return toPlaceOrderResponse(created), nil
}

// 在庫を1明細ぶん減らす。足りなければ400。
func (u *CheckoutUsecase) decreaseStock(ctx context.Context, r repo.TxRepos, p pricing.Product, line pricing.DraftLine, orderNumber string, userID string) error {
	if line.VariantID != "" {
		//バリアント在庫は常に有限
		ok, err := r.Inventory().DecreaseVariantStockIfEnough(ctx, line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "out of stock")
		}
	} else {
		if p.IsUnlimitedStock {
			return nil
		}
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "out of stock")
		}
	}
	return r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ID:          u.idGen.NewID(),
		ProductID:   line.ProductID,
		VariantID:   line.VariantID,
		ActorUserID: userID,
		Delta:       -line.Quantity,
		Reason:      "order " + orderNumber,
	})
}

var orderNumberLetters = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ")

// 注文番号を採番する（AFB + タイムスタンプ末尾6桁 + 英字4文字）。
func newOrderNumber(t time.Time) string {
	ts := t.UnixMilli() % 1000000
	suffix := make([]rune, 4)
	for i := range suffix {
		suffix[i] = orderNumberLetters[rand.Intn(len(orderNumberLetters))]
	}
	return fmt.Sprintf("AFB%06d%s", ts, string(suffix))
}

func toQuoteResponse(drafts []pricing.OrderDraft) QuoteResponse {
	out := QuoteResponse{Drafts: make([]OrderDraftResponse, 0, len(drafts))}
	for _, d := range drafts {
		lines := make([]DraftLineResponse, 0, len(d.Lines))
		for _, l := range d.Lines {
			lines = append(lines, DraftLineResponse{
				ProductID:   l.ProductID,
				VariantID:   l.VariantID,
				Name:        l.ProductName,
				DisplayText: l.DisplayText,
				UnitPrice:   l.UnitPrice,
				Quantity:    l.Quantity,
				Subtotal:    l.Subtotal,
			})
		}
		out.Drafts = append(out.Drafts, OrderDraftResponse{
			SellerID:    d.SellerID,
			SellerName:  d.SellerName,
			Lines:       lines,
			Subtotal:    d.Subtotal,
			DeliveryFee: d.DeliveryFee,
			VATAmount:   d.VATAmount,
			VATRate:     d.VATRate,
			TotalAmount: d.TotalAmount,
		})
		out.Total += d.TotalAmount
	}
	return out
}

func toPlaceOrderResponse(orders []model.Order) PlaceOrderResponse {
	out := PlaceOrderResponse{Orders: make([]PlacedOrderResponse, 0, len(orders))}
	for _, o := range orders {
		out.Orders = append(out.Orders, PlacedOrderResponse{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			SellerID:    o.SellerID,
			SellerName:  o.SellerName,
			TotalAmount: o.TotalAmount,
			Status:      string(o.Status),
		})
		out.Total += o.TotalAmount
	}
	return out
}
