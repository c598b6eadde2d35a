package usecase

import (
	"context"
	"net/http"

	"marketplace/internal/domain/model"
	"marketplace/internal/pricing"
	repo "marketplace/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートの計算はすべてpricingエンジンに任せ、ここでは読み書きと変換だけを行う。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	variantRepo  repo.VariantRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		variantRepo:  variantRepo,
	}
}

type CartItemResponse struct {
	ID          string   `json:"id"`
	ProductID   string   `json:"product_id"`
	VariantID   string   `json:"variant_id,omitempty"`
	Name        string   `json:"name"`
	DisplayText string   `json:"display_text,omitempty"`
	Price       int64    `json:"price"`
	Quantity    int64    `json:"quantity"`
	Subtotal    int64    `json:"subtotal"`
	Weight      *float64 `json:"weight,omitempty"`
}

type SellerDeliveryResponse struct {
	SellerID      string `json:"seller_id"`
	SellerName    string `json:"seller_name"`
	Fee           int64  `json:"fee"`
	FreeThreshold *int64 `json:"free_threshold,omitempty"`
	Free          bool   `json:"free"`
}

// CartResponse は明細と金額の内訳（小計・VAT・送料・合計）。
type CartResponse struct {
	Items        []CartItemResponse       `json:"items"`
	SellerID     string                   `json:"seller_id,omitempty"`
	SellerName   string                   `json:"seller_name,omitempty"`
	Subtotal     int64                    `json:"subtotal"`
	VATAmount    int64                    `json:"vat_amount"`
	DeliveryFees []SellerDeliveryResponse `json:"delivery_fees"`
	DeliveryFee  int64                    `json:"delivery_fee"`
	Total        int64                    `json:"total"`

	//在庫上限で要求数より少なく追加されたときの通知
	AddedQuantity  int64 `json:"added_quantity,omitempty"`
	PartiallyAdded bool  `json:"partially_added,omitempty"`
}

type AddCartInput struct {
	ProductID string
	VariantID string
	Quantity  int64
	//別販売者の商品を入れるときのカートクリア確認
	ConfirmReplace bool
	DeliveryType   string
	Country        string
}

type UpdateCartItemInput struct {
	Quantity     int64
	DeliveryType string
	Country      string
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID string, deliveryType string, country string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID, deliveryType, country)
}

// AddToCart はカートに追加（同一の商品+バリアントは数量加算）。
// 在庫が足りないときは入る分だけ追加してpartially_addedで知らせる。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	// バリアントチェック（商品に属しているか）
	var variant *pricing.Variant
	displayText := ""
	if in.VariantID != "" {
		v, err := u.variantRepo.FindByID(ctx, in.VariantID)
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant_id")
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if v.ProductID != p.ID {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant_id")
		}
		pv := toPricingVariant(v)
		variant = &pv
		displayText = formatCombinations(v.CombinationsJSON)
	}

	// 保存済み明細からエンジンを復元して追加する
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	engine := pricing.NewCartFromItems(toEngineItems(items))

	res, err := engine.Add(toPricingProduct(p), in.Quantity, variant, displayText, in.ConfirmReplace)
	if err != nil {
		return CartResponse{}, mapCartError(err)
	}

	// エンジンの結果で明細を置き換え
	if err := u.cartItemRepo.ReplaceAll(ctx, cart.ID, toModelItems(cart.ID, engine.Items())); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out, err := u.buildCartResponse(ctx, cart.ID, in.DeliveryType, in.Country)
	if err != nil {
		return CartResponse{}, err
	}
	out.AddedQuantity = res.Added
	out.PartiallyAdded = res.Clamped
	return out, nil
}

// 数量変更（所有チェック＋在庫チェック、0以下は削除）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID string, cartItemID string, in UpdateCartItemInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	engine, snap, err := loadEngineState(ctx, u.productRepo, u.variantRepo, items)
	if err != nil {
		return CartResponse{}, err
	}

	if err := engine.UpdateQuantity(snap, item.ProductID, item.VariantID, in.Quantity); err != nil {
		return CartResponse{}, mapCartError(err)
	}

	if err := u.cartItemRepo.ReplaceAll(ctx, cart.ID, toModelItems(cart.ID, engine.Items())); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID, in.DeliveryType, in.Country)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID string, cartItemID string, deliveryType string, country string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID, deliveryType, country)
}

// エンジンのエラーをHTTPエラーへ変換
func mapCartError(err error) error {
	switch err {
	case pricing.ErrVariantRequired:
		return NewHTTPError(http.StatusBadRequest, "variant required")
	case pricing.ErrOutOfStock:
		return NewHTTPError(http.StatusBadRequest, "out of stock")
	case pricing.ErrSellerConflict:
		//UI側で確認してconfirm_replace=trueで再送する
		return NewHTTPError(http.StatusConflict, "cart has items from another seller")
	case pricing.ErrInvalidQuantity:
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func toEngineItems(items []model.CartItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, ci := range items {
		out = append(out, toEngineItem(ci))
	}
	return out
}

func toModelItems(cartID string, items []pricing.Item) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, toCartItemModel(cartID, it))
	}
	return out
}

// cartIDの明細と金額内訳をまとめてCartResponseを作る。
// deliveryType/countryが空ならdelivery/Switzerlandで計算する。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID string, deliveryType string, country string) (CartResponse, error) {
	dt := pricing.DeliveryType(deliveryType)
	if dt == "" {
		dt = pricing.DeliveryTypeDelivery
	}
	if country == "" {
		country = "Switzerland"
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	engine, snap, err := loadEngineState(ctx, u.productRepo, u.variantRepo, items)
	if err != nil {
		return CartResponse{}, err
	}

	//エンジンから除外された明細（非公開など）はレスポンスにも出さない
	kept := map[string]bool{}
	for _, it := range engine.Items() {
		kept[it.ProductID+"|"+it.VariantID] = true
	}

	respItems := make([]CartItemResponse, 0, len(items))
	for _, ci := range items {
		if !kept[ci.ProductID+"|"+ci.VariantID] {
			continue
		}
		respItems = append(respItems, CartItemResponse{
			ID:          ci.ID,
			ProductID:   ci.ProductID,
			VariantID:   ci.VariantID,
			Name:        ci.ProductNameSnapshot,
			DisplayText: ci.DisplaySnapshot,
			Price:       ci.UnitPriceSnapshot,
			Quantity:    ci.Quantity,
			Subtotal:    ci.UnitPriceSnapshot * ci.Quantity,
			Weight:      ci.Weight,
		})
	}

	fees := engine.DeliveryBySeller(dt, snap)
	feeResp := make([]SellerDeliveryResponse, 0, len(fees))
	for sellerID, d := range fees {
		free := d.FreeThreshold != nil && engine.Subtotal() >= *d.FreeThreshold
		feeResp = append(feeResp, SellerDeliveryResponse{
			SellerID:      sellerID,
			SellerName:    d.SellerName,
			Fee:           d.Fee,
			FreeThreshold: d.FreeThreshold,
			Free:          free,
		})
	}

	return CartResponse{
		Items:        respItems,
		SellerID:     engine.SellerID(),
		SellerName:   engine.SellerName(),
		Subtotal:     engine.Subtotal(),
		VATAmount:    engine.VATAmount(snap, country),
		DeliveryFees: feeResp,
		DeliveryFee:  engine.TotalDeliveryFees(dt, snap),
		Total:        engine.TotalWithVAT(dt, snap, country),
	}, nil
}
