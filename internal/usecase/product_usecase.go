package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ProductListCache は公開一覧のリードスルーキャッシュの約束。
// 実装はinfra/cache（Redis）。nilなら素通し。
type ProductListCache interface {
	Get(ctx context.Context, queryKey string) ([]model.Product, int64, bool)
	Set(ctx context.Context, queryKey string, products []model.Product, total int64)
	Invalidate(ctx context.Context)
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	variantRepo   repo.VariantRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
	cache         ProductListCache
	idGen         IDGenerator
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
	cache ProductListCache,
	idGen IDGenerator,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		cache:         cache,
		idGen:         idGen,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	SellerID string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ProductDetailOutput struct {
	Product  model.Product          `json:"product"`
	Variants []model.ProductVariant `json:"variants"`
}

// 公開商品一覧（キャッシュ付き）
func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	q := repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		SellerID: in.SellerID,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	}

	key := listCacheKey(q)
	if u.cache != nil {
		if items, total, ok := u.cache.Get(ctx, key); ok {
			return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
		}
	}

	items, total, err := u.productRepo.ListPublic(ctx, q)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if u.cache != nil {
		u.cache.Set(ctx, key, items, total)
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 公開商品の詳細（バリアント込み）
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (ProductDetailOutput, error) {
	if productID == "" {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	variants := []model.ProductVariant{}
	if p.HasVariants {
		variants, err = u.variantRepo.ListByProductID(ctx, productID)
		if err != nil {
			return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return ProductDetailOutput{Product: p, Variants: variants}, nil
}

// 販売者の商品登録・更新の入力DTO
type WriteProductInput struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Price                 int64    `json:"price"`
	SalePrice             *int64   `json:"sale_price"`
	Stock                 int64    `json:"stock"`
	IsUnlimitedStock      bool     `json:"is_unlimited_stock"`
	HasVariants           bool     `json:"has_variants"`
	VATRate               *float64 `json:"vat_rate"`
	CustomVATRate         *float64 `json:"custom_vat_rate"`
	DeliveryFee           int64    `json:"delivery_fee"`
	FreeDeliveryThreshold *int64   `json:"free_delivery_threshold"`
	Weight                *float64 `json:"weight"`
	IsActive              bool     `json:"is_active"`
}

func (u *ProductUsecase) validateWriteProduct(in WriteProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid stock")
	}
	if in.DeliveryFee < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid delivery_fee")
	}
	return nil
}

// 商品登録（販売者）
func (u *ProductUsecase) CreateProduct(ctx context.Context, sellerID string, sellerName string, in WriteProductInput) (model.Product, error) {
	if sellerID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateWriteProduct(in); err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		ID:                    u.idGen.NewID(),
		SellerID:              sellerID,
		SellerName:            sellerName,
		Name:                  strings.TrimSpace(in.Name),
		Description:           in.Description,
		Price:                 in.Price,
		SalePrice:             in.SalePrice,
		Stock:                 in.Stock,
		IsUnlimitedStock:      in.IsUnlimitedStock,
		HasVariants:           in.HasVariants,
		VATRate:               in.VATRate,
		CustomVATRate:         in.CustomVATRate,
		DeliveryFee:           in.DeliveryFee,
		FreeDeliveryThreshold: in.FreeDeliveryThreshold,
		Weight:                in.Weight,
		IsActive:              in.IsActive,
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, sellerID, model.AuditActionWriteProduct, created.ID, nil, created)
	u.invalidate(ctx)
	return created, nil
}

// 商品更新（販売者、自分の商品だけ）
func (u *ProductUsecase) UpdateProduct(ctx context.Context, sellerID string, productID string, in WriteProductInput) (model.Product, error) {
	if sellerID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateWriteProduct(in); err != nil {
		return model.Product{}, err
	}

	before, err := u.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return model.Product{}, err
	}

	p := before
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.SalePrice = in.SalePrice
	p.Stock = in.Stock
	p.IsUnlimitedStock = in.IsUnlimitedStock
	p.HasVariants = in.HasVariants
	p.VATRate = in.VATRate
	p.CustomVATRate = in.CustomVATRate
	p.DeliveryFee = in.DeliveryFee
	p.FreeDeliveryThreshold = in.FreeDeliveryThreshold
	p.Weight = in.Weight
	p.IsActive = in.IsActive

	if err := u.productRepo.Update(ctx, p); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, sellerID, model.AuditActionWriteProduct, p.ID, before, p)
	u.invalidate(ctx)
	return p, nil
}

// 商品削除（ソフトデリート）
func (u *ProductUsecase) DeleteProduct(ctx context.Context, sellerID string, productID string) error {
	if sellerID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	before, err := u.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, sellerID, model.AuditActionWriteProduct, productID, before, nil)
	u.invalidate(ctx)
	return nil
}

// 在庫を「現在値」に更新し、調整履歴も残す
func (u *ProductUsecase) SetStock(ctx context.Context, sellerID string, productID string, newStock int64, reason string) error {
	if sellerID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid stock")
	}

	before, err := u.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}

	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	adj := model.InventoryAdjustment{
		ProductID:   productID,
		ActorUserID: sellerID,
		Delta:       newStock - before.Stock,
		Reason:      reason,
	}
	if err := u.inventoryRepo.CreateAdjustment(ctx, adj); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, sellerID, model.AuditActionUpdateStock, productID,
		map[string]int64{"stock": before.Stock}, map[string]int64{"stock": newStock})
	u.invalidate(ctx)
	return nil
}

// バリアント登録・更新の入力DTO
type WriteVariantInput struct {
	SKU          string            `json:"sku"`
	Price        int64             `json:"price"`
	SalePrice    *int64            `json:"sale_price"`
	Stock        int64             `json:"stock"`
	Weight       *float64          `json:"weight"`
	Combinations map[string]string `json:"combinations"`
}

// バリアント追加（販売者、自分の商品だけ）
func (u *ProductUsecase) AddVariant(ctx context.Context, sellerID string, productID string, in WriteVariantInput) (model.ProductVariant, error) {
	if sellerID == "" {
		return model.ProductVariant{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid sku")
	}
	if in.Price < 0 || in.Stock < 0 {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}

	if _, err := u.ownedProduct(ctx, sellerID, productID); err != nil {
		return model.ProductVariant{}, err
	}

	combos, err := json.Marshal(in.Combinations)
	if err != nil {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid combinations")
	}

	v := model.ProductVariant{
		ID:               u.idGen.NewID(),
		ProductID:        productID,
		SKU:              strings.TrimSpace(in.SKU),
		Price:            in.Price,
		SalePrice:        in.SalePrice,
		Stock:            in.Stock,
		Weight:           in.Weight,
		CombinationsJSON: string(combos),
	}

	created, err := u.variantRepo.Create(ctx, v)
	if err != nil {
		return model.ProductVariant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx)
	return created, nil
}

// バリアント更新
func (u *ProductUsecase) UpdateVariant(ctx context.Context, sellerID string, variantID string, in WriteVariantInput) (model.ProductVariant, error) {
	if sellerID == "" {
		return model.ProductVariant{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid sku")
	}
	if in.Price < 0 || in.Stock < 0 {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}

	v, err := u.ownedVariant(ctx, sellerID, variantID)
	if err != nil {
		return model.ProductVariant{}, err
	}

	combos, err := json.Marshal(in.Combinations)
	if err != nil {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid combinations")
	}

	v.SKU = strings.TrimSpace(in.SKU)
	v.Price = in.Price
	v.SalePrice = in.SalePrice
	v.Stock = in.Stock
	v.Weight = in.Weight
	v.CombinationsJSON = string(combos)

	if err := u.variantRepo.Update(ctx, v); err != nil {
		if err == repo.ErrNotFound {
			return model.ProductVariant{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.ProductVariant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx)
	return v, nil
}

// バリアント削除
func (u *ProductUsecase) DeleteVariant(ctx context.Context, sellerID string, variantID string) error {
	if sellerID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := u.ownedVariant(ctx, sellerID, variantID); err != nil {
		return err
	}

	if err := u.variantRepo.DeleteByID(ctx, variantID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx)
	return nil
}

// 他の販売者の商品は「存在しない扱い」にする
func (u *ProductUsecase) ownedProduct(ctx context.Context, sellerID string, productID string) (model.Product, error) {
	if productID == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.SellerID != sellerID {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

func (u *ProductUsecase) ownedVariant(ctx context.Context, sellerID string, variantID string) (model.ProductVariant, error) {
	if variantID == "" {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	v, err := u.variantRepo.FindByID(ctx, variantID)
	if err == repo.ErrNotFound {
		return model.ProductVariant{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.ProductVariant{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if _, err := u.ownedProduct(ctx, sellerID, v.ProductID); err != nil {
		return model.ProductVariant{}, err
	}
	return v, nil
}

// 監査ログは失敗しても本処理を落とさない
func (u *ProductUsecase) audit(ctx context.Context, actorID string, action model.AuditAction, resourceID string, before interface{}, after interface{}) {
	if u.auditRepo == nil {
		return
	}
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   resourceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	})
}

func (u *ProductUsecase) invalidate(ctx context.Context) {
	if u.cache != nil {
		u.cache.Invalidate(ctx)
	}
}

func listCacheKey(q repo.ProductListQuery) string {
	min := int64(-1)
	if q.MinPrice != nil {
		min = *q.MinPrice
	}
	max := int64(-1)
	if q.MaxPrice != nil {
		max = *q.MaxPrice
	}
	return fmt.Sprintf("p=%d:l=%d:q=%s:s=%s:min=%d:max=%d:sort=%s",
		q.Page, q.Limit, q.Q, q.SellerID, min, max, q.Sort)
}
