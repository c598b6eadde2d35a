package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SuccessResponse は Success { message: string } の形に寄せます。
type SuccessResponse struct {
	Message string `json:"message"`
}

// ProductWriteRequest は商品の作成・更新の入力です。
type ProductWriteRequest struct {
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

// VariantWriteRequest はバリアントの作成・更新の入力です。
type VariantWriteRequest struct {
	SKU          string            `json:"sku"`
	Price        int64             `json:"price"`
	SalePrice    *int64            `json:"sale_price"`
	Stock        int64             `json:"stock"`
	Weight       *float64          `json:"weight"`
	Combinations map[string]string `json:"combinations"`
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /seller/products と /seller/inventory をまとめる
type SellerProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewSellerProductHandler(uc *usecase.ProductUsecase) *SellerProductHandler {
	return &SellerProductHandler{uc: uc}
}

// sellerを登録
func (h *SellerProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	seller := e.Group("/seller")

	seller.Use(middleware.AuthJWT(cfg))
	seller.Use(middleware.SellerRoleGuard())

	seller.POST("/products", h.createProduct)
	seller.PUT("/products/:id", h.updateProduct)
	seller.DELETE("/products/:id", h.deleteProduct)
	seller.PUT("/inventory/:product_id", h.updateInventory)

	seller.POST("/products/:id/variants", h.addVariant)
	seller.PUT("/variants/:id", h.updateVariant)
	seller.DELETE("/variants/:id", h.deleteVariant)
}

func toWriteProductInput(req ProductWriteRequest) usecase.WriteProductInput {
	return usecase.WriteProductInput{
		Name:                  req.Name,
		Description:           req.Description,
		Price:                 req.Price,
		SalePrice:             req.SalePrice,
		Stock:                 req.Stock,
		IsUnlimitedStock:      req.IsUnlimitedStock,
		HasVariants:           req.HasVariants,
		VATRate:               req.VATRate,
		CustomVATRate:         req.CustomVATRate,
		DeliveryFee:           req.DeliveryFee,
		FreeDeliveryThreshold: req.FreeDeliveryThreshold,
		Weight:                req.Weight,
		IsActive:              req.IsActive,
	}
}

func toWriteVariantInput(req VariantWriteRequest) usecase.WriteVariantInput {
	return usecase.WriteVariantInput{
		SKU:          req.SKU,
		Price:        req.Price,
		SalePrice:    req.SalePrice,
		Stock:        req.Stock,
		Weight:       req.Weight,
		Combinations: req.Combinations,
	}
}

func (h *SellerProductHandler) createProduct(c echo.Context) error {
	var req ProductWriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	sellerName := getUserNameFromContext(c)

	p, err := h.uc.CreateProduct(c.Request().Context(), sellerID, sellerName, toWriteProductInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *SellerProductHandler) updateProduct(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductWriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), sellerID, id, toWriteProductInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *SellerProductHandler) deleteProduct(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), sellerID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *SellerProductHandler) updateInventory(c echo.Context) error {
	productID := c.Param("product_id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.SetStock(c.Request().Context(), sellerID, productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

func (h *SellerProductHandler) addVariant(c echo.Context) error {
	productID := c.Param("id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req VariantWriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	v, err := h.uc.AddVariant(c.Request().Context(), sellerID, productID, toWriteVariantInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, v)
}

func (h *SellerProductHandler) updateVariant(c echo.Context) error {
	variantID := c.Param("id")
	if variantID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req VariantWriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	v, err := h.uc.UpdateVariant(c.Request().Context(), sellerID, variantID, toWriteVariantInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, v)
}

func (h *SellerProductHandler) deleteVariant(c echo.Context) error {
	variantID := c.Param("id")
	if variantID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.DeleteVariant(c.Request().Context(), sellerID, variantID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す

func getUserIDFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return "", false
	}

	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

func getUserNameFromContext(c echo.Context) string {
	v := c.Get(middleware.CtxUserNameKey)
	name, _ := v.(string)
	return name
}
