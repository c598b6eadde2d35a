package server

import (
	"marketplace/internal/config"
	"marketplace/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なハンドラをまとめたもの。
type Handlers struct {
	Product       *handler.ProductHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Order         *handler.OrderHandler
	SellerProduct *handler.SellerProductHandler
	SellerOrder   *handler.SellerOrderHandler
	AdminAudit    *handler.AdminAuditHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.SellerProduct.RegisterRoutes(e, cfg)
	h.SellerOrder.RegisterRoutes(e, cfg)
	h.AdminAudit.RegisterRoutes(e, cfg)
}
