package pricing

// 配送方法
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// SellerDelivery は販売者ごとの配送条件。
type SellerDelivery struct {
	Fee           int64
	SellerName    string
	FreeThreshold *int64
}

// Subtotal はカート小計（税抜・送料抜き）。
func (c *Cart) Subtotal() int64 {
	var total int64 = 0
	for _, it := range c.items {
		total += it.UnitPrice * it.Quantity
	}
	return total
}

// 販売者ごとの小計。
func (c *Cart) sellerSubtotal(sellerID string) int64 {
	var total int64 = 0
	for _, it := range c.items {
		if it.SellerID == sellerID {
			total += it.UnitPrice * it.Quantity
		}
	}
	return total
}

// DeliveryBySeller はカート内の販売者ごとの配送条件を返す。
// delivery以外は空。条件は販売者の最初の商品のdeliveryInfoを使う
// （単一販売者カートなので同一販売者の商品は同じ条件の前提）。
func (c *Cart) DeliveryBySeller(deliveryType DeliveryType, catalog Catalog) map[string]SellerDelivery {
	fees := map[string]SellerDelivery{}
	if deliveryType != DeliveryTypeDelivery {
		return fees
	}

	for _, it := range c.items {
		if _, ok := fees[it.SellerID]; ok {
			continue
		}
		p := c.mustProduct(catalog, it.ProductID)
		if p.Delivery == nil {
			continue
		}
		fees[it.SellerID] = SellerDelivery{
			Fee:           p.Delivery.Fee,
			SellerName:    it.SellerName,
			FreeThreshold: p.Delivery.FreeThreshold,
		}
	}
	return fees
}

// TotalDeliveryFees は送料合計。送料無料の閾値に達した販売者は0。
func (c *Cart) TotalDeliveryFees(deliveryType DeliveryType, catalog Catalog) int64 {
	if deliveryType != DeliveryTypeDelivery {
		return 0
	}

	var total int64 = 0
	for sellerID, d := range c.DeliveryBySeller(deliveryType, catalog) {
		if d.FreeThreshold != nil && c.sellerSubtotal(sellerID) >= *d.FreeThreshold {
			continue
		}
		total += d.Fee
	}
	return total
}

// VATAmount はVAT合計。価格は税抜き扱いで、明細ごとに計算して合算する。
func (c *Cart) VATAmount(catalog Catalog, fallbackCountry string) int64 {
	var total int64 = 0
	for _, it := range c.items {
		p := c.mustProduct(catalog, it.ProductID)
		total += itemVAT(it.UnitPrice, it.Quantity, ProductVATRate(p, fallbackCountry))
	}
	return total
}

// TotalWithVAT は小計+VAT+送料。
func (c *Cart) TotalWithVAT(deliveryType DeliveryType, catalog Catalog, fallbackCountry string) int64 {
	return c.Subtotal() + c.VATAmount(catalog, fallbackCountry) + c.TotalDeliveryFees(deliveryType, catalog)
}
