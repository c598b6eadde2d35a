package pricing

// CheckoutForm はドラフト生成に必要なチェックアウト情報。
// 住所などの残りはusecase側で扱う。
type CheckoutForm struct {
	DeliveryType DeliveryType
	Country      string
}

// DraftLine は注文ドラフトの明細。
type DraftLine struct {
	ProductID   string
	VariantID   string
	ProductName string
	SKU         string
	DisplayText string
	Quantity    int64
	UnitPrice   int64
	Subtotal    int64
	Weight      *float64
}

// OrderDraft は販売者1件分の注文ドラフト。
// 送信は外部（注文作成エンドポイント）の責務。
type OrderDraft struct {
	SellerID    string
	SellerName  string
	Lines       []DraftLine
	Subtotal    int64
	DeliveryFee int64
	VATAmount   int64
	VATRate     float64 // 加重平均（パーセント）
	TotalAmount int64
}

// BuildOrderDrafts はカートを販売者ごとに分割して注文ドラフトを作る。
// カートは単一販売者のはずだが、アルゴリズムは複数販売者でも正しく動く。
func (c *Cart) BuildOrderDrafts(form CheckoutForm, catalog Catalog) []OrderDraft {
	//出現順を保ったままグループ化
	order := make([]string, 0, 1)
	groups := map[string][]Item{}
	for _, it := range c.items {
		if _, ok := groups[it.SellerID]; !ok {
			order = append(order, it.SellerID)
		}
		groups[it.SellerID] = append(groups[it.SellerID], it)
	}

	drafts := make([]OrderDraft, 0, len(order))
	for _, sellerID := range order {
		items := groups[sellerID]

		var subtotal int64 = 0
		var vatAmount int64 = 0
		lines := make([]DraftLine, 0, len(items))

		for _, it := range items {
			p := c.mustProduct(catalog, it.ProductID)
			lineSubtotal := it.UnitPrice * it.Quantity
			subtotal += lineSubtotal
			vatAmount += itemVAT(it.UnitPrice, it.Quantity, ProductVATRate(p, form.Country))

			lines = append(lines, DraftLine{
				ProductID:   it.ProductID,
				VariantID:   it.VariantID,
				ProductName: it.ProductName,
				SKU:         it.SKU,
				DisplayText: it.DisplayText,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Subtotal:    lineSubtotal,
				Weight:      it.Weight,
			})
		}

		//加重平均VAT率
		var avgRate float64 = 0
		if vatAmount > 0 && subtotal > 0 {
			avgRate = float64(vatAmount) / float64(subtotal) * 100
		}

		//販売者単位の送料（閾値達成なら無料、pickupは0）
		var deliveryFee int64 = 0
		if form.DeliveryType == DeliveryTypeDelivery {
			first := c.mustProduct(catalog, items[0].ProductID)
			if first.Delivery != nil {
				if first.Delivery.FreeThreshold != nil && subtotal >= *first.Delivery.FreeThreshold {
					deliveryFee = 0
				} else {
					deliveryFee = first.Delivery.Fee
				}
			}
		}

		drafts = append(drafts, OrderDraft{
			SellerID:    sellerID,
			SellerName:  items[0].SellerName,
			Lines:       lines,
			Subtotal:    subtotal,
			DeliveryFee: deliveryFee,
			VATAmount:   vatAmount,
			VATRate:     avgRate,
			TotalAmount: subtotal + vatAmount + deliveryFee,
		})
	}
	return drafts
}
