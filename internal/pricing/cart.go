package pricing

import "fmt"

// Item はカートの明細。価格等は追加時点のスナップショット。
// (ProductID, VariantID) の組につき1行まで。
type Item struct {
	ProductID   string
	VariantID   string // バリアント無しは空
	SellerID    string
	SellerName  string
	ProductName string
	SKU         string
	DisplayText string // バリアントの表示用テキスト（"Size: M, Color: Red"）
	Quantity    int64
	UnitPrice   int64
	Weight      *float64
}

// Cart はインメモリの単一販売者カート。
// 同期・純粋で、I/Oは一切行わない。並行アクセスは呼び出し側が直列化する。
type Cart struct {
	items []Item
}

func NewCart() *Cart {
	return &Cart{}
}

// 保存済みの明細からカートを復元する。
func NewCartFromItems(items []Item) *Cart {
	c := &Cart{items: make([]Item, len(items))}
	copy(c.items, items)
	return c
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Items は明細のコピーを返す。
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// SellerID は現在のカートの販売者（空カートなら""）。
func (c *Cart) SellerID() string {
	if len(c.items) == 0 {
		return ""
	}
	return c.items[0].SellerID
}

func (c *Cart) SellerName() string {
	if len(c.items) == 0 {
		return ""
	}
	return c.items[0].SellerName
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) find(productID string, variantID string) int {
	for i, it := range c.items {
		if it.ProductID == productID && it.VariantID == variantID {
			return i
		}
	}
	return -1
}

// AddResult はAddの結果。Clampedのときは在庫上限まで切り詰めて追加した。
type AddResult struct {
	Added   int64
	Clamped bool
}

// Add はカートに商品を追加する（同一の商品+バリアントは数量加算）。
//
// 別販売者の商品が既に入っている場合はconfirmReplace=trueのときだけ
// カートを空にしてから追加する（UIの確認ダイアログを引数に外出し）。
// 在庫が足りないときは入る分だけ追加し、Clampedで呼び出し側へ知らせる。
func (c *Cart) Add(p Product, qty int64, v *Variant, displayText string, confirmReplace bool) (AddResult, error) {
	if qty < 1 {
		return AddResult{}, ErrInvalidQuantity
	}
	if p.HasVariants && v == nil {
		return AddResult{}, ErrVariantRequired
	}

	effStock := p.Stock
	if v != nil {
		effStock = v.Stock
	}
	if !p.IsUnlimitedStock && effStock <= 0 {
		return AddResult{}, ErrOutOfStock
	}

	//単一販売者の不変条件
	if len(c.items) > 0 && c.items[0].SellerID != p.SellerID {
		if !confirmReplace {
			return AddResult{}, ErrSellerConflict
		}
		c.items = nil
	}

	variantID := ""
	sku := ""
	weight := p.Weight
	if v != nil {
		variantID = v.ID
		sku = v.SKU
		if v.Weight != nil {
			weight = v.Weight
		}
	}

	idx := c.find(p.ID, variantID)
	var current int64 = 0
	if idx >= 0 {
		current = c.items[idx].Quantity
	}

	//在庫上限までクランプ
	clamped := false
	if !p.IsUnlimitedStock && current+qty > effStock {
		available := effStock - current
		if available <= 0 {
			return AddResult{}, ErrOutOfStock
		}
		qty = available
		clamped = true
	}

	if idx >= 0 {
		c.items[idx].Quantity += qty
		return AddResult{Added: qty, Clamped: clamped}, nil
	}

	c.items = append(c.items, Item{
		ProductID:   p.ID,
		VariantID:   variantID,
		SellerID:    p.SellerID,
		SellerName:  p.SellerName,
		ProductName: p.Name,
		SKU:         sku,
		DisplayText: displayText,
		Quantity:    qty,
		UnitPrice:   EffectivePrice(p, v),
		Weight:      weight,
	})
	return AddResult{Added: qty, Clamped: clamped}, nil
}

// UpdateQuantity は数量をそのまま設定する（クランプはしない）。
// qty<=0 は削除と同じ。明細が無ければ何もしない。
func (c *Cart) UpdateQuantity(catalog Catalog, productID string, variantID string, qty int64) error {
	if qty <= 0 {
		c.Remove(productID, variantID)
		return nil
	}

	idx := c.find(productID, variantID)
	if idx < 0 {
		return nil
	}

	p := c.mustProduct(catalog, productID)
	effStock := p.Stock
	if variantID != "" {
		v, ok := catalog.Variant(productID, variantID)
		if !ok {
			panic(fmt.Sprintf("pricing: variant %s/%s missing from catalog", productID, variantID))
		}
		effStock = v.Stock
	}

	if !p.IsUnlimitedStock && qty > effStock {
		return ErrOutOfStock
	}

	c.items[idx].Quantity = qty
	return nil
}

// Remove は明細を削除する。無ければno-op。
func (c *Cart) Remove(productID string, variantID string) {
	idx := c.find(productID, variantID)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

// カート明細が参照する商品がカタログに無いのは呼び出し側のバグ。
func (c *Cart) mustProduct(catalog Catalog, productID string) Product {
	p, ok := catalog.Product(productID)
	if !ok {
		panic(fmt.Sprintf("pricing: product %s missing from catalog", productID))
	}
	return p
}
