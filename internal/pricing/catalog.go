package pricing

// 配送条件（販売者が商品に設定する）
type DeliveryInfo struct {
	Fee           int64  // サンチーム
	FreeThreshold *int64 // 小計がこれ以上なら送料無料（nilなら無効）
}

// Product はエンジンに渡す正規化済みのカタログ商品。
// 価格はすべてサンチーム（1/100 CHF）のint64。
type Product struct {
	ID               string
	SellerID         string
	SellerName       string
	Name             string
	Price            int64
	SalePrice        *int64 // 設定時はPriceより優先（大小の検証はしない）
	Stock            int64
	IsUnlimitedStock bool
	HasVariants      bool
	VATRate          *float64 // パーセント
	CustomVATRate    *float64 // VATRateより優先
	Delivery         *DeliveryInfo
	Weight           *float64
}

// Variant はHasVariantsな商品のバリアント。
type Variant struct {
	ID        string
	SKU       string
	Price     int64
	SalePrice *int64
	Stock     int64
	Weight    *float64
}

// Catalog は計算中に参照する読み取り専用スナップショット。
// エンジン自身はデータを取りに行かない。
type Catalog interface {
	Product(id string) (Product, bool)
	Variant(productID string, variantID string) (Variant, bool)
}

// Snapshot はmapベースのCatalog実装。
// データアクセス層で正規化した商品を詰めて使う。
type Snapshot struct {
	products map[string]Product
	variants map[string]map[string]Variant
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		products: map[string]Product{},
		variants: map[string]map[string]Variant{},
	}
}

func (s *Snapshot) AddProduct(p Product) {
	s.products[p.ID] = p
}

func (s *Snapshot) AddVariant(productID string, v Variant) {
	if s.variants[productID] == nil {
		s.variants[productID] = map[string]Variant{}
	}
	s.variants[productID][v.ID] = v
}

func (s *Snapshot) Product(id string) (Product, bool) {
	p, ok := s.products[id]
	return p, ok
}

func (s *Snapshot) Variant(productID string, variantID string) (Variant, bool) {
	v, ok := s.variants[productID][variantID]
	return v, ok
}

// EffectivePrice は適用価格を返す。
// バリアント選択時はバリアントのセール価格→通常価格、無ければ商品側の同順。
func EffectivePrice(p Product, v *Variant) int64 {
	if v != nil {
		if v.SalePrice != nil {
			return *v.SalePrice
		}
		return v.Price
	}
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
