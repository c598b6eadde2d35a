package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/pricing"
	repo "marketplace/internal/repository"
)

// DBの商品をエンジンの正規化カタログ形に変換する。
// Firestore由来の揺れはここで一度だけ吸収し、pricing側は固定の形だけを見る。
func toPricingProduct(p model.Product) pricing.Product {
	return pricing.Product{
		ID:               p.ID,
		SellerID:         p.SellerID,
		SellerName:       p.SellerName,
		Name:             p.Name,
		Price:            p.Price,
		SalePrice:        p.SalePrice,
		Stock:            p.Stock,
		IsUnlimitedStock: p.IsUnlimitedStock,
		HasVariants:      p.HasVariants,
		VATRate:          p.VATRate,
		CustomVATRate:    p.CustomVATRate,
		Delivery: &pricing.DeliveryInfo{
			Fee:           p.DeliveryFee,
			FreeThreshold: p.FreeDeliveryThreshold,
		},
		Weight: p.Weight,
	}
}

func toPricingVariant(v model.ProductVariant) pricing.Variant {
	return pricing.Variant{
		ID:        v.ID,
		SKU:       v.SKU,
		Price:     v.Price,
		SalePrice: v.SalePrice,
		Stock:     v.Stock,
		Weight:    v.Weight,
	}
}

func toEngineItem(ci model.CartItem) pricing.Item {
	return pricing.Item{
		ProductID:   ci.ProductID,
		VariantID:   ci.VariantID,
		SellerID:    ci.SellerID,
		SellerName:  ci.SellerName,
		ProductName: ci.ProductNameSnapshot,
		SKU:         ci.SKUSnapshot,
		DisplayText: ci.DisplaySnapshot,
		Quantity:    ci.Quantity,
		UnitPrice:   ci.UnitPriceSnapshot,
		Weight:      ci.Weight,
	}
}

func toCartItemModel(cartID string, it pricing.Item) model.CartItem {
	return model.CartItem{
		CartID:              cartID,
		ProductID:           it.ProductID,
		VariantID:           it.VariantID,
		SellerID:            it.SellerID,
		SellerName:          it.SellerName,
		ProductNameSnapshot: it.ProductName,
		SKUSnapshot:         it.SKU,
		DisplaySnapshot:     it.DisplayText,
		Quantity:            it.Quantity,
		UnitPriceSnapshot:   it.UnitPrice,
		Weight:              it.Weight,
	}
}

// バリアントのcombinations JSONを表示用テキストにする。
// mapなのでキー順で並べて出力を安定させる。
func formatCombinations(combosJSON string) string {
	if strings.TrimSpace(combosJSON) == "" {
		return ""
	}

	var combos map[string]string
	if err := json.Unmarshal([]byte(combosJSON), &combos); err != nil {
		return ""
	}

	keys := make([]string, 0, len(combos))
	for k := range combos {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+combos[k])
	}
	return strings.Join(parts, ", ")
}

// 保存済みカート明細からエンジンのカートとカタログスナップショットを作る。
// 商品が消えた・非公開になった明細は除外する（注文時に改めて弾く）。
func loadEngineState(
	ctx context.Context,
	products repo.ProductRepository,
	variants repo.VariantRepository,
	items []model.CartItem,
) (*pricing.Cart, *pricing.Snapshot, error) {
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, ci := range items {
		if !seen[ci.ProductID] {
			seen[ci.ProductID] = true
			ids = append(ids, ci.ProductID)
		}
	}

	found, err := products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	snap := pricing.NewSnapshot()
	active := map[string]bool{}
	for _, p := range found {
		if !p.IsActive {
			continue
		}
		active[p.ID] = true
		snap.AddProduct(toPricingProduct(p))
	}

	engineItems := make([]pricing.Item, 0, len(items))
	for _, ci := range items {
		if !active[ci.ProductID] {
			continue
		}
		if ci.VariantID != "" {
			v, err := variants.FindByID(ctx, ci.VariantID)
			if err == repo.ErrNotFound {
				continue
			}
			if err != nil {
				return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			snap.AddVariant(ci.ProductID, toPricingVariant(v))
		}
		engineItems = append(engineItems, toEngineItem(ci))
	}

	return pricing.NewCartFromItems(engineItems), snap, nil
}
