package pricing

import "math"

// 国別のフォールバックVAT率（パーセント）。
// 商品側にvatRate/customVatRateが無いときに使う。
var countryVATRates = map[string]float64{
	"France":      20,
	"Germany":     19,
	"Switzerland": 7.7,
	"Italy":       22,
	"Spain":       21,
	"Belgium":     21,
	"Netherlands": 21,
	"Austria":     20,
	"Portugal":    23,
}

const defaultVATRate = 20

// CountryVATRate は国名からVAT率を引く（未知の国は20%）。
func CountryVATRate(country string) float64 {
	if r, ok := countryVATRates[country]; ok {
		return r
	}
	return defaultVATRate
}

// ProductVATRate は商品のVAT率を解決する。
// customVatRate → vatRate → 国別フォールバックの順。
func ProductVATRate(p Product, fallbackCountry string) float64 {
	if p.CustomVATRate != nil && *p.CustomVATRate >= 0 {
		return *p.CustomVATRate
	}
	if p.VATRate != nil && *p.VATRate >= 0 {
		return *p.VATRate
	}
	return CountryVATRate(fallbackCountry)
}

// サンチーム四捨五入
func roundCentimes(v float64) int64 {
	return int64(math.Round(v))
}

// 明細1行分のVAT額（税抜価格に上乗せ）。
func itemVAT(unitPrice int64, qty int64, rate float64) int64 {
	return roundCentimes(float64(unitPrice*qty) * rate / 100)
}
