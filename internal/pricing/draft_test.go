package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_BuildOrderDrafts_SingleSeller(t *testing.T) {
	p := deliveryProduct(500, i64p(10000)) // 閾値未達
	p.Price = 2000
	p.VATRate = f64p(7.7)
	p.Stock = 10

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 3, nil, "", false)
	assert.NoError(t, err)

	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypeDelivery, Country: "Switzerland"}, snap)
	assert.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "seller-1", d.SellerID)
	assert.Equal(t, "Dance Gear Zurich", d.SellerName)
	assert.Len(t, d.Lines, 1)
	assert.Equal(t, int64(6000), d.Subtotal)
	assert.Equal(t, int64(500), d.DeliveryFee)
	// 60.00 * 7.7% = 4.62
	assert.Equal(t, int64(462), d.VATAmount)
	assert.InDelta(t, 7.7, d.VATRate, 0.01)
	// S + S*r/100 + F
	assert.Equal(t, d.Subtotal+d.VATAmount+d.DeliveryFee, d.TotalAmount)
	assert.Equal(t, int64(6962), d.TotalAmount)
}

func TestCart_BuildOrderDrafts_FreeDelivery(t *testing.T) {
	p := deliveryProduct(500, i64p(5000))
	p.Price = 3000
	p.Stock = 10

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 2, nil, "", false) // 60.00 >= 50.00
	assert.NoError(t, err)

	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypeDelivery, Country: "Switzerland"}, snap)
	assert.Len(t, drafts, 1)
	assert.Equal(t, int64(0), drafts[0].DeliveryFee)
}

func TestCart_BuildOrderDrafts_Pickup(t *testing.T) {
	p := deliveryProduct(500, nil)
	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypePickup, Country: "Switzerland"}, snap)
	assert.Len(t, drafts, 1)
	assert.Equal(t, int64(0), drafts[0].DeliveryFee)
}

// 単一販売者の不変条件はAddで守られるが、分割アルゴリズム自体は
// 複数販売者が混在した明細でも販売者ごとに正しく分ける。
func TestCart_BuildOrderDrafts_MultiSeller(t *testing.T) {
	pa := productA()
	pa.VATRate = f64p(7.7)
	pb := productB()
	pb.VATRate = f64p(20)
	pb.Delivery = &DeliveryInfo{Fee: 700}

	snap := NewSnapshot()
	snap.AddProduct(pa)
	snap.AddProduct(pb)

	c := NewCartFromItems([]Item{
		{ProductID: pa.ID, SellerID: pa.SellerID, SellerName: pa.SellerName, ProductName: pa.Name, Quantity: 2, UnitPrice: 1000},
		{ProductID: pb.ID, SellerID: pb.SellerID, SellerName: pb.SellerName, ProductName: pb.Name, Quantity: 1, UnitPrice: 2500},
	})

	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypeDelivery, Country: "Switzerland"}, snap)
	assert.Len(t, drafts, 2)

	assert.Equal(t, "seller-1", drafts[0].SellerID)
	assert.Equal(t, int64(2000), drafts[0].Subtotal)
	assert.Equal(t, int64(154), drafts[0].VATAmount)
	assert.Equal(t, int64(0), drafts[0].DeliveryFee) // deliveryInfo無し

	assert.Equal(t, "seller-2", drafts[1].SellerID)
	assert.Equal(t, int64(2500), drafts[1].Subtotal)
	assert.Equal(t, int64(500), drafts[1].VATAmount)
	assert.Equal(t, int64(700), drafts[1].DeliveryFee)
	assert.Equal(t, int64(3700), drafts[1].TotalAmount)
}

func TestCart_BuildOrderDrafts_EmptyCart(t *testing.T) {
	c := NewCart()
	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypePickup, Country: "Switzerland"}, NewSnapshot())
	assert.Empty(t, drafts)
}

func TestCart_BuildOrderDrafts_ZeroVATRate(t *testing.T) {
	p := productA()
	p.CustomVATRate = f64p(0)

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	drafts := c.BuildOrderDrafts(CheckoutForm{DeliveryType: DeliveryTypePickup, Country: "Switzerland"}, snap)
	assert.Len(t, drafts, 1)
	assert.Equal(t, int64(0), drafts[0].VATAmount)
	assert.Equal(t, float64(0), drafts[0].VATRate)
	assert.Equal(t, drafts[0].Subtotal, drafts[0].TotalAmount)
}
