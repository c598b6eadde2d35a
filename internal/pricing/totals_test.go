package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func deliveryProduct(fee int64, threshold *int64) Product {
	p := productA()
	p.Delivery = &DeliveryInfo{Fee: fee, FreeThreshold: threshold}
	return p
}

func TestCart_Subtotal_Idempotent(t *testing.T) {
	c := NewCart()
	_, err := c.Add(productA(), 3, nil, "", false)
	assert.NoError(t, err)

	first := c.Subtotal()
	second := c.Subtotal()
	assert.Equal(t, first, second)
	assert.Equal(t, int64(3000), first)
}

func TestCart_VATAmount_ProductRate(t *testing.T) {
	p := productA()
	p.Price = 10000 // 100.00
	p.VATRate = f64p(7.7)
	p.Stock = 10

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 2, nil, "", false)
	assert.NoError(t, err)

	// 200.00 * 7.7% = 15.40
	assert.Equal(t, int64(1540), c.VATAmount(snap, "France"))
	// pickupなので送料なし：215.40
	assert.Equal(t, int64(21540), c.TotalWithVAT(DeliveryTypePickup, snap, "France"))
}

func TestCart_VATAmount_CustomRateWins(t *testing.T) {
	p := productA()
	p.Price = 10000
	p.VATRate = f64p(20)
	p.CustomVATRate = f64p(2.5)

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	assert.Equal(t, int64(250), c.VATAmount(snap, "Switzerland"))
}

func TestCart_VATAmount_CountryFallback(t *testing.T) {
	p := productA()
	p.Price = 10000

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	assert.Equal(t, int64(770), c.VATAmount(snap, "Switzerland"))
	assert.Equal(t, int64(1900), c.VATAmount(snap, "Germany"))
	//未知の国は20%
	assert.Equal(t, int64(2000), c.VATAmount(snap, "Atlantis"))
}

func TestCart_VATAmount_Additive(t *testing.T) {
	p := productA()
	p.Price = 1990
	p.VATRate = f64p(7.7)
	p.Stock = 100

	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 3, nil, "", false)
	assert.NoError(t, err)
	before := c.VATAmount(snap, "Switzerland")

	//数量を1増やすと明細1個分のVATだけ増える
	assert.NoError(t, c.UpdateQuantity(snap, p.ID, "", 4))
	after := c.VATAmount(snap, "Switzerland")
	assert.Equal(t, itemVAT(1990, 4, 7.7)-itemVAT(1990, 3, 7.7), after-before)
}

func TestCart_DeliveryFees_Charged(t *testing.T) {
	p := deliveryProduct(500, i64p(5000))
	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 3, nil, "", false) // 小計30.00 < 閾値50.00
	assert.NoError(t, err)

	fees := c.DeliveryBySeller(DeliveryTypeDelivery, snap)
	assert.Len(t, fees, 1)
	assert.Equal(t, int64(500), fees["seller-1"].Fee)
	assert.Equal(t, "Dance Gear Zurich", fees["seller-1"].SellerName)

	assert.Equal(t, int64(500), c.TotalDeliveryFees(DeliveryTypeDelivery, snap))
}

func TestCart_DeliveryFees_FreeThresholdReached(t *testing.T) {
	p := deliveryProduct(500, i64p(5000))
	p.Stock = 10
	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 6, nil, "", false) // 小計60.00 >= 閾値50.00
	assert.NoError(t, err)

	assert.Equal(t, int64(0), c.TotalDeliveryFees(DeliveryTypeDelivery, snap))
}

func TestCart_DeliveryFees_PickupIsZero(t *testing.T) {
	p := deliveryProduct(500, nil)
	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	assert.Equal(t, int64(0), c.TotalDeliveryFees(DeliveryTypePickup, snap))
	assert.Empty(t, c.DeliveryBySeller(DeliveryTypePickup, snap))
}

func TestCart_DeliveryFees_NoDeliveryInfo(t *testing.T) {
	p := productA()
	snap := NewSnapshot()
	snap.AddProduct(p)

	c := NewCart()
	_, err := c.Add(p, 1, nil, "", false)
	assert.NoError(t, err)

	assert.Equal(t, int64(0), c.TotalDeliveryFees(DeliveryTypeDelivery, snap))
}

func TestCart_VATAmount_UnknownProductPanics(t *testing.T) {
	c := NewCartFromItems([]Item{
		{ProductID: "ghost", SellerID: "seller-1", Quantity: 1, UnitPrice: 100},
	})

	assert.Panics(t, func() {
		c.VATAmount(NewSnapshot(), "Switzerland")
	})
}
