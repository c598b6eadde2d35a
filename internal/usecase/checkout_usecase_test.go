package usecase_test

import (
	"context"
	"testing"

	"marketplace/internal/domain/model"
	"marketplace/internal/usecase"
	appvalidator "marketplace/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validCheckoutForm() appvalidator.CheckoutFormInput {
	return appvalidator.CheckoutFormInput{
		CustomerName:  "Anna Example",
		CustomerEmail: "anna@example.com",
		CustomerPhone: "+41 79 000 00 00",
		DeliveryType:  "delivery",
		Country:       "Switzerland",
		Street:        "Bahnhofstrasse 1",
		City:          "Zurich",
	}
}

type checkoutMocks struct {
	tx           *stubTxManager
	cartRepo     *CartRepoMock
	cartItemRepo *CartItemRepoMock
	productRepo  *ProductRepoMock
	variantRepo  *VariantRepoMock
	orderRepo    *OrderRepoMock
	orderItems   *OrderItemRepoMock
	inventory    *InventoryRepoMock
}

func newCheckoutUsecaseForTest() (*usecase.CheckoutUsecase, *checkoutMocks) {
	m := &checkoutMocks{
		cartRepo:     new(CartRepoMock),
		cartItemRepo: new(CartItemRepoMock),
		productRepo:  new(ProductRepoMock),
		variantRepo:  new(VariantRepoMock),
		orderRepo:    new(OrderRepoMock),
		orderItems:   new(OrderItemRepoMock),
		inventory:    new(InventoryRepoMock),
	}
	m.tx = &stubTxManager{repos: &stubTxRepos{
		orders:     m.orderRepo,
		orderItems: m.orderItems,
		carts:      m.cartRepo,
		cartItems:  m.cartItemRepo,
		inventory:  m.inventory,
		products:   m.productRepo,
		variants:   m.variantRepo,
		auditLogs:  new(AuditRepoMock),
	}}

	uc := usecase.NewCheckoutUsecase(
		m.tx, m.cartRepo, m.cartItemRepo, m.productRepo, m.variantRepo,
		appvalidator.NewCheckoutValidator(), nil, &stubIDGen{},
	)
	return uc, m
}

func TestCheckoutUsecase_Quote_Success(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	m.cartRepo.On("FindActiveByUserID", mock.Anything, "user-1").Return(model.Cart{ID: "cart-1"}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, "cart-1").Return([]model.CartItem{testCartItemA(2)}, nil)
	m.productRepo.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.Product{testProductA()}, nil)

	out, err := uc.Quote(ctx, "user-1", validCheckoutForm())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Drafts))

	d := out.Drafts[0]
	assert.Equal(t, "seller-1", d.SellerID)
	assert.Equal(t, int64(10000), d.Subtotal)
	assert.Equal(t, int64(770), d.VATAmount)
	assert.Equal(t, int64(500), d.DeliveryFee)
	assert.Equal(t, int64(11270), d.TotalAmount)
	assert.InDelta(t, 7.7, d.VATRate, 0.001)
	assert.Equal(t, out.Total, d.TotalAmount)
}

func TestCheckoutUsecase_Quote_InvalidForm(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCheckoutUsecaseForTest()

	form := validCheckoutForm()
	form.CustomerEmail = "not-an-email"

	_, err := uc.Quote(ctx, "user-1", form)
	assertErrContains(t, err, "invalid customer_email")
}

func TestCheckoutUsecase_Quote_DeliveryRequiresAddress(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCheckoutUsecaseForTest()

	form := validCheckoutForm()
	form.Street = ""

	_, err := uc.Quote(ctx, "user-1", form)
	assertErrContains(t, err, "invalid street")
}

func TestCheckoutUsecase_Quote_EmptyCart(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	m.cartRepo.On("FindActiveByUserID", mock.Anything, "user-1").Return(model.Cart{ID: "cart-1"}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, "cart-1").Return(nil, nil)

	_, err := uc.Quote(ctx, "user-1", validCheckoutForm())
	assertErrContains(t, err, "cart empty")
}

func TestCheckoutUsecase_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	m.orderRepo.On("ListByIdempotencyKey", mock.Anything, "user-1", "key-1").Return(nil, nil)
	m.cartRepo.On("FindActiveByUserID", mock.Anything, "user-1").Return(model.Cart{ID: "cart-1"}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, "cart-1").Return([]model.CartItem{testCartItemA(2)}, nil)
	m.productRepo.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.Product{testProductA()}, nil)

	m.inventory.On("DecreaseStockIfEnough", mock.Anything, "prod-a", int64(2)).Return(true, nil)
	m.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(adj model.InventoryAdjustment) bool {
		return adj.ProductID == "prod-a" && adj.Delta == -2
	})).Return(nil)

	m.orderRepo.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.SellerID == "seller-1" &&
			o.Status == model.OrderStatusProcessing &&
			o.Subtotal == 10000 &&
			o.TotalAmount == 11270 &&
			o.IdempotencyKey == "key-1" &&
			o.Currency == "CHF"
	})).Return(nil)
	m.orderItems.On("CreateBulk", mock.Anything, mock.Anything, mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Quantity == 2 && items[0].Subtotal == 10000
	})).Return(nil)

	m.cartRepo.On("UpdateStatus", mock.Anything, "cart-1", model.CartStatusCheckedOut).Return(nil)
	m.cartRepo.On("Clear", mock.Anything, "cart-1").Return(nil)

	out, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:           validCheckoutForm(),
		PaymentID:      "pi_123",
		PaymentMethod:  "stripe",
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Orders))
	assert.Equal(t, int64(11270), out.Total)
	assert.Equal(t, "PROCESSING", out.Orders[0].Status)

	m.orderRepo.AssertExpectations(t)
	m.inventory.AssertExpectations(t)
	m.cartRepo.AssertExpectations(t)
}

func TestCheckoutUsecase_PlaceOrder_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	prior := model.Order{ID: "order-1", OrderNumber: "AFB000001ABCD", SellerID: "seller-1", TotalAmount: 11270, Status: model.OrderStatusProcessing}
	m.orderRepo.On("ListByIdempotencyKey", mock.Anything, "user-1", "key-1").Return([]model.Order{prior}, nil)

	out, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:           validCheckoutForm(),
		PaymentID:      "pi_123",
		PaymentMethod:  "stripe",
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Orders))
	assert.Equal(t, "order-1", out.Orders[0].ID)

	//再送では注文も在庫もカートも触らない
	m.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	m.cartRepo.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_PlaceOrder_OutOfStock(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	m.orderRepo.On("ListByIdempotencyKey", mock.Anything, "user-1", "key-1").Return(nil, nil)
	m.cartRepo.On("FindActiveByUserID", mock.Anything, "user-1").Return(model.Cart{ID: "cart-1"}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, "cart-1").Return([]model.CartItem{testCartItemA(2)}, nil)
	m.productRepo.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.Product{testProductA()}, nil)

	//並行注文で在庫が先に減っていた
	m.inventory.On("DecreaseStockIfEnough", mock.Anything, "prod-a", int64(2)).Return(false, nil)

	_, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:           validCheckoutForm(),
		PaymentID:      "pi_123",
		PaymentMethod:  "stripe",
		IdempotencyKey: "key-1",
	})
	assertErrContains(t, err, "out of stock")

	m.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.cartRepo.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_PlaceOrder_MissingIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCheckoutUsecaseForTest()

	_, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:          validCheckoutForm(),
		PaymentID:     "pi_123",
		PaymentMethod: "stripe",
	})
	assertErrContains(t, err, "invalid idempotency_key")
}

func TestCheckoutUsecase_PlaceOrder_InvalidPaymentMethod(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCheckoutUsecaseForTest()

	_, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:           validCheckoutForm(),
		PaymentID:      "pi_123",
		PaymentMethod:  "cash",
		IdempotencyKey: "key-1",
	})
	assertErrContains(t, err, "invalid payment_method")
}

func TestCheckoutUsecase_PlaceOrder_UnlimitedStockSkipsDecrement(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecaseForTest()

	p := testProductA()
	p.IsUnlimitedStock = true

	m.orderRepo.On("ListByIdempotencyKey", mock.Anything, "user-1", "key-1").Return(nil, nil)
	m.cartRepo.On("FindActiveByUserID", mock.Anything, "user-1").Return(model.Cart{ID: "cart-1"}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, "cart-1").Return([]model.CartItem{testCartItemA(2)}, nil)
	m.productRepo.On("ListByIDs", mock.Anything, mock.Anything).Return([]model.Product{p}, nil)

	m.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.orderItems.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.cartRepo.On("UpdateStatus", mock.Anything, "cart-1", model.CartStatusCheckedOut).Return(nil)
	m.cartRepo.On("Clear", mock.Anything, "cart-1").Return(nil)

	_, err := uc.PlaceOrder(ctx, "user-1", usecase.PlaceOrderInput{
		Form:           validCheckoutForm(),
		PaymentID:      "pi_123",
		PaymentMethod:  "twint",
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)

	m.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}
