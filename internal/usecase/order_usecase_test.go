package usecase_test

import (
	"context"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type orderMocks struct {
	orderRepo  *OrderRepoMock
	orderItems *OrderItemRepoMock
	products   *ProductRepoMock
	inventory  *InventoryRepoMock
	audit      *AuditRepoMock
}

func newOrderUsecaseForTest() (*usecase.OrderUsecase, *orderMocks) {
	m := &orderMocks{
		orderRepo:  new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		products:   new(ProductRepoMock),
		inventory:  new(InventoryRepoMock),
		audit:      new(AuditRepoMock),
	}
	tx := &stubTxManager{repos: &stubTxRepos{
		orders:     m.orderRepo,
		orderItems: m.orderItems,
		carts:      new(CartRepoMock),
		cartItems:  new(CartItemRepoMock),
		inventory:  m.inventory,
		products:   m.products,
		variants:   new(VariantRepoMock),
		auditLogs:  m.audit,
	}}
	uc := usecase.NewOrderUsecase(tx, m.orderRepo, m.orderItems, m.audit, &stubIDGen{})
	return uc, m
}

func sellerOrder(status model.OrderStatus) model.Order {
	return model.Order{
		ID:          "order-1",
		OrderNumber: "AFB123456WXYZ",
		CustomerID:  "user-1",
		SellerID:    "seller-1",
		SellerName:  "Dance Gear Zurich",
		Status:      status,
		Subtotal:    10000,
		VATAmount:   770,
		TotalAmount: 11270,
		Currency:    "CHF",
	}
}

func TestOrderUsecase_GetMyOrderDetail_OtherCustomerIsNotFound(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	o := sellerOrder(model.OrderStatusProcessing)
	o.CustomerID = "someone-else"
	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(o, nil)

	_, err := uc.GetMyOrderDetail(ctx, "user-1", "order-1")
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_GetMyOrderDetail_Success(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusProcessing), nil)
	m.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return([]model.OrderItem{
		{ID: "oi-1", ProductID: "prod-a", ProductNameSnapshot: "Jazz Shoes", UnitPriceSnapshot: 5000, Quantity: 2, Subtotal: 10000},
	}, nil)

	out, err := uc.GetMyOrderDetail(ctx, "user-1", "order-1")
	assert.NoError(t, err)
	assert.Equal(t, "AFB123456WXYZ", out.OrderNumber)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(11270), out.TotalAmount)
}

func TestOrderUsecase_ListSellerOrders_InvalidStatus(t *testing.T) {
	ctx := context.Background()
	uc, _ := newOrderUsecaseForTest()

	_, err := uc.ListSellerOrders(ctx, "seller-1", repo.SellerOrderListFilter{Status: "UNKNOWN"})
	assertErrContains(t, err, "invalid status")
}

func TestOrderUsecase_UpdateOrderStatus_ShipProcessing(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusProcessing), nil)
	m.orderRepo.On("UpdateStatus", mock.Anything, "order-1", model.OrderStatusShipped).Return(nil)
	m.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return(nil, nil)
	m.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateOrderStatus(ctx, "seller-1", "order-1", "SHIPPED")
	assert.NoError(t, err)
	assert.Equal(t, "SHIPPED", out.Status)

	m.orderRepo.AssertExpectations(t)
}

func TestOrderUsecase_UpdateOrderStatus_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	//配達済みからは動かせない
	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusDelivered), nil)

	_, err := uc.UpdateOrderStatus(ctx, "seller-1", "order-1", "SHIPPED")
	assertErrContains(t, err, "invalid status transition")

	m.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_UpdateOrderStatus_OtherSellerIsNotFound(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusProcessing), nil)

	_, err := uc.UpdateOrderStatus(ctx, "seller-2", "order-1", "SHIPPED")
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_UpdateOrderStatus_CancelRestocks(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusProcessing), nil)
	m.orderRepo.On("UpdateStatus", mock.Anything, "order-1", model.OrderStatusCanceled).Return(nil)
	m.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return([]model.OrderItem{
		{ID: "oi-1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2},
	}, nil)

	m.products.On("FindByID", mock.Anything, "prod-a").Return(testProductA(), nil)
	m.inventory.On("IncreaseStock", mock.Anything, "prod-a", int64(2)).Return(nil)
	m.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(adj model.InventoryAdjustment) bool {
		return adj.ProductID == "prod-a" && adj.Delta == 2
	})).Return(nil)
	m.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateOrderStatus(ctx, "seller-1", "order-1", "CANCELED")
	assert.NoError(t, err)
	assert.Equal(t, "CANCELED", out.Status)

	m.inventory.AssertExpectations(t)
}

func TestOrderUsecase_UpdateOrderStatus_CancelVariantRestocksVariant(t *testing.T) {
	ctx := context.Background()
	uc, m := newOrderUsecaseForTest()

	m.orderRepo.On("FindByID", mock.Anything, "order-1").Return(sellerOrder(model.OrderStatusProcessing), nil)
	m.orderRepo.On("UpdateStatus", mock.Anything, "order-1", model.OrderStatusCanceled).Return(nil)
	m.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return([]model.OrderItem{
		{ID: "oi-1", OrderID: "order-1", ProductID: "prod-a", VariantID: "var-1", Quantity: 1},
	}, nil)

	m.products.On("FindByID", mock.Anything, "prod-a").Return(testProductA(), nil)
	m.inventory.On("IncreaseVariantStock", mock.Anything, "var-1", int64(1)).Return(nil)
	m.inventory.On("CreateAdjustment", mock.Anything, mock.Anything).Return(nil)
	m.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.UpdateOrderStatus(ctx, "seller-1", "order-1", "CANCELED")
	assert.NoError(t, err)

	m.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
	m.inventory.AssertExpectations(t)
}
