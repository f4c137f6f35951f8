package service_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success at a table", func(t *testing.T) {
		store := seededStore()
		clk := newClock(t0)
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.EventOrderPaid
		})).Return().Once()
		svc := service.NewOrderService(store, service.DefaultBillingPolicy(), service.WithClock(clk.Now), service.WithPublisher(pub))

		order, payment, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			TableID: "t-2",
			Items: []service.OrderItemInput{
				{ProductID: "latte", Quantity: 2, UnitPrice: dec("25")},
				{ProductID: "cake", Quantity: 1, UnitPrice: dec("40.50")},
			},
			PaymentMethod: domain.PaymentMethodCard,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusPaid, order.Status)
		assert.True(t, dec("90.50").Equal(order.Bill.Subtotal))
		assert.True(t, order.Bill.Tax.IsZero())
		assert.True(t, order.Bill.Total.Equal(order.Bill.Subtotal.Add(order.Bill.Tax)))
		assert.Equal(t, "Latte", order.Items[0].Name)
		assert.Equal(t, "cup", order.Items[0].Unit)
		assert.Equal(t, domain.DefaultCustomer(), order.Customer)
		assert.Equal(t, t0, order.OrderDate)
		assert.Equal(t, cashier.UserID, order.CashierID)

		require.NotNil(t, payment.OrderID)
		assert.Equal(t, order.ID, *payment.OrderID)
		assert.Nil(t, payment.SessionID)
		assert.Regexp(t, `^INV-[0-9A-F]{6}$`, payment.Code)
		assert.Equal(t, order.Bill, payment.Bill)
		assert.Equal(t, domain.PaymentMethodCard, payment.PaymentMethod)
		assert.Equal(t, domain.PaymentStatusPaid, payment.Status)
		require.NotNil(t, payment.Table)
		assert.Equal(t, "Window", payment.Table.Label)
		assert.Len(t, payment.Items, 2)

		repos := store.Repositories()
		latte, _ := repos.Products.GetByID(ctx, "latte")
		cake, _ := repos.Products.GetByID(ctx, "cake")
		assert.Equal(t, int32(8), latte.Quantity)
		assert.Equal(t, int32(0), cake.Quantity)

		table, _ := repos.Tables.GetByID(ctx, "t-2")
		assert.Equal(t, domain.TableStatusAvailable, table.Status)
		assert.Nil(t, table.CurrentOrderID)

		stored, err := repos.Payments.GetByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.Code, stored.Code)
		pub.AssertExpectations(t)
	})

	t.Run("Defaults payment method and customer name", func(t *testing.T) {
		svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy())
		order, payment, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			Items:    []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
			Customer: &domain.Customer{Phone: "0100"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentMethodCash, order.PaymentMethod)
		assert.Equal(t, "Guest", order.Customer.Name)
		assert.Equal(t, int32(1), order.Customer.Guests)
		assert.Equal(t, "0100", order.Customer.Phone)
		assert.Nil(t, payment.Table)
	})

	t.Run("Applies the order tax rate", func(t *testing.T) {
		policy := service.DefaultBillingPolicy()
		policy.OrderTaxRate = dec("0.14")
		svc := service.NewOrderService(seededStore(), policy)
		order, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 3, UnitPrice: dec("12.35")}},
		})
		require.NoError(t, err)
		assert.True(t, dec("37.05").Equal(order.Bill.Subtotal))
		assert.True(t, dec("5.19").Equal(order.Bill.Tax))
		assert.True(t, dec("42.24").Equal(order.Bill.Total))
	})

	t.Run("Validation", func(t *testing.T) {
		svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy())
		cases := map[string]service.CreateOrderInput{
			"no items":        {},
			"missing product": {Items: []service.OrderItemInput{{Quantity: 1, UnitPrice: dec("1")}}},
			"zero quantity":   {Items: []service.OrderItemInput{{ProductID: "latte", UnitPrice: dec("1")}}},
			"negative price":  {Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("-1")}}},
			"zero price":      {Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("0")}}},
			"missing price":   {Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 3}}},
			"unknown payment": {Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("1")}}, PaymentMethod: "Cheque"},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, _, err := svc.CreateOrder(ctx, cashier, in)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Equal(t, "validation", service.ErrorKind(err))
			})
		}
	})

	t.Run("Unpriced item leaves stock untouched", func(t *testing.T) {
		store := seededStore()
		svc := service.NewOrderService(store, service.DefaultBillingPolicy())

		order, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 3}},
		})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, order)

		latte, _ := store.Repositories().Products.GetByID(ctx, "latte")
		assert.Equal(t, int32(10), latte.Quantity)
	})

	t.Run("Insufficient stock rolls back every effect", func(t *testing.T) {
		store := seededStore()
		svc := service.NewOrderService(store, service.DefaultBillingPolicy())

		_, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			TableID: "t-1",
			Items: []service.OrderItemInput{
				{ProductID: "latte", Quantity: 3, UnitPrice: dec("25")},
				{ProductID: "cake", Quantity: 2, UnitPrice: dec("40")},
			},
		})
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		var stockErr *domain.StockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "cake", stockErr.ProductID)
		assert.Equal(t, int32(1), stockErr.Available)

		repos := store.Repositories()
		latte, _ := repos.Products.GetByID(ctx, "latte")
		cake, _ := repos.Products.GetByID(ctx, "cake")
		assert.Equal(t, int32(10), latte.Quantity)
		assert.Equal(t, int32(1), cake.Quantity)

		table, _ := repos.Tables.GetByID(ctx, "t-1")
		assert.Equal(t, domain.TableStatusAvailable, table.Status)
		assert.Nil(t, table.CurrentOrderID)

		orders, total, err := repos.Orders.List(ctx, domain.OrderFilter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.Zero(t, total)
	})

	t.Run("Unknown product or table", func(t *testing.T) {
		svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy())
		_, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			Items: []service.OrderItemInput{{ProductID: "nope", Quantity: 1, UnitPrice: dec("25")}},
		})
		assert.ErrorIs(t, err, domain.ErrProductNotFound)

		_, _, err = svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			TableID: "t-9",
			Items:   []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
		})
		assert.ErrorIs(t, err, domain.ErrTableNotFound)
		assert.Equal(t, "not_found", service.ErrorKind(err))
	})

	t.Run("Busy table", func(t *testing.T) {
		store := seededStore()
		busy := "order-open"
		store.PutTable(domain.Table{ID: "t-1", Number: 1, Status: domain.TableStatusOccupied, CurrentOrderID: &busy})
		svc := service.NewOrderService(store, service.DefaultBillingPolicy())

		_, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			TableID: "t-1",
			Items:   []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
		})
		assert.ErrorIs(t, err, domain.ErrTableBusy)
		assert.ErrorIs(t, err, domain.ErrConflict)

		latte, _ := store.Repositories().Products.GetByID(ctx, "latte")
		assert.Equal(t, int32(10), latte.Quantity)
	})

	t.Run("Charged to an ended session", func(t *testing.T) {
		store := seededStore()
		clk := newClock(t0)
		sessions := service.NewSessionService(store, service.DefaultBillingPolicy(), service.WithClock(clk.Now))
		orders := service.NewOrderService(store, service.DefaultBillingPolicy(), service.WithClock(clk.Now))

		rs, err := sessions.StartSession(ctx, cashier, "ps-1")
		require.NoError(t, err)
		_, _, err = sessions.EndSession(ctx, cashier, rs.ID)
		require.NoError(t, err)

		_, _, err = orders.CreateOrder(ctx, cashier, service.CreateOrderInput{
			SessionID: rs.ID,
			Items:     []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
		})
		assert.ErrorIs(t, err, domain.ErrSessionNotActive)
		assert.Equal(t, "invalid_transition", service.ErrorKind(err))
	})
}

func TestOrderService_CreateOrder_ConcurrentSameTable(t *testing.T) {
	ctx := context.Background()
	store := newBarrierStore(seededStore(), 2)
	svc := service.NewOrderService(store, service.DefaultBillingPolicy())

	in := service.CreateOrderInput{
		TableID: "t-1",
		Items:   []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.CreateOrder(ctx, cashier, in)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrConflict):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	latte, _ := store.Repositories().Products.GetByID(ctx, "latte")
	assert.Equal(t, int32(9), latte.Quantity)
	table, _ := store.Repositories().Tables.GetByID(ctx, "t-1")
	assert.Equal(t, domain.TableStatusAvailable, table.Status)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	// An order that still holds its table, as left by an older workflow.
	seedHeldOrder := func(t *testing.T) (string, service.OrderService, func() *domain.Table) {
		store := seededStore()
		svc := service.NewOrderService(store, service.DefaultBillingPolicy())
		order, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			TableID: "t-1",
			Items:   []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
		})
		require.NoError(t, err)
		store.PutTable(domain.Table{ID: "t-1", Number: 1, Status: domain.TableStatusOccupied, CurrentOrderID: &order.ID, Version: 9})
		table := func() *domain.Table {
			tb, err := store.Repositories().Tables.GetByID(ctx, "t-1")
			require.NoError(t, err)
			return tb
		}
		return order.ID, svc, table
	}

	for _, status := range []string{"Pending", "InProgress", "Ready", "Completed", "Cancelled"} {
		t.Run(status+" releases the table", func(t *testing.T) {
			orderID, svc, table := seedHeldOrder(t)

			order, err := svc.UpdateOrderStatus(ctx, cashier, orderID, status)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatus(status), order.Status)

			tb := table()
			assert.Equal(t, domain.TableStatusAvailable, tb.Status)
			assert.Nil(t, tb.CurrentOrderID)
		})
	}

	t.Run("Invalid status", func(t *testing.T) {
		orderID, svc, table := seedHeldOrder(t)

		for _, status := range []string{"Paid", "Served", ""} {
			_, err := svc.UpdateOrderStatus(ctx, cashier, orderID, status)
			assert.ErrorIs(t, err, domain.ErrInvalidStatus)
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
		assert.Equal(t, domain.TableStatusOccupied, table().Status)
	})

	t.Run("Unknown order", func(t *testing.T) {
		svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy())
		_, err := svc.UpdateOrderStatus(ctx, cashier, "missing", "Ready")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := service.NewOrderService(store, service.DefaultBillingPolicy())

	order, payment, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
		TableID: "t-1",
		Items:   []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("25")}},
	})
	require.NoError(t, err)
	store.PutTable(domain.Table{ID: "t-1", Number: 1, Status: domain.TableStatusOccupied, CurrentOrderID: &order.ID, Version: 5})

	require.NoError(t, svc.DeleteOrder(ctx, admin, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	table, _ := store.Repositories().Tables.GetByID(ctx, "t-1")
	assert.Equal(t, domain.TableStatusAvailable, table.Status)
	assert.Nil(t, table.CurrentOrderID)

	// The payment ledger outlives the order.
	_, err = store.Repositories().Payments.GetByID(ctx, payment.ID)
	assert.NoError(t, err)

	err = svc.DeleteOrder(ctx, admin, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderService_ReadPaths(t *testing.T) {
	ctx := context.Background()
	clk := newClock(t0)
	svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy(), service.WithClock(clk.Now))

	for i := 0; i < 3; i++ {
		_, _, err := svc.CreateOrder(ctx, cashier, service.CreateOrderInput{
			Items: []service.OrderItemInput{{ProductID: "latte", Quantity: 1, UnitPrice: dec("20")}},
		})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	orders, total, err := svc.ListOrders(ctx, domain.OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].OrderDate.After(orders[1].OrderDate))

	stats, err := svc.GetOrderStats(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(3), stats.PaidOrders)
	assert.True(t, dec("60").Equal(stats.TotalRevenue))
	assert.True(t, dec("20").Equal(stats.AvgOrderValue))
}

func TestOrderService_ReadPathsLogMethodBoundaries(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "debug", "text")
	t.Cleanup(func() { logger.InitializeWithWriter(io.Discard, "info", "text") })

	svc := service.NewOrderService(seededStore(), service.DefaultBillingPolicy())
	_, err := svc.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, _, err = svc.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	_, err = svc.GetOrderStats(ctx, nil, nil)
	require.NoError(t, err)

	out := buf.String()
	for _, method := range []string{"orderService.GetOrder", "orderService.ListOrders", "orderService.GetOrderStats"} {
		assert.Contains(t, out, "method="+method+" event=enter")
		assert.Contains(t, out, "method="+method+" event=exit")
	}
}
