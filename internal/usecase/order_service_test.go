package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/infrastructure/database/inmemory"
)

func TestCreateFromCart_ComputesTotalsAndReservesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVariant(t, "v1", "Ankara Dress", "1000", 10)
	f.addToCart(t, "u1", "v1", 2)

	res, err := f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{
		ShippingAddress:    lagos(),
		DiscountPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	o := res.Order
	assert.Equal(t, entity.OrderStatusPending, o.Status)
	assert.Equal(t, entity.OrderPaymentPending, o.PaymentStatus)
	assert.Equal(t, "NGN 2000.00", o.Total.Subtotal.String())
	assert.Equal(t, "NGN 200.00", o.Total.Discount.String())
	assert.Equal(t, "NGN 500.00", o.Total.Shipping.String())
	assert.Equal(t, "NGN 0.00", o.Total.Tax.String())
	assert.Equal(t, "NGN 2300.00", o.Total.TotalAmount.String())
	assert.Regexp(t, `^ORD-[0-9A-Z]+-[0-9A-Z]{5}$`, o.OrderNumber)

	require.Len(t, o.Lines, 1)
	assert.Equal(t, "SKU-v1", o.Lines[0].VariantDetails.SKU)
	assert.Equal(t, "NGN 2000.00", o.Lines[0].LineTotal.String())

	assert.Equal(t, 8, f.stock(t, "v1"))
	cart, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	stored, err := f.orders.Get(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 1)
	assert.Len(t, f.events(entity.TopicOrderCreated), 1)
}

func TestCreateFromCart_LinesMatchCartItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVariant(t, "v1", "Ankara Dress", "1000", 10)
	f.seedVariant(t, "v2", "Aso Oke Cap", "2500", 4)
	f.seedVariant(t, "v3", "Adire Scarf", "750", 6)
	f.addToCart(t, "u1", "v3", 1)
	f.addToCart(t, "u1", "v1", 3)
	f.addToCart(t, "u1", "v2", 4)

	res, err := f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: lagos()})
	require.NoError(t, err)
	require.Len(t, res.Order.Lines, 3)
	assert.Equal(t, "v3", res.Order.Lines[0].ProductVariantID)
	assert.Equal(t, 7, f.stock(t, "v1"))
	assert.Equal(t, 0, f.stock(t, "v2"))
	assert.Equal(t, 5, f.stock(t, "v3"))
}

func TestCreateFromCart_InsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVariant(t, "v1", "Ankara Dress", "1000", 5)
	f.seedVariant(t, "v2", "Aso Oke Cap", "2500", 1)
	f.addToCart(t, "u1", "v1", 2)
	f.addToCart(t, "u1", "v2", 1)

	// Another shopper buys the last cap after it was carted.
	v2, err := f.store.Repositories().Variants.FindByID(ctx, "v2")
	require.NoError(t, err)
	v2.StockQuantity = 0
	require.NoError(t, f.store.Repositories().Variants.Save(ctx, v2))

	_, err = f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: lagos()})
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Aso Oke Cap", stockErr.ProductName)

	assert.Equal(t, 5, f.stock(t, "v1"))
	assert.Equal(t, 0, f.stock(t, "v2"))
	cart, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, f.events(entity.TopicOrderCreated))
}

func TestCreateFromCart_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVariant(t, "v1", "Ankara Dress", "1000", 5)
	const buyers = 10
	for i := 0; i < buyers; i++ {
		f.addToCart(t, fmt.Sprintf("buyer-%d", i), "v1", 1)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.orders.CreateFromCart(ctx, userID, CreateOrderInput{ShippingAddress: lagos()})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			created++
		}(fmt.Sprintf("buyer-%d", i))
	}
	wg.Wait()

	assert.Equal(t, 5, created)
	assert.Equal(t, 0, f.stock(t, "v1"))
	require.Len(t, errs, buyers-5)
	for _, err := range errs {
		assert.ErrorIs(t, err, entity.ErrInsufficientStock)
	}
	assert.Len(t, f.events(entity.TopicOrderCreated), 5)
}

func TestCreateFromCart_ValidationLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: lagos()})
	assert.ErrorIs(t, err, entity.ErrEmptyCart)

	f.seedVariant(t, "v1", "Ankara Dress", "1000", 5)
	f.addToCart(t, "u1", "v1", 2)

	bad := lagos()
	bad.City = " "
	_, err = f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: bad})
	assert.ErrorIs(t, err, entity.ErrAddressValidation)

	_, err = f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: lagos(), DiscountPercentage: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, entity.ErrInvalidDiscount)

	assert.Equal(t, 5, f.stock(t, "v1"))
	require.NoError(t, f.carts.Clear(ctx, "u1"))
	_, err = f.orders.CreateFromCart(ctx, "u1", CreateOrderInput{ShippingAddress: lagos()})
	assert.ErrorIs(t, err, entity.ErrEmptyCart)
}

func TestCreateFromCart_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedVariant(t, "v1", "Ankara Dress", "1000", 5)
	f.addToCart(t, "u1", "v1", 2)

	in := CreateOrderInput{ShippingAddress: lagos(), IdempotencyKey: "checkout-1"}
	first, err := f.orders.CreateFromCart(ctx, "u1", in)
	require.NoError(t, err)
	second, err := f.orders.CreateFromCart(ctx, "u1", in)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 3, f.stock(t, "v1"))
	assert.Len(t, f.events(entity.TopicOrderCreated), 1)
}

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1")
	assert.Equal(t, 8, f.stock(t, "v-u1"))

	cancelled, err := f.orders.Cancel(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock(t, "v-u1"))
	assert.Len(t, f.events(entity.TopicOrderCancelled), 1)

	_, err = f.orders.Cancel(ctx, "u1", o.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, 10, f.stock(t, "v-u1"))
}

func TestCancel_SkipsDeletedVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1")
	f.store.Repositories().Variants.(*inmemory.VariantRepository).Delete(ctx, "v-u1")

	cancelled, err := f.orders.Cancel(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
}

func TestCancel_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t, "u1")

	_, err := f.orders.Cancel(context.Background(), "intruder", o.ID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestCancel_DeliveredFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1")
	for _, a := range []StatusAction{ActionConfirm, ActionProcess, ActionShip, ActionDeliver} {
		_, err := f.orders.AdvanceStatus(ctx, o.ID, a)
		require.NoError(t, err)
	}

	_, err := f.orders.Cancel(ctx, "u1", o.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, 8, f.stock(t, "v-u1"))
}

func TestAdvanceStatus_RejectsSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1")

	_, err := f.orders.AdvanceStatus(ctx, o.ID, ActionShip)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = f.orders.AdvanceStatus(ctx, o.ID, "teleport")
	assert.ErrorIs(t, err, ErrUnknownAction)

	got, err := f.orders.AdvanceStatus(ctx, o.ID, ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, got.Status)

	_, err = f.orders.AdvanceStatus(ctx, o.ID, ActionConfirm)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Len(t, f.events(entity.TopicOrderStatusChanged), 1)
}

func TestUpdateShippingAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1")

	addr := lagos()
	addr.City = "Ikeja"
	got, err := f.orders.UpdateShippingAddress(ctx, "u1", o.ID, addr)
	require.NoError(t, err)
	assert.Equal(t, "Ikeja", got.ShippingAddress.City)

	for _, a := range []StatusAction{ActionConfirm, ActionProcess} {
		_, err := f.orders.AdvanceStatus(ctx, o.ID, a)
		require.NoError(t, err)
	}
	_, err = f.orders.UpdateShippingAddress(ctx, "u1", o.ID, lagos())
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestList_OnlyOwnOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.placeOrder(t, "u1")
	f.placeOrder(t, "u2")

	list, err := f.orders.List(ctx, "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u1", list[0].UserID)
}
