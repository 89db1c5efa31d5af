package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/service"
	"github.com/stylehub/commerce-backend/internal/infrastructure/database/inmemory"
	"github.com/stylehub/commerce-backend/internal/infrastructure/gateway/mock"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

type fixture struct {
	store    *inmemory.Store
	gateway  *mock.Gateway
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inmemory.NewStore()
	gw := mock.New("")
	log := logging.Nop()
	return &fixture{
		store:    store,
		gateway:  gw,
		carts:    NewCartService(store, log),
		orders:   NewOrderService(store, service.NewOrderCalculator(service.DefaultPricingConfig()), log),
		payments: NewPaymentService(store, gw, PaymentConfig{Provider: entity.PaymentProviderManual}, log),
	}
}

func (f *fixture) seedVariant(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	require.NoError(t, f.store.Repositories().Variants.Save(context.Background(), &entity.ProductVariant{
		ID:            id,
		ProductID:     "prod-" + id,
		ProductName:   name,
		SKU:           "SKU-" + id,
		Size:          "M",
		Color:         "black",
		Price:         entity.MustMoney(price, "NGN"),
		StockQuantity: stock,
		IsActive:      true,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	v, err := f.store.Repositories().Variants.FindByID(context.Background(), id)
	require.NoError(t, err)
	return v.StockQuantity
}

func (f *fixture) addToCart(t *testing.T, userID, variantID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, AddCartItemInput{VariantID: variantID, Quantity: qty})
	require.NoError(t, err)
}

func lagos() AddressInput {
	return AddressInput{Street: "12 Admiralty Way", City: "Lekki", State: "Lagos", Country: "NG", PostalCode: "106104"}
}

// placeOrder seeds one variant, fills the cart and creates an order.
func (f *fixture) placeOrder(t *testing.T, userID string) *entity.Order {
	t.Helper()
	f.seedVariant(t, "v-"+userID, "Ankara Dress", "1000", 10)
	f.addToCart(t, userID, "v-"+userID, 2)
	res, err := f.orders.CreateFromCart(context.Background(), userID, CreateOrderInput{
		ShippingAddress:    lagos(),
		DiscountPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return res.Order
}

func (f *fixture) events(topic string) []*entity.OutboxEvent {
	all := f.store.Repositories().Events.(*inmemory.EventRepository).All()
	var out []*entity.OutboxEvent
	for _, e := range all {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
