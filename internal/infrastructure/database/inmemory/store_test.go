package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

func seedVariant(t *testing.T, s *Store, id string, stock int) {
	t.Helper()
	require.NoError(t, s.Repositories().Variants.Save(context.Background(), &entity.ProductVariant{
		ID:            id,
		ProductID:     "p-" + id,
		ProductName:   "Linen Shirt",
		SKU:           "SKU-" + id,
		Price:         entity.MustMoney("1000", "NGN"),
		StockQuantity: stock,
		IsActive:      true,
	}))
}

func TestDo_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedVariant(t, s, "v1", 5)

	cart := entity.NewCart("u1")
	item, err := entity.NewCartItem(cart.ID, "v1", "Linen Shirt", 2, entity.MustMoney("1000", "NGN"))
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(item))
	require.NoError(t, s.Repositories().Carts.Save(ctx, cart))

	boom := errors.New("boom")
	err = s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		require.NoError(t, repos.Variants.DecrementStock(ctx, "v1", 2))
		require.NoError(t, repos.Carts.ClearItems(ctx, cart.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	v, err := s.Repositories().Variants.FindByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 5, v.StockQuantity)

	got, err := s.Repositories().Carts.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestDo_CommitsOnSuccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedVariant(t, s, "v1", 5)

	err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Variants.DecrementStock(ctx, "v1", 3)
	})
	require.NoError(t, err)

	v, err := s.Repositories().Variants.FindByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, v.StockQuantity)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedVariant(t, s, "v1", 1)

	err := s.Repositories().Variants.DecrementStock(ctx, "v1", 2)
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	v, _ := s.Repositories().Variants.FindByID(ctx, "v1")
	assert.Equal(t, 1, v.StockQuantity)
}

func TestDo_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedVariant(t, s, "v1", 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
				v, err := repos.Variants.FindByID(ctx, "v1")
				if err != nil {
					return err
				}
				if !v.HasStock(1) {
					return entity.ErrInsufficientStock
				}
				return repos.Variants.DecrementStock(ctx, "v1", 1)
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	v, err := s.Repositories().Variants.FindByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, v.StockQuantity)
}

func TestCartRepository_SecondCartForUserConflicts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Repositories().Carts.Save(ctx, entity.NewCart("u1")))

	err := s.Repositories().Carts.Save(ctx, entity.NewCart("u1"))
	assert.ErrorIs(t, err, entity.ErrCartExists)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedVariant(t, s, "v1", 4)

	v, err := s.Repositories().Variants.FindByID(ctx, "v1")
	require.NoError(t, err)
	v.StockQuantity = 100

	again, _ := s.Repositories().Variants.FindByID(ctx, "v1")
	assert.Equal(t, 4, again.StockQuantity)
}

func TestOrderRepository_IdempotencyKeyUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Repositories().Orders

	total, err := entity.NewOrderTotal(entity.MustMoney("100", "NGN"), entity.MustMoney("0", "NGN"), entity.MustMoney("0", "NGN"))
	require.NoError(t, err)

	first := entity.NewOrder("u1", "ORD-A-00001", total, entity.Address{})
	first.IdempotencyKey = "k1"
	require.NoError(t, repo.Create(ctx, first))

	second := entity.NewOrder("u1", "ORD-A-00002", total, entity.Address{})
	second.IdempotencyKey = "k1"
	assert.ErrorIs(t, repo.Create(ctx, second), entity.ErrDuplicateOrder)

	other := entity.NewOrder("u2", "ORD-A-00003", total, entity.Address{})
	other.IdempotencyKey = "k1"
	assert.NoError(t, repo.Create(ctx, other))

	found, err := repo.FindByIdempotencyKey(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestOrderRepository_FindByIDAttachesLines(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Repositories().Orders

	total, err := entity.NewOrderTotal(entity.MustMoney("2000", "NGN"), entity.MustMoney("0", "NGN"), entity.MustMoney("500", "NGN"))
	require.NoError(t, err)
	order := entity.NewOrder("u1", "ORD-A-00001", total, entity.Address{})
	require.NoError(t, repo.Create(ctx, order))

	line := &entity.OrderLine{ID: "l1", OrderID: order.ID, ProductVariantID: "v1", Quantity: 2,
		UnitPrice: entity.MustMoney("1000", "NGN"), LineTotal: entity.MustMoney("2000", "NGN")}
	require.NoError(t, repo.CreateLines(ctx, []*entity.OrderLine{line}))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "v1", got.Lines[0].ProductVariantID)

	list, err := repo.ListByUserID(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Lines)
}

func TestEventRepository_FetchAndMarkSent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Repositories().Events

	e1, err := entity.NewOutboxEvent(entity.TopicOrderCreated, "o1", map[string]string{"orderId": "o1"})
	require.NoError(t, err)
	e2, err := entity.NewOutboxEvent(entity.TopicPaymentSucceeded, "o1", map[string]string{"orderId": "o1"})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, e1, e2))

	unsent, err := repo.FetchUnsent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, e1.ID, unsent[0].ID)

	require.NoError(t, repo.MarkSent(ctx, []string{e1.ID}))
	unsent, err = repo.FetchUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, e2.ID, unsent[0].ID)
}
