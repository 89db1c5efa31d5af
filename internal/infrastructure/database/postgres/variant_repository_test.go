package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

var variantRowColumns = []string{"id", "product_id", "product_name", "sku", "size", "color", "price", "currency", "stock_quantity", "is_active"}

func TestVariantRepository_DecrementStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVariantRepository(db)

	mock.ExpectExec("UPDATE product_variants").WithArgs(2, "v1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementStock(context.Background(), "v1", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepository_DecrementStockInsufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVariantRepository(db)

	mock.ExpectExec("UPDATE product_variants").WithArgs(3, "v1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT product_name, stock_quantity").WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"product_name", "stock_quantity"}).AddRow("Linen Shirt", 1))

	err = repo.DecrementStock(context.Background(), "v1", 3)
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Linen Shirt", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepository_DecrementStockMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVariantRepository(db)

	mock.ExpectExec("UPDATE product_variants").WithArgs(1, "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT product_name, stock_quantity").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"product_name", "stock_quantity"}))

	err = repo.DecrementStock(context.Background(), "gone", 1)
	assert.ErrorIs(t, err, entity.ErrVariantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepository_FindByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVariantRepository(db)

	rows := sqlmock.NewRows(variantRowColumns).
		AddRow("v1", "p1", "Linen Shirt", "LS-M-WHT", "M", "white", "1000.00", "NGN", 4, true).
		AddRow("v2", "p1", "Linen Shirt", "LS-L-WHT", "L", "white", "1250.50", "NGN", 0, true)
	mock.ExpectQuery("FROM product_variants WHERE id = ANY").WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	got, err := repo.FindByIDs(context.Background(), []string{"v2", "v1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NGN 1250.50", got["v2"].Price.String())
	assert.Equal(t, 4, got["v1"].StockQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepository_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVariantRepository(db)

	mock.ExpectQuery("FROM product_variants WHERE id").WithArgs("nope").WillReturnRows(sqlmock.NewRows(variantRowColumns))

	_, err = repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, entity.ErrVariantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepository_FindByIDsLocksInIDOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	uow := NewUnitOfWork(db)

	rows := sqlmock.NewRows(variantRowColumns).
		AddRow("v1", "p1", "Linen Shirt", "LS-M-WHT", "M", "white", "1000.00", "NGN", 4, true).
		AddRow("v2", "p1", "Linen Shirt", "LS-L-WHT", "L", "white", "1250.50", "NGN", 1, true)
	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE id = ANY\(\$1\) ORDER BY id FOR UPDATE`).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	mock.ExpectCommit()

	err = uow.Do(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		got, err := repos.Variants.FindByIDs(ctx, []string{"v2", "v1"})
		if err != nil {
			return err
		}
		assert.Len(t, got, 2)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
