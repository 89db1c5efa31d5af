package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

func TestCartRepository_SaveSecondCartForUserConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCartRepository(db)

	cart := entity.NewCart("u1")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO carts").WithArgs(cart.ID, "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "carts_user_id_key"})
	mock.ExpectRollback()

	err = repo.Save(context.Background(), cart)
	assert.ErrorIs(t, err, entity.ErrCartExists)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "carts_user_id_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
