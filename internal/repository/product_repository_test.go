package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api/internal/models"
)

var productCols = []string{"id", "name", "price", "description", "image", "category", "sellable", "created_at", "updated_at"}

func TestProductRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
			WithArgs("p1").
			WillReturnRows(pgxmock.NewRows(productCols).
				AddRow("p1", "Mug", int64(450), "", "", "kitchen", true, now, now))

		p, err := NewProductRepository(mock).GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Mug", p.Name)
		assert.True(t, p.Sellable)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
			WithArgs("p9").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewProductRepository(mock).GetByID(ctx, "p9")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestProductRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(true, 50, 0).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow("p1", "Mug", int64(450), "", "", "kitchen", true, now, now).
			AddRow("p2", "Cup", int64(300), "", "", "kitchen", true, now, now))

	products, err := NewProductRepository(mock).List(ctx, true, 50, 0)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	p := &models.Product{ID: "p1", Name: "Mug", Price: 500}

	mock.ExpectQuery("UPDATE products").
		WithArgs(p.ID, p.Name, p.Price, p.Description, p.Image, p.Category, p.Sellable).
		WillReturnError(pgx.ErrNoRows)

	err := NewProductRepository(mock).Update(ctx, p)
	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
