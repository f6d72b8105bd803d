package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func productColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "version", "tenant_id", "created_by",
		"sku", "name", "category_id", "is_active",
	}
}

func addProductRow(rows *sqlmock.Rows, id, tenantID, categoryID uuid.UUID, sku, name string) {
	now := time.Now()
	rows.AddRow(id, now, now, 1, tenantID, nil, sku, name, categoryID, true)
}

func TestGormProductRepository_FindBySKU(t *testing.T) {
	t.Run("finds product by SKU", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		tenantID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, productID, tenantID, uuid.New(), "BOX-STD-01", "Standard Box")

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND sku = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "BOX-STD-01", 1).
			WillReturnRows(rows)

		product, err := repo.FindBySKU(context.Background(), tenantID, "BOX-STD-01")

		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "Standard Box", product.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing SKU to not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND sku = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "NOPE", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindBySKU(context.Background(), tenantID, "NOPE")

		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	t.Run("loads requested products", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		tenantID := uuid.New()
		p1 := uuid.New()
		p2 := uuid.New()

		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, p1, tenantID, uuid.New(), "BOX-A", "Box A")

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id IN \(\$2,\$3\)`).
			WithArgs(tenantID, p1, p2).
			WillReturnRows(rows)

		products, err := repo.FindByIDs(context.Background(), tenantID, []uuid.UUID{p1, p2})

		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, p1, products[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		db, _, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		products, err := repo.FindByIDs(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.Nil(t, products)
	})
}

func TestGormProductRepository_FindAllForTenant(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db)

	tenantID := uuid.New()
	categoryID := uuid.New()

	rows := sqlmock.NewRows(productColumns())
	addProductRow(rows, uuid.New(), tenantID, categoryID, "BOX-A", "Box A")

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND category_id = \$2 ORDER BY created_at DESC LIMIT .*`).
		WithArgs(tenantID, categoryID, 20).
		WillReturnRows(rows)

	filter := shared.DefaultFilter()
	filter.Filters["category_id"] = categoryID

	products, err := repo.FindAllForTenant(context.Background(), tenantID, filter)

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
