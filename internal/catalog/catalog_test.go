package catalog

import (
	"context"
	"testing"

	"petshop-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products   map[int64]models.Product
	categories []models.Category
}

func (f *fakeSource) GetProducts(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeSource) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) GetCategories(_ context.Context) ([]models.Category, error) {
	return f.categories, nil
}

func product(id int64, name string, stock int) models.Product {
	return models.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.NewFromInt(100),
		Stock:  stock,
		Status: models.ProductStatusActive,
	}
}

func changeEvent(op string, newRow, oldRow *models.Product) models.ChangeEvent {
	return models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeCatalogChange},
		Table:     models.TableProducts,
		Op:        op,
		New:       newRow,
		Old:       oldRow,
	}
}

func TestLoadFillsCatalog(t *testing.T) {
	source := &fakeSource{
		products: map[int64]models.Product{
			1: product(1, "dog food", 5),
			2: product(2, "cat litter", 3),
		},
		categories: []models.Category{{ID: 1, Name: "Dogs", Slug: "dogs"}},
	}

	store := NewStore(source)
	require.NoError(t, store.Load(context.Background()))

	assert.Len(t, store.Products(), 2)
	assert.Len(t, store.Categories(), 1)

	p, ok := store.Product(1)
	require.True(t, ok)
	assert.Equal(t, "dog food", p.Name)
}

func TestApplyInsertUpdateDelete(t *testing.T) {
	store := NewStore(&fakeSource{})

	inserted := product(1, "dog food", 5)
	store.Apply(changeEvent(models.ChangeOpInsert, &inserted, nil))

	p, ok := store.Product(1)
	require.True(t, ok)
	assert.Equal(t, 5, p.Stock)

	updated := inserted
	updated.Stock = 2
	store.Apply(changeEvent(models.ChangeOpUpdate, &updated, &inserted))

	p, _ = store.Product(1)
	assert.Equal(t, 2, p.Stock)

	store.Apply(changeEvent(models.ChangeOpDelete, nil, &updated))

	_, ok = store.Product(1)
	assert.False(t, ok)
}

func TestApplyCategoryEvents(t *testing.T) {
	store := NewStore(&fakeSource{})

	cat := models.Category{ID: 7, Name: "Birds", Slug: "birds"}
	store.Apply(models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeCatalogChange},
		Table:     models.TableCategories,
		Op:        models.ChangeOpInsert,
		Category:  &cat,
	})

	require.Len(t, store.Categories(), 1)
	assert.Equal(t, "birds", store.Categories()[0].Slug)

	store.Apply(models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeCatalogChange},
		Table:     models.TableCategories,
		Op:        models.ChangeOpDelete,
		Category:  &cat,
	})

	assert.Empty(t, store.Categories())
}

func TestProductsOrderedByID(t *testing.T) {
	store := NewStore(&fakeSource{})

	p2 := product(2, "b", 1)
	p1 := product(1, "a", 1)
	store.Apply(changeEvent(models.ChangeOpInsert, &p2, nil))
	store.Apply(changeEvent(models.ChangeOpInsert, &p1, nil))

	products := store.Products()
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(2), products[1].ID)
}

func TestRefreshProductsUpdatesAndDrops(t *testing.T) {
	source := &fakeSource{products: map[int64]models.Product{
		1: product(1, "dog food", 1),
	}}

	store := NewStore(source)

	// Stale cache: product 1 with old stock, product 2 long deleted.
	stale1 := product(1, "dog food", 10)
	stale2 := product(2, "ghost", 4)
	store.Apply(changeEvent(models.ChangeOpInsert, &stale1, nil))
	store.Apply(changeEvent(models.ChangeOpInsert, &stale2, nil))

	fresh, err := store.RefreshProducts(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	require.Contains(t, fresh, int64(1))
	assert.Equal(t, 1, fresh[1].Stock)
	assert.NotContains(t, fresh, int64(2))

	// Cache converged with the source.
	p, ok := store.Product(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.Stock)
	_, ok = store.Product(2)
	assert.False(t, ok)
}
