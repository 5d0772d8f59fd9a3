package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
)

func TestCreateProduct_Success(t *testing.T) {
	sut := NewCatalogService(newMockProductRepo())

	product, err := sut.CreateProduct(context.Background(), CreateProductInput{
		Name:  "  Kopi Arabika  ",
		Slug:  "Kopi-Arabika",
		Price: 50000,
		Stock: 10,
	})
	require.NoError(t, err)
	assert.False(t, product.ID.IsZero())
	assert.Equal(t, "Kopi Arabika", product.Name)
	assert.Equal(t, "kopi-arabika", product.Slug)
	assert.True(t, product.IsActive)
}

func TestCreateProduct_MissingFields(t *testing.T) {
	sut := NewCatalogService(newMockProductRepo())

	_, err := sut.CreateProduct(context.Background(), CreateProductInput{Name: "X"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	existing := &domain.Product{ID: primitive.NewObjectID(), Name: "A", Slug: "sama", Price: 1000, IsActive: true}
	sut := NewCatalogService(newMockProductRepo(existing))

	_, err := sut.CreateProduct(context.Background(), CreateProductInput{Name: "B", Slug: "sama", Price: 2000})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUpdateProduct_PartialEdit(t *testing.T) {
	existing := &domain.Product{ID: primitive.NewObjectID(), Name: "Lama", Slug: "lama", Price: 1000, Stock: 5, IsActive: true}
	repo := newMockProductRepo(existing)
	sut := NewCatalogService(repo)

	newPrice := int64(2500)
	inactive := false
	updated, err := sut.UpdateProduct(context.Background(), existing.ID.Hex(), UpdateProductInput{
		Price:    &newPrice,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.Price)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Lama", updated.Name)
	assert.Equal(t, int64(5), updated.Stock)
}

func TestUpdateProduct_NegativeStockRejected(t *testing.T) {
	existing := &domain.Product{ID: primitive.NewObjectID(), Name: "X", Slug: "x", Price: 1000, Stock: 5, IsActive: true}
	sut := NewCatalogService(newMockProductRepo(existing))

	bad := int64(-1)
	_, err := sut.UpdateProduct(context.Background(), existing.ID.Hex(), UpdateProductInput{Stock: &bad})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUpdateProduct_UnknownID(t *testing.T) {
	sut := NewCatalogService(newMockProductRepo())

	_, err := sut.UpdateProduct(context.Background(), primitive.NewObjectID().Hex(), UpdateProductInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetBySlug_NormalizesInput(t *testing.T) {
	existing := &domain.Product{ID: primitive.NewObjectID(), Name: "X", Slug: "kopi", Price: 1000, IsActive: true}
	sut := NewCatalogService(newMockProductRepo(existing))

	product, err := sut.GetBySlug(context.Background(), "  KOPI ")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, product.ID)
}

func TestGetBySlug_NotFound(t *testing.T) {
	sut := NewCatalogService(newMockProductRepo())

	_, err := sut.GetBySlug(context.Background(), "tidak-ada")
	require.ErrorIs(t, err, ErrNotFound)
}
