package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// storefrontPageSize caps the public product listing.
const storefrontPageSize = 12

type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) ListActive(ctx context.Context) ([]*domain.Product, error) {
	return s.products.ListActive(ctx, storefrontPageSize)
}

func (s *CatalogService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return s.products.ListAll(ctx)
}

func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// CreateProductInput carries the administrative create form.
type CreateProductInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	ImageURL    string `json:"image_url"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))

	if name == "" || slug == "" || input.Price <= 0 {
		return nil, validationError("name, slug and price are required")
	}
	if input.Stock < 0 {
		return nil, validationError("stock cannot be negative")
	}

	product := &domain.Product{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		IsActive:    true,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, validationError("slug already in use")
		}
		return nil, err
	}

	return product, nil
}

// UpdateProductInput is the administrative edit form; nil fields are
// left unchanged.
type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	Stock       *int64  `json:"stock"`
	ImageURL    *string `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, input UpdateProductInput) (*domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrNotFound
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, validationError("price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, validationError("stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return product, nil
}
