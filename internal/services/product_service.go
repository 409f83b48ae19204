package services

import (
	"context"
	"log"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"

	"github.com/shopspring/decimal"
)

// ProductInput is the admin payload for creating a product.
type ProductInput struct {
	Name          string              `json:"name" validate:"required,min=2,max=100"`
	Description   string              `json:"description" validate:"required,max=2000"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Category      models.Category     `json:"category" validate:"required,oneof=Men Women Kids Accessories"`
	Image         string              `json:"image" validate:"required"`
	Images        []string            `json:"images"`
	Rating        float64             `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int                 `json:"reviews" validate:"gte=0"`
	StockQuantity int                 `json:"stockQuantity" validate:"gte=0"`
	Sizes         []string            `json:"sizes" validate:"dive,productsize"`
	Colors        []string            `json:"colors"`
	Featured      bool                `json:"featured"`
}

// ProductPatch is the admin payload for editing a product. Nil fields are
// left unchanged.
type ProductPatch struct {
	Name          *string              `json:"name" validate:"omitempty,min=2,max=100"`
	Description   *string              `json:"description" validate:"omitempty,max=2000"`
	Price         *decimal.Decimal     `json:"price"`
	OriginalPrice *decimal.NullDecimal `json:"originalPrice"`
	Category      *models.Category     `json:"category" validate:"omitempty,oneof=Men Women Kids Accessories"`
	Image         *string              `json:"image"`
	Images        []string             `json:"images"`
	Rating        *float64             `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Reviews       *int                 `json:"reviews" validate:"omitempty,gte=0"`
	StockQuantity *int                 `json:"stockQuantity" validate:"omitempty,gte=0"`
	Sizes         []string             `json:"sizes" validate:"omitempty,dive,productsize"`
	Colors        []string             `json:"colors"`
	Featured      *bool                `json:"featured"`
}

// ProductQuery is a public catalog listing request.
type ProductQuery struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Featured bool
	Sort     string
	Page     int
	Limit    int
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

func checkPrices(price decimal.Decimal, original decimal.NullDecimal) error {
	if price.IsNegative() {
		return apperror.Validation("Price cannot be negative")
	}
	if original.Valid && original.Decimal.IsNegative() {
		return apperror.Validation("Original price cannot be negative")
	}
	return nil
}

// ListProducts returns the in-stock catalog page matching q.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, Pagination, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, Pagination{}, apperror.Validation("minPrice cannot exceed maxPrice")
	}
	page, limit := normalizePage(q.Page, q.Limit, 50)
	products, total, err := s.repo.List(ctx, repositories.ProductFilter{
		Category:    q.Category,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		Search:      q.Search,
		Featured:    q.Featured,
		InStockOnly: true,
		SortBy:      q.Sort,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	return products, newPagination(total, page, limit), nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Categories lists the categories present in the catalog.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// CreateProduct creates a new product. Derived fields are recomputed on save.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := checkPrices(in.Price, in.OriginalPrice); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Category:      in.Category,
		Image:         in.Image,
		Images:        in.Images,
		Rating:        in.Rating,
		Reviews:       in.Reviews,
		StockQuantity: in.StockQuantity,
		Sizes:         in.Sizes,
		Colors:        in.Colors,
		Featured:      in.Featured,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	log.Printf("Product %s created (%s)", product.Name, product.ID)
	return product, nil
}

// UpdateProduct applies patch to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		product.OriginalPrice = *patch.OriginalPrice
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Image != nil {
		product.Image = *patch.Image
	}
	if patch.Images != nil {
		product.Images = patch.Images
	}
	if patch.Rating != nil {
		product.Rating = *patch.Rating
	}
	if patch.Reviews != nil {
		product.Reviews = *patch.Reviews
	}
	if patch.StockQuantity != nil {
		product.StockQuantity = *patch.StockQuantity
	}
	if patch.Sizes != nil {
		product.Sizes = patch.Sizes
	}
	if patch.Colors != nil {
		product.Colors = patch.Colors
	}
	if patch.Featured != nil {
		product.Featured = *patch.Featured
	}

	if err := checkPrices(product.Price, product.OriginalPrice); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("Product %s deleted", id)
	return nil
}
