package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

var productSorts = map[string]string{
	SortNewest:    "created_at DESC",
	SortPriceLow:  "price ASC",
	SortPriceHigh: "price DESC",
	SortRating:    "rating DESC",
	SortPopular:   "reviews DESC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercase LIKE pattern matching term literally.
// Queries using it must declare ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *GORMProductRepository) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" && f.Category != "All" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.Search != "" {
		like := containsPattern(f.Search)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	if f.Featured {
		q = q.Where("featured = ?", true)
	}
	if f.InStockOnly {
		q = q.Where("in_stock = ?", true)
	}
	return q
}

// List returns one page of products matching the filter and the total count.
func (r *GORMProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := productSorts[f.SortBy]
	if !ok {
		order = productSorts[SortNewest]
	}
	q := r.filtered(ctx, f).Order(order).Offset(f.Offset())
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database. Callers load the
// product first; Save upserts on a missing row.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Product not found: %s", id)
	}
	return nil
}

// Categories returns the distinct categories currently in the catalog.
func (r *GORMProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Distinct("category").Order("category").Pluck("category", &categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// SearchAny matches any keyword against name, description, category and colors.
func (r *GORMProductRepository) SearchAny(ctx context.Context, keywords []string, limit int) ([]models.Product, error) {
	if len(keywords) == 0 {
		return r.Top(ctx, limit)
	}

	clauses := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, len(keywords)*4)
	for _, kw := range keywords {
		like := containsPattern(kw)
		clauses = append(clauses, `LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(colors) LIKE ? ESCAPE '\'`)
		args = append(args, like, like, like, like)
	}

	var products []models.Product
	q := r.db.WithContext(ctx).Where("("+strings.Join(clauses, " OR ")+")", args...).Limit(limit)
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Top returns up to limit products, newest first.
func (r *GORMProductRepository) Top(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// DecrementStock performs a conditional decrement in a single statement so
// two concurrent checkouts cannot both take the last units.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND in_stock = ? AND stock_quantity >= ?", id, true, qty).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"in_stock":       gorm.Expr("stock_quantity - ? > 0", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.InsufficientStock("Insufficient stock for product: %s", id)
	}
	return nil
}

// IncrementStock returns qty units to the product.
func (r *GORMProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"in_stock":       gorm.Expr("stock_quantity + ? > 0", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Product not found: %s", id)
	}
	return nil
}
