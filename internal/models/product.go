package models

import (
	"regexp"
	"strings"
	"time"

	"luxe/internal/idgen"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is the fixed product category enumeration.
type Category string

const (
	CategoryMen         Category = "Men"
	CategoryWomen       Category = "Women"
	CategoryKids        Category = "Kids"
	CategoryAccessories Category = "Accessories"
)

// Categories lists every valid category.
var Categories = []Category{CategoryMen, CategoryWomen, CategoryKids, CategoryAccessories}

// AllowedSizes is the size enumeration a product may offer.
var AllowedSizes = []string{"XS", "S", "M", "L", "XL", "XXL", "28", "30", "32", "34", "36", "38", "40", "Free Size"}

// IsAllowedSize reports whether size belongs to AllowedSizes.
func IsAllowedSize(size string) bool {
	for _, s := range AllowedSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Product represents a catalog item.
type Product struct {
	ID            string              `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name          string              `json:"name" gorm:"type:varchar(100);not null" bson:"name"`
	Slug          string              `json:"slug" gorm:"uniqueIndex;type:varchar(160)" bson:"slug"`
	Description   string              `json:"description" gorm:"type:text" bson:"description"`
	Price         decimal.Decimal     `json:"price" gorm:"type:numeric(12,2);not null" bson:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice" gorm:"type:numeric(12,2)" bson:"originalPrice"`
	Category      Category            `json:"category" gorm:"type:varchar(20);index" bson:"category"`
	Image         string              `json:"image" bson:"image"`
	Images        []string            `json:"images" gorm:"serializer:json" bson:"images"`
	Rating        float64             `json:"rating" bson:"rating"`
	Reviews       int                 `json:"reviews" bson:"reviews"`
	InStock       bool                `json:"inStock" gorm:"index" bson:"inStock"`
	StockQuantity int                 `json:"stockQuantity" bson:"stockQuantity"`
	Sizes         []string            `json:"sizes" gorm:"serializer:json" bson:"sizes"`
	Colors        []string            `json:"colors" gorm:"serializer:json" bson:"colors"`
	Discount      int                 `json:"discount" bson:"discount"`
	Featured      bool                `json:"featured" gorm:"index" bson:"featured"`
	CreatedAt     time.Time           `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Normalize recomputes the derived fields. It runs before every write so
// that inStock and discount are never taken from caller input.
func (p *Product) Normalize() {
	p.InStock = p.StockQuantity > 0
	p.Discount = 0
	if p.OriginalPrice.Valid && p.OriginalPrice.Decimal.IsPositive() && p.Price.LessThan(p.OriginalPrice.Decimal) {
		orig := p.OriginalPrice.Decimal
		p.Discount = int(orig.Sub(p.Price).Div(orig).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// AssignSlug derives a unique slug from the product name.
func (p *Product) AssignSlug() {
	base := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(p.Name), "-"), "-")
	p.Slug = base + "-" + idgen.Base36Millis(time.Now()) + idgen.RandomBase36(4)
}

// BeforeCreate assigns the id and slug.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Slug == "" {
		p.AssignSlug()
	}
	return nil
}

// BeforeSave keeps the derived fields consistent on create and update.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Normalize()
	return nil
}
