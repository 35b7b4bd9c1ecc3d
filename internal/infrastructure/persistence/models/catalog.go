package models

import (
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"github.com/shopspring/decimal"
)

// Entity names used by the registry
const (
	EntityProduct = "Product"
	EntityImage   = "Image"
)

// Product is a sellable item owned by a user
type Product struct {
	BaseModel
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	UserID      *uint           `gorm:"index" json:"user_id,omitempty"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductDescriptor describes the products table
func ProductDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityProduct,
		Table: "products",
		Fields: []schema.Field{
			{Name: "title", Type: schema.String, Rules: []schema.Rule{
				schema.Required("product:title-error-required"),
				schema.Length(1, 255, "product:title-error-length"),
			}},
			{Name: "description", Type: schema.Text, Rules: []schema.Rule{
				schema.Required("product:description-error-required"),
			}},
			{Name: "price", Type: schema.Decimal, Rules: []schema.Rule{
				schema.Required("product:price-error-required"),
				schema.Min(0, "product:price-error-negative"),
			}},
			{Name: "stock", Type: schema.Integer, Default: 0, Rules: []schema.Rule{
				schema.Min(0, "product:stock-error-negative"),
			}},
			{Name: "user_id", Type: schema.Integer, Nullable: true},
		},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			return []schema.Association{
				schema.BelongsTo(EntityUser, "user_id", schema.OnDelete(schema.Cascade)),
			}, nil
		},
	}
}

// Image is a stored picture of a product; Path is an object storage key
type Image struct {
	BaseModel
	Path      string `gorm:"type:varchar(1024);not null" json:"path"`
	Title     string `gorm:"type:varchar(255)" json:"title"`
	ProductID *uint  `gorm:"index" json:"product_id,omitempty"`
}

// TableName returns the table name for GORM
func (Image) TableName() string {
	return "images"
}

// ImageDescriptor describes the images table
func ImageDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityImage,
		Table: "images",
		Fields: []schema.Field{
			{Name: "path", Type: schema.String, Rules: []schema.Rule{
				schema.Required("image:path-error-required"),
			}},
			{Name: "title", Type: schema.String, Nullable: true},
			{Name: "product_id", Type: schema.Integer, Nullable: true},
		},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			return []schema.Association{
				schema.BelongsTo(EntityProduct, "product_id", schema.OnDelete(schema.Cascade)),
			}, nil
		},
	}
}
