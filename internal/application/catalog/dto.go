package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// CreateProductInput is the payload of POST /product/create
type CreateProductInput struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
}

// ListProductsInput pages through products, newest first unless Sort says otherwise
type ListProductsInput struct {
	UserID   *uint  `form:"user_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Sort     string `form:"sort"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (in ListProductsInput) normalized() ListProductsInput {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize < 1 {
		in.PageSize = defaultPageSize
	}
	if in.PageSize > maxPageSize {
		in.PageSize = maxPageSize
	}
	return in
}

type ProductPage struct {
	Items    []*models.Product `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// AttachImageInput names the file about to be uploaded
type AttachImageInput struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Title       string `json:"title" binding:"max=255"`
}

// ImageUpload is an image row plus the URL its bytes must be uploaded to
type ImageUpload struct {
	Image  *models.Image `json:"image"`
	Upload *PresignedURL `json:"upload"`
}

// ImageView is an image row plus a download URL
type ImageView struct {
	Image    *models.Image `json:"image"`
	Download *PresignedURL `json:"download"`
}
