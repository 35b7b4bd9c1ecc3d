package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// ProductService handles product-related business operations
type ProductService struct {
	store  *persistence.Store
	logger *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store *persistence.Store, logger *zap.Logger) *ProductService {
	return &ProductService{store: store, logger: logger}
}

// Create stores a product owned by actorID
func (s *ProductService) Create(ctx context.Context, actorID uint, in CreateProductInput) (*models.Product, error) {
	values := shared.Values{
		"title":       in.Title,
		"description": in.Description,
		"price":       in.Price,
		"stock":       in.Stock,
	}
	if actorID != 0 {
		values["user_id"] = actorID
	}

	product, err := s.store.Products.Create(ctx, values, gateway.As(actorID))
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.Uint("user_id", actorID))
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Product %d not found", id))
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, in ListProductsInput) (*ProductPage, error) {
	in = in.normalized()

	var filters []gateway.Option
	if in.UserID != nil {
		filters = append(filters, gateway.Where(shared.Values{"user_id": *in.UserID}))
	}

	total, err := s.store.Products.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Products.FindAll(ctx, append(filters,
		gateway.OrderBy(persistence.OrderClause(in.Sort, in.Order, persistence.ProductSortFields, "id")),
		gateway.Limit(in.PageSize),
		gateway.Offset((in.Page-1)*in.PageSize),
	)...)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}
