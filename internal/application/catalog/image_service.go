package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// ImageService records product images and brokers direct uploads to object storage
type ImageService struct {
	store   *persistence.Store
	storage ObjectStorage
	logger  *zap.Logger
	newKey  func() string
}

// NewImageService creates a new image service
func NewImageService(store *persistence.Store, storage ObjectStorage, logger *zap.Logger) *ImageService {
	return &ImageService{
		store:   store,
		storage: storage,
		logger:  logger,
		newKey:  func() string { return uuid.NewString() },
	}
}

// authorizeOwner fails with UNAUTHORIZED unless actorID owns the product
func authorizeOwner(product *models.Product, actorID uint) error {
	if actorID == 0 || product.UserID == nil || *product.UserID != actorID {
		return shared.NewUnauthorizedError("Only the product owner can change its images")
	}
	return nil
}

// ImageKey builds the storage key of an image: products/<id>/<random><ext>
func ImageKey(productID uint, id, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return fmt.Sprintf("products/%d/%s%s", productID, id, ext)
}

// Attach creates the Image row and returns a presigned upload URL for it.
// Only the product owner may attach. The row is rolled back when presigning fails.
func (s *ImageService) Attach(ctx context.Context, actorID, productID uint, in AttachImageInput) (*ImageUpload, error) {
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, shared.NewValidationError("content_type", "image:content-type-error-invalid")
	}

	var out *ImageUpload
	err := s.store.Transaction(ctx, func(tx *persistence.Store) error {
		product, err := tx.Products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return shared.NewNotFoundError(fmt.Sprintf("Product %d not found", productID))
		}
		if err := authorizeOwner(product, actorID); err != nil {
			return err
		}

		key := ImageKey(productID, s.newKey(), in.FileName)
		values := shared.Values{"path": key, "product_id": productID}
		if in.Title != "" {
			values["title"] = in.Title
		}
		image, err := tx.Images.Create(ctx, values)
		if err != nil {
			return err
		}

		upload, err := s.storage.PresignUpload(ctx, key, in.ContentType, 0)
		if err != nil {
			return fmt.Errorf("presign image upload: %w", err)
		}
		out = &ImageUpload{Image: image, Upload: upload}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("image attached",
		zap.Uint("product_id", productID),
		zap.Uint("user_id", actorID),
		zap.Uint("image_id", out.Image.ID),
		zap.String("path", out.Image.Path))
	return out, nil
}

// List returns the images of a product with download URLs
func (s *ImageService) List(ctx context.Context, productID uint) ([]ImageView, error) {
	images, err := s.store.Images.FindAll(ctx,
		gateway.Where(shared.Values{"product_id": productID}),
		gateway.OrderBy("id asc"))
	if err != nil {
		return nil, err
	}
	views := make([]ImageView, 0, len(images))
	for _, image := range images {
		download, err := s.storage.PresignDownload(ctx, image.Path, 0)
		if err != nil {
			return nil, fmt.Errorf("presign image download: %w", err)
		}
		views = append(views, ImageView{Image: image, Download: download})
	}
	return views, nil
}

// Remove destroys the image row, then deletes the object. A storage failure
// is logged; the row is already gone.
func (s *ImageService) Remove(ctx context.Context, actorID, productID, imageID uint) error {
	product, err := s.store.Products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return shared.NewNotFoundError(fmt.Sprintf("Product %d not found", productID))
	}
	if err := authorizeOwner(product, actorID); err != nil {
		return err
	}

	image, err := s.store.Images.FindOne(ctx, gateway.Where(shared.Values{"id": imageID, "product_id": productID}))
	if err != nil {
		return err
	}
	if image == nil {
		return shared.NewNotFoundError(fmt.Sprintf("Image %d not found", imageID))
	}
	if _, err := s.store.Images.DestroyByID(ctx, image.ID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, image.Path); err != nil {
		s.logger.Warn("failed to delete image object",
			zap.String("path", image.Path),
			zap.Error(err))
	}
	return nil
}
