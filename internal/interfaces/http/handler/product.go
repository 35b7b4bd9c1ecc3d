package handler

import (
	"github.com/ecommerce/backend/internal/application/catalog"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves products and their images
type ProductHandler struct {
	BaseHandler
	products *catalog.ProductService
	images   *catalog.ImageService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *catalog.ProductService, images *catalog.ImageService) *ProductHandler {
	return &ProductHandler{products: products, images: images}
}

// Create godoc
// @Summary      Create a product owned by the caller
// @Tags         product
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalog.CreateProductInput true "Product"
// @Param        Idempotency-Key header string false "Replay guard for retried requests"
// @Success      201 {object} APIResponse[models.Product]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /product/create [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var in catalog.CreateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.Create(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get godoc
// @Summary      Get a product
// @Tags         product
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} APIResponse[models.Product]
// @Failure      404 {object} ErrorResponse
// @Router       /product/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List godoc
// @Summary      List products, newest first
// @Tags         product
// @Produce      json
// @Param        user_id   query int false "Owner filter"
// @Param        page      query int false "Page (1-based)"
// @Param        page_size query int false "Page size (max 100)"
// @Param        sort      query string false "Sort column" Enums(id, created_at, updated_at, title, price, stock)
// @Param        order     query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]models.Product]
// @Failure      400 {object} ErrorResponse
// @Router       /product [get]
func (h *ProductHandler) List(c *gin.Context) {
	var in catalog.ListProductsInput
	if err := c.ShouldBindQuery(&in); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.products.List(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// AttachImage godoc
// @Summary      Register an image and get its upload URL
// @Tags         product
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "Product ID"
// @Param        request body catalog.AttachImageInput true "Image"
// @Param        Idempotency-Key header string false "Replay guard for retried requests"
// @Success      201 {object} APIResponse[catalog.ImageUpload]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /product/{id}/images [post]
func (h *ProductHandler) AttachImage(c *gin.Context) {
	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}
	var in catalog.AttachImageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	upload, err := h.images.Attach(c.Request.Context(), middleware.GetUserID(c), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, upload)
}

// ListImages godoc
// @Summary      List a product's images with download URLs
// @Tags         product
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} APIResponse[[]catalog.ImageView]
// @Router       /product/{id}/images [get]
func (h *ProductHandler) ListImages(c *gin.Context) {
	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}
	views, err := h.images.List(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// RemoveImage godoc
// @Summary      Delete an image
// @Tags         product
// @Produce      json
// @Security     BearerAuth
// @Param        id       path int true "Product ID"
// @Param        image_id path int true "Image ID"
// @Success      200 {object} APIResponse[map[string]bool]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /product/{id}/images/{image_id} [delete]
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.uintParam(c, "image_id")
	if !ok {
		return
	}
	if err := h.images.Remove(c.Request.Context(), middleware.GetUserID(c), id, imageID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": true})
}
