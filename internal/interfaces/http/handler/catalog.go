package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoodsService is the goods use case set
type GoodsService interface {
	Create(ctx context.Context, req catalog.CreateGoodsRequest) (*catalog.GoodsResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error)
	List(ctx context.Context, filter catalog.GoodsListFilter) ([]catalog.GoodsListResponse, int64, error)
	ListVisible(ctx context.Context, siteCode string, filter catalog.GoodsListFilter) ([]catalog.GoodsListResponse, int64, error)
	GetVisible(ctx context.Context, siteCode, idOrSlug string) (*catalog.GoodsResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalog.UpdateGoodsRequest) (*catalog.GoodsResponse, error)
	Publish(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error)
	SetVisibility(ctx context.Context, id uuid.UUID, req catalog.SetVisibilityRequest) (*catalog.GoodsResponse, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req catalog.AdjustStockRequest) (*catalog.GoodsResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryService is the category use case set
type CategoryService interface {
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (*catalog.CategoryResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.CategoryResponse, error)
	Tree(ctx context.Context, activeOnly bool) ([]*catalog.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalog.UpdateCategoryRequest) (*catalog.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageService is the goods image use case set
type ImageService interface {
	Upload(ctx context.Context, goodsID uuid.UUID, req catalog.UploadImageRequest) (*catalog.ImageResponse, error)
	AddByURL(ctx context.Context, goodsID uuid.UUID, req catalog.AddImageURLRequest) (*catalog.ImageResponse, error)
	PresignUpload(ctx context.Context, goodsID uuid.UUID, req catalog.PresignImageRequest) (*catalog.PresignImageResponse, error)
	ConfirmUpload(ctx context.Context, goodsID uuid.UUID, req catalog.ConfirmImageRequest) (*catalog.ImageResponse, error)
	Remove(ctx context.Context, goodsID, imageID uuid.UUID) error
}

// CatalogHandler serves the storefront catalog and its admin endpoints
type CatalogHandler struct {
	BaseHandler
	goods          GoodsService
	categories     CategoryService
	images         ImageService
	maxUploadBytes int64
}

// NewCatalogHandler creates a new CatalogHandler. maxUploadBytes caps
// multipart image uploads.
func NewCatalogHandler(goods GoodsService, categories CategoryService, images ImageService, maxUploadBytes int64, logger *zap.Logger) *CatalogHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = catalog.DefaultImageServiceConfig().MaxImageSize
	}
	return &CatalogHandler{
		BaseHandler:    BaseHandler{logger: logger},
		goods:          goods,
		categories:     categories,
		images:         images,
		maxUploadBytes: maxUploadBytes,
	}
}

// ListGoods godoc
// @ID           listGoods
// @Summary      Browse goods
// @Description  On-sale goods visible on the current site
// @Tags         catalog
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        search query string false "Name search"
// @Param        category_id query string false "Category" format(uuid)
// @Param        min_price query string false "Minimum price"
// @Param        max_price query string false "Maximum price"
// @Param        order_by query string false "created_at, price, sales or name"
// @Param        order_dir query string false "asc or desc"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]catalog.GoodsListResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /goods [get]
func (h *CatalogHandler) ListGoods(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var filter catalog.GoodsListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.goods.ListVisible(c.Request.Context(), st.Code, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// GetGoods godoc
// @ID           getGoods
// @Summary      Goods detail
// @Tags         catalog
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Param        id path string true "Goods ID or slug"
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /goods/{id} [get]
func (h *CatalogHandler) GetGoods(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	resp, err := h.goods.GetVisible(c.Request.Context(), st.Code, c.Param("id"))
	reply(&h.BaseHandler, c, resp, err)
}

// CategoryTree godoc
// @ID           listCategories
// @Summary      Active category tree
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalog.CategoryResponse]
// @Router       /categories [get]
func (h *CatalogHandler) CategoryTree(c *gin.Context) {
	tree, err := h.categories.Tree(c.Request.Context(), true)
	reply(&h.BaseHandler, c, tree, err)
}

// AdminListGoods godoc
// @ID           adminListGoods
// @Summary      List all goods
// @Tags         admin-catalog
// @Produce      json
// @Param        search query string false "Name or SKU"
// @Param        status query string false "draft, on_sale or off_sale"
// @Param        category_id query string false "Category" format(uuid)
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]catalog.GoodsListResponse]
// @Security     BearerAuth
// @Router       /admin/goods [get]
func (h *CatalogHandler) AdminListGoods(c *gin.Context) {
	var filter catalog.GoodsListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.goods.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// CreateGoods godoc
// @ID           adminCreateGoods
// @Summary      Create goods
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateGoodsRequest true "Goods"
// @Success      201 {object} APIResponse[catalog.GoodsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods [post]
func (h *CatalogHandler) CreateGoods(c *gin.Context) {
	var req catalog.CreateGoodsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.goods.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AdminGetGoods godoc
// @ID           adminGetGoods
// @Summary      Get goods regardless of status
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id} [get]
func (h *CatalogHandler) AdminGetGoods(c *gin.Context) {
	withID(&h.BaseHandler, c, h.goods.GetByID)
}

// UpdateGoods godoc
// @ID           adminUpdateGoods
// @Summary      Update goods
// @Description  Requires the current version for optimistic locking
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.UpdateGoodsRequest true "Changes"
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id} [put]
func (h *CatalogHandler) UpdateGoods(c *gin.Context) {
	var req catalog.UpdateGoodsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
		return h.goods.Update(ctx, id, req)
	})
}

// PublishGoods godoc
// @ID           adminPublishGoods
// @Summary      Put goods on sale
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id}/publish [post]
func (h *CatalogHandler) PublishGoods(c *gin.Context) {
	withID(&h.BaseHandler, c, h.goods.Publish)
}

// UnpublishGoods godoc
// @ID           adminUnpublishGoods
// @Summary      Take goods off sale
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Security     BearerAuth
// @Router       /admin/goods/{id}/unpublish [post]
func (h *CatalogHandler) UnpublishGoods(c *gin.Context) {
	withID(&h.BaseHandler, c, h.goods.Unpublish)
}

// SetVisibility godoc
// @ID           adminSetGoodsVisibility
// @Summary      Choose the sites that list the goods
// @Description  An empty list makes the goods visible on every site
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.SetVisibilityRequest true "Site codes"
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Security     BearerAuth
// @Router       /admin/goods/{id}/visibility [put]
func (h *CatalogHandler) SetVisibility(c *gin.Context) {
	var req catalog.SetVisibilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
		return h.goods.SetVisibility(ctx, id, req)
	})
}

// AdjustStock godoc
// @ID           adminAdjustGoodsStock
// @Summary      Adjust stock by a signed delta
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.AdjustStockRequest true "Delta"
// @Success      200 {object} APIResponse[catalog.GoodsResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id}/stock [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	var req catalog.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*catalog.GoodsResponse, error) {
		return h.goods.AdjustStock(ctx, id, req)
	})
}

// DeleteGoods godoc
// @ID           adminDeleteGoods
// @Summary      Delete goods
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Success      200 {object} APIResponse[MessageData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id} [delete]
func (h *CatalogHandler) DeleteGoods(c *gin.Context) {
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*MessageData, error) {
		if err := h.goods.Delete(ctx, id); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Goods deleted"}, nil
	})
}

// UploadImage godoc
// @ID           adminUploadGoodsImage
// @Summary      Upload a goods image
// @Tags         admin-catalog
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        file formData file true "Image"
// @Param        primary formData bool false "Make it the primary image"
// @Success      201 {object} APIResponse[catalog.ImageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id}/images [post]
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	goodsID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file")
		return
	}
	if fh.Size > h.maxUploadBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Image too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Image too large")
		return
	}
	primary, _ := strconv.ParseBool(c.PostForm("primary"))

	img, err := h.images.Upload(c.Request.Context(), goodsID, catalog.UploadImageRequest{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		Primary:     primary,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, img)
}

// AddImageURL godoc
// @ID           adminAddGoodsImageURL
// @Summary      Attach an external image URL
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.AddImageURLRequest true "Image"
// @Success      201 {object} APIResponse[catalog.ImageResponse]
// @Security     BearerAuth
// @Router       /admin/goods/{id}/images/url [post]
func (h *CatalogHandler) AddImageURL(c *gin.Context) {
	var req catalog.AddImageURLRequest
	if !h.bindJSON(c, &req) {
		return
	}
	goodsID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	img, err := h.images.AddByURL(c.Request.Context(), goodsID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, img)
}

// PresignImage godoc
// @ID           adminPresignGoodsImage
// @Summary      Get a presigned upload URL
// @Description  Only available with S3 storage
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.PresignImageRequest true "Upload"
// @Success      200 {object} APIResponse[catalog.PresignImageResponse]
// @Security     BearerAuth
// @Router       /admin/goods/{id}/images/presign [post]
func (h *CatalogHandler) PresignImage(c *gin.Context) {
	var req catalog.PresignImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*catalog.PresignImageResponse, error) {
		return h.images.PresignUpload(ctx, id, req)
	})
}

// ConfirmImage godoc
// @ID           adminConfirmGoodsImage
// @Summary      Attach a presigned upload
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body catalog.ConfirmImageRequest true "Uploaded key"
// @Success      201 {object} APIResponse[catalog.ImageResponse]
// @Security     BearerAuth
// @Router       /admin/goods/{id}/images/confirm [post]
func (h *CatalogHandler) ConfirmImage(c *gin.Context) {
	var req catalog.ConfirmImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	goodsID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	img, err := h.images.ConfirmUpload(c.Request.Context(), goodsID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, img)
}

// RemoveImage godoc
// @ID           adminRemoveGoodsImage
// @Summary      Remove a goods image
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        image_id path string true "Image ID" format(uuid)
// @Success      200 {object} APIResponse[MessageData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/goods/{id}/images/{image_id} [delete]
func (h *CatalogHandler) RemoveImage(c *gin.Context) {
	imageID, ok := h.pathUUID(c, "image_id")
	if !ok {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*MessageData, error) {
		if err := h.images.Remove(ctx, id, imageID); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Image removed"}, nil
	})
}

// AdminCategoryTree godoc
// @ID           adminListCategories
// @Summary      Full category tree
// @Tags         admin-catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalog.CategoryResponse]
// @Security     BearerAuth
// @Router       /admin/categories [get]
func (h *CatalogHandler) AdminCategoryTree(c *gin.Context) {
	tree, err := h.categories.Tree(c.Request.Context(), false)
	reply(&h.BaseHandler, c, tree, err)
}

// CreateCategory godoc
// @ID           adminCreateCategory
// @Summary      Create a category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateCategoryRequest true "Category"
// @Success      201 {object} APIResponse[catalog.CategoryResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req catalog.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetCategory godoc
// @ID           adminGetCategory
// @Summary      Get a category
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.CategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	withID(&h.BaseHandler, c, h.categories.GetByID)
}

// UpdateCategory godoc
// @ID           adminUpdateCategory
// @Summary      Update a category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Param        request body catalog.UpdateCategoryRequest true "Changes"
// @Success      200 {object} APIResponse[catalog.CategoryResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req catalog.UpdateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*catalog.CategoryResponse, error) {
		return h.categories.Update(ctx, id, req)
	})
}

// DeleteCategory godoc
// @ID           adminDeleteCategory
// @Summary      Delete an empty category
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Success      200 {object} APIResponse[MessageData]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*MessageData, error) {
		if err := h.categories.Delete(ctx, id); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Category deleted"}, nil
	})
}
