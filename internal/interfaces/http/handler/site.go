package handler

import (
	"context"

	siteapp "github.com/Marusmurong/mall-sub000/internal/application/site"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SiteService is the storefront management use case set
type SiteService interface {
	Create(ctx context.Context, req siteapp.CreateSiteRequest) (*siteapp.SiteResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error)
	List(ctx context.Context, filter siteapp.SiteListFilter) ([]siteapp.SiteResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req siteapp.UpdateSiteRequest) (*siteapp.SiteResponse, error)
	Activate(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error)
	SetFeatures(ctx context.Context, id uuid.UUID, req siteapp.SetFeaturesRequest) (*siteapp.SiteResponse, error)
	Public(ctx context.Context, st *site.Site, paymentMethods []string) (*siteapp.PublicSiteResponse, error)
	GetTheme(ctx context.Context, siteID uuid.UUID) (*siteapp.ThemeResponse, error)
	UpdateTheme(ctx context.Context, siteID uuid.UUID, req siteapp.UpdateThemeRequest) (*siteapp.ThemeResponse, error)
	ListConfig(ctx context.Context, siteID uuid.UUID) ([]siteapp.ConfigResponse, error)
	SetConfig(ctx context.Context, siteID uuid.UUID, key string, req siteapp.SetConfigRequest) (*siteapp.ConfigResponse, error)
	DeleteConfig(ctx context.Context, siteID uuid.UUID, key string) error
	ListSlides(ctx context.Context, siteID uuid.UUID, activeOnly bool) ([]siteapp.SlideResponse, error)
	CreateSlide(ctx context.Context, siteID uuid.UUID, req siteapp.SlideRequest) (*siteapp.SlideResponse, error)
	UpdateSlide(ctx context.Context, siteID, id uuid.UUID, req siteapp.SlideRequest) (*siteapp.SlideResponse, error)
	DeleteSlide(ctx context.Context, siteID, id uuid.UUID) error
}

// PaymentMethodLister reports the payment methods a site accepts
type PaymentMethodLister interface {
	Methods(st *site.Site) []string
}

// SiteHandler serves the public site profile and the admin site endpoints
type SiteHandler struct {
	BaseHandler
	siteService SiteService
	methods     PaymentMethodLister
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(siteService SiteService, methods PaymentMethodLister, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{BaseHandler: BaseHandler{logger: logger}, siteService: siteService, methods: methods}
}

// Current godoc
// @ID           getCurrentSite
// @Summary      Current storefront
// @Description  Name, theme, feature flags and accepted payment methods of the resolved site
// @Tags         site
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[siteapp.PublicSiteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /site [get]
func (h *SiteHandler) Current(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	resp, err := h.siteService.Public(c.Request.Context(), st, h.methods.Methods(st))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Slides godoc
// @ID           listSiteSlides
// @Summary      Active carousel slides
// @Tags         site
// @Produce      json
// @Param        X-Site-Code header string false "Site code"
// @Success      200 {object} APIResponse[[]siteapp.SlideResponse]
// @Router       /site/slides [get]
func (h *SiteHandler) Slides(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	slides, err := h.siteService.ListSlides(c.Request.Context(), st.ID, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slides)
}

// List godoc
// @ID           adminListSites
// @Summary      List sites
// @Tags         admin-sites
// @Produce      json
// @Param        search query string false "Code or name"
// @Param        status query string false "active or inactive"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]siteapp.SiteResponse]
// @Security     BearerAuth
// @Router       /admin/sites [get]
func (h *SiteHandler) List(c *gin.Context) {
	var filter siteapp.SiteListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	sites, total, err := h.siteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sites, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           adminCreateSite
// @Summary      Register a site
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        request body siteapp.CreateSiteRequest true "Site"
// @Success      201 {object} APIResponse[siteapp.SiteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites [post]
func (h *SiteHandler) Create(c *gin.Context) {
	var req siteapp.CreateSiteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.siteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
// @ID           adminGetSite
// @Summary      Get a site
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[siteapp.SiteResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id} [get]
func (h *SiteHandler) Get(c *gin.Context) {
	withID(&h.BaseHandler, c, h.siteService.GetByID)
}

// Update godoc
// @ID           adminUpdateSite
// @Summary      Update a site
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body siteapp.UpdateSiteRequest true "Site"
// @Success      200 {object} APIResponse[siteapp.SiteResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id} [put]
func (h *SiteHandler) Update(c *gin.Context) {
	var req siteapp.UpdateSiteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error) {
		return h.siteService.Update(ctx, id, req)
	})
}

// Activate godoc
// @ID           adminActivateSite
// @Summary      Activate a site
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[siteapp.SiteResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/activate [post]
func (h *SiteHandler) Activate(c *gin.Context) {
	withID(&h.BaseHandler, c, h.siteService.Activate)
}

// Deactivate godoc
// @ID           adminDeactivateSite
// @Summary      Deactivate a site
// @Description  Inactive sites stop resolving; the default site cannot be deactivated
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[siteapp.SiteResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/deactivate [post]
func (h *SiteHandler) Deactivate(c *gin.Context) {
	withID(&h.BaseHandler, c, h.siteService.Deactivate)
}

// SetFeatures godoc
// @ID           adminSetSiteFeatures
// @Summary      Set feature flags
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body siteapp.SetFeaturesRequest true "Flags"
// @Success      200 {object} APIResponse[siteapp.SiteResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/features [put]
func (h *SiteHandler) SetFeatures(c *gin.Context) {
	var req siteapp.SetFeaturesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.SiteResponse, error) {
		return h.siteService.SetFeatures(ctx, id, req)
	})
}

// GetTheme godoc
// @ID           adminGetSiteTheme
// @Summary      Get a site theme
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[siteapp.ThemeResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/theme [get]
func (h *SiteHandler) GetTheme(c *gin.Context) {
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.ThemeResponse, error) {
		return h.siteService.GetTheme(ctx, id)
	})
}

// UpdateTheme godoc
// @ID           adminUpdateSiteTheme
// @Summary      Replace a site theme
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body siteapp.UpdateThemeRequest true "Theme"
// @Success      200 {object} APIResponse[siteapp.ThemeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/theme [put]
func (h *SiteHandler) UpdateTheme(c *gin.Context) {
	var req siteapp.UpdateThemeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.ThemeResponse, error) {
		return h.siteService.UpdateTheme(ctx, id, req)
	})
}

// ListConfig godoc
// @ID           adminListSiteConfig
// @Summary      List site settings
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[[]siteapp.ConfigResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/config [get]
func (h *SiteHandler) ListConfig(c *gin.Context) {
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) ([]siteapp.ConfigResponse, error) {
		return h.siteService.ListConfig(ctx, id)
	})
}

// SetConfig godoc
// @ID           adminSetSiteConfig
// @Summary      Upsert a site setting
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        key path string true "Setting key"
// @Param        request body siteapp.SetConfigRequest true "Value"
// @Success      200 {object} APIResponse[siteapp.ConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/config/{key} [put]
func (h *SiteHandler) SetConfig(c *gin.Context) {
	var req siteapp.SetConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}
	key := c.Param("key")
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.ConfigResponse, error) {
		return h.siteService.SetConfig(ctx, id, key, req)
	})
}

// DeleteConfig godoc
// @ID           adminDeleteSiteConfig
// @Summary      Delete a site setting
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        key path string true "Setting key"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/config/{key} [delete]
func (h *SiteHandler) DeleteConfig(c *gin.Context) {
	key := c.Param("key")
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*MessageData, error) {
		if err := h.siteService.DeleteConfig(ctx, id, key); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Setting deleted"}, nil
	})
}

// ListSlides godoc
// @ID           adminListSiteSlides
// @Summary      List every slide of a site
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} APIResponse[[]siteapp.SlideResponse]
// @Security     BearerAuth
// @Router       /admin/sites/{id}/slides [get]
func (h *SiteHandler) ListSlides(c *gin.Context) {
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) ([]siteapp.SlideResponse, error) {
		return h.siteService.ListSlides(ctx, id, false)
	})
}

// CreateSlide godoc
// @ID           adminCreateSiteSlide
// @Summary      Add a slide
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body siteapp.SlideRequest true "Slide"
// @Success      201 {object} APIResponse[siteapp.SlideResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/slides [post]
func (h *SiteHandler) CreateSlide(c *gin.Context) {
	var req siteapp.SlideRequest
	if !h.bindJSON(c, &req) {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	slide, err := h.siteService.CreateSlide(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, slide)
}

// UpdateSlide godoc
// @ID           adminUpdateSiteSlide
// @Summary      Replace a slide
// @Tags         admin-sites
// @Accept       json
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        slide_id path string true "Slide ID" format(uuid)
// @Param        request body siteapp.SlideRequest true "Slide"
// @Success      200 {object} APIResponse[siteapp.SlideResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/slides/{slide_id} [put]
func (h *SiteHandler) UpdateSlide(c *gin.Context) {
	var req siteapp.SlideRequest
	if !h.bindJSON(c, &req) {
		return
	}
	slideID, ok := h.pathUUID(c, "slide_id")
	if !ok {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*siteapp.SlideResponse, error) {
		return h.siteService.UpdateSlide(ctx, id, slideID, req)
	})
}

// DeleteSlide godoc
// @ID           adminDeleteSiteSlide
// @Summary      Delete a slide
// @Tags         admin-sites
// @Produce      json
// @Param        id path string true "Site ID" format(uuid)
// @Param        slide_id path string true "Slide ID" format(uuid)
// @Success      200 {object} APIResponse[MessageData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/sites/{id}/slides/{slide_id} [delete]
func (h *SiteHandler) DeleteSlide(c *gin.Context) {
	slideID, ok := h.pathUUID(c, "slide_id")
	if !ok {
		return
	}
	withID(&h.BaseHandler, c, func(ctx context.Context, id uuid.UUID) (*MessageData, error) {
		if err := h.siteService.DeleteSlide(ctx, id, slideID); err != nil {
			return nil, err
		}
		return &MessageData{Message: "Slide deleted"}, nil
	})
}
