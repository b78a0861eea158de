package handler

import (
	"context"

	"github.com/Marusmurong/mall-sub000/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService is the admin account management use case set
type UserService interface {
	List(ctx context.Context, siteID uuid.UUID, filter identity.UserListFilter) ([]identity.UserDTO, int64, error)
	GetByID(ctx context.Context, siteID, id uuid.UUID) (*identity.UserDTO, error)
	SetRole(ctx context.Context, siteID, id uuid.UUID, input identity.SetRoleInput) (*identity.UserDTO, error)
	Activate(ctx context.Context, siteID, id uuid.UUID) (*identity.UserDTO, error)
	Deactivate(ctx context.Context, siteID, id uuid.UUID) (*identity.UserDTO, error)
}

// UserHandler manages the accounts of the current site
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{BaseHandler: BaseHandler{logger: logger}, userService: userService}
}

// List godoc
// @ID           adminListUsers
// @Summary      List site users
// @Tags         admin-users
// @Produce      json
// @Param        search query string false "Email or name"
// @Param        role query string false "customer or admin"
// @Param        status query string false "active, locked or deactivated"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]identity.UserDTO]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	var filter identity.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), st.ID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           adminGetUser
// @Summary      Get a site user
// @Tags         admin-users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	withSiteAndID(&h.BaseHandler, c, "id", h.userService.GetByID)
}

// SetRole godoc
// @ID           adminSetUserRole
// @Summary      Change a user's role
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identity.SetRoleInput true "Role"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/role [put]
func (h *UserHandler) SetRole(c *gin.Context) {
	var req identity.SetRoleInput
	if !h.bindJSON(c, &req) {
		return
	}
	withSiteAndID(&h.BaseHandler, c, "id", func(ctx context.Context, siteID, id uuid.UUID) (*identity.UserDTO, error) {
		return h.userService.SetRole(ctx, siteID, id, req)
	})
}

// Activate godoc
// @ID           adminActivateUser
// @Summary      Re-enable an account
// @Tags         admin-users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Security     BearerAuth
// @Router       /admin/users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	withSiteAndID(&h.BaseHandler, c, "id", h.userService.Activate)
}

// Deactivate godoc
// @ID           adminDeactivateUser
// @Summary      Disable an account
// @Tags         admin-users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Security     BearerAuth
// @Router       /admin/users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	withSiteAndID(&h.BaseHandler, c, "id", h.userService.Deactivate)
}
