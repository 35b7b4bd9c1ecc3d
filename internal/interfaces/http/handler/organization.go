package handler

import (
	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// OrganizationHandler serves organization creation, invites and joining
type OrganizationHandler struct {
	BaseHandler
	orgs *organization.Service
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgs *organization.Service) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// Create godoc
// @Summary      Create an organization with its first admin
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body organization.CreateOrganizationInput true "Organization and admin"
// @Param        Idempotency-Key header string false "Replay guard for retried requests"
// @Success      201 {object} APIResponse[models.Organization]
// @Failure      400 {object} ErrorResponse
// @Router       /organization [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var in organization.CreateOrganizationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	org, err := h.orgs.CreateOrganization(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Invite godoc
// @Summary      Invite an email address into the caller's organization
// @Tags         organization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body organization.InviteInput true "Invite"
// @Param        Idempotency-Key header string false "Replay guard for retried requests"
// @Success      201 {object} APIResponse[models.UserInvite]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /organization/invites [post]
func (h *OrganizationHandler) Invite(c *gin.Context) {
	var in organization.InviteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	invite, err := h.orgs.Invite(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invite)
}

// CheckInvite godoc
// @Summary      Check that an invite token can still be accepted
// @Tags         organization
// @Produce      json
// @Param        token path string true "Invite token"
// @Success      200 {object} APIResponse[models.UserInvite]
// @Failure      400 {object} ErrorResponse
// @Router       /organization/join/{token} [get]
func (h *OrganizationHandler) CheckInvite(c *gin.Context) {
	invite, err := h.orgs.CheckAcceptToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invite)
}

// Join godoc
// @Summary      Accept an invite and create the account
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        token   path string                 true "Invite token"
// @Param        request body organization.JoinInput true "Account details"
// @Success      201 {object} APIResponse[models.User]
// @Failure      400 {object} ErrorResponse
// @Router       /organization/join/{token} [post]
func (h *OrganizationHandler) Join(c *gin.Context) {
	var in organization.JoinInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.orgs.Join(c.Request.Context(), c.Param("token"), in, c.ClientIP())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Destroy godoc
// @Summary      Delete an organization
// @Description  Groups, invites and memberships are removed; users are detached.
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Organization ID"
// @Success      200 {object} APIResponse[models.Organization]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /organization/{id} [delete]
func (h *OrganizationHandler) Destroy(c *gin.Context) {
	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.orgs.AuthorizeAdmin(ctx, middleware.GetUserID(c), id, "Only organization admins can delete it"); err != nil {
		h.HandleError(c, err)
		return
	}
	org, err := h.orgs.DestroyOrganization(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}
