package handler

import (
	"github.com/ecommerce/backend/internal/application/identity"
	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// UserHandler serves signup, login and the current account
type UserHandler struct {
	BaseHandler
	auth *identity.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(auth *identity.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Signup godoc
// @Summary      Create an account
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.SignupInput true "Account details"
// @Success      201 {object} APIResponse[models.User]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /user/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var in identity.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Login godoc
// @Summary      Exchange credentials for an access token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Credentials"
// @Success      200 {object} APIResponse[identity.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var in identity.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @Summary      Revoke the presented access token
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[map[string]bool]
// @Failure      401 {object} ErrorResponse
// @Router       /user/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.HandleError(c, shared.NewUnauthorizedError("Authentication required"))
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"logged_out": true})
}

// Me godoc
// @Summary      Current account
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[models.User]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
