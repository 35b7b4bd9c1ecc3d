package identity

import (
	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// NewUserInput is everything needed to create an account
type NewUserInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	Role            string
	OrganizationID  *uint
	UserTypeID      *uint
	TermsAcceptedIP string
	// NewsletterIP is recorded as newsletter_confirmed_ip when set
	NewsletterIP string
}

// SignupInput is the payload of POST /user/signup
type SignupInput struct {
	FirstName       string `json:"first_name" binding:"required,max=255"`
	LastName        string `json:"last_name" binding:"required,max=255"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LoginInput is the payload of POST /user/login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	Token *auth.Token  `json:"token"`
	User  *models.User `json:"user"`
}
