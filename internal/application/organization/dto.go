package organization

// CreateOrganizationInput is the payload of POST /organization.
// Workspace falls back to Company when empty.
type CreateOrganizationInput struct {
	Workspace string `json:"workspace" binding:"max=100"`
	Company   string `json:"company" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// JoinInput is the payload of POST /organization/join/:token.
// The email comes from the invite.
type JoinInput struct {
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// InviteInput is the payload of POST /organization/invites
type InviteInput struct {
	OrganizationID uint   `json:"organization_id" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Role           string `json:"role" binding:"omitempty,oneof=ADMIN MEMBER"`
	UserTypeID     *uint  `json:"user_type_id"`
}

type createOptions struct {
	skipWelcome bool
}

// CreateOption tunes CreateOrganization
type CreateOption func(*createOptions)

// WithoutWelcome suppresses the post-commit welcome notification
func WithoutWelcome() CreateOption {
	return func(o *createOptions) { o.skipWelcome = true }
}
