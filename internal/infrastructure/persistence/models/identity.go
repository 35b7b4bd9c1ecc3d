package models

import (
	"time"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
)

// Entity names used by the registry
const (
	EntityUser       = "User"
	EntityUserType   = "UserType"
	EntityUserInvite = "UserInvite"
	EntityEmailCheck = "EmailCheck"
)

// User roles
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// User is an account, optionally attached to an organization
type User struct {
	BaseModel
	FirstName             string  `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName              string  `gorm:"type:varchar(255);not null" json:"last_name"`
	Email                 string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password              string  `gorm:"type:varchar(255);not null" json:"-"`
	IsActive              bool    `gorm:"not null" json:"is_active"`
	Role                  string  `gorm:"type:varchar(20);not null" json:"role"`
	OrganizationID        *uint   `gorm:"index" json:"organization_id,omitempty"`
	UserTypeID            *uint   `gorm:"index" json:"user_type_id,omitempty"`
	TermsAcceptedIP       *string `gorm:"type:varchar(45)" json:"-"`
	NewsletterConfirmedIP *string `gorm:"type:varchar(45)" json:"-"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserDescriptor describes the users table
func UserDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityUser,
		Table: "users",
		Fields: []schema.Field{
			{Name: "first_name", Type: schema.String, Rules: []schema.Rule{
				schema.Required("user:first-name-error-required"),
				schema.Length(1, 255, "user:first-name-error-length"),
			}},
			{Name: "last_name", Type: schema.String, Rules: []schema.Rule{
				schema.Required("user:last-name-error-required"),
				schema.Length(1, 255, "user:last-name-error-length"),
			}},
			{Name: "email", Type: schema.String, Unique: true, UniqueMessage: "user:email-error-unique", Rules: []schema.Rule{
				schema.Required("user:email-error-required"),
				schema.Tag("email", "user:email-error-invalid"),
			}},
			// holds the bcrypt hash; the plain-text policy is checked before hashing
			{Name: "password", Type: schema.String, Rules: []schema.Rule{
				schema.Required("user:password-error-required"),
			}},
			{Name: "is_active", Type: schema.Boolean, Default: true},
			{Name: "role", Type: schema.String, Default: RoleMember, Rules: []schema.Rule{
				schema.Tag("oneof=ADMIN MEMBER", "user:role-error-invalid"),
			}},
			{Name: "organization_id", Type: schema.Integer, Nullable: true},
			{Name: "user_type_id", Type: schema.Integer, Nullable: true},
			{Name: "terms_accepted_ip", Type: schema.String, Nullable: true, Rules: []schema.Rule{
				schema.Tag("ip", "user:ip-error-invalid"),
			}},
			{Name: "newsletter_confirmed_ip", Type: schema.String, Nullable: true, Rules: []schema.Rule{
				schema.Tag("ip", "user:ip-error-invalid"),
			}},
		},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			return []schema.Association{
				schema.BelongsTo(EntityOrganization, "organization_id", schema.OnDelete(schema.SetNull)),
				schema.BelongsTo(EntityUserType, "user_type_id", schema.OnDelete(schema.SetNull)),
			}, nil
		},
	}
}

// UserType is a business classification of users
type UserType struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null" json:"name"`
}

// TableName returns the table name for GORM
func (UserType) TableName() string {
	return "user_types"
}

// UserTypeDescriptor describes the user_types table
func UserTypeDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityUserType,
		Table: "user_types",
		Fields: []schema.Field{
			{Name: "name", Type: schema.String, Unique: true, UniqueMessage: "user-type:name-error-unique", Rules: []schema.Rule{
				schema.Required("user-type:name-error-required"),
			}},
		},
	}
}

// UserInvite is a pending invitation to join an organization
type UserInvite struct {
	BaseModel
	AuditColumns
	Token          string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	Email          string     `gorm:"type:varchar(255);not null;index" json:"email"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	Role           string     `gorm:"type:varchar(20);not null" json:"role"`
	UserTypeID     *uint      `json:"user_type_id,omitempty"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	Accepted       bool       `gorm:"not null" json:"accepted"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	AcceptIP       *string    `gorm:"type:varchar(45)" json:"-"`
}

// TableName returns the table name for GORM
func (UserInvite) TableName() string {
	return "user_invites"
}

// Usable reports whether the invite can still be accepted at now
func (i *UserInvite) Usable(now time.Time) bool {
	return !i.Accepted && now.Before(i.ExpiresAt)
}

// UserInviteDescriptor describes the user_invites table
func UserInviteDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityUserInvite,
		Table: "user_invites",
		Fields: []schema.Field{
			{Name: "token", Type: schema.String, Unique: true, UniqueMessage: "invite:token-error-unique", Rules: []schema.Rule{
				schema.Required("invite:token-error-required"),
			}},
			{Name: "email", Type: schema.String, Rules: []schema.Rule{
				schema.Required("invite:email-error-required"),
				schema.Tag("email", "invite:email-error-invalid"),
			}},
			{Name: "organization_id", Type: schema.Integer},
			{Name: "role", Type: schema.String, Default: RoleMember, Rules: []schema.Rule{
				schema.Tag("oneof=ADMIN MEMBER", "invite:role-error-invalid"),
			}},
			{Name: "user_type_id", Type: schema.Integer, Nullable: true},
			{Name: "expires_at", Type: schema.Timestamp, Rules: []schema.Rule{
				schema.Required("invite:expires-at-error-required"),
			}},
			{Name: "accepted", Type: schema.Boolean, Default: false},
			{Name: "accepted_at", Type: schema.Timestamp, Nullable: true},
			{Name: "accept_ip", Type: schema.String, Nullable: true},
		},
		Options: schema.Options{Audit: true},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			assocs := []schema.Association{
				schema.BelongsTo(EntityOrganization, "organization_id",
					schema.RequiredBy("invite:organization-error-required"), schema.OnDelete(schema.Cascade)),
				schema.BelongsTo(EntityUserType, "user_type_id", schema.OnDelete(schema.SetNull)),
			}
			return append(assocs, schema.Audited(EntityUser)...), nil
		},
	}
}

// EmailCheck tracks confirmation of an email address
type EmailCheck struct {
	BaseModel
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Token     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	RequestIP *string   `gorm:"type:varchar(45)" json:"-"`
	ConfirmIP *string   `gorm:"type:varchar(45)" json:"-"`
	Invite    bool      `gorm:"not null" json:"invite"`
	Confirmed bool      `gorm:"not null" json:"confirmed"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// TableName returns the table name for GORM
func (EmailCheck) TableName() string {
	return "email_checks"
}

// Expired reports whether the check lapsed before now
func (e *EmailCheck) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// EmailCheckDescriptor describes the email_checks table
func EmailCheckDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityEmailCheck,
		Table: "email_checks",
		Fields: []schema.Field{
			{Name: "email", Type: schema.String, Rules: []schema.Rule{
				schema.Required("email-check:email-error-required"),
				schema.Tag("email", "email-check:email-error-invalid"),
			}},
			{Name: "token", Type: schema.String, Unique: true, Rules: []schema.Rule{
				schema.Required("email-check:token-error-required"),
			}},
			{Name: "request_ip", Type: schema.String, Nullable: true},
			{Name: "confirm_ip", Type: schema.String, Nullable: true},
			{Name: "invite", Type: schema.Boolean, Default: false},
			{Name: "confirmed", Type: schema.Boolean, Default: false},
			{Name: "expires_at", Type: schema.Timestamp, Rules: []schema.Rule{
				schema.Required("email-check:expires-at-error-required"),
			}},
		},
	}
}
