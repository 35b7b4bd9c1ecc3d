package models

import (
	"regexp"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
)

// Entity names used by the registry
const (
	EntityOrganization     = "Organization"
	EntityGroup            = "Group"
	EntityGroupPermission  = "GroupPermission"
	EntityUserOrganization = "UserOrganization"
)

// WorkspacePattern is the accepted workspace alphabet
var WorkspacePattern = regexp.MustCompile(`(?i)^[a-z0-9-]+$`)

// Organization is a tenant workspace
type Organization struct {
	BaseModel
	SoftDeleteColumns
	Workspace string `gorm:"type:varchar(50);not null;uniqueIndex" json:"workspace"`
	Company   string `gorm:"type:varchar(50);not null" json:"company"`

	// User is the id of the initial admin, set by the creation workflow only
	User uint `gorm:"-" json:"user,omitempty"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// OrganizationDescriptor describes the organizations table
func OrganizationDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityOrganization,
		Table: "organizations",
		Fields: []schema.Field{
			{Name: "workspace", Type: schema.String, Unique: true, UniqueMessage: "organization:workspace-error-unique", Rules: []schema.Rule{
				schema.Required("organization:workspace-error-required"),
				schema.Pattern(WorkspacePattern, "organization:workspace-error-invalid"),
				schema.Length(3, 50, "organization:workspace-error-length"),
			}},
			{Name: "company", Type: schema.String, Rules: []schema.Rule{
				schema.Required("organization:company-error-required"),
				schema.Length(3, 50, "organization:company-error-length"),
			}},
		},
		Options: schema.Options{SoftDelete: true},
	}
}

// Group is a named set of users inside an organization
type Group struct {
	BaseModel
	SoftDeleteColumns
	AuditColumns
	Name           string `gorm:"type:varchar(255);not null;uniqueIndex:idx_groups_name_organization" json:"name"`
	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_groups_name_organization" json:"organization_id"`
}

// TableName returns the table name for GORM
func (Group) TableName() string {
	return "groups"
}

// GroupDescriptor describes the groups table
func GroupDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityGroup,
		Table: "groups",
		Fields: []schema.Field{
			{Name: "name", Type: schema.String, Rules: []schema.Rule{
				schema.Required("groups:name-error-required"),
			}},
			{Name: "organization_id", Type: schema.Integer},
		},
		Options: schema.Options{
			SoftDelete: true,
			Audit:      true,
			Indexes: []schema.Index{{
				Name:    "idx_groups_name_organization",
				Columns: []string{"name", "organization_id"},
				Unique:  true,
				Message: "groups:name-error-unique",
			}},
		},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			assocs := []schema.Association{
				schema.BelongsTo(EntityOrganization, "organization_id",
					schema.RequiredBy("groups:organization-error-required"), schema.OnDelete(schema.Cascade)),
			}
			return append(assocs, schema.Audited(EntityUser)...), nil
		},
	}
}

// GroupPermission grants a user membership of a group
type GroupPermission struct {
	BaseModel
	SoftDeleteColumns
	AuditColumns
	UserID         *uint `gorm:"index" json:"user_id,omitempty"`
	GroupID        *uint `gorm:"index" json:"group_id,omitempty"`
	OrganizationID uint  `gorm:"not null;index" json:"organization_id"`
}

// TableName returns the table name for GORM
func (GroupPermission) TableName() string {
	return "group_permissions"
}

// GroupPermissionDescriptor describes the group_permissions table
func GroupPermissionDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityGroupPermission,
		Table: "group_permissions",
		Fields: []schema.Field{
			{Name: "user_id", Type: schema.Integer, Nullable: true},
			{Name: "group_id", Type: schema.Integer, Nullable: true},
			{Name: "organization_id", Type: schema.Integer},
		},
		Options: schema.Options{SoftDelete: true, Audit: true},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			assocs := []schema.Association{
				schema.BelongsTo(EntityUser, "user_id", schema.As("users"), schema.OnDelete(schema.Cascade)),
				schema.BelongsTo(EntityGroup, "group_id", schema.As("groups"), schema.OnDelete(schema.Cascade)),
				schema.BelongsTo(EntityOrganization, "organization_id",
					schema.RequiredBy("groups:organization-error-required"), schema.OnDelete(schema.Cascade)),
			}
			return append(assocs, schema.Audited(EntityUser)...), nil
		},
	}
}

// UserOrganization links a user to an additional organization
type UserOrganization struct {
	BaseModel
	SoftDeleteColumns
	AuditColumns
	UserID         *uint `gorm:"index" json:"user_id,omitempty"`
	OrganizationID uint  `gorm:"not null;index" json:"organization_id"`
}

// TableName returns the table name for GORM
func (UserOrganization) TableName() string {
	return "user_organizations"
}

// UserOrganizationDescriptor describes the user_organizations table
func UserOrganizationDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  EntityUserOrganization,
		Table: "user_organizations",
		Fields: []schema.Field{
			{Name: "user_id", Type: schema.Integer, Nullable: true},
			{Name: "organization_id", Type: schema.Integer},
		},
		Options: schema.Options{SoftDelete: true, Audit: true},
		Associate: func(schema.Lookup) ([]schema.Association, error) {
			assocs := []schema.Association{
				schema.BelongsTo(EntityUser, "user_id", schema.As("users"), schema.OnDelete(schema.Cascade)),
				schema.BelongsTo(EntityOrganization, "organization_id",
					schema.RequiredBy("groups:organization-error-required"), schema.OnDelete(schema.Cascade)),
			}
			return append(assocs, schema.Audited(EntityUser)...), nil
		},
	}
}
