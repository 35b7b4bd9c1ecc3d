// Package models contains the GORM records and their schema descriptors.
//
// Each entity is a struct embedding BaseModel (and optionally SoftDeleteColumns /
// AuditColumns) plus a *schema.Descriptor naming its columns, rules and outbound
// associations. The generic gateway operates on these records directly.
//
// Structure:
// - base.go: shared columns and the transient meta slot
// - identity.go: User, UserType, UserInvite, EmailCheck
// - organization.go: Organization, Group, GroupPermission, UserOrganization
// - catalog.go: Product, Image
// - registry.go: the static descriptor list and the two-phase registry bootstrap
package models
