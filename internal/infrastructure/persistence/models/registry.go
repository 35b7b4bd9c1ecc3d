package models

import (
	"fmt"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
)

// Descriptors returns a fresh copy of every entity descriptor, in registration order
func Descriptors() []*schema.Descriptor {
	return []*schema.Descriptor{
		UserDescriptor(),
		UserTypeDescriptor(),
		UserInviteDescriptor(),
		EmailCheckDescriptor(),
		OrganizationDescriptor(),
		GroupDescriptor(),
		GroupPermissionDescriptor(),
		UserOrganizationDescriptor(),
		ProductDescriptor(),
		ImageDescriptor(),
	}
}

// All returns one zero record per entity, for AutoMigrate
func All() []any {
	return []any{
		&User{},
		&UserType{},
		&UserInvite{},
		&EmailCheck{},
		&Organization{},
		&Group{},
		&GroupPermission{},
		&UserOrganization{},
		&Product{},
		&Image{},
	}
}

// NewRegistry registers every descriptor, then resolves associations
func NewRegistry() (*schema.Registry, error) {
	r := schema.NewRegistry()
	if err := r.Register(Descriptors()...); err != nil {
		return nil, fmt.Errorf("register entities: %w", err)
	}
	if err := r.Resolve(); err != nil {
		return nil, fmt.Errorf("resolve associations: %w", err)
	}
	return r, nil
}
