package models

import (
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
)

// BaseModel provides the columns every entity carries plus the transient meta slot.
// The slot is unexported so GORM never maps it to a column.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	meta *shared.Meta
}

// GetID returns the primary key
func (m *BaseModel) GetID() uint {
	return m.ID
}

// TransientMeta returns the metadata of the current create/update call, nil otherwise
func (m *BaseModel) TransientMeta() *shared.Meta {
	return m.meta
}

// SetTransientMeta attaches (or clears, with nil) the per-call metadata
func (m *BaseModel) SetTransientMeta(meta *shared.Meta) {
	m.meta = meta
}

// SoftDeleteColumns are present on entities with soft delete enabled.
// gorm.DeletedAt is not used: the gateway filters on is_deleted explicitly.
type SoftDeleteColumns struct {
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
}

// AuditColumns are weak references to the acting users
type AuditColumns struct {
	CreatedBy *uint `gorm:"index" json:"created_by,omitempty"`
	UpdatedBy *uint `json:"updated_by,omitempty"`
	DeletedBy *uint `json:"deleted_by,omitempty"`
}
