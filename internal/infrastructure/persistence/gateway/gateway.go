// Package gateway provides the generic CRUD facade shared by every entity.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// Entity is the non-generic view of a record
type Entity interface {
	GetID() uint
	TransientMeta() *shared.Meta
	SetTransientMeta(*shared.Meta)
}

// Record constrains PT to be a pointer to the record struct T
type Record[T any] interface {
	*T
	Entity
}

// Observer receives one call per completed gateway operation
type Observer interface {
	Observe(entity, operation string, duration time.Duration, err error)
}

// Config holds the collaborators shared by every gateway of a store
type Config struct {
	Logger   *zap.Logger
	Observer Observer
	// Now overrides the clock used for soft delete stamps
	Now func() time.Time
}

// Gateway is the CRUD facade for one entity
type Gateway[T any, PT Record[T]] struct {
	db       *gorm.DB
	desc     *schema.Descriptor
	registry *schema.Registry
	model    *gormschema.Schema
	cfg      Config
}

var schemaCache sync.Map

// New binds a gateway for entity to db. The registry must already be resolved.
func New[T any, PT Record[T]](db *gorm.DB, registry *schema.Registry, entity string, cfg Config) (*Gateway[T, PT], error) {
	desc, err := registry.Lookup(entity)
	if err != nil {
		return nil, err
	}
	model, err := gormschema.Parse(new(T), &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse %s: %w", entity, err)
	}
	if model.Table != desc.Table {
		return nil, fmt.Errorf("gateway: %s maps to table %q, descriptor says %q", entity, model.Table, desc.Table)
	}
	for _, f := range desc.Effective() {
		if model.LookUpField(f.Name) == nil {
			return nil, fmt.Errorf("gateway: %s declares %q but the record has no such column", entity, f.Name)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gateway[T, PT]{db: db, desc: desc, registry: registry, model: model, cfg: cfg}, nil
}

// WithTx returns a copy of the gateway bound to tx. Every call on the copy,
// including cascades, runs on that handle and never opens its own transaction.
func (g *Gateway[T, PT]) WithTx(tx *gorm.DB) *Gateway[T, PT] {
	cp := *g
	cp.db = tx
	return &cp
}

// Entity returns the entity name
func (g *Gateway[T, PT]) Entity() string {
	return g.desc.Name
}

// Descriptor returns the entity descriptor
func (g *Gateway[T, PT]) Descriptor() *schema.Descriptor {
	return g.desc
}

// DB returns the bound handle
func (g *Gateway[T, PT]) DB() *gorm.DB {
	return g.db
}

// conn returns a fresh session on the bound handle, carrying ctx
func (g *Gateway[T, PT]) conn(ctx context.Context) *gorm.DB {
	return g.db.Session(&gorm.Session{NewDB: true, Context: ctx})
}

// inTx reports whether the bound handle is a transaction
func inTx(db *gorm.DB) bool {
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

// atomic runs fn on the bound transaction, or in a new one when none is bound
func (g *Gateway[T, PT]) atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if inTx(g.db) {
		return fn(g.conn(ctx))
	}
	return g.conn(ctx).Transaction(fn)
}

// done reports a finished operation to the observer and the debug log
func (g *Gateway[T, PT]) done(ctx context.Context, op string, start time.Time, err error) {
	d := time.Since(start)
	if g.cfg.Observer != nil {
		g.cfg.Observer.Observe(g.desc.Name, op, d, err)
	}
	fields := []zap.Field{
		zap.String("entity", g.desc.Name),
		zap.String("operation", op),
		zap.Duration("duration", d),
		zap.Bool("in_tx", inTx(g.db)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.WithLogger(ctx, logger.FromContextOr(ctx, g.cfg.Logger)).Debug("gateway call", fields...)
}

// translate maps driver and GORM errors onto the domain taxonomy
func (g *Gateway[T, PT]) translate(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	var ve *shared.ValidationErrors
	if errors.As(err, &ve) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(fmt.Sprintf("%s not found", g.desc.Name))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return g.duplicateError()
	}
	return shared.NewStoreError(err)
}

// duplicateError names the unique constraint when the entity has exactly one
func (g *Gateway[T, PT]) duplicateError() error {
	fields := g.desc.UniqueFields()
	indexes := g.desc.UniqueIndexes()
	switch {
	case len(fields) == 1 && len(indexes) == 0:
		return shared.NewValidationError(fields[0].Name, uniqueMessage(g.desc, fields[0]))
	case len(fields) == 0 && len(indexes) == 1:
		return shared.NewValidationError(indexes[0].Columns[0], indexMessage(g.desc, indexes[0]))
	}
	return shared.NewValidationError("", fmt.Sprintf("%s:error-unique", g.desc.Name))
}

func uniqueMessage(d *schema.Descriptor, f schema.Field) string {
	if f.UniqueMessage != "" {
		return f.UniqueMessage
	}
	return fmt.Sprintf("%s:%s-error-unique", d.Name, f.Name)
}

func indexMessage(d *schema.Descriptor, idx schema.Index) string {
	if idx.Message != "" {
		return idx.Message
	}
	return fmt.Sprintf("%s:%s-error-unique", d.Name, idx.Name)
}
