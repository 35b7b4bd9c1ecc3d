package gateway

import (
	"context"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"gorm.io/gorm"
)

// Handle is the untyped view of a gateway, used where the entity is only known
// by name (association traversal, admin tooling).
type Handle interface {
	Entity() string
	Descriptor() *schema.Descriptor
	Get(ctx context.Context, id uint, opts ...Option) (Entity, error)
	List(ctx context.Context, opts ...Option) ([]Entity, error)
	Count(ctx context.Context, opts ...Option) (int64, error)
	Insert(ctx context.Context, values shared.Values, opts ...Option) (Entity, error)
	Destroy(ctx context.Context, id uint, opts ...Option) (Entity, error)
	Values(ctx context.Context, rec Entity) shared.Values
	Bind(tx *gorm.DB) Handle
}

type handle[T any, PT Record[T]] struct {
	g *Gateway[T, PT]
}

// Handle returns the untyped view of g
func (g *Gateway[T, PT]) Handle() Handle {
	return handle[T, PT]{g: g}
}

func (h handle[T, PT]) Entity() string                 { return h.g.Entity() }
func (h handle[T, PT]) Descriptor() *schema.Descriptor { return h.g.Descriptor() }
func (h handle[T, PT]) Bind(tx *gorm.DB) Handle        { return handle[T, PT]{g: h.g.WithTx(tx)} }

func (h handle[T, PT]) Count(ctx context.Context, opts ...Option) (int64, error) {
	return h.g.Count(ctx, opts...)
}

func (h handle[T, PT]) Get(ctx context.Context, id uint, opts ...Option) (Entity, error) {
	return erase(h.g.FindByID(ctx, id, opts...))
}

func (h handle[T, PT]) Insert(ctx context.Context, values shared.Values, opts ...Option) (Entity, error) {
	return erase(h.g.Create(ctx, values, opts...))
}

func (h handle[T, PT]) Destroy(ctx context.Context, id uint, opts ...Option) (Entity, error) {
	return erase(h.g.DestroyByID(ctx, id, opts...))
}

func (h handle[T, PT]) List(ctx context.Context, opts ...Option) ([]Entity, error) {
	recs, err := h.g.FindAll(ctx, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out, nil
}

func (h handle[T, PT]) Values(ctx context.Context, rec Entity) shared.Values {
	typed, ok := rec.(PT)
	if !ok {
		return shared.Values{}
	}
	return h.g.ValuesOf(ctx, typed)
}

// erase converts a typed nil into an untyped nil interface
func erase[PT Entity](rec PT, err error) (Entity, error) {
	if err != nil {
		return nil, err
	}
	var zero PT
	if any(rec) == any(zero) {
		return nil, nil
	}
	return rec, nil
}
