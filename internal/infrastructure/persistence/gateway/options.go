package gateway

import (
	"github.com/ecommerce/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Options is the per-call option set. The transaction handle is not part of it:
// bind one with Gateway.WithTx.
type Options struct {
	Where          shared.Values
	Actor          shared.Actor
	Select         []string
	OrderBy        []string
	Limit          int
	Offset         int
	IncludeDeleted bool
	Scopes         []func(*gorm.DB) *gorm.DB
}

// Option mutates Options
type Option func(*Options)

func newOptions(opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Where filters by column equality; nil values match NULL, slices match IN
func Where(where shared.Values) Option {
	return func(o *Options) {
		if o.Where == nil {
			o.Where = shared.Values{}
		}
		for k, v := range where {
			o.Where[k] = v
		}
	}
}

// As records the acting user in audit columns
func As(userID uint) Option {
	return func(o *Options) { o.Actor = shared.Actor{ID: userID} }
}

// Select projects columns on reads; Count ignores it
func Select(cols ...string) Option {
	return func(o *Options) { o.Select = append(o.Select, cols...) }
}

// OrderBy appends an ORDER BY expression such as "created_at desc"
func OrderBy(expr string) Option {
	return func(o *Options) { o.OrderBy = append(o.OrderBy, expr) }
}

// Limit caps the number of rows read
func Limit(n int) Option {
	return func(o *Options) { o.Limit = n }
}

// Offset skips rows on reads
func Offset(n int) Option {
	return func(o *Options) { o.Offset = n }
}

// IncludeDeleted disables the soft-delete read filter
func IncludeDeleted() Option {
	return func(o *Options) { o.IncludeDeleted = true }
}

// Scope adds a pass-through GORM scope for anything the typed options cannot express
func Scope(fn func(*gorm.DB) *gorm.DB) Option {
	return func(o *Options) { o.Scopes = append(o.Scopes, fn) }
}
