package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
)

// BulkItem is the outcome of one element of a bulk call
type BulkItem[R any] struct {
	Index  int
	Record R
	// Created is set by upserts that inserted a new row
	Created bool
	Err     error
}

// BulkResult keeps one item per input, in input order. Bulk calls are not
// atomic: a failed item never affects its siblings.
type BulkResult[R any] struct {
	Items []BulkItem[R]
}

// Records returns the records of the successful items, in input order
func (r BulkResult[R]) Records() []R {
	out := make([]R, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Err == nil {
			out = append(out, it.Record)
		}
	}
	return out
}

// Errors returns the failed items
func (r BulkResult[R]) Errors() []BulkItem[R] {
	var out []BulkItem[R]
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// Failed counts failed items
func (r BulkResult[R]) Failed() int {
	return len(r.Errors())
}

// Succeeded counts successful items
func (r BulkResult[R]) Succeeded() int {
	return len(r.Items) - r.Failed()
}

// Err joins every item error, or returns nil when all succeeded
func (r BulkResult[R]) Err() error {
	var errs []error
	for _, it := range r.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errors.Join(errs...)
}

// runSequential processes inputs one at a time, in order. Once ctx is done the
// remaining items are marked with the context error instead of being run.
func runSequential[In, R any](ctx context.Context, inputs []In, fn func(In) (R, bool, error)) BulkResult[R] {
	res := BulkResult[R]{Items: make([]BulkItem[R], len(inputs))}
	for i, in := range inputs {
		item := BulkItem[R]{Index: i}
		if err := ctx.Err(); err != nil {
			item.Err = err
			res.Items[i] = item
			continue
		}
		item.Record, item.Created, item.Err = fn(in)
		res.Items[i] = item
	}
	return res
}

// CreateBulk creates each element in turn
func (g *Gateway[T, PT]) CreateBulk(ctx context.Context, list []shared.Values, opts ...Option) BulkResult[PT] {
	start := time.Now()
	o := newOptions(opts)
	res := runSequential(ctx, list, func(values shared.Values) (PT, bool, error) {
		rec, err := g.create(ctx, values, o)
		return rec, err == nil, err
	})
	g.done(ctx, "create_bulk", start, res.Err())
	return res
}

// UpsertBulk upserts each element by its "id" key; elements without one are created
func (g *Gateway[T, PT]) UpsertBulk(ctx context.Context, list []shared.Values, opts ...Option) BulkResult[PT] {
	start := time.Now()
	o := newOptions(opts)
	res := runSequential(ctx, list, func(values shared.Values) (PT, bool, error) {
		where := shared.Values{"id": nil}
		if id := idOf(values["id"]); id != 0 {
			where["id"] = id
		}
		return g.upsert(ctx, where, values, o)
	})
	g.done(ctx, "upsert_bulk", start, res.Err())
	return res
}

// CopyBulk copies each id with the same overrides and exceptions
func (g *Gateway[T, PT]) CopyBulk(ctx context.Context, ids []uint, values shared.Values, exceptions []string, opts ...Option) BulkResult[PT] {
	start := time.Now()
	o := newOptions(opts)
	res := runSequential(ctx, ids, func(id uint) (PT, bool, error) {
		rec, err := g.copyByID(ctx, id, values, exceptions, o)
		return rec, err == nil, err
	})
	g.done(ctx, "copy_bulk", start, res.Err())
	return res
}

// DestroyBulk destroys each id in turn, each with its own cascade
func (g *Gateway[T, PT]) DestroyBulk(ctx context.Context, ids []uint, opts ...Option) BulkResult[PT] {
	start := time.Now()
	o := newOptions(opts)
	res := runSequential(ctx, ids, func(id uint) (PT, bool, error) {
		rec, err := g.destroyByID(ctx, id, o)
		return rec, false, err
	})
	g.done(ctx, "destroy_bulk", start, res.Err())
	return res
}
