package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// query builds a read statement from options. Soft-deleted rows are filtered
// when filterDeleted is set, unless the caller asked for them.
func (g *Gateway[T, PT]) query(ctx context.Context, o *Options, filterDeleted bool) (*gorm.DB, error) {
	q := g.conn(ctx).Model(new(T))
	if len(o.Where) > 0 {
		if err := checkWhere(g.desc, o.Where); err != nil {
			return nil, err
		}
		q = q.Where(map[string]any(o.Where))
	}
	if filterDeleted && g.desc.SoftDelete && !o.IncludeDeleted {
		q = q.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: schema.ColIsDeleted},
			Value:  false,
		})
	}
	if len(o.Select) > 0 {
		q = q.Select(o.Select)
	}
	for _, expr := range o.OrderBy {
		q = q.Order(expr)
	}
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	if o.Offset > 0 {
		q = q.Offset(o.Offset)
	}
	if len(o.Scopes) > 0 {
		q = q.Scopes(o.Scopes...)
	}
	return q, nil
}

// FindByID returns the record with the given id, or nil when absent.
// Direct id lookups see soft-deleted rows.
func (g *Gateway[T, PT]) FindByID(ctx context.Context, id uint, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "find_by_id", start, err) }(time.Now())

	q, err := g.query(ctx, newOptions(opts), false)
	if err != nil {
		return nil, err
	}
	return g.take(q.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}))
}

// FindOne returns the first matching record, or nil when none matches
func (g *Gateway[T, PT]) FindOne(ctx context.Context, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "find_one", start, err) }(time.Now())

	o := newOptions(opts)
	q, err := g.query(ctx, o, true)
	if err != nil {
		return nil, err
	}
	if len(o.OrderBy) == 0 {
		q = q.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	}
	return g.take(q)
}

func (g *Gateway[T, PT]) take(q *gorm.DB) (PT, error) {
	rec := PT(new(T))
	if err := q.Take(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, g.translate(err)
	}
	return rec, nil
}

// FindAll returns every matching record, ordered by id unless told otherwise
func (g *Gateway[T, PT]) FindAll(ctx context.Context, opts ...Option) (recs []PT, err error) {
	defer func(start time.Time) { g.done(ctx, "find_all", start, err) }(time.Now())

	o := newOptions(opts)
	q, err := g.query(ctx, o, true)
	if err != nil {
		return nil, err
	}
	if len(o.OrderBy) == 0 {
		q = q.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	}
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, g.translate(err)
	}
	recs = make([]PT, len(rows))
	for i := range rows {
		recs[i] = PT(&rows[i])
	}
	return recs, nil
}

// Count returns the number of matching rows. Projection and paging are ignored.
func (g *Gateway[T, PT]) Count(ctx context.Context, opts ...Option) (n int64, err error) {
	defer func(start time.Time) { g.done(ctx, "count", start, err) }(time.Now())

	o := newOptions(opts)
	o.Select, o.OrderBy, o.Limit, o.Offset = nil, nil, 0, 0
	q, err := g.query(ctx, o, true)
	if err != nil {
		return 0, err
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, g.translate(err)
	}
	return n, nil
}

// Exists reports whether any row matches
func (g *Gateway[T, PT]) Exists(ctx context.Context, opts ...Option) (bool, error) {
	n, err := g.Count(ctx, opts...)
	return n > 0, err
}
