package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"gorm.io/gorm"
)

// DefaultCopyExceptions are the columns CopyByID drops from the source snapshot
var DefaultCopyExceptions = []string{
	schema.ColID,
	schema.ColCreatedAt,
	schema.ColCreatedBy,
	schema.ColUpdatedAt,
	schema.ColUpdatedBy,
}

// Create validates values and inserts a new record. The record carries
// create metadata while the store call runs; created_by is stamped from the actor.
func (g *Gateway[T, PT]) Create(ctx context.Context, values shared.Values, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "create", start, err) }(time.Now())
	return g.create(ctx, values, newOptions(opts))
}

func (g *Gateway[T, PT]) create(ctx context.Context, values shared.Values, o *Options) (PT, error) {
	values = values.Clone()
	if err := g.desc.Validate(values, schema.ModeCreate); err != nil {
		return nil, err
	}
	if err := g.checkUnique(ctx, values, 0); err != nil {
		return nil, err
	}
	if g.desc.Audit && !o.Actor.IsZero() {
		values[schema.ColCreatedBy] = o.Actor.ID
	}

	rec, err := g.build(ctx, values)
	if err != nil {
		return nil, err
	}
	rec.SetTransientMeta(shared.NewCreateMeta())
	defer rec.SetTransientMeta(nil)

	if err := g.conn(ctx).Create(rec).Error; err != nil {
		return nil, g.translate(err)
	}
	return rec, nil
}

// Update applies values to every row matching the Where option and returns the
// number of affected rows. An empty filter is rejected.
func (g *Gateway[T, PT]) Update(ctx context.Context, values shared.Values, opts ...Option) (n int64, err error) {
	defer func(start time.Time) { g.done(ctx, "update", start, err) }(time.Now())

	o := newOptions(opts)
	if len(o.Where) == 0 {
		return 0, shared.NewValidationError("", fmt.Sprintf("%s:update-error-where-required", g.desc.Name))
	}
	if err := checkWhere(g.desc, o.Where); err != nil {
		return 0, err
	}
	return g.update(ctx, values, o, shared.NewUpdateMeta(0, o.Where), func(q *gorm.DB) *gorm.DB {
		return q.Where(map[string]any(o.Where))
	})
}

// UpdateByID applies values to one row and returns it re-fetched.
// A missing id is a NotFound error.
func (g *Gateway[T, PT]) UpdateByID(ctx context.Context, id uint, values shared.Values, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "update_by_id", start, err) }(time.Now())
	return g.updateByID(ctx, id, values, newOptions(opts))
}

func (g *Gateway[T, PT]) updateByID(ctx context.Context, id uint, values shared.Values, o *Options) (PT, error) {
	values = values.Without(schema.ColID)
	where := shared.Values{schema.ColID: id}
	_, err := g.update(ctx, values, o, shared.NewUpdateMeta(id, where), func(q *gorm.DB) *gorm.DB {
		return q.Where(schema.ColID+" = ?", id)
	})
	if err != nil {
		return nil, err
	}

	rec, err := g.take(g.conn(ctx).Model(new(T)).Where(schema.ColID+" = ?", id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("%s %d not found", g.desc.Name, id))
	}
	return rec, nil
}

func (g *Gateway[T, PT]) update(ctx context.Context, values shared.Values, o *Options, meta *shared.Meta, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	values = values.Clone()
	if err := g.desc.Validate(values, schema.ModeUpdate); err != nil {
		return 0, err
	}
	if err := g.checkUnique(ctx, values, meta.UpdateID, scope); err != nil {
		return 0, err
	}
	if g.desc.Audit && !o.Actor.IsZero() {
		values[schema.ColUpdatedBy] = o.Actor.ID
	}
	if len(values) == 0 {
		return 0, nil
	}

	model := PT(new(T))
	model.SetTransientMeta(meta)
	defer model.SetTransientMeta(nil)

	res := scope(g.conn(ctx).Model(model)).Updates(map[string]any(values))
	if res.Error != nil {
		return 0, g.translate(res.Error)
	}
	return res.RowsAffected, nil
}

// Upsert looks a record up by where; it updates the match by id, or creates
// where ∪ values without any id. The bool reports whether a record was created.
func (g *Gateway[T, PT]) Upsert(ctx context.Context, where, values shared.Values, opts ...Option) (rec PT, created bool, err error) {
	defer func(start time.Time) { g.done(ctx, "upsert", start, err) }(time.Now())
	return g.upsert(ctx, where, values, newOptions(opts))
}

func (g *Gateway[T, PT]) upsert(ctx context.Context, where, values shared.Values, o *Options) (PT, bool, error) {
	if len(where) == 0 {
		where = shared.Values{schema.ColID: nil}
	}
	merged := where.Merge(values).Without(schema.ColID)

	lookup := *o
	lookup.Where = where
	q, err := g.query(ctx, &lookup, true)
	if err != nil {
		return nil, false, err
	}
	found, err := g.take(q)
	if err != nil {
		return nil, false, err
	}
	if found == nil {
		rec, err := g.create(ctx, merged, o)
		return rec, err == nil, err
	}
	rec, err := g.updateByID(ctx, found.GetID(), merged, o)
	return rec, false, err
}

// UpsertByID is Upsert keyed on id; a zero id always creates
func (g *Gateway[T, PT]) UpsertByID(ctx context.Context, id uint, values shared.Values, opts ...Option) (rec PT, created bool, err error) {
	defer func(start time.Time) { g.done(ctx, "upsert_by_id", start, err) }(time.Now())

	where := shared.Values{schema.ColID: nil}
	if id != 0 {
		where[schema.ColID] = id
	}
	return g.upsert(ctx, where, values, newOptions(opts))
}

// UpsertByName is Upsert keyed on the name column
func (g *Gateway[T, PT]) UpsertByName(ctx context.Context, name string, values shared.Values, opts ...Option) (rec PT, created bool, err error) {
	defer func(start time.Time) { g.done(ctx, "upsert_by_name", start, err) }(time.Now())

	if !g.desc.HasField("name") {
		return nil, false, shared.NewValidationError("name", fmt.Sprintf("%s:unknown-field", g.desc.Name))
	}
	return g.upsert(ctx, shared.Values{"name": name}, values, newOptions(opts))
}

// FindOrCreate returns the first record matching where, or creates where ∪ defaults
func (g *Gateway[T, PT]) FindOrCreate(ctx context.Context, where, defaults shared.Values, opts ...Option) (rec PT, created bool, err error) {
	defer func(start time.Time) { g.done(ctx, "find_or_create", start, err) }(time.Now())

	o := newOptions(opts)
	lookup := *o
	lookup.Where = where
	q, err := g.query(ctx, &lookup, true)
	if err != nil {
		return nil, false, err
	}
	found, err := g.take(q)
	if err != nil || found != nil {
		return found, false, err
	}
	rec, err = g.create(ctx, where.Merge(defaults).Without(schema.ColID), o)
	return rec, err == nil, err
}

// CopyByID creates a new record from an existing one. Columns in exceptions
// (DefaultCopyExceptions when nil) are dropped from the snapshot, then values are
// merged over it. The primary key is never copied.
func (g *Gateway[T, PT]) CopyByID(ctx context.Context, id uint, values shared.Values, exceptions []string, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "copy_by_id", start, err) }(time.Now())
	return g.copyByID(ctx, id, values, exceptions, newOptions(opts))
}

func (g *Gateway[T, PT]) copyByID(ctx context.Context, id uint, values shared.Values, exceptions []string, o *Options) (PT, error) {
	if id == 0 {
		return nil, shared.NewNotFoundError("Provide a valid id.")
	}
	src, err := g.take(g.conn(ctx).Model(new(T)).Where(schema.ColID+" = ?", id))
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, shared.NewNotFoundError("Provide a valid id.")
	}
	if exceptions == nil {
		exceptions = DefaultCopyExceptions
	}
	snapshot := g.ValuesOf(ctx, src).Without(exceptions...).Without(schema.ColID)
	return g.create(ctx, snapshot.Merge(values), o)
}

// checkUnique looks for other rows holding the unique values being written.
// excludeID skips the row being updated; scope limits the exclusion to the
// rows a filtered update will touch.
func (g *Gateway[T, PT]) checkUnique(ctx context.Context, values shared.Values, excludeID uint, scope ...func(*gorm.DB) *gorm.DB) error {
	errs := &shared.ValidationErrors{}
	exclude := func(q *gorm.DB) *gorm.DB {
		if excludeID != 0 {
			return q.Where(schema.ColID+" <> ?", excludeID)
		}
		if len(scope) > 0 {
			sub := scope[0](g.conn(ctx).Table(g.desc.Table).Select(schema.ColID))
			return q.Where(schema.ColID+" NOT IN (?)", sub)
		}
		return q
	}

	for _, f := range g.desc.UniqueFields() {
		v, ok := values[f.Name]
		if !ok || plain(v) == nil {
			continue
		}
		var n int64
		q := exclude(g.conn(ctx).Table(g.desc.Table).Where(map[string]any{f.Name: plain(v)}))
		if err := q.Count(&n).Error; err != nil {
			return g.translate(err)
		}
		if n > 0 {
			errs.Add(f.Name, uniqueMessage(g.desc, f))
		}
	}

	for _, idx := range g.desc.UniqueIndexes() {
		cond := make(map[string]any, len(idx.Columns))
		for _, col := range idx.Columns {
			v, ok := values[col]
			if !ok || plain(v) == nil {
				cond = nil
				break
			}
			cond[col] = plain(v)
		}
		if cond == nil {
			continue
		}
		var n int64
		if err := exclude(g.conn(ctx).Table(g.desc.Table).Where(cond)).Count(&n).Error; err != nil {
			return g.translate(err)
		}
		if n > 0 {
			errs.Add(idx.Columns[0], indexMessage(g.desc, idx))
		}
	}
	return errs.OrNil()
}
