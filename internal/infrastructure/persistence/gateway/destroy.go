package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DestroyByID physically removes a row and returns its pre-destruction snapshot.
// Inbound associations are applied first: CASCADE removes dependents recursively,
// SET NULL detaches them, RESTRICT fails while dependents exist.
func (g *Gateway[T, PT]) DestroyByID(ctx context.Context, id uint, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "destroy_by_id", start, err) }(time.Now())
	return g.destroyByID(ctx, id, newOptions(opts))
}

func (g *Gateway[T, PT]) destroyByID(ctx context.Context, id uint, _ *Options) (PT, error) {
	var snapshot PT
	err := g.atomic(ctx, func(tx *gorm.DB) error {
		rec := PT(new(T))
		if err := tx.Model(new(T)).Where(schema.ColID+" = ?", id).Take(rec).Error; err != nil {
			return err
		}
		c := cascade{tx: tx, registry: g.registry, visited: map[string]map[uint]bool{}}
		if err := c.apply(g.desc, []uint{id}); err != nil {
			return err
		}
		if err := tx.Where(schema.ColID+" = ?", id).Delete(new(T)).Error; err != nil {
			return err
		}
		snapshot = rec
		return nil
	})
	if err != nil {
		return nil, g.translate(err)
	}
	return snapshot, nil
}

// SoftDeleteByID flags a row deleted and returns the pre-update snapshot.
// deleted_by is stamped when an actor is given and the entity is audited.
func (g *Gateway[T, PT]) SoftDeleteByID(ctx context.Context, id uint, opts ...Option) (rec PT, err error) {
	defer func(start time.Time) { g.done(ctx, "soft_delete_by_id", start, err) }(time.Now())

	if !g.desc.SoftDelete {
		return nil, shared.NewValidationError("", fmt.Sprintf("%s:soft-delete-unsupported", g.desc.Name))
	}
	o := newOptions(opts)
	snapshot, err := g.take(g.conn(ctx).Model(new(T)).Where(schema.ColID+" = ?", id))
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("%s %d not found", g.desc.Name, id))
	}

	values := map[string]any{
		schema.ColDeletedAt: g.cfg.Now(),
		schema.ColIsDeleted: true,
	}
	if g.desc.Audit && !o.Actor.IsZero() {
		values[schema.ColDeletedBy] = o.Actor.ID
	}
	if err := g.conn(ctx).Model(new(T)).Where(schema.ColID+" = ?", id).Updates(values).Error; err != nil {
		return nil, g.translate(err)
	}
	return snapshot, nil
}

// cascade walks inbound associations of the rows about to be removed
type cascade struct {
	tx       *gorm.DB
	registry *schema.Registry
	visited  map[string]map[uint]bool
}

func (c *cascade) apply(target *schema.Descriptor, ids []uint) error {
	ids = c.unvisited(target.Name, ids)
	if len(ids) == 0 {
		return nil
	}
	deps, err := c.registry.Dependents(target.Name)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		owner, fk := dep.Owner, dep.Association.ForeignKey
		switch dep.Association.OnDelete {
		case schema.Cascade:
			var childIDs []uint
			if err := c.tx.Table(owner.Table).Where(map[string]any{fk: ids}).Pluck(schema.ColID, &childIDs).Error; err != nil {
				return err
			}
			if len(childIDs) == 0 {
				continue
			}
			if err := c.apply(owner, childIDs); err != nil {
				return err
			}
			if err := c.tx.Exec("DELETE FROM ? WHERE ? IN ?",
				clause.Table{Name: owner.Table}, clause.Column{Name: schema.ColID}, childIDs).Error; err != nil {
				return err
			}
		case schema.SetNull:
			if err := c.tx.Table(owner.Table).Where(map[string]any{fk: ids}).
				Updates(map[string]any{fk: nil}).Error; err != nil {
				return err
			}
		case schema.Restrict:
			var n int64
			if err := c.tx.Table(owner.Table).Where(map[string]any{fk: ids}).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return shared.NewValidationError(fk,
					fmt.Sprintf("%s:%s-error-restrict", owner.Name, dep.Association.Alias))
			}
		}
	}
	return nil
}

// unvisited filters out rows already handled, guarding against reference cycles
func (c *cascade) unvisited(entity string, ids []uint) []uint {
	seen, ok := c.visited[entity]
	if !ok {
		seen = map[uint]bool{}
		c.visited[entity] = seen
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
