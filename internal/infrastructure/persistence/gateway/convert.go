package gateway

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
)

// build creates a record from values, applying descriptor defaults for missing keys
func (g *Gateway[T, PT]) build(ctx context.Context, values shared.Values) (PT, error) {
	rec := PT(new(T))
	rv := reflect.ValueOf(rec).Elem()

	withDefaults := values.Clone()
	for _, f := range g.desc.Effective() {
		if _, ok := withDefaults[f.Name]; !ok && f.Default != nil {
			withDefaults[f.Name] = f.Default
		}
	}

	for _, key := range slices.Sorted(maps.Keys(withDefaults)) {
		field := g.model.LookUpField(key)
		if field == nil {
			return nil, shared.NewValidationError(key, fmt.Sprintf("%s:unknown-field", g.desc.Name))
		}
		if err := field.Set(ctx, rv, withDefaults[key]); err != nil {
			return nil, shared.NewValidationError(key, fmt.Sprintf("%s:%s-error-type", g.desc.Name, key))
		}
	}
	return rec, nil
}

// ValuesOf snapshots the declared columns of rec. Nil pointers become nil and
// non-nil pointers are dereferenced.
func (g *Gateway[T, PT]) ValuesOf(ctx context.Context, rec PT) shared.Values {
	out := make(shared.Values, len(g.desc.Effective()))
	if rec == nil {
		return out
	}
	rv := reflect.ValueOf(rec).Elem()
	for _, f := range g.desc.Effective() {
		field := g.model.LookUpField(f.Name)
		if field == nil {
			continue
		}
		v, _ := field.ValueOf(ctx, rv)
		out[f.Name] = plain(v)
	}
	return out
}

func plain(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}

// checkWhere rejects filter keys that are not columns of the entity
func checkWhere(d *schema.Descriptor, where shared.Values) error {
	errs := &shared.ValidationErrors{}
	for _, key := range slices.Sorted(maps.Keys(where)) {
		if !d.HasField(key) {
			errs.Add(key, fmt.Sprintf("%s:unknown-field", d.Name))
		}
	}
	return errs.OrNil()
}

// idOf reads a primary key from loosely typed input; absent or non-positive means 0
func idOf(v any) uint {
	v = plain(v)
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() > 0 {
			return uint(rv.Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		if rv.Float() > 0 {
			return uint(rv.Float())
		}
	}
	return 0
}
