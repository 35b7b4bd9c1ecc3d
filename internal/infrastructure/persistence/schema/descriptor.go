package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ecommerce/backend/internal/domain/shared"
)

// Column names shared by every entity
const (
	ColID        = "id"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
	ColDeletedAt = "deleted_at"
	ColIsDeleted = "is_deleted"
	ColCreatedBy = "created_by"
	ColUpdatedBy = "updated_by"
	ColDeletedBy = "deleted_by"
)

// Mode selects which fields Validate checks
type Mode int

const (
	// ModeCreate checks every declared field; missing keys count as nil
	ModeCreate Mode = iota
	// ModeUpdate checks only the keys present in the input
	ModeUpdate
)

// Index is a (possibly composite) index declaration
type Index struct {
	Name    string
	Columns []string
	Unique  bool
	// Message is the message key used when a unique index check fails
	Message string
}

// Options are entity-level switches
type Options struct {
	SoftDelete bool
	Audit      bool
	Indexes    []Index
}

// Lookup resolves sibling descriptors by entity name during association resolution
type Lookup interface {
	Lookup(name string) (*Descriptor, bool)
}

// Descriptor is the static definition of one entity
type Descriptor struct {
	Name   string
	Table  string
	Fields []Field
	Options
	// Associate declares outbound associations. It is called once by Registry.Resolve,
	// after every descriptor is registered.
	Associate func(Lookup) ([]Association, error)

	effective    []Field
	byName       map[string]int
	associations []Association
}

// defaultFields returns the columns every entity carries, plus the optional families
func defaultFields(opts Options) []Field {
	fields := []Field{
		{Name: ColID, Type: Integer, ExcludeInput: true, Managed: true},
		{Name: ColCreatedAt, Type: Timestamp, Managed: true},
		{Name: ColUpdatedAt, Type: Timestamp, Managed: true},
	}
	if opts.SoftDelete {
		fields = append(fields,
			Field{Name: ColDeletedAt, Type: Timestamp, Nullable: true, Managed: true},
			Field{Name: ColIsDeleted, Type: Boolean, Default: false, Managed: true},
		)
	}
	if opts.Audit {
		fields = append(fields,
			Field{Name: ColCreatedBy, Type: Integer, Nullable: true, Managed: true},
			Field{Name: ColUpdatedBy, Type: Integer, Nullable: true, Managed: true},
			Field{Name: ColDeletedBy, Type: Integer, Nullable: true, Managed: true},
		)
	}
	return fields
}

// Effective returns the defaults merged under the entity's own fields.
// An own field with the same name as a default replaces it in place.
func (d *Descriptor) Effective() []Field {
	if d.effective != nil {
		return d.effective
	}
	fields := defaultFields(d.Options)
	index := make(map[string]int, len(fields)+len(d.Fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	for _, f := range d.Fields {
		if i, ok := index[f.Name]; ok {
			fields[i] = f
			continue
		}
		index[f.Name] = len(fields)
		fields = append(fields, f)
	}
	d.effective = fields
	d.byName = index
	return fields
}

// Field returns the effective field named name
func (d *Descriptor) Field(name string) (Field, bool) {
	fields := d.Effective()
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// HasField reports whether name is an effective column
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// UniqueFields returns the single-column unique fields
func (d *Descriptor) UniqueFields() []Field {
	var out []Field
	for _, f := range d.Effective() {
		if f.Unique {
			out = append(out, f)
		}
	}
	return out
}

// UniqueIndexes returns the composite unique indexes
func (d *Descriptor) UniqueIndexes() []Index {
	var out []Index
	for _, idx := range d.Indexes {
		if idx.Unique {
			out = append(out, idx)
		}
	}
	return out
}

// Validate checks values against the effective schema and, on create, the
// required associations. It returns *shared.ValidationErrors or nil.
func (d *Descriptor) Validate(values shared.Values, mode Mode) error {
	errs := &shared.ValidationErrors{}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		f, ok := d.Field(key)
		if !ok {
			errs.Add(key, fmt.Sprintf("%s:unknown-field", d.Name))
			continue
		}
		if f.ExcludeInput {
			errs.Add(key, fmt.Sprintf("%s:%s-not-assignable", d.Name, key))
		}
	}

	requiredFK := make(map[string]bool)
	for _, a := range d.associations {
		if a.Required {
			requiredFK[a.ForeignKey] = true
		}
	}

	for _, f := range d.Effective() {
		if f.Managed {
			continue
		}
		v, present := values[f.Name]
		if mode == ModeUpdate && !present {
			continue
		}
		if !f.Type.Conforms(v) {
			errs.Add(f.Name, fmt.Sprintf("%s:%s-error-type", d.Name, f.Name))
			continue
		}
		if mode == ModeCreate && deref(v) == nil && !f.Nullable && f.Default == nil &&
			!hasRequired(f.Rules) && !requiredFK[f.Name] {
			errs.Add(f.Name, fmt.Sprintf("%s:%s-error-required", d.Name, f.Name))
			continue
		}
		for _, r := range f.Rules {
			if !r.Check(v) {
				errs.Add(f.Name, r.Message)
				break
			}
		}
	}

	if mode == ModeCreate {
		for _, a := range d.associations {
			if a.Required && isZero(values[a.ForeignKey]) && !fieldFailed(errs, a.ForeignKey) {
				errs.Add(a.ForeignKey, a.RequiredMessage)
			}
		}
	}
	return errs.OrNil()
}

func hasRequired(rules []Rule) bool {
	for _, r := range rules {
		if !r.skipNil {
			return true
		}
	}
	return false
}

func fieldFailed(errs *shared.ValidationErrors, field string) bool {
	for _, e := range errs.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
