package shared

// Values is a loose attribute map keyed by column name.
// It is the input shape for creates, updates and upserts.
type Values map[string]any

// Clone returns a shallow copy of v
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge returns a copy of v overlaid with other; keys in other win
func (v Values) Merge(other Values) Values {
	out := v.Clone()
	for k, val := range other {
		out[k] = val
	}
	return out
}

// Without returns a copy of v minus the given keys
func (v Values) Without(keys ...string) Values {
	out := v.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Meta is transient per-call metadata attached to a record before persistence.
// It is never stored; lifecycle hooks read it to tell creates from updates.
type Meta struct {
	IsNew    bool
	IsUpdate bool
	// UpdateID is set by update-by-id calls
	UpdateID uint
	// UpdateWhere is the selection used by update calls
	UpdateWhere Values
}

// NewCreateMeta returns the metadata attached on create
func NewCreateMeta() *Meta {
	return &Meta{IsNew: true}
}

// NewUpdateMeta returns the metadata attached on update
func NewUpdateMeta(id uint, where Values) *Meta {
	return &Meta{IsUpdate: true, UpdateID: id, UpdateWhere: where}
}

// Actor is the acting principal recorded in audit columns.
// A zero Actor means the call is unattributed.
type Actor struct {
	ID uint
}

// IsZero reports whether the actor is absent
func (a Actor) IsZero() bool {
	return a.ID == 0
}
