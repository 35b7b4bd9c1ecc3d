package schema

import "unicode"

// Policy is a referential action applied to dependents
type Policy string

const (
	Cascade  Policy = "CASCADE"
	SetNull  Policy = "SET NULL"
	Restrict Policy = "RESTRICT"
	NoAction Policy = "NO ACTION"
)

// Association is a directed belongs-to relationship: the owning entity carries
// ForeignKey, which references Target's primary key.
type Association struct {
	// Alias distinguishes several associations to the same target (creator, editor, ...)
	Alias      string
	Target     string
	ForeignKey string
	Required   bool
	// RequiredMessage is the message key reported when a required reference is missing
	RequiredMessage string
	OnDelete        Policy
	OnUpdate        Policy
}

// AssociationOption customizes BelongsTo
type AssociationOption func(*Association)

// As sets the alias
func As(alias string) AssociationOption {
	return func(a *Association) { a.Alias = alias }
}

// RequiredBy marks the association as mandatory on create
func RequiredBy(msg string) AssociationOption {
	return func(a *Association) {
		a.Required = true
		a.RequiredMessage = msg
	}
}

// OnDelete sets the delete policy
func OnDelete(p Policy) AssociationOption {
	return func(a *Association) { a.OnDelete = p }
}

// OnUpdate sets the update policy
func OnUpdate(p Policy) AssociationOption {
	return func(a *Association) { a.OnUpdate = p }
}

// BelongsTo declares an association with SET NULL / CASCADE defaults.
// The alias defaults to the target name with a lower-case first letter.
func BelongsTo(target, foreignKey string, opts ...AssociationOption) Association {
	a := Association{
		Target:     target,
		ForeignKey: foreignKey,
		OnDelete:   SetNull,
		OnUpdate:   Cascade,
	}
	for _, opt := range opts {
		opt(&a)
	}
	if a.Alias == "" {
		a.Alias = defaultAlias(target)
	}
	return a
}

// Audited returns the creator/editor/deletor associations for audit columns
func Audited(user string) []Association {
	return []Association{
		BelongsTo(user, ColCreatedBy, As("creator")),
		BelongsTo(user, ColUpdatedBy, As("editor")),
		BelongsTo(user, ColDeletedBy, As("deletor")),
	}
}

func defaultAlias(target string) string {
	if target == "" {
		return ""
	}
	r := []rune(target)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Dependent is an inbound association: Owner holds a foreign key to the entity asked about
type Dependent struct {
	Owner       *Descriptor
	Association Association
}
