// Package schema holds per-entity attribute descriptors, their validation rules,
// and the two-phase registry that resolves associations between entities.
package schema

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldType is the semantic type of an attribute
type FieldType int

const (
	Integer FieldType = iota
	String
	Text
	Float
	Decimal
	Boolean
	Timestamp
	Blob
)

var fieldTypeNames = map[FieldType]string{
	Integer:   "integer",
	String:    "string",
	Text:      "text",
	Float:     "float",
	Decimal:   "decimal",
	Boolean:   "boolean",
	Timestamp: "timestamp",
	Blob:      "blob",
}

// String returns the lower-case type name
func (t FieldType) String() string {
	if s, ok := fieldTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Field describes one column of an entity
type Field struct {
	// Name is the column name
	Name     string
	Type     FieldType
	Nullable bool
	Unique   bool
	// UniqueMessage is the message key used when a unique check fails
	UniqueMessage string
	Default       any
	Rules         []Rule
	// ExcludeInput marks columns that callers may never supply (the primary key)
	ExcludeInput bool
	// Managed marks columns stamped by the store itself (timestamps, audit, soft delete)
	Managed bool
}

// Rule is a predicate plus the message key reported when it fails
type Rule struct {
	Message string
	// skipNil lets optional fields pass when absent
	skipNil bool
	check   func(v any) bool
}

// Check runs the rule against v. Absent values pass every rule except Required.
func (r Rule) Check(v any) bool {
	v = deref(v)
	if v == nil && r.skipNil {
		return true
	}
	return r.check(v)
}

// Required fails on nil, empty strings and zero numbers
func Required(msg string) Rule {
	return Rule{Message: msg, check: func(v any) bool { return !isZero(v) }}
}

// Length bounds the rune length of a string value. max <= 0 means unbounded.
func Length(min, max int, msg string) Rule {
	return Rule{Message: msg, skipNil: true, check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		n := utf8.RuneCountInString(s)
		return n >= min && (max <= 0 || n <= max)
	}}
}

// Pattern requires a string value to match re
func Pattern(re *regexp.Regexp, msg string) Rule {
	return Rule{Message: msg, skipNil: true, check: func(v any) bool {
		s, ok := v.(string)
		return ok && re.MatchString(s)
	}}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func tagValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Tag checks the value with a go-playground/validator tag such as "email" or "alphanum"
func Tag(tag, msg string) Rule {
	return Rule{Message: msg, skipNil: true, check: func(v any) bool {
		return tagValidator().Var(v, tag) == nil
	}}
}

// Min requires a numeric value of at least n
func Min(n float64, msg string) Rule {
	return Rule{Message: msg, skipNil: true, check: func(v any) bool {
		if str, ok := v.(string); ok {
			d, err := decimal.NewFromString(str)
			return err == nil && d.GreaterThanOrEqual(decimal.NewFromFloat(n))
		}
		f, ok := toFloat(v)
		return ok && f >= n
	}}
}

// Predicate wraps an arbitrary check
func Predicate(fn func(v any) bool, msg string) Rule {
	return Rule{Message: msg, skipNil: true, check: fn}
}

// Conforms reports whether v is acceptable for the field type. Nil always conforms.
func (t FieldType) Conforms(v any) bool {
	v = deref(v)
	if v == nil {
		return true
	}
	switch t {
	case Integer:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case String, Text:
		_, ok := v.(string)
		return ok
	case Float:
		_, ok := toFloat(v)
		return ok
	case Decimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return true
		case string:
			_, err := decimal.NewFromString(x)
			return err == nil
		}
		_, ok := toFloat(v)
		return ok
	case Boolean:
		_, ok := v.(bool)
		return ok
	case Timestamp:
		_, ok := v.(time.Time)
		return ok
	case Blob:
		_, ok := v.([]byte)
		return ok
	}
	return false
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func isZero(v any) bool {
	v = deref(v)
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return reflect.ValueOf(v).IsZero()
}

func toFloat(v any) (float64, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
