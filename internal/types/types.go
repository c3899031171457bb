// Package types implements the closed type-descriptor sum of SPEC_FULL.md
// §3.4: four basic types, an array type, and two sentinels (error, unknown).
package types

import "fmt"

// Type is a closed sum; isType is unexported so no package outside this one
// can add a new case, matching the teacher's own closed type-hierarchy idiom.
type Type interface {
	isType()
	String() string
}

// Basic is one of the four scalar kinds.
type Basic int

const (
	Integer Basic = iota
	Boolean
	String
	Real
)

func (Basic) isType() {}

func (b Basic) String() string {
	switch b {
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case String:
		return "string"
	case Real:
		return "real"
	default:
		return "basic?"
	}
}

// Array is a fixed-bounds array type (lo..hi) of some element type.
type Array struct {
	Lo, Hi int
	Elem   Type
}

func (Array) isType() {}

func (a Array) String() string {
	return fmt.Sprintf("array[%d..%d] of %s", a.Lo, a.Hi, a.Elem)
}

// Len returns the number of storage slots this array occupies.
func (a Array) Len() int {
	return a.Hi - a.Lo + 1
}

// errorType suppresses cascading diagnostics: once an expression's type is
// Error, every operation that consumes it returns Error again without a new
// diagnostic.
type errorType struct{}

func (errorType) isType()        {}
func (errorType) String() string { return "<error>" }

// Error is the sentinel propagated after a diagnosed type error.
var Error Type = errorType{}

// unknownType is used only during construction, before a type is resolved.
type unknownType struct{}

func (unknownType) isType()        {}
func (unknownType) String() string { return "<unknown>" }

// Unknown is the sentinel for a not-yet-determined type.
var Unknown Type = unknownType{}

// IsError reports whether t is the Error sentinel.
func IsError(t Type) bool {
	_, ok := t.(errorType)
	return ok
}

// IsArray reports whether t is an Array, returning it if so.
func IsArray(t Type) (Array, bool) {
	a, ok := t.(Array)
	return a, ok
}

// IsNumeric reports whether t is Integer or Real.
func IsNumeric(t Type) bool {
	b, ok := t.(Basic)
	return ok && (b == Integer || b == Real)
}

// Identical reports whether a and b are the same type. Two arrays are
// identical only if their bounds and element types match exactly; this
// compiler never needs structural array-type unification beyond that since
// array types are never assignment targets themselves (§4.4 only ever
// compares element types once an ArrayAccess has resolved).
func Identical(a, b Type) bool {
	if IsError(a) || IsError(b) {
		return true
	}
	switch av := a.(type) {
	case Basic:
		bv, ok := b.(Basic)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		return ok && av.Lo == bv.Lo && av.Hi == bv.Hi && Identical(av.Elem, bv.Elem)
	default:
		return false
	}
}

// AssignableTo implements the "expected ⇐ actual" compatibility relation of
// SPEC_FULL.md §4.4: identical types are compatible, real⇐integer widens,
// error is silently compatible on either side, everything else is not.
func AssignableTo(actual, expected Type) bool {
	if IsError(actual) || IsError(expected) {
		return true
	}
	if Identical(actual, expected) {
		return true
	}
	if ab, ok := actual.(Basic); ok && ab == Integer {
		if eb, ok := expected.(Basic); ok && eb == Real {
			return true
		}
	}
	return false
}
