// Package schema is the executable type system: named types, their fields
// and the wrapped references between them. References are by name, so types
// may be added in any order.
package schema

import "slices"

type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
	Description      string
}

// QueryRoot, MutationRoot and SubscriptionRoot return nil when the schema
// has no such root.
func (s *Schema) QueryRoot() *Type        { return s.Types[s.QueryType] }
func (s *Schema) MutationRoot() *Type     { return s.Types[s.MutationType] }
func (s *Schema) SubscriptionRoot() *Type { return s.Types[s.SubscriptionType] }

// Type returns the named type or nil.
func (s *Schema) Type(name string) *Type { return s.Types[name] }

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Type is a named type. Which of the slices are used depends on Kind.
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field
	Interfaces     []string
	PossibleTypes  []string
	EnumValues     []*EnumValue
	InputFields    []*InputValue
	SpecifiedByURL *string
	OneOf          bool
}

// Field returns the field with the given name or nil.
func (t *Type) Field(name string) *Field {
	return find(t.Fields, func(f *Field) bool { return f.Name == name })
}

// Field is an output field. Async fields are resolved in depth-wide batches
// instead of as soon as their parent completes.
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Async             bool
	IsDeprecated      bool
	DeprecationReason string
}

// Argument returns the argument definition with the given name or nil.
func (f *Field) Argument(name string) *InputValue {
	return find(f.Arguments, func(a *InputValue) bool { return a.Name == name })
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// TypeRef points at a named type, possibly wrapped in List and Non-Null.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef
	Named  string
}

func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }

// IsNonNull reports whether t is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether t is a list, nullable or not.
func IsList(t *TypeRef) bool {
	if IsNonNull(t) {
		t = t.OfType
	}
	return t != nil && t.Kind == TypeRefKindList
}

// Unwrap removes one layer of List or Non-Null.
func Unwrap(t *TypeRef) *TypeRef {
	if t.Kind == TypeRefKindNamed {
		return t
	}
	return t.OfType
}

// GetNamedType returns the name of the innermost type, or "" for nil.
func GetNamedType(t *TypeRef) string {
	for ; t != nil; t = t.OfType {
		if t.Named != "" {
			return t.Named
		}
	}
	return ""
}

// String renders t in SDL form, e.g. "[Book!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNamed:
		return t.Named
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	}
	return ""
}

func find[T any](items []*T, match func(*T) bool) *T {
	if i := slices.IndexFunc(items, match); i >= 0 {
		return items[i]
	}
	return nil
}
