package schema

import "slices"

func scalar(name, description string) *Type {
	return &Type{Name: name, Kind: TypeKindScalar, Description: description}
}

var builtinScalars = []*Type{
	scalar("String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."),
	scalar("Int", "The `Int` scalar type represents non-fractional signed whole numeric values."),
	scalar("Float", "The `Float` scalar type represents signed double-precision fractional values."),
	scalar("Boolean", "The `Boolean` scalar type represents `true` or `false`."),
	scalar("ID", "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."),
}

// IsBuiltin reports whether t is one of the specified scalar types.
func IsBuiltin(t *Type) bool { return slices.Contains(builtinScalars, t) }

// conditional builds @include and @skip, which differ only in wording.
func conditional(name, description, ifDescription string) *Directive {
	return NewDirective(name, description).
		AddArgument(NewInputValue("if", ifDescription, NonNullType(NamedType("Boolean")))).
		AddLocations("FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT")
}

var (
	includeDirective = conditional("include",
		"Directs the executor to include this field or fragment only when the `if` argument is true.",
		"Included when true.")
	skipDirective = conditional("skip",
		"Directs the executor to skip this field or fragment when the `if` argument is true.",
		"Skipped when true.")
)
