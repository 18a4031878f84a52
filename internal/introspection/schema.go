package introspection

import (
	"maps"

	schema "github.com/hanpama/bookgraph/internal/schema"
)

// extendSchemaWithIntrospection returns a copy of original with the
// introspection types added and __schema/__type on the query root.
func extendSchemaWithIntrospection(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            maps.Clone(original.Types),
		Directives:       original.Directives,
		Description:      original.Description,
	}
	if extended.Types == nil {
		extended.Types = make(map[string]*schema.Type)
	}

	for _, t := range []*schema.Type{
		schemaType(),
		typeType(),
		fieldType(),
		inputValueType(),
		enumValueType(),
		directiveType(),
		typeKindEnum(),
		directiveLocationEnum(),
	} {
		extended.AddType(t)
	}

	if queryType := extended.QueryRoot(); queryType != nil {
		// copy so the original root stays free of meta fields
		root := *queryType
		root.Fields = append(append([]*schema.Field(nil), queryType.Fields...),
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(schema.NamedType("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.",
				schema.NamedType("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.", nonNull("String"))),
		)
		extended.AddType(&root)
	}
	return extended
}

func nonNull(name string) *schema.TypeRef { return schema.NonNullType(schema.NamedType(name)) }

func listOf(name string) *schema.TypeRef { return schema.ListType(nonNull(name)) }

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", schema.NamedType("Boolean")).SetDefault(false)
}

func schemaType() *schema.Type {
	return schema.NewType("__Schema", schema.TypeKindObject,
		"A GraphQL Schema defines the capabilities of a GraphQL server.").
		AddField(schema.NewField("description", "A description of the schema.", schema.NamedType("String"))).
		AddField(schema.NewField("types", "A list of all types supported by this server.", schema.NonNullType(listOf("__Type")))).
		AddField(schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull("__Type"))).
		AddField(schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", schema.NamedType("__Type"))).
		AddField(schema.NewField("subscriptionType", "If this server support subscription, the type that subscription operations will be rooted at.", schema.NamedType("__Type"))).
		AddField(schema.NewField("directives", "A list of all directives supported by this server.", schema.NonNullType(listOf("__Directive"))))
}

func typeType() *schema.Type {
	return schema.NewType("__Type", schema.TypeKindObject,
		"The fundamental unit of any GraphQL Schema is the type.").
		AddField(schema.NewField("kind", "", nonNull("__TypeKind"))).
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("description", "", schema.NamedType("String"))).
		AddField(schema.NewField("specifiedByURL", "", schema.NamedType("String"))).
		AddField(schema.NewField("fields", "", listOf("__Field")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("interfaces", "", listOf("__Type"))).
		AddField(schema.NewField("possibleTypes", "", listOf("__Type"))).
		AddField(schema.NewField("enumValues", "", listOf("__EnumValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("inputFields", "", listOf("__InputValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("ofType", "", schema.NamedType("__Type"))).
		AddField(schema.NewField("isOneOf", "", schema.NamedType("Boolean")))
}

func fieldType() *schema.Type {
	return schema.NewType("__Field", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", schema.NamedType("String"))).
		AddField(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated())).
		AddField(schema.NewField("type", "", nonNull("__Type"))).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", schema.NamedType("String")))
}

func inputValueType() *schema.Type {
	return schema.NewType("__InputValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", schema.NamedType("String"))).
		AddField(schema.NewField("type", "", nonNull("__Type"))).
		AddField(schema.NewField("defaultValue", "", schema.NamedType("String"))).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", schema.NamedType("String")))
}

func enumValueType() *schema.Type {
	return schema.NewType("__EnumValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", schema.NamedType("String"))).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", schema.NamedType("String")))
}

func directiveType() *schema.Type {
	return schema.NewType("__Directive", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", schema.NamedType("String"))).
		AddField(schema.NewField("isRepeatable", "", nonNull("Boolean"))).
		AddField(schema.NewField("locations", "", schema.NonNullType(listOf("__DirectiveLocation")))).
		AddField(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()))
}

func enumType(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}

func typeKindEnum() *schema.Type {
	return enumType("__TypeKind",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL")
}

func directiveLocationEnum() *schema.Type {
	return enumType("__DirectiveLocation",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION",
		"FRAGMENT_SPREAD", "INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA",
		"SCALAR", "OBJECT", "FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INTERFACE",
		"UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT", "INPUT_FIELD_DEFINITION")
}
