package introspection

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	executor "github.com/hanpama/bookgraph/internal/executor"
	schema "github.com/hanpama/bookgraph/internal/schema"
)

// IntrospectionWrapper holds both the runtime and extended schema
type IntrospectionWrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a Runtime that answers __schema and __type and delegates every
// other field to base. The returned schema is a copy of sch extended with the
// introspection types; sch itself is not modified.
func Wrap(base executor.Runtime, sch *schema.Schema) *IntrospectionWrapper {
	extendedSchema := extendSchemaWithIntrospection(sch)
	runtime := &runtime{
		base:   base,
		schema: extendedSchema,
	}
	return &IntrospectionWrapper{
		Runtime: runtime,
		Schema:  extendedSchema,
	}
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema // extended schema, also the one being introspected
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		if v, ok := resolveSchemaField(src, field); ok {
			return v, nil
		}
	case *schema.Type:
		if v, ok := resolveTypeField(r.schema, src, field, args); ok {
			return v, nil
		}
	case *schema.TypeRef:
		if v, ok := resolveTypeRefField(r.schema, src, field, args); ok {
			return v, nil
		}
	case *schema.Field:
		if v, ok := resolveFieldField(src, field, args); ok {
			return v, nil
		}
	case *schema.InputValue:
		if v, ok := resolveInputValueField(src, field); ok {
			return v, nil
		}
	case *schema.EnumValue:
		if v, ok := resolveEnumValueField(src, field); ok {
			return v, nil
		}
	case *schema.Directive:
		if v, ok := resolveDirectiveField(src, field, args); ok {
			return v, nil
		}
	}

	if objectType == r.schema.QueryType {
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			return r.resolveTypeQuery(args), nil
		}
	}

	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

// SerializeLeafValue unwraps the schema model's leaf representations before
// handing them to the base runtime.
func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch v := value.(type) {
	case *string:
		value = *v
	case schema.TypeKind:
		value = string(v)
	case schema.TypeRefKind:
		value = string(v)
	}
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

func (r *runtime) resolveTypeQuery(args map[string]any) *schema.Type {
	name, _ := args["name"].(string)
	if name == "" {
		return nil
	}
	return r.schema.Types[name]
}

func byName[T any](name func(T) string) func(a, b T) int {
	return func(a, b T) int { return strings.Compare(name(a), name(b)) }
}

func typeName(t *schema.Type) string           { return t.Name }
func directiveName(d *schema.Directive) string { return d.Name }

// namedTypes looks up names in sch, skipping unknown ones, sorted by name.
func namedTypes(sch *schema.Schema, names []string) []*schema.Type {
	out := []*schema.Type{}
	for _, name := range names {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	slices.SortFunc(out, byName(typeName))
	return out
}

// visible drops deprecated items unless includeDeprecated is set in args.
func visible[T any](items []T, deprecated func(T) bool, args map[string]any) []T {
	include, _ := args["includeDeprecated"].(bool)
	out := []T{}
	for _, it := range items {
		if include || !deprecated(it) {
			out = append(out, it)
		}
	}
	return out
}

func fieldDeprecated(f *schema.Field) bool         { return f.IsDeprecated }
func inputDeprecated(v *schema.InputValue) bool    { return v.IsDeprecated }
func enumValueDeprecated(v *schema.EnumValue) bool { return v.IsDeprecated }

func deprecationReason(deprecated bool, reason string) *string {
	if !deprecated {
		return nil
	}
	return &reason
}

func hasFields(t *schema.Type) bool {
	return t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface
}

// typeFields lists the fields of objects and interfaces in declaration order.
// Meta fields such as __schema on the query root are not listed.
func typeFields(t *schema.Type, args map[string]any) []*schema.Field {
	if !hasFields(t) {
		return nil
	}
	fields := slices.DeleteFunc(slices.Clone(t.Fields), func(f *schema.Field) bool {
		return strings.HasPrefix(f.Name, "__")
	})
	return visible(fields, fieldDeprecated, args)
}

func defaultValue(v *schema.InputValue) *string {
	if v.DefaultValue == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v.DefaultValue)
	return &s
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return slices.SortedFunc(maps.Values(sch.Types), byName(typeName)), true
	case "queryType":
		return sch.QueryRoot(), true
	case "mutationType":
		return sch.MutationRoot(), true
	case "subscriptionType":
		return sch.SubscriptionRoot(), true
	case "directives":
		return slices.SortedFunc(maps.Values(sch.Directives), byName(directiveName)), true
	case "description":
		return optionalString(sch.Description), true
	}
	return nil, false
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optionalString(t.Description), true
	case "specifiedByURL":
		return t.SpecifiedByURL, true
	case "fields":
		return typeFields(t, args), true
	case "interfaces":
		if !hasFields(t) {
			return nil, true
		}
		return namedTypes(sch, t.Interfaces), true
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, true
		}
		return namedTypes(sch, t.PossibleTypes), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		return visible(t.EnumValues, enumValueDeprecated, args), true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return visible(t.InputFields, inputDeprecated, args), true
	case "isOneOf":
		return t.OneOf, true
	case "ofType":
		// Wrapper types (LIST/NON_NULL) are represented as TypeRef nodes, so named types never expose ofType.
		return nil, true
	}
	return nil, false
}

func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		if tr.Kind == schema.TypeRefKindNonNull || tr.Kind == schema.TypeRefKindList {
			return string(tr.Kind), true
		}
		if def := sch.Types[tr.Named]; def != nil {
			return string(def.Kind), true
		}
		return nil, true
	case "name":
		if schema.IsNonNull(tr) || schema.IsList(tr) {
			return nil, true
		}
		return tr.Named, true
	case "ofType":
		if tr.Kind == schema.TypeRefKindNonNull || tr.Kind == schema.TypeRefKindList {
			return tr.OfType, true
		}
		return nil, true
	default:
		if name := schema.GetNamedType(tr); name != "" {
			if def := sch.Types[name]; def != nil {
				return resolveTypeField(sch, def, field, args)
			}
		}
		return nil, true
	}
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optionalString(f.Description), true
	case "args":
		return visible(f.Arguments, inputDeprecated, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optionalString(a.Description), true
	case "type":
		return a.Type, true
	case "defaultValue":
		return defaultValue(a), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optionalString(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optionalString(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return slices.Sorted(slices.Values(d.Locations)), true
	case "args":
		return visible(d.Arguments, inputDeprecated, args), true
	}
	return nil, false
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
