package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Types and directives are written in
// name order; builtin scalars and directives are left out.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{}
	w.schemaDefinition(s)

	for _, name := range slices.Sorted(maps.Keys(s.Types)) {
		if typ := s.Types[name]; !IsBuiltin(typ) {
			w.typeDefinition(typ)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s.Directives)) {
		if d := s.Directives[name]; d != includeDirective && d != skipDirective {
			w.directive(d)
		}
	}
	return strings.TrimRight(w.String(), "\n") + "\n"
}

type sdlWriter struct {
	strings.Builder
}

func (w *sdlWriter) printf(format string, args ...any) { fmt.Fprintf(w, format, args...) }

// schemaDefinition writes a schema block only when a root type does not use
// its conventional name.
func (w *sdlWriter) schemaDefinition(s *Schema) {
	roots := []struct{ op, name, conventional string }{
		{"query", s.QueryType, "Query"},
		{"mutation", s.MutationType, "Mutation"},
		{"subscription", s.SubscriptionType, "Subscription"},
	}
	if !slices.ContainsFunc(roots, func(r struct{ op, name, conventional string }) bool {
		return r.name != "" && r.name != r.conventional
	}) {
		return
	}
	w.description(s.Description)
	w.WriteString("schema {\n")
	for _, r := range roots {
		if r.name != "" {
			w.printf("  %s: %s\n", r.op, r.name)
		}
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) description(desc string) {
	if desc == "" {
		return
	}
	w.printf("\"\"\"\n%s\n\"\"\"\n", strings.ReplaceAll(desc, `"""`, `\"""`))
}

func (w *sdlWriter) deprecation(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	w.WriteString(" @deprecated")
	if reason != "" {
		w.printf("(reason: %s)", strconv.Quote(reason))
	}
}

// inputValue writes "name: Type = default" without a trailing newline.
func (w *sdlWriter) inputValue(v *InputValue) {
	w.printf("%s: %s", v.Name, v.Type)
	if v.DefaultValue != nil {
		w.printf(" = %s", renderValue(v.DefaultValue))
	}
}

func (w *sdlWriter) arguments(args []*InputValue) {
	if len(args) == 0 {
		return
	}
	w.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			w.WriteString(", ")
		}
		w.inputValue(arg)
	}
	w.WriteString(")")
}

func (w *sdlWriter) typeDefinition(typ *Type) {
	w.description(typ.Description)
	switch typ.Kind {
	case TypeKindScalar:
		w.printf("scalar %s", typ.Name)
		if typ.SpecifiedByURL != nil {
			w.printf(" @specifiedBy(url: %s)", strconv.Quote(*typ.SpecifiedByURL))
		}
		w.WriteString("\n\n")

	case TypeKindEnum:
		w.printf("enum %s {\n", typ.Name)
		for _, v := range typ.EnumValues {
			w.description(v.Description)
			w.printf("  %s", v.Name)
			w.deprecation(v.IsDeprecated, v.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")

	case TypeKindInputObject:
		w.printf("input %s", typ.Name)
		if typ.OneOf {
			w.WriteString(" @oneOf")
		}
		w.WriteString(" {\n")
		for _, f := range typ.InputFields {
			w.description(f.Description)
			w.WriteString("  ")
			w.inputValue(f)
			w.deprecation(f.IsDeprecated, f.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")

	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if typ.Kind == TypeKindInterface {
			keyword = "interface"
		}
		w.printf("%s %s", keyword, typ.Name)
		if len(typ.Interfaces) > 0 {
			w.printf(" implements %s", strings.Join(typ.Interfaces, " & "))
		}
		w.WriteString(" {\n")
		for _, f := range typ.Fields {
			w.description(f.Description)
			w.printf("  %s", f.Name)
			w.arguments(f.Arguments)
			w.printf(": %s", f.Type)
			w.deprecation(f.IsDeprecated, f.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")

	case TypeKindUnion:
		w.printf("union %s = %s\n\n", typ.Name, strings.Join(typ.PossibleTypes, " | "))
	}
}

func (w *sdlWriter) directive(d *Directive) {
	w.description(d.Description)
	w.printf("directive @%s", d.Name)
	w.arguments(d.Arguments)
	if d.IsRepeatable {
		w.WriteString(" repeatable")
	}
	w.printf(" on %s\n\n", strings.Join(d.Locations, " | "))
}

// renderValue renders a default value as a GraphQL literal. Strings are
// quoted; anything unrecognised is written bare, which covers enum values.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, k+": "+renderValue(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
