package executor

import (
	"slices"

	language "github.com/hanpama/bookgraph/internal/language"
	schema "github.com/hanpama/bookgraph/internal/schema"
)

// collectedField is one response key and every field node that selects it.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// fieldCollector groups the fields of a selection set by response key, in
// the order the keys first appear.
type fieldCollector struct {
	state      *executionState
	objectType *schema.Type
	groups     []collectedField
	byName     map[string]int
	visited    map[string]bool
}

// collectFields flattens fragments and drops nodes excluded by @skip or
// @include.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) []collectedField {
	c := &fieldCollector{
		state:      state,
		objectType: objectType,
		byName:     map[string]int{},
		visited:    map[string]bool{},
	}
	c.collect(selectionSet)
	return c.groups
}

func (c *fieldCollector) collect(selectionSet language.SelectionSet) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.collect(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if !c.included(sel.Directives) || c.visited[sel.Name] {
				continue
			}
			c.visited[sel.Name] = true
			def := c.state.document.Fragments.ForName(sel.Name)
			if def != nil && c.applies(def.TypeCondition) && c.included(def.Directives) {
				c.collect(def.SelectionSet)
			}
		}
	}
}

func (c *fieldCollector) add(field *language.Field) {
	name := field.Alias
	if name == "" {
		name = field.Name
	}
	if i, ok := c.byName[name]; ok {
		c.groups[i].Fields = append(c.groups[i].Fields, field)
		return
	}
	c.byName[name] = len(c.groups)
	c.groups = append(c.groups, collectedField{ResponseName: name, Fields: []*language.Field{field}})
}

// included evaluates @skip and @include. An argument that is not a boolean
// leaves the node in.
func (c *fieldCollector) included(directives language.DirectiveList) bool {
	if skip, ok := c.directiveIf(directives, "skip"); ok && skip {
		return false
	}
	if include, ok := c.directiveIf(directives, "include"); ok && !include {
		return false
	}
	return true
}

func (c *fieldCollector) directiveIf(directives language.DirectiveList, name string) (value, ok bool) {
	d := directives.ForName(name)
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	value, ok = valueFromASTWithVars(arg.Value, c.state.variableValues).(bool)
	return value, ok
}

// applies reports whether a fragment with typeCondition selects fields on
// the collector's object type.
func (c *fieldCollector) applies(typeCondition string) bool {
	if typeCondition == "" || typeCondition == c.objectType.Name {
		return true
	}
	conditional := c.state.schema.Type(typeCondition)
	if conditional == nil {
		return false
	}
	switch conditional.Kind {
	case schema.TypeKindInterface:
		return slices.Contains(c.objectType.Interfaces, typeCondition)
	case schema.TypeKindUnion:
		return slices.Contains(conditional.PossibleTypes, c.objectType.Name)
	}
	return false
}

// subSelection joins the selection sets of fields that share a response key.
func subSelection(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	return objectType.Field(fieldName)
}
