package schema

import (
	"errors"
	"fmt"
	"sort"
)

// NewSchema returns a schema holding the builtin scalars and the @include and
// @skip directives. Root types are assigned by name and may be added later.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
	for _, t := range builtinScalars {
		s.AddType(t)
	}
	s.AddDirective(includeDirective).AddDirective(skipDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t under its name, replacing any previous type.
func (s *Schema) AddType(t *Type) *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	if s.Directives == nil {
		s.Directives = make(map[string]*Directive)
	}
	s.Directives[d.Name] = d
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type        { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}
func (t *Type) AddEnumValue(v *EnumValue) *Type    { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type  { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type          { t.OneOf = oneOf; return t }
func (t *Type) SetSpecifiedByURL(url string) *Type { t.SpecifiedByURL = &url; return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

// SetAsync marks the field as resolved in the per-depth batch instead of
// inline with its parent.
func (f *Field) SetAsync(async bool) *Field         { f.Async = async; return f }
func (f *Field) AddArgument(arg *InputValue) *Field { f.Arguments = append(f.Arguments, arg); return f }
func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue { v.DefaultValue = value; return v }
func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (v *EnumValue) Deprecate(reason string) *EnumValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(r bool) *Directive { d.IsRepeatable = r; return d }
func (d *Directive) AddArgument(arg *InputValue) *Directive {
	d.Arguments = append(d.Arguments, arg)
	return d
}
func (d *Directive) AddLocations(locations ...string) *Directive {
	d.Locations = append(d.Locations, locations...)
	return d
}

// Validate checks that every type reference names a registered type and that
// the root operation types exist and are objects. Types refer to each other
// by name, so they may be added in any order before Validate runs.
func (s *Schema) Validate() error {
	var errs []error
	if s.QueryType == "" {
		errs = append(errs, errors.New("schema has no query type"))
	}
	for _, root := range []string{s.QueryType, s.MutationType, s.SubscriptionType} {
		if root == "" {
			continue
		}
		t := s.Types[root]
		if t == nil {
			errs = append(errs, fmt.Errorf("root type %s is not defined", root))
		} else if t.Kind != TypeKindObject {
			errs = append(errs, fmt.Errorf("root type %s must be an object, got %s", root, t.Kind))
		}
	}

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := s.Types[name]
		for _, f := range t.Fields {
			if err := s.checkRef(f.Type); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", name, f.Name, err))
			}
			for _, arg := range f.Arguments {
				if err := s.checkRef(arg.Type); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s(%s): %w", name, f.Name, arg.Name, err))
				}
			}
		}
		for _, in := range t.InputFields {
			if err := s.checkRef(in.Type); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", name, in.Name, err))
			}
		}
		for _, iface := range t.Interfaces {
			if s.Types[iface] == nil {
				errs = append(errs, fmt.Errorf("%s: unknown interface %s", name, iface))
			}
		}
		for _, pt := range t.PossibleTypes {
			if s.Types[pt] == nil {
				errs = append(errs, fmt.Errorf("%s: unknown possible type %s", name, pt))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Schema) checkRef(ref *TypeRef) error {
	named := GetNamedType(ref)
	if named == "" {
		return errors.New("missing type")
	}
	if s.Types[named] == nil {
		return fmt.Errorf("unknown type %s", named)
	}
	return nil
}
