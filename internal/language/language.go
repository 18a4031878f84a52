package language

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Error is a located GraphQL syntax or validation error.
type Error = gqlerror.Error

// ErrorList is a list of located errors.
type ErrorList = gqlerror.List

// ValidationSchema is a schema in the form the query validator understands.
type ValidationSchema = ast.Schema

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses SDL together with the GraphQL prelude (builtin scalars,
// directives and introspection types) and validates it.
func LoadSchema(name, sdl string) (*ValidationSchema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadQuery parses source and validates it against s. The returned list is
// empty when the document is valid.
func LoadQuery(s *ValidationSchema, source string) (*QueryDocument, ErrorList) {
	return gqlparser.LoadQuery(s, source)
}

// SelectOperation picks the operation named operationName, or the only
// operation of doc when no name is given.
func SelectOperation(doc *QueryDocument, operationName string) (*OperationDefinition, error) {
	if operationName == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, fmt.Errorf("document contains no operations")
		case 1:
			return doc.Operations[0], nil
		default:
			return nil, fmt.Errorf("operation name is required when the document contains %d operations", len(doc.Operations))
		}
	}
	if op := doc.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("unknown operation %q", operationName)
}
