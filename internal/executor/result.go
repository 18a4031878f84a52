package executor

import (
	"errors"
	"maps"
)

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location is a 1-based position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// ExtendedError is implemented by errors that carry GraphQL error extensions.
type ExtendedError interface {
	error
	Extensions() map[string]any
}

// CodeBadUserInput marks argument and variable values the executor could not
// coerce to their declared types.
const CodeBadUserInput = "BAD_USER_INPUT"

// CoercionError reports an input value that does not match its declared type.
type CoercionError struct {
	Message string
}

func (e *CoercionError) Error() string { return e.Message }

func (e *CoercionError) Extensions() map[string]any {
	return map[string]any{"code": CodeBadUserInput}
}

// locatedError converts err into a GraphQLError at path.
func locatedError(err error, path Path) GraphQLError {
	ge := GraphQLError{Message: err.Error(), Path: path}
	var ext ExtendedError
	if errors.As(err, &ext) {
		if m := ext.Extensions(); len(m) > 0 {
			ge.Extensions = maps.Clone(m)
		}
	}
	return ge
}
