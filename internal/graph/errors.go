package graph

import (
	"fmt"

	executor "github.com/hanpama/bookgraph/internal/executor"
)

// Error codes reported under "extensions.code".
const (
	CodeBadUserInput     = executor.CodeBadUserInput
	CodeInternal         = "INTERNAL_SERVER_ERROR"
	CodeParseFailed      = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
)

// ValidationError reports an argument that is missing, empty or refers to
// something that does not exist. It is raised before any write happens.
type ValidationError struct {
	Argument string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
}

func (e *ValidationError) Extensions() map[string]any {
	return map[string]any{"code": CodeBadUserInput, "argument": e.Argument}
}

// SchemaMismatchError reports a resolver that received a value its declared
// type cannot hold. It points at a bug, not at bad input.
type SchemaMismatchError struct {
	Type  string
	Field string
	Value any
}

func (e *SchemaMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s cannot represent value of type %T", e.Type, e.Value)
	}
	return fmt.Sprintf("%s.%s: unexpected value of type %T", e.Type, e.Field, e.Value)
}

func (e *SchemaMismatchError) Extensions() map[string]any {
	return map[string]any{"code": CodeInternal}
}
