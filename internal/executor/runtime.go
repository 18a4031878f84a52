package executor

import (
	"context"
)

// Runtime defines the host integration surface used by the Executor for field
// resolution, per-depth batching, abstract type resolution and leaf
// serialization.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains all
//     synchronous fields first via ResolveSync, then calls BatchResolveAsync ONCE
//     with all async tasks collected at that depth. The next depth does not begin
//     until BatchResolveAsync returns and those results are completed.
//   - ResolveSync is never invoked for fields marked async, except for the root
//     fields of a mutation, which always run synchronously in document order.
//   - BatchResolveAsync is only invoked when there is at least one live async
//     task at the current depth.
//   - Errors returned from any method become located GraphQL errors. An error
//     that implements ExtendedError contributes its extensions (e.g. a "code").
//     If the field's return type is Non-Null, the null propagates to the nearest
//     nullable ancestor.
//   - Implementations must be safe for concurrent use by different operations
//     and must not mutate source or args values.
//
// Object/field identifiers
//   - objectType is the GraphQL type name (e.g. "Book").
//   - field is the GraphQL field name on that type (e.g. "author").
//   - For root fields, objectType is the root type name (e.g. "Query").
//   - source is the parent object value (nil for root).
//   - args is the map of argument names to already-coerced Go values.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately. Return
	// (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	//
	// Requirements:
	// - Return len(results) == len(tasks).
	// - results[i] corresponds to tasks[i].
	// - Return independent errors per element without failing the whole batch.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType determines the concrete object type name for a value of an
	// interface or union type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value (int for Int, float64 for Float, string for String/ID/enums, bool
	// for Boolean).
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
