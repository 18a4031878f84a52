package executor

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	language "github.com/hanpama/bookgraph/internal/language"
	schema "github.com/hanpama/bookgraph/internal/schema"
)

// Path locates a value in the response: field names and list indexes.
type Path []PathElement

type PathElement any

type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	asyncTaskGroup []asyncTask
	errors         []GraphQLError
	// serialRoot forces root fields to resolve synchronously in order.
	serialRoot bool
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
}

// asyncTask represents a pending async field resolution
type asyncTask struct {
	Task         AsyncResolveTask
	ResponsePath Path
	FieldType    *schema.TypeRef
	Fields       []*language.Field
}

type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema the executor was built with.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// ExecuteRequest runs one operation of document. The document is assumed to
// be valid for the schema; unknown fields are reported as located errors.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, err := language.SelectOperation(document, operationName)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{locatedError(err, nil)}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.QueryRoot()
	case language.Mutation:
		rootType = e.schema.MutationRoot()
	case language.Subscription:
		rootType = e.schema.SubscriptionRoot()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}

	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		asyncTaskGroup:  []asyncTask{},
		errors:          []GraphQLError{},
		serialRoot:      operation.Operation == language.Mutation,
		nullifiedPrefix: make(map[string]struct{}),
	}

	responseRoot := make(map[string]any)
	if state.serialRoot {
		state.executeSerially(rootType, operation.SelectionSet, initialValue, responseRoot)
	} else {
		maps.Copy(responseRoot, executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{}))
		state.drain(responseRoot)
	}
	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// executeSerially runs the root fields of a mutation one at a time. Each
// field's whole subtree, async levels included, is resolved before the next
// root field starts, so a returned entity never sees a later sibling's write.
func (s *executionState) executeSerially(rootType *schema.Type, selectionSet language.SelectionSet, rootValue any, responseRoot map[string]any) {
	for _, cf := range collectFields(s, rootType, selectionSet) {
		executeCollectedField(s, rootType, rootValue, cf, Path{}, responseRoot)
		s.drain(responseRoot)
	}
}

// drain resolves queued async fields one depth at a time until no work is
// left.
func (s *executionState) drain(responseRoot map[string]any) {
	for len(s.asyncTaskGroup) > 0 {
		filtered, results := flushAsyncTasks(s)
		for i, r := range results {
			completeAsyncField(s, filtered[i], r, responseRoot)
		}
	}
}

// executeSelectionSet executes a selection set without flushing. A nil
// result means a non-null field below the root came back null.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	resultMap := make(map[string]any)
	for _, cf := range collectFields(state, objectType, selectionSet) {
		if !executeCollectedField(state, objectType, objectValue, cf, path, resultMap) {
			return nil
		}
	}
	return resultMap
}

// executeCollectedField resolves one response key into resultMap. It returns
// false when a non-null field nested below the root is null, which nulls the
// enclosing object.
func executeCollectedField(state *executionState, objectType *schema.Type, objectValue any, cf collectedField, path Path, resultMap map[string]any) bool {
	fields := cf.Fields
	result := executeFieldGroup(state, objectType, objectValue, fields, appendPath(path, cf.ResponseName))

	if fields[0].Name == "__typename" {
		resultMap[cf.ResponseName] = result
		return true
	}
	fieldDef := getFieldDefinition(objectType, fields[0].Name)
	if fieldDef == nil {
		// already reported by executeFieldGroup
		return true
	}

	switch {
	case !isNullish(result):
		resultMap[cf.ResponseName] = result
	case schema.IsNonNull(fieldDef.Type) && len(path) > 0:
		return false
	default:
		resultMap[cf.ResponseName] = nil
	}
	return true
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	fieldName := field.Name

	// Handle __typename meta field
	if fieldName == "__typename" {
		return objectType.Name
	}

	fieldDef := getFieldDefinition(objectType, fieldName)
	if fieldDef == nil {
		state.errors = append(state.errors, GraphQLError{
			Message: fmt.Sprintf("Cannot query field '%s' on type '%s'", fieldName, objectType.Name),
			Path:    path,
		})
		return nil
	}

	argumentValues, err := coerceArgumentValues(fieldDef, field.Arguments, state.variableValues)
	if err != nil {
		state.errors = append(state.errors, locatedError(err, path))
		return nil
	}

	async := fieldDef.Async && !(state.serialRoot && len(path) == 1)
	if !async {
		resolvedValue := resolveSyncField(state, objectType.Name, fieldName, objectValue, argumentValues, path)
		completed := completeValue(state, fieldDef.Type, fields, resolvedValue, path)
		return completed
	} else {
		at := asyncTask{
			Task: AsyncResolveTask{
				ObjectType: objectType.Name,
				Field:      fieldName,
				Source:     objectValue,
				Args:       argumentValues,
			},
			ResponsePath: path,
			FieldType:    fieldDef.Type,
			Fields:       fields,
		}
		state.asyncTaskGroup = append(state.asyncTaskGroup, at)
		return asyncPending{}
	}
}

// flushAsyncTasks flushes tasks and returns results (filtered by tombstones).
// A cancelled context fails every remaining task without calling the runtime.
func flushAsyncTasks(state *executionState) ([]asyncTask, []AsyncResolveResult) {
	filtered := make([]asyncTask, 0, len(state.asyncTaskGroup))
	for _, at := range state.asyncTaskGroup {
		if state.hasNullifiedPrefix(at.ResponsePath) {
			continue
		}
		filtered = append(filtered, at)
	}
	state.asyncTaskGroup = nil

	if err := state.context.Err(); err != nil {
		results := make([]AsyncResolveResult, len(filtered))
		for i := range results {
			results[i].Error = err
		}
		return filtered, results
	}

	// Extract tasks
	tasks := make([]AsyncResolveTask, len(filtered))
	for i, at := range filtered {
		tasks[i] = at.Task
	}

	if len(tasks) == 0 {
		return filtered, nil
	}
	results := state.runtime.BatchResolveAsync(state.context, tasks)
	if len(results) != len(tasks) {
		err := fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
		results = make([]AsyncResolveResult, len(tasks))
		for i := range results {
			results[i].Error = err
		}
	}
	return filtered, results
}

// completeAsyncField completes a single async result, with non-null propagation and pruning
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, responseRoot map[string]any) {
	path := at.ResponsePath
	// If this path is already nullified by an ancestor, ignore
	if state.hasNullifiedPrefix(path) {
		return
	}

	var completed any
	if res.Error != nil {
		state.errors = append(state.errors, locatedError(res.Error, path))
	} else {
		completed = completeValue(state, at.FieldType, at.Fields, res.Value, path)
	}

	switch {
	case !isNullish(completed):
		setValueAtPath(responseRoot, path, completed)
	case schema.IsNonNull(at.FieldType):
		state.nullify(responseRoot, path)
	default:
		// typed nils are written as plain null
		setValueAtPath(responseRoot, path, nil)
	}
}

// completeValue completes a value
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Cannot return null for non-nullable field %s", path), Path: path})
			}
			return nil
		}
		inner := schema.Unwrap(fieldType)
		completed := completeValue(state, inner, fields, result, path)
		if isNullish(completed) {
			// Error already recorded at original path; propagate only
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Unknown type: %s", namedType), Path: path})
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, locatedError(err, path))
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, namedType, fields, result, path)
	default:
		state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), Path: path})
		return nil
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		state.errors = append(state.errors, GraphQLError{Message: fmt.Sprintf("Expected list value, got %T", result), Path: path})
		return nil
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, rv.Len())
	for i := range rv.Len() {
		v := completeValue(state, inner, fields, rv.Index(i).Interface(), appendPath(path, i))
		if schema.IsNonNull(inner) && isNullish(v) {
			// Propagate null to the list field; error already recorded by inner completion
			return nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) any {
	sub := subSelection(fields)
	return executeSelectionSet(state, objectType, sub, result, path)
}

func completeAbstractValue(state *executionState, abstractTypeName string, fields []*language.Field, result any, path Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractTypeName, result)
	if err != nil {
		state.errors = append(state.errors, locatedError(err, path))
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.errors = append(state.errors, GraphQLError{
			Message: fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractTypeName, typeName),
			Path:    path,
		})
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

// String renders p as "books[0].author".
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	return append(slices.Clip(path), elem)
}

// nullify writes null over the top-level field containing path and
// tombstones it so queued work below is dropped.
func (s *executionState) nullify(responseRoot map[string]any, path Path) {
	top := topLevelFieldPath(path)
	setValueAtPath(responseRoot, top, nil)
	if key := top.String(); key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	for i := range p {
		if _, ok := s.nullifiedPrefix[p[:i+1].String()]; ok {
			return true
		}
	}
	return false
}

func topLevelFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	return slices.ContainsFunc(state.errors, func(err GraphQLError) bool {
		return slices.Equal(err.Path, path)
	})
}

// resolveSyncField resolves a field synchronously
func resolveSyncField(state *executionState, objectType string, fieldName string, source any, args map[string]any, path Path) any {
	value, err := state.runtime.ResolveSync(state.context, objectType, fieldName, source, args)
	if err != nil {
		state.errors = append(state.errors, locatedError(err, path))
		return nil
	}
	return value
}

// Helper function to set value at a specific path in response tree
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		if key, ok := path[0].(string); ok {
			responseRoot[key] = value
			return
		}
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok {
				return
			}
			for len(slice) <= e {
				slice = append(slice, nil)
			}
			if slice[e] == nil {
				slice[e] = make(map[string]any)
			}
			current = slice[e]
		}
	}
	finalElem := path[len(path)-1]
	switch fe := finalElem.(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok {
			for len(slice) <= fe {
				slice = append(slice, nil)
			}
			slice[fe] = value
		}
	}
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
