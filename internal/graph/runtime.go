package graph

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	executor "github.com/hanpama/bookgraph/internal/executor"
	store "github.com/hanpama/bookgraph/internal/store"
)

// Runtime resolves the registry's fields against a store. It implements
// executor.Runtime.
type Runtime struct {
	registry *Registry
	store    store.Store
	mutator  *Mutator
}

var _ executor.Runtime = (*Runtime)(nil)

func NewRuntime(reg *Registry, st store.Store, m *Mutator) *Runtime {
	return &Runtime{registry: reg, store: st, mutator: m}
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	fn := r.registry.resolver(objectType, field)
	if fn == nil {
		return nil, fmt.Errorf("no resolver for %s.%s", objectType, field)
	}
	return fn(ctx, newResolveContext(r.store, r.mutator), source, args)
}

// BatchResolveAsync groups the tasks by field. Each group shares one read of
// every collection it touches, so a depth costs at most one store read per
// collection and field, however many parents it has.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	groups := lo.GroupBy(lo.Range(len(tasks)), func(i int) string {
		return tasks[i].ObjectType + "." + tasks[i].Field
	})
	for key, indices := range groups {
		first := tasks[indices[0]]
		fn := r.registry.resolver(first.ObjectType, first.Field)
		if fn == nil {
			err := fmt.Errorf("no resolver for %s", key)
			for _, i := range indices {
				results[i].Error = err
			}
			continue
		}
		rc := newResolveContext(r.store, r.mutator)
		for _, i := range indices {
			v, err := fn(ctx, rc, tasks[i].Source, tasks[i].Args)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
		}
	}
	return results
}

// ResolveType is never reached: the graph declares no interfaces or unions.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return "", fmt.Errorf("abstract type %s is not supported", abstractType)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case "String", "ID":
		if v, ok := value.(string); ok {
			return v, nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, &SchemaMismatchError{Type: typeName, Value: value}
}
