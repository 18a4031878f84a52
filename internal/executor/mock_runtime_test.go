package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	language "github.com/hanpama/bookgraph/internal/language"
	schema "github.com/hanpama/bookgraph/internal/schema"
)

// mockResolver resolves a single item; mockRuntime adapts it for batched calls.
type mockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

func valueResolver(val any) mockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

func errorResolver(err error) mockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// call is one task-level invocation. Async calls share a batchID per flush;
// sync calls carry 0.
type call struct {
	Kind       string
	ObjectType string
	Field      string
	Args       map[string]any
	BatchID    int
}

// mockRuntime implements Runtime over a resolver table keyed "Type.field".
type mockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]mockResolver
	calls     []call
	batchSeq  int
}

func newMockRuntime(resolvers map[string]mockResolver) *mockRuntime {
	return &mockRuntime{resolvers: resolvers}
}

func (m *mockRuntime) resolve(ctx context.Context, kind string, batchID int, objectType, field string, source any, args map[string]any) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call{Kind: kind, ObjectType: objectType, Field: field, Args: args, BatchID: batchID})
	r := m.resolvers[objectType+"."+field]
	m.mu.Unlock()
	if r == nil {
		return nil, nil
	}
	return r(ctx, source, args)
}

func (m *mockRuntime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	return m.resolve(ctx, "sync", 0, objectType, field, source, args)
}

func (m *mockRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	m.mu.Lock()
	m.batchSeq++
	batchID := m.batchSeq
	m.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := m.resolve(ctx, "async", batchID, t.ObjectType, t.Field, t.Source, t.Args)
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (m *mockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if v, ok := value.(map[string]any); ok {
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %T", value)
}

func (m *mockRuntime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	return value, nil
}

func (m *mockRuntime) getCalls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	sch.SetQueryType(query.Name)
	sch.AddType(query)
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

// shelfSchema is a small books/authors graph:
//
//	type Query { books: [Book!]! @async, book(id: Int!): Book @async }
//	type Book { id: Int!, title: String, author: Author @async }
//	type Author { name: String! }
func shelfSchema() *schema.Schema {
	return newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("books", "", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("Book"))))).SetAsync(true),
			schema.NewField("book", "", schema.NamedType("Book")).SetAsync(true).
				AddArgument(schema.NewInputValue("id", "", schema.NonNullType(schema.NamedType("Int")))),
		),
		newObjectType("Book",
			schema.NewField("id", "", schema.NonNullType(schema.NamedType("Int"))),
			schema.NewField("title", "", schema.NamedType("String")),
			schema.NewField("author", "", schema.NamedType("Author")).SetAsync(true),
		),
		newObjectType("Author",
			schema.NewField("name", "", schema.NonNullType(schema.NamedType("String"))),
		),
	)
}

type testBook struct {
	ID    int
	Title string
}

func field(name string) mockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		b := source.(testBook)
		switch name {
		case "id":
			return b.ID, nil
		case "title":
			return b.Title, nil
		}
		return nil, fmt.Errorf("no field %s", name)
	}
}

func shelfResolvers() map[string]mockResolver {
	return map[string]mockResolver{
		"Query.books": valueResolver([]testBook{{1, "Dune"}, {2, "Emma"}}),
		"Book.id":     field("id"),
		"Book.title":  field("title"),
		"Book.author": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return map[string]any{"name": fmt.Sprintf("author of %s", source.(testBook).Title)}, nil
		},
		"Author.name": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return source.(map[string]any)["name"], nil
		},
	}
}
