package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/bookgraph/internal/schema"
)

// Pattern: Calls comparison + Result comparison via go-cmp snapshot workflow
func TestRouting_SyncVsAsync_Calls(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query",
		schema.NewField("a", "", schema.NamedType("String")),
		schema.NewField("b", "", schema.NamedType("String")).SetAsync(true),
	))
	rt := newMockRuntime(map[string]mockResolver{
		"Query.a": valueResolver("A"),
		"Query.b": valueResolver("B"),
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a b }"), "", nil, nil)

	wantRes := &ExecutionResult{Data: map[string]any{"a": "A", "b": "B"}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.getCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// One batch per async depth; sync descents add none.
func TestRouting_DepthWiseBatch_Calls(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	exec := NewExecutor(rt, shelfSchema())

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ books { id title author { name } } }"), "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{
			"books": []any{
				map[string]any{"id": 1, "title": "Dune", "author": map[string]any{"name": "author of Dune"}},
				map[string]any{"id": 2, "title": "Emma", "author": map[string]any{"name": "author of Emma"}},
			},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	noArgs := map[string]any{}
	wantCalls := []call{
		{Kind: "async", ObjectType: "Query", Field: "books", Args: noArgs, BatchID: 1},
		{Kind: "sync", ObjectType: "Book", Field: "id", Args: noArgs},
		{Kind: "sync", ObjectType: "Book", Field: "title", Args: noArgs},
		{Kind: "sync", ObjectType: "Book", Field: "id", Args: noArgs},
		{Kind: "sync", ObjectType: "Book", Field: "title", Args: noArgs},
		{Kind: "async", ObjectType: "Book", Field: "author", Args: noArgs, BatchID: 2},
		{Kind: "async", ObjectType: "Book", Field: "author", Args: noArgs, BatchID: 2},
		{Kind: "sync", ObjectType: "Author", Field: "name", Args: noArgs},
		{Kind: "sync", ObjectType: "Author", Field: "name", Args: noArgs},
	}
	if diff := cmp.Diff(wantCalls, rt.getCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAliasesAndFragments(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	rt.resolvers["Query.book"] = func(ctx context.Context, source any, args map[string]any) (any, error) {
		return testBook{ID: args["id"].(int), Title: "Dune"}, nil
	}
	exec := NewExecutor(rt, shelfSchema())
	doc := mustParseQuery(t, `
query ($withTitle: Boolean!) {
  first: book(id: 1) { ...Parts }
  second: book(id: 2) { id title @include(if: $withTitle) __typename }
}
fragment Parts on Book { id ... on Book { title } }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"withTitle": false}, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{
			"first":  map[string]any{"id": 1, "title": "Dune"},
			"second": map[string]any{"id": 2, "__typename": "Book"},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestMutation_SerialRootFields(t *testing.T) {
	sch := newSchemaWithQueryType(newObjectType("Query"))
	sch.SetMutationType("Mutation")
	sch.AddType(newObjectType("Mutation",
		schema.NewField("m1", "", schema.NamedType("String")).SetAsync(true),
		schema.NewField("m2", "", schema.NamedType("String")).SetAsync(true),
		schema.NewField("m3", "", schema.NamedType("String")).SetAsync(true),
	))
	rt := newMockRuntime(map[string]mockResolver{
		"Mutation.m1": valueResolver("1"),
		"Mutation.m2": errorResolver(errors.New("boom")),
		"Mutation.m3": valueResolver("3"),
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "mutation { m1 m2 m3 }"), "", nil, nil)

	wantRes := &ExecutionResult{
		Data:   map[string]any{"m1": "1", "m2": nil, "m3": "3"},
		Errors: []GraphQLError{{Message: "boom", Path: Path{"m2"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []call{
		{Kind: "sync", ObjectType: "Mutation", Field: "m1", Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Mutation", Field: "m2", Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Mutation", Field: "m3", Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, rt.getCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Each mutation root field completes its async subtree before the next one runs.
func TestMutation_SubtreeBeforeNextRootField(t *testing.T) {
	sch := shelfSchema()
	sch.SetMutationType("Mutation")
	sch.AddType(newObjectType("Mutation",
		schema.NewField("shelve", "", schema.NonNullType(schema.NamedType("Book"))).SetAsync(true).
			AddArgument(schema.NewInputValue("title", "", schema.NonNullType(schema.NamedType("String")))),
	))
	shelved := 0
	resolvers := shelfResolvers()
	resolvers["Mutation.shelve"] = func(ctx context.Context, source any, args map[string]any) (any, error) {
		shelved++
		return testBook{ID: shelved, Title: args["title"].(string)}, nil
	}
	resolvers["Book.author"] = func(ctx context.Context, source any, args map[string]any) (any, error) {
		return map[string]any{"name": fmt.Sprintf("seen %d shelved", shelved)}, nil
	}
	rt := newMockRuntime(resolvers)
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, `mutation {
  a: shelve(title: "Dune") { title author { name } }
  b: shelve(title: "Emma") { id }
}`), "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{
			"a": map[string]any{"title": "Dune", "author": map[string]any{"name": "seen 1 shelved"}},
			"b": map[string]any{"id": 2},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	noArgs := map[string]any{}
	wantCalls := []call{
		{Kind: "sync", ObjectType: "Mutation", Field: "shelve", Args: map[string]any{"title": "Dune"}},
		{Kind: "sync", ObjectType: "Book", Field: "title", Args: noArgs},
		{Kind: "async", ObjectType: "Book", Field: "author", Args: noArgs, BatchID: 1},
		{Kind: "sync", ObjectType: "Author", Field: "name", Args: noArgs},
		{Kind: "sync", ObjectType: "Mutation", Field: "shelve", Args: map[string]any{"title": "Emma"}},
		{Kind: "sync", ObjectType: "Book", Field: "id", Args: noArgs},
	}
	if diff := cmp.Diff(wantCalls, rt.getCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

type codedError struct{ msg, code string }

func (e codedError) Error() string              { return e.msg }
func (e codedError) Extensions() map[string]any { return map[string]any{"code": e.code} }

func TestErrors_ExtensionsAndNullable(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	rt.resolvers["Book.author"] = errorResolver(codedError{msg: "author unavailable", code: "UNAVAILABLE"})
	exec := NewExecutor(rt, shelfSchema())

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ books { id author { name } } }"), "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{
			"books": []any{
				map[string]any{"id": 1, "author": nil},
				map[string]any{"id": 2, "author": nil},
			},
		},
		Errors: []GraphQLError{
			{Message: "author unavailable", Path: Path{"books", 0, "author"}, Extensions: map[string]any{"code": "UNAVAILABLE"}},
			{Message: "author unavailable", Path: Path{"books", 1, "author"}, Extensions: map[string]any{"code": "UNAVAILABLE"}},
		},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors_NonNullPropagation(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	rt.resolvers["Author.name"] = valueResolver(nil)
	exec := NewExecutor(rt, shelfSchema())

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ books { id author { name } } }"), "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{
			"books": []any{
				map[string]any{"id": 1, "author": nil},
				map[string]any{"id": 2, "author": nil},
			},
		},
		Errors: []GraphQLError{
			{Message: "Cannot return null for non-nullable field books[0].author.name", Path: Path{"books", 0, "author", "name"}},
			{Message: "Cannot return null for non-nullable field books[1].author.name", Path: Path{"books", 1, "author", "name"}},
		},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	rt = newMockRuntime(shelfResolvers())
	rt.resolvers["Query.books"] = errorResolver(errors.New("store closed"))
	gotRes = NewExecutor(rt, shelfSchema()).ExecuteRequest(context.Background(), mustParseQuery(t, "{ books { id } }"), "", nil, nil)
	require.Equal(t, map[string]any{"books": nil}, gotRes.Data)
	require.Equal(t, []GraphQLError{{Message: "store closed", Path: Path{"books"}}}, gotRes.Errors)
}

func TestArguments_CoercionSkipsResolver(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	exec := NewExecutor(rt, shelfSchema())

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, `query ($id: Int!) { book(id: $id) { id } }`), "", map[string]any{"id": 1.5}, nil)
	require.Nil(t, gotRes.Data)
	require.Len(t, gotRes.Errors, 1)
	require.Contains(t, gotRes.Errors[0].Message, "non-integer")
	require.Equal(t, map[string]any{"code": CodeBadUserInput}, gotRes.Errors[0].Extensions)

	gotRes = exec.ExecuteRequest(context.Background(), mustParseQuery(t, `{ book(id: "1") { id } }`), "", nil, nil)
	require.Equal(t, map[string]any{"book": nil}, gotRes.Data)
	require.Len(t, gotRes.Errors, 1)
	require.Equal(t, Path{"book"}, gotRes.Errors[0].Path)
	require.Equal(t, map[string]any{"code": CodeBadUserInput}, gotRes.Errors[0].Extensions)

	require.Empty(t, rt.getCalls())
}

func TestArguments_Variables(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	var got map[string]any
	rt.resolvers["Query.book"] = func(ctx context.Context, source any, args map[string]any) (any, error) {
		got = args
		return nil, nil
	}
	exec := NewExecutor(rt, shelfSchema())

	res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, `query ($id: Int!) { book(id: $id) { id } }`), "", map[string]any{"id": float64(7)}, nil)
	require.Equal(t, []GraphQLError{}, res.Errors)
	require.Equal(t, map[string]any{"book": nil}, res.Data)
	require.Equal(t, map[string]any{"id": 7}, got)
}

func TestOperationSelection(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	exec := NewExecutor(rt, shelfSchema())
	doc := mustParseQuery(t, `query A { books { id } } query B { books { title } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Nil(t, res.Data)
	require.Contains(t, res.Errors[0].Message, "operation name is required")

	res = exec.ExecuteRequest(context.Background(), doc, "C", nil, nil)
	require.Equal(t, `unknown operation "C"`, res.Errors[0].Message)

	res = exec.ExecuteRequest(context.Background(), doc, "B", nil, nil)
	require.Equal(t, []GraphQLError{}, res.Errors)
	require.Equal(t, map[string]any{"books": []any{
		map[string]any{"title": "Dune"},
		map[string]any{"title": "Emma"},
	}}, res.Data)
}

func TestContextCancelled_SkipsBatches(t *testing.T) {
	rt := newMockRuntime(shelfResolvers())
	exec := NewExecutor(rt, shelfSchema())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := exec.ExecuteRequest(ctx, mustParseQuery(t, "{ book(id: 1) { id } }"), "", nil, nil)
	require.Equal(t, map[string]any{"book": nil}, res.Data)
	require.Equal(t, []GraphQLError{{Message: context.Canceled.Error(), Path: Path{"book"}}}, res.Errors)
	require.Empty(t, rt.getCalls())
}
