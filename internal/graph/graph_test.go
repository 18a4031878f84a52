package graph

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/bookgraph/internal/executor"
	store "github.com/hanpama/bookgraph/internal/store"
)

// countingStore records how often each collection is read.
type countingStore struct {
	store.Store
	authorReads atomic.Int32
	bookReads   atomic.Int32
}

func (s *countingStore) Authors(ctx context.Context) ([]store.Author, error) {
	s.authorReads.Add(1)
	return s.Store.Authors(ctx)
}

func (s *countingStore) Books(ctx context.Context) ([]store.Book, error) {
	s.bookReads.Add(1)
	return s.Store.Books(ctx)
}

func seededStore(t *testing.T, ds store.Dataset) *countingStore {
	t.Helper()
	m := store.NewMemory()
	require.NoError(t, m.Seed(context.Background(), ds))
	return &countingStore{Store: m}
}

// jDataset is Author{1,"J"} with Book{1,"B1",1}.
func jDataset() store.Dataset {
	return store.Dataset{
		Authors: []store.Author{{ID: 1, Name: "J"}},
		Books:   []store.Book{{ID: 1, Name: "B1", AuthorID: 1}},
	}
}

func newTestEngine(t *testing.T, st store.Store, opts ...Option) *Engine {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	e, err := NewEngine(reg, st, opts...)
	require.NoError(t, err)
	return e
}

// mustExecute runs query and fails on any error.
func mustExecute(t *testing.T, e *Engine, query string, vars map[string]any) any {
	t.Helper()
	res := e.Execute(context.Background(), query, "", vars)
	require.Empty(t, res.Errors, "query %s", query)
	return res.Data
}

func requireData(t *testing.T, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func errorCode(err executor.GraphQLError) any {
	return err.Extensions["code"]
}
