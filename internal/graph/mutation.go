package graph

import (
	"context"
	"fmt"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	store "github.com/hanpama/bookgraph/internal/store"
)

// Mutator validates and applies the graph's write operations. Every argument
// is checked before the store is touched, so a rejected call writes nothing.
type Mutator struct {
	store            store.Store
	strictAuthorRefs bool
}

func NewMutator(st store.Store, strictAuthorRefs bool) *Mutator {
	return &Mutator{store: st, strictAuthorRefs: strictAuthorRefs}
}

// AddAuthor stores a new author. name must not be blank.
func (m *Mutator) AddAuthor(ctx context.Context, name string) (store.Author, error) {
	if err := checkName("name", name); err != nil {
		return store.Author{}, err
	}
	a, err := m.store.CreateAuthor(ctx, name)
	if err != nil {
		return store.Author{}, fmt.Errorf("create author: %w", err)
	}
	eventbus.Publish(ctx, events.EntityCreated{Kind: events.KindAuthor, ID: a.ID, Name: a.Name})
	return a, nil
}

// AddBook stores a new book. When the mutator is strict, authorID must name
// an existing author; otherwise a dangling reference is stored and the
// book's author resolves to null.
func (m *Mutator) AddBook(ctx context.Context, name string, authorID int) (store.Book, error) {
	if err := checkName("name", name); err != nil {
		return store.Book{}, err
	}
	if m.strictAuthorRefs {
		authors, err := m.store.Authors(ctx)
		if err != nil {
			return store.Book{}, fmt.Errorf("read authors: %w", err)
		}
		if _, ok := store.FindAuthorByID(authors, authorID); !ok {
			return store.Book{}, &ValidationError{Argument: "authorId", Reason: fmt.Sprintf("no author with id %d", authorID)}
		}
	}
	b, err := m.store.CreateBook(ctx, name, authorID)
	if err != nil {
		return store.Book{}, fmt.Errorf("create book: %w", err)
	}
	eventbus.Publish(ctx, events.EntityCreated{Kind: events.KindBook, ID: b.ID, Name: b.Name})
	return b, nil
}
