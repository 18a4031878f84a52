package graph

import (
	"context"
	"fmt"
	"strings"

	store "github.com/hanpama/bookgraph/internal/store"
)

// resolveContext is shared by the resolvers of one batch group. Collections
// are read from the store at most once and reused for every task in the group.
type resolveContext struct {
	store   store.Store
	mutator *Mutator

	authors []store.Author
	books   []store.Book
}

func newResolveContext(st store.Store, m *Mutator) *resolveContext {
	return &resolveContext{store: st, mutator: m}
}

func (rc *resolveContext) Authors(ctx context.Context) ([]store.Author, error) {
	if rc.authors == nil {
		authors, err := rc.store.Authors(ctx)
		if err != nil {
			return nil, fmt.Errorf("read authors: %w", err)
		}
		if authors == nil {
			authors = []store.Author{}
		}
		rc.authors = authors
	}
	return rc.authors, nil
}

func (rc *resolveContext) Books(ctx context.Context) ([]store.Book, error) {
	if rc.books == nil {
		books, err := rc.store.Books(ctx)
		if err != nil {
			return nil, fmt.Errorf("read books: %w", err)
		}
		if books == nil {
			books = []store.Book{}
		}
		rc.books = books
	}
	return rc.books, nil
}

func asBook(source any) (store.Book, bool) {
	switch v := source.(type) {
	case store.Book:
		return v, true
	case *store.Book:
		if v != nil {
			return *v, true
		}
	}
	return store.Book{}, false
}

func asAuthor(source any) (store.Author, bool) {
	switch v := source.(type) {
	case store.Author:
		return v, true
	case *store.Author:
		if v != nil {
			return *v, true
		}
	}
	return store.Author{}, false
}

// stored fields

func bookID(source any) (any, bool) {
	b, ok := asBook(source)
	return b.ID, ok
}

func bookName(source any) (any, bool) {
	b, ok := asBook(source)
	return b.Name, ok
}

func bookAuthorID(source any) (any, bool) {
	b, ok := asBook(source)
	return b.AuthorID, ok
}

func authorID(source any) (any, bool) {
	a, ok := asAuthor(source)
	return a.ID, ok
}

func authorName(source any) (any, bool) {
	a, ok := asAuthor(source)
	return a.Name, ok
}

// relational fields

// resolveBookAuthor returns the author the book references, or null when the
// reference dangles.
func resolveBookAuthor(ctx context.Context, rc *resolveContext, source any, _ map[string]any) (any, error) {
	b, ok := asBook(source)
	if !ok {
		return nil, &SchemaMismatchError{Type: typeBook, Field: "author", Value: source}
	}
	authors, err := rc.Authors(ctx)
	if err != nil {
		return nil, err
	}
	if a, ok := store.FindAuthorByID(authors, b.AuthorID); ok {
		return a, nil
	}
	return nil, nil
}

func resolveAuthorBooks(ctx context.Context, rc *resolveContext, source any, _ map[string]any) (any, error) {
	a, ok := asAuthor(source)
	if !ok {
		return nil, &SchemaMismatchError{Type: typeAuthor, Field: "books", Value: source}
	}
	books, err := rc.Books(ctx)
	if err != nil {
		return nil, err
	}
	return store.BooksByAuthor(books, a.ID), nil
}

// resolveBook looks a book up by id. Without an id nothing can match.
func resolveBook(ctx context.Context, rc *resolveContext, _ any, args map[string]any) (any, error) {
	id, ok := args["id"].(int)
	if !ok {
		return nil, nil
	}
	books, err := rc.Books(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := store.FindBookByID(books, id); ok {
		return b, nil
	}
	return nil, nil
}

func resolveBooks(ctx context.Context, rc *resolveContext, _ any, _ map[string]any) (any, error) {
	return rc.Books(ctx)
}

func resolveAuthor(ctx context.Context, rc *resolveContext, _ any, args map[string]any) (any, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	authors, err := rc.Authors(ctx)
	if err != nil {
		return nil, err
	}
	if a, ok := store.FindAuthorByName(authors, name); ok {
		return a, nil
	}
	return nil, nil
}

func resolveAuthors(ctx context.Context, rc *resolveContext, _ any, _ map[string]any) (any, error) {
	return rc.Authors(ctx)
}

// mutation fields

func resolveAddBook(ctx context.Context, rc *resolveContext, _ any, args map[string]any) (any, error) {
	name, _ := args["name"].(string)
	authorID, ok := args["authorId"].(int)
	if !ok {
		return nil, &ValidationError{Argument: "authorId", Reason: "is required"}
	}
	return rc.mutator.AddBook(ctx, name, authorID)
}

func resolveAddAuthor(ctx context.Context, rc *resolveContext, _ any, args map[string]any) (any, error) {
	name, _ := args["name"].(string)
	return rc.mutator.AddAuthor(ctx, name)
}

// requiredString returns the named argument, rejecting values that are blank
// after trimming.
func requiredString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if err := checkName(name, v); err != nil {
		return "", err
	}
	return v, nil
}

func checkName(argument, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Argument: argument, Reason: "must not be empty"}
	}
	return nil
}
