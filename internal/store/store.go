// Package store holds the author and book collections that back the graph.
//
// Both backends keep data for the lifetime of the process only. Reads return
// copies taken under the backend's lock, so a caller never observes a
// partially appended record, and identifiers are assigned under the same lock
// that performs the append.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Author is a stored author record.
type Author struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Book is a stored book record. AuthorID references Author.ID; it is not
// checked by the store.
type Book struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	AuthorID int    `json:"authorId" yaml:"authorId"`
}

// Store is the entity store contract shared by all backends.
type Store interface {
	// Authors returns every author in insertion order.
	Authors(ctx context.Context) ([]Author, error)
	// Books returns every book in insertion order.
	Books(ctx context.Context) ([]Book, error)
	// CreateAuthor assigns the next author id and appends the record.
	CreateAuthor(ctx context.Context, name string) (Author, error)
	// CreateBook assigns the next book id and appends the record.
	CreateBook(ctx context.Context, name string, authorID int) (Book, error)
	// Seed replaces the content of both collections with ds.
	Seed(ctx context.Context, ds Dataset) error
	Close() error
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open returns an empty store for the named driver. Every SQLite store it
// opens gets its own database.
func Open(ctx context.Context, driver string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, "bookgraph-"+uuid.NewString())
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
