package store

import (
	"context"
	"slices"
	"sync"
)

// Memory keeps both collections in slices guarded by a single RWMutex.
type Memory struct {
	mu           sync.RWMutex
	authors      []Author
	books        []Book
	nextAuthorID int
	nextBookID   int
}

func NewMemory() *Memory {
	return &Memory{nextAuthorID: 1, nextBookID: 1}
}

func (m *Memory) Authors(ctx context.Context) ([]Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.authors), nil
}

func (m *Memory) Books(ctx context.Context) ([]Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.books), nil
}

func (m *Memory) CreateAuthor(ctx context.Context, name string) (Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := Author{ID: m.nextAuthorID, Name: name}
	m.nextAuthorID++
	m.authors = append(m.authors, a)
	return a, nil
}

func (m *Memory) CreateBook(ctx context.Context, name string, authorID int) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := Book{ID: m.nextBookID, Name: name, AuthorID: authorID}
	m.nextBookID++
	m.books = append(m.books, b)
	return b, nil
}

func (m *Memory) Seed(ctx context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors = slices.Clone(ds.Authors)
	m.books = slices.Clone(ds.Books)
	m.nextAuthorID = ds.maxAuthorID() + 1
	m.nextBookID = ds.maxBookID() + 1
	return nil
}

func (m *Memory) Close() error { return nil }
