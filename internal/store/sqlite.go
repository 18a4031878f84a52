package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	create table if not exists authors (
		id integer not null unique,
		name text not null
	);
	create table if not exists books (
		id integer not null unique,
		name text not null,
		author_id integer not null
	);
`

// SQLite stores both collections in a named in-memory SQLite database.
// Rows are returned in rowid order, which is insertion order.
type SQLite struct {
	db *sql.DB
	sq squirrel.StatementBuilderType

	// writes serializes id assignment and appends.
	writes sync.Mutex
}

// NewSQLite opens an in-memory database shared by every connection of the
// returned store. The database lives until Close.
func NewSQLite(ctx context.Context, name string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single pooled connection keeps the in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db, sq: squirrel.StatementBuilder.RunWith(db)}, nil
}

func (s *SQLite) Authors(ctx context.Context) ([]Author, error) {
	rows, err := s.sq.Select("id", "name").From("authors").OrderBy("rowid").QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}
	defer rows.Close()

	out := []Author{}
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) Books(ctx context.Context) ([]Book, error) {
	rows, err := s.sq.Select("id", "name", "author_id").From("books").OrderBy("rowid").QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.AuthorID); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateAuthor(ctx context.Context, name string) (Author, error) {
	var a Author
	err := s.write(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "authors")
		if err != nil {
			return err
		}
		_, err = squirrel.Insert("authors").Columns("id", "name").Values(id, name).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert author: %w", err)
		}
		a = Author{ID: id, Name: name}
		return nil
	})
	return a, err
}

func (s *SQLite) CreateBook(ctx context.Context, name string, authorID int) (Book, error) {
	var b Book
	err := s.write(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "books")
		if err != nil {
			return err
		}
		_, err = squirrel.Insert("books").
			Columns("id", "name", "author_id").
			Values(id, name, authorID).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		b = Book{ID: id, Name: name, AuthorID: authorID}
		return nil
	})
	return b, err
}

func (s *SQLite) Seed(ctx context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"books", "authors"} {
			if _, err := squirrel.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, a := range ds.Authors {
			_, err := squirrel.Insert("authors").Columns("id", "name").Values(a.ID, a.Name).RunWith(tx).ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("seed author %d: %w", a.ID, err)
			}
		}
		for _, b := range ds.Books {
			_, err := squirrel.Insert("books").
				Columns("id", "name", "author_id").
				Values(b.ID, b.Name, b.AuthorID).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("seed book %d: %w", b.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nextID(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var id int
	err := squirrel.Select("COALESCE(MAX(id), 0) + 1").From(table).RunWith(tx).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", table, err)
	}
	return id, nil
}
