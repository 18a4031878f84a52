package store

import "github.com/samber/lo"

// The lookups below are linear scans over a snapshot. Indexing by id and
// name is the first thing to add if collections grow.

func FindAuthorByID(authors []Author, id int) (Author, bool) {
	return lo.Find(authors, func(a Author) bool { return a.ID == id })
}

func FindAuthorByName(authors []Author, name string) (Author, bool) {
	return lo.Find(authors, func(a Author) bool { return a.Name == name })
}

func FindBookByID(books []Book, id int) (Book, bool) {
	return lo.Find(books, func(b Book) bool { return b.ID == id })
}

// BooksByAuthor returns the books referencing authorID in collection order.
// The result is never nil.
func BooksByAuthor(books []Book, authorID int) []Book {
	out := lo.Filter(books, func(b Book, _ int) bool { return b.AuthorID == authorID })
	if out == nil {
		return []Book{}
	}
	return out
}
