// Package graph declares the authors/books graph and resolves it against a
// store.Store.
//
// Fields come in two kinds. Stored fields (id, name, authorId) are read from
// the parent entity and resolve inline. Relational fields (Book.author,
// Author.books and the query root) are computed from the store and resolve
// asynchronously, so the executor hands all of one depth to the Runtime in a
// single batch. Mutation root fields are synchronous and run in document
// order.
package graph

import (
	"context"

	schema "github.com/hanpama/bookgraph/internal/schema"
)

const (
	typeQuery    = "Query"
	typeMutation = "Mutation"
	typeBook     = "Book"
	typeAuthor   = "Author"
)

// resolveFunc resolves one field instance. source is the parent entity, nil
// for root fields.
type resolveFunc func(ctx context.Context, rc *resolveContext, source any, args map[string]any) (any, error)

// Registry holds the schema and its field resolvers. It is immutable once
// built and shared by every request.
type Registry struct {
	schema    *schema.Schema
	sdl       string
	resolvers map[string]resolveFunc
}

// NewRegistry declares the Book, Author, Query and Mutation types and binds
// their resolvers.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		schema:    schema.NewSchema(""),
		resolvers: make(map[string]resolveFunc),
	}
	r.schema.SetQueryType(typeQuery).SetMutationType(typeMutation)

	// Book refers to Author before Author exists; references are by name.
	r.object(typeBook, "This represents a book written by an author").
		stored("id", nonNull("Int"), bookID).
		stored("name", nonNull("String"), bookName).
		stored("authorId", nonNull("Int"), bookAuthorID).
		relational("author", schema.NamedType(typeAuthor), resolveBookAuthor)

	r.object(typeAuthor, "This represents an author of a book").
		stored("id", nonNull("Int"), authorID).
		stored("name", nonNull("String"), authorName).
		relational("books", schema.NonNullType(schema.ListType(nonNull(typeBook))), resolveAuthorBooks)

	r.object(typeQuery, "").
		relational("book", schema.NamedType(typeBook), resolveBook,
			schema.NewInputValue("id", "", schema.NamedType("Int"))).
		relational("books", schema.NonNullType(schema.ListType(nonNull(typeBook))), resolveBooks).
		relational("author", schema.NamedType(typeAuthor), resolveAuthor,
			schema.NewInputValue("name", "", nonNull("String"))).
		relational("authors", schema.NonNullType(schema.ListType(nonNull(typeAuthor))), resolveAuthors)

	r.object(typeMutation, "").
		mutation("addBook", nonNull(typeBook), resolveAddBook,
			schema.NewInputValue("name", "", nonNull("String")),
			schema.NewInputValue("authorId", "", nonNull("Int"))).
		mutation("addAuthor", nonNull(typeAuthor), resolveAddAuthor,
			schema.NewInputValue("name", "", nonNull("String")))

	if err := r.schema.Validate(); err != nil {
		return nil, err
	}
	r.sdl = schema.Render(r.schema)
	return r, nil
}

// Schema returns the declared schema. Callers must not modify it.
func (r *Registry) Schema() *schema.Schema { return r.schema }

// SDL returns the schema in GraphQL schema definition language.
func (r *Registry) SDL() string { return r.sdl }

func (r *Registry) resolver(objectType, field string) resolveFunc {
	return r.resolvers[objectType+"."+field]
}

func nonNull(name string) *schema.TypeRef { return schema.NonNullType(schema.NamedType(name)) }

type objectBuilder struct {
	r *Registry
	t *schema.Type
}

func (r *Registry) object(name, description string) *objectBuilder {
	t := schema.NewType(name, schema.TypeKindObject, description)
	r.schema.AddType(t)
	return &objectBuilder{r: r, t: t}
}

func (b *objectBuilder) add(name string, typ *schema.TypeRef, async bool, fn resolveFunc, args []*schema.InputValue) *objectBuilder {
	f := schema.NewField(name, "", typ).SetAsync(async)
	for _, a := range args {
		f.AddArgument(a)
	}
	b.t.AddField(f)
	b.r.resolvers[b.t.Name+"."+name] = fn
	return b
}

func (b *objectBuilder) stored(name string, typ *schema.TypeRef, get func(source any) (any, bool)) *objectBuilder {
	typeName := b.t.Name
	return b.add(name, typ, false, func(_ context.Context, _ *resolveContext, source any, _ map[string]any) (any, error) {
		v, ok := get(source)
		if !ok {
			return nil, &SchemaMismatchError{Type: typeName, Field: name, Value: source}
		}
		return v, nil
	}, nil)
}

func (b *objectBuilder) relational(name string, typ *schema.TypeRef, fn resolveFunc, args ...*schema.InputValue) *objectBuilder {
	return b.add(name, typ, true, fn, args)
}

func (b *objectBuilder) mutation(name string, typ *schema.TypeRef, fn resolveFunc, args ...*schema.InputValue) *objectBuilder {
	return b.add(name, typ, false, fn, args)
}
