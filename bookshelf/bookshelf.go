/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package bookshelf exposes the authors and books of a bookstore.Store as a GraphQL API. The books
// of every author selected in one level of a query are fetched with a single call to the store.
package bookshelf

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/botobag/bookshelf/bookstore"
	"github.com/botobag/bookshelf/concurrent/future"
	"github.com/botobag/bookshelf/dataloader"
	"github.com/botobag/bookshelf/graphql"

	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var schemaSDL string

// Source returns the SDL of the bookshelf schema.
func Source() *ast.Source {
	return &ast.Source{
		Name:  "schema.graphql",
		Input: schemaSDL,
	}
}

// errNoLoaders is returned when the books of an author are requested outside an execution.
var errNoLoaders = errors.New("context does not carry a dataloader.Manager")

// LoaderConfig configures the loader of books.
type LoaderConfig struct {
	// Maximum number of authors in one call to the store; 0 means unlimited.
	MaxBatchSize int

	// When greater than zero, pending authors are dispatched after Wait even if the executor hasn't
	// flushed the loaders yet.
	Wait time.Duration
}

// Resolvers resolves the fields of the bookshelf schema against a store.
type Resolvers struct {
	store       bookstore.Store
	booksLoader *dataloader.RegisterInfo[string, []bookstore.Book]
}

// NewResolvers creates Resolvers serving data from store.
func NewResolvers(store bookstore.Store, config LoaderConfig) *Resolvers {
	r := &Resolvers{
		store: store,
	}

	r.booksLoader = &dataloader.RegisterInfo[string, []bookstore.Book]{
		Key: "bookshelf.books",
		Factory: dataloader.FactoryFunc[string, []bookstore.Book](func() (*dataloader.Loader[string, []bookstore.Book], error) {
			return dataloader.New(dataloader.Config[string, []bookstore.Book]{
				BatchFunc:    r.loadBooks,
				MaxBatchSize: config.MaxBatchSize,
				Wait:         config.Wait,
			})
		}),
	}

	return r
}

// Authors returns every author in the store.
func (r *Resolvers) Authors(ctx context.Context) ([]bookstore.Author, error) {
	authors, err := r.store.Authors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	return authors, nil
}

// BooksByAuthor requests the books of the named author from the books loader of the
// dataloader.Manager in ctx. The returned future completes once the loader is dispatched.
func (r *Resolvers) BooksByAuthor(ctx context.Context, name string) future.Future[[]bookstore.Book] {
	manager := dataloader.FromContext(ctx)
	if manager == nil {
		return future.Err[[]bookstore.Book](errNoLoaders)
	}

	loader, err := dataloader.GetOrCreate(manager, r.booksLoader)
	if err != nil {
		return future.Err[[]bookstore.Book](err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("author", name).
		Msg("fetching books")

	return loader.Load(name)
}

func (r *Resolvers) loadBooks(ctx context.Context, names []string) ([][]bookstore.Book, error) {
	books, err := r.store.BooksByAuthors(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Strs("authors", names).
		Msg("fetched books")

	return books, nil
}

// ResolverMap binds the resolvers to the fields of the schema. Author.name and Book.title are read
// from bookstore.Author and bookstore.Book by the default field resolver.
func (r *Resolvers) ResolverMap() graphql.ResolverMap {
	return graphql.ResolverMap{}.
		SetFunc("Query", "authors", func(ctx context.Context, source interface{}, info *graphql.ResolveInfo) (interface{}, error) {
			return r.Authors(ctx)
		}).
		SetFunc("Author", "books", func(ctx context.Context, source interface{}, info *graphql.ResolveInfo) (interface{}, error) {
			name, err := authorName(source)
			if err != nil {
				return nil, err
			}
			return future.Any(r.BooksByAuthor(ctx, name)), nil
		})
}

func authorName(source interface{}) (string, error) {
	switch author := source.(type) {
	case bookstore.Author:
		return author.Name, nil
	case *bookstore.Author:
		if author != nil {
			return author.Name, nil
		}
	}
	return "", fmt.Errorf("unexpected source %T for Author.books", source)
}

// NewSchema builds the executable bookshelf schema.
func NewSchema(store bookstore.Store, config LoaderConfig) (*graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Sources:   []*ast.Source{Source()},
		Resolvers: NewResolvers(store, config).ResolverMap(),
	})
}

// NewExecutableSchema builds the bookshelf schema for gqlgen's handler.
func NewExecutableSchema(store bookstore.Store, config LoaderConfig) (*graphql.ExecutableSchema, error) {
	schema, err := NewSchema(store, config)
	if err != nil {
		return nil, err
	}
	return graphql.NewExecutableSchema(schema, nil), nil
}
