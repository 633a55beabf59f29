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

package bookshelf_test

import (
	"context"
	"errors"
	"sync"

	"github.com/botobag/bookshelf/bookshelf"
	"github.com/botobag/bookshelf/bookstore"
	"github.com/botobag/bookshelf/concurrent/future"
	"github.com/botobag/bookshelf/dataloader"
	"github.com/botobag/bookshelf/graphql"

	"github.com/vektah/gqlparser/v2/ast"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// flakyStore records every batch and fails the first failures of them.
type flakyStore struct {
	bookstore.Store

	mutex    sync.Mutex
	calls    [][]string
	failures int
}

var errStoreUnavailable = errors.New("store unavailable")

func (store *flakyStore) BooksByAuthors(ctx context.Context, names []string) ([][]bookstore.Book, error) {
	store.mutex.Lock()
	store.calls = append(store.calls, append([]string(nil), names...))
	fail := store.failures > 0
	if fail {
		store.failures--
	}
	store.mutex.Unlock()

	if fail {
		return nil, errStoreUnavailable
	}
	return store.Store.BooksByAuthors(ctx, names)
}

func (store *flakyStore) Calls() [][]string {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.calls
}

func titlesOf(books []bookstore.Book) []string {
	titles := make([]string, len(books))
	for i, book := range books {
		titles[i] = book.Title
	}
	return titles
}

var _ = Describe("Resolvers", func() {
	var (
		store     *flakyStore
		resolvers *bookshelf.Resolvers
		ctx       context.Context
		manager   *dataloader.Manager
	)

	BeforeEach(func() {
		store = &flakyStore{Store: bookstore.Default()}
		resolvers = bookshelf.NewResolvers(store, bookshelf.LoaderConfig{})
		manager = dataloader.NewManager()
		ctx = dataloader.NewContext(context.Background(), manager)
	})

	It("lists the authors", func() {
		authors, err := resolvers.Authors(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(authors).Should(Equal([]bookstore.Author{
			{Name: "Kate Chopin"},
			{Name: "Paul Auster"},
		}))
	})

	It("fetches the books of all requested authors in one batch", func() {
		chopin := resolvers.BooksByAuthor(ctx, "Kate Chopin")
		auster := resolvers.BooksByAuthor(ctx, "Paul Auster")
		again := resolvers.BooksByAuthor(ctx, "Kate Chopin")
		Expect(store.Calls()).Should(BeEmpty())

		manager.DispatchAll(ctx)

		chopinBooks, err := future.BlockOn(ctx, chopin)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(titlesOf(chopinBooks)).Should(Equal([]string{"The Awakening"}))

		austerBooks, err := future.BlockOn(ctx, auster)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(titlesOf(austerBooks)).Should(Equal([]string{"City of Glass", "Book 1", "Book 2"}))

		againBooks, err := future.BlockOn(ctx, again)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(againBooks).Should(Equal(chopinBooks))

		Expect(store.Calls()).Should(Equal([][]string{{"Kate Chopin", "Paul Auster"}}))

		// Cached for the lifetime of the loader.
		cached := resolvers.BooksByAuthor(ctx, "Paul Auster")
		Expect(manager.HasPending()).Should(BeFalse())
		Expect(future.BlockOn(ctx, cached)).Should(Equal(austerBooks))
		Expect(store.Calls()).Should(HaveLen(1))
	})

	It("gives unknown authors an empty list", func() {
		nobody := resolvers.BooksByAuthor(ctx, "Nobody")
		manager.DispatchAll(ctx)
		Expect(future.BlockOn(ctx, nobody)).Should(BeEmpty())
	})

	It("rejects every key of a failed batch and retries them on a later load", func() {
		store.failures = 1

		chopin := resolvers.BooksByAuthor(ctx, "Kate Chopin")
		auster := resolvers.BooksByAuthor(ctx, "Paul Auster")
		manager.DispatchAll(ctx)

		for _, f := range []future.Future[[]bookstore.Book]{chopin, auster} {
			_, err := future.BlockOn(ctx, f)
			var batchErr *dataloader.BatchFetchError
			Expect(errors.As(err, &batchErr)).Should(BeTrue())
			Expect(batchErr.Keys).Should(Equal([]interface{}{"Kate Chopin", "Paul Auster"}))
			Expect(errors.Is(err, errStoreUnavailable)).Should(BeTrue())
		}

		retry := resolvers.BooksByAuthor(ctx, "Kate Chopin")
		manager.DispatchAll(ctx)
		books, err := future.BlockOn(ctx, retry)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(titlesOf(books)).Should(Equal([]string{"The Awakening"}))

		Expect(store.Calls()).Should(Equal([][]string{
			{"Kate Chopin", "Paul Auster"},
			{"Kate Chopin"},
		}))
	})

	It("splits batches by the configured size", func() {
		resolvers = bookshelf.NewResolvers(store, bookshelf.LoaderConfig{MaxBatchSize: 1})
		resolvers.BooksByAuthor(ctx, "Kate Chopin")
		resolvers.BooksByAuthor(ctx, "Paul Auster")
		manager.DispatchAll(ctx)

		Expect(store.Calls()).Should(Equal([][]string{{"Kate Chopin"}, {"Paul Auster"}}))
	})

	It("requires a dataloader.Manager in the context", func() {
		_, err := future.BlockOn(context.Background(), resolvers.BooksByAuthor(context.Background(), "Kate Chopin"))
		Expect(err).Should(HaveOccurred())
	})
})

var _ = Describe("Schema", func() {
	var (
		store  *flakyStore
		schema *graphql.Schema
	)

	const query = `{ authors { name books { title } } }`

	BeforeEach(func() {
		store = &flakyStore{Store: bookstore.Default()}

		var err error
		schema, err = bookshelf.NewSchema(store, bookshelf.LoaderConfig{})
		Expect(err).ShouldNot(HaveOccurred())
	})

	It("declares Author, Book and Query", func() {
		types := schema.AST().Types
		Expect(types["Author"].Fields.ForName("name").Type.String()).Should(Equal("String"))
		Expect(types["Author"].Fields.ForName("books").Type.String()).Should(Equal("[Book]"))
		Expect(types["Book"].Fields.ForName("title").Type.String()).Should(Equal("String"))
		Expect(schema.AST().Query.Fields.ForName("authors").Type.String()).Should(Equal("[Author]"))
	})

	It("resolves the books of every author with one fetch", func() {
		result := schema.Execute(context.Background(), graphql.ExecuteParams{Query: query})

		Expect(result.Errors).Should(BeEmpty())
		Expect(string(result.Data)).Should(MatchJSON(`{
			"authors": [
				{
					"name": "Kate Chopin",
					"books": [{ "title": "The Awakening" }]
				},
				{
					"name": "Paul Auster",
					"books": [
						{ "title": "City of Glass" },
						{ "title": "Book 1" },
						{ "title": "Book 2" }
					]
				}
			]
		}`))
		Expect(store.Calls()).Should(Equal([][]string{{"Kate Chopin", "Paul Auster"}}))
	})

	It("returns partial results when the store fails", func() {
		store.failures = 1

		result := schema.Execute(context.Background(), graphql.ExecuteParams{Query: query})

		Expect(string(result.Data)).Should(MatchJSON(`{
			"authors": [
				{ "name": "Kate Chopin", "books": null },
				{ "name": "Paul Auster", "books": null }
			]
		}`))
		Expect(result.Errors).Should(HaveLen(2))
		Expect(result.Errors[0].Path).Should(Equal(ast.Path{
			ast.PathName("authors"), ast.PathIndex(0), ast.PathName("books"),
		}))
		Expect(result.Errors[1].Path).Should(Equal(ast.Path{
			ast.PathName("authors"), ast.PathIndex(1), ast.PathName("books"),
		}))
		for _, err := range result.Errors {
			Expect(err.Message).Should(ContainSubstring("store unavailable"))
		}

		// The next request gets fresh loaders and succeeds.
		result = schema.Execute(context.Background(), graphql.ExecuteParams{Query: query})
		Expect(result.Errors).Should(BeEmpty())
		Expect(store.Calls()).Should(HaveLen(2))
	})

	It("serves the same query through the executable schema", func() {
		es, err := bookshelf.NewExecutableSchema(store, bookshelf.LoaderConfig{})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(es.Schema().Types).Should(HaveKey("Author"))
		Expect(es.Executable()).ShouldNot(BeNil())
	})
})
