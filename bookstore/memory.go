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

package bookstore

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MemoryStore is a Store that keeps authors and books in memory. It is immutable once created and
// safe for concurrent use.
type MemoryStore struct {
	authors []Author
	books   map[string][]Book

	// Simulated round trip time of each call
	latency time.Duration
}

var _ Store = (*MemoryStore)(nil)

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(store *MemoryStore)

// WithLatency makes every call to the store take d before returning.
func WithLatency(d time.Duration) MemoryStoreOption {
	return func(store *MemoryStore) {
		store.latency = d
	}
}

// NewMemoryStore creates a MemoryStore from given authors and books. Books are kept in the given
// order for each author.
func NewMemoryStore(authors []Author, books []Book, opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		authors: append([]Author(nil), authors...),
		books:   map[string][]Book{},
	}
	for _, book := range books {
		store.books[book.Author] = append(store.books[book.Author], book)
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// DefaultAuthors returns the authors served when no fixtures are configured.
func DefaultAuthors() []Author {
	return []Author{
		{Name: "Kate Chopin"},
		{Name: "Paul Auster"},
	}
}

// DefaultBooks returns the books served when no fixtures are configured.
func DefaultBooks() []Book {
	return []Book{
		{Title: "The Awakening", Author: "Kate Chopin"},
		{Title: "City of Glass", Author: "Paul Auster"},
		{Title: "Book 1", Author: "Paul Auster"},
		{Title: "Book 2", Author: "Paul Auster"},
	}
}

// Default creates a MemoryStore with DefaultAuthors and DefaultBooks.
func Default(opts ...MemoryStoreOption) *MemoryStore {
	return NewMemoryStore(DefaultAuthors(), DefaultBooks(), opts...)
}

func (store *MemoryStore) wait(ctx context.Context) error {
	if store.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(store.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Authors implements Store.
func (store *MemoryStore) Authors(ctx context.Context) ([]Author, error) {
	if err := store.wait(ctx); err != nil {
		return nil, err
	}
	return append([]Author(nil), store.authors...), nil
}

// BooksByAuthors implements Store.
func (store *MemoryStore) BooksByAuthors(ctx context.Context, names []string) ([][]Book, error) {
	zerolog.Ctx(ctx).Info().
		Strs("authors", names).
		Msg("loading books")

	result := make([][]Book, len(names))
	for i, name := range names {
		result[i] = append([]Book{}, store.books[name]...)
	}

	if err := store.wait(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
