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
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// CachedStore is a Store that remembers books of recently requested authors across requests in an
// expiring LRU cache. Only names missing from the cache are forwarded to the underlying Store, in
// the order they were requested.
type CachedStore struct {
	Store
	books *expirable.LRU[string, []Book]
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps store with a cache holding at most size authors for ttl each. A ttl of zero
// keeps entries until they are evicted by size.
func NewCachedStore(store Store, size int, ttl time.Duration) (*CachedStore, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive but got %d", size)
	}
	return &CachedStore{
		Store: store,
		books: expirable.NewLRU[string, []Book](size, nil, ttl),
	}, nil
}

// BooksByAuthors implements Store.
func (store *CachedStore) BooksByAuthors(ctx context.Context, names []string) ([][]Book, error) {
	var (
		result = make([][]Book, len(names))

		// Names not found in cache and their positions in result
		missNames     []string
		missPositions []int
	)

	for i, name := range names {
		if books, ok := store.books.Get(name); ok {
			result[i] = append([]Book{}, books...)
		} else {
			missNames = append(missNames, name)
			missPositions = append(missPositions, i)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Int("hits", len(names)-len(missNames)).
		Int("misses", len(missNames)).
		Msg("book cache lookup")

	if len(missNames) == 0 {
		return result, nil
	}

	loaded, err := store.Store.BooksByAuthors(ctx, missNames)
	if err != nil {
		return nil, err
	}
	if len(loaded) != len(missNames) {
		return nil, fmt.Errorf("store returned %d result(s) for %d author(s)", len(loaded), len(missNames))
	}

	for i, books := range loaded {
		if books == nil {
			books = []Book{}
		}
		store.books.Add(missNames[i], books)
		result[missPositions[i]] = append([]Book{}, books...)
	}
	return result, nil
}

// Purge drops every cached entry.
func (store *CachedStore) Purge() {
	store.books.Purge()
}
