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

// Package bookstore provides the backing store of authors and their books.
package bookstore

import (
	"context"
)

// Author writes books. Name uniquely identifies an author.
type Author struct {
	Name string `yaml:"name"`
}

// Book is written by the author whose name is Author.
type Book struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// Store is the authoritative source of authors and books.
type Store interface {
	// Authors returns all authors.
	Authors(ctx context.Context) ([]Author, error)

	// BooksByAuthors returns the books of each given author name. The result is positionally
	// aligned with names: it has the same length and result[i] holds the books of names[i]. An
	// unknown name gets an empty (non-nil) slice.
	BooksByAuthors(ctx context.Context, names []string) ([][]Book, error)
}
